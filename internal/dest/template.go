package dest

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/bamsammich/ferry/internal/digest"
)

var (
	extToken      = regexp.MustCompile(`\.?\[ext\]`)
	bracketToken  = regexp.MustCompile(`\[([^\[\]]+)\]`)
	hashSpec      = regexp.MustCompile(`(?i)^(?:([^:]+):)?(?:hash|contenthash)(?::([a-z]+\d*))?(?::(\d+))?$`)
	lengthSpec    = regexp.MustCompile(`^\d+$`)
	unclosedToken = regexp.MustCompile(`(?i)\[(?:name|ext|path|folder|hash|contenthash|\d+)[^\]]*$`)
	parentDir     = regexp.MustCompile(`\.\.(/)?`)
)

// ErrTemplate is wrapped by every template interpolation failure.
var ErrTemplate = errors.New("malformed template")

// Interpolate expands template against a file's slash-separated path
// relative to its context and its (transformed) content. Tokens:
//
//	[name]    basename without extension
//	[ext]     extension without the dot
//	[path]    directory with a trailing slash, "" at the root
//	[folder]  last directory name
//	[hash], [contenthash], [hash:N], [N]
//	[<algorithm>:hash:<encoding>:<N>]
//
// Unknown tokens are left untouched. A dotfile without a further extension
// keeps its leading dot and is not treated as an extension, and [ext]
// (with a preceding dot) disappears for extension-less files.
func Interpolate(template, relativeFrom string, content []byte) (string, error) {
	if unclosedToken.MatchString(template) {
		return "", fmt.Errorf("%w: unterminated token in %q", ErrTemplate, template)
	}

	rel := strings.TrimPrefix(relativeFrom, "/")
	dir, base := path.Split(rel)

	dotRemoved := false
	if len(base) > 1 && base[0] == '.' && path.Ext(base[1:]) == "" {
		base = base[1:]
		dotRemoved = true
	}
	rel = dir + base

	ext := path.Ext(base)
	if ext == "" {
		template = extToken.ReplaceAllString(template, "")
	}

	// Anchor at the root so a top-level file has an empty [path].
	if !strings.Contains(rel, "/") {
		rel = "/" + rel
	}

	var pathTok, folder string
	if d := path.Dir(rel); d != "/" {
		pathTok = parentDir.ReplaceAllString(d+"/", "_$1")
		folder = path.Base(d)
	}

	tokens := map[string]string{
		"name":   strings.TrimSuffix(base, ext),
		"ext":    strings.TrimPrefix(ext, "."),
		"path":   pathTok,
		"folder": folder,
	}

	var firstErr error
	out := bracketToken.ReplaceAllStringFunc(template, func(tok string) string {
		inner := tok[1 : len(tok)-1]
		if v, ok := tokens[strings.ToLower(inner)]; ok {
			return v
		}

		var algorithm, encoding, length string
		switch {
		case lengthSpec.MatchString(inner):
			length = inner
		case hashSpec.MatchString(inner):
			m := hashSpec.FindStringSubmatch(inner)
			algorithm, encoding, length = m[1], m[2], m[3]
		default:
			return tok
		}

		sum, err := hashToken(algorithm, encoding, length, content)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s: %w", ErrTemplate, tok, err)
			}
			return tok
		}
		return sum
	})
	if firstErr != nil {
		return "", firstErr
	}

	if dotRemoved {
		out = path.Join(path.Dir(out), "."+path.Base(out))
	}
	return out, nil
}

func hashToken(algorithm, encoding, length string, content []byte) (string, error) {
	sum, err := digest.Compute(algorithm, encoding, content)
	if err != nil {
		return "", err
	}
	if length == "" {
		return sum, nil
	}
	n, err := strconv.Atoi(length)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid hash length %q", length)
	}
	if n < len(sum) {
		sum = sum[:n]
	}
	return sum, nil
}
