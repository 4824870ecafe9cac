package pattern

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DirGlob is the expansion used for directory patterns.
const DirGlob = "**/*"

var templateToken = regexp.MustCompile(`\[\w+(:\w+)*\]`)

// Resolved is a Spec after its source has been located. It is created once
// per pattern per build and not mutated afterwards.
type Resolved struct {
	Spec

	// AbsoluteFrom is the absolute source path (file, directory, or glob
	// expression).
	AbsoluteFrom string
	// Context is the directory relative paths are computed from.
	Context string
	// Expr is the slash-separated glob expanded beneath Context. Empty for
	// FromFile.
	Expr     string
	FromType FromType
}

// Resolve locates spec's source relative to globalContext and infers its
// source and destination types. globalIgnore is prepended to the pattern's
// own ignore rules.
func Resolve(fsys afero.Fs, globalContext string, globalIgnore []string, spec Spec) (*Resolved, error) {
	if err := spec.Validate(); err != nil {
		return nil, NewError(spec.From, "resolve", "", err)
	}

	contextDir := globalContext
	if spec.Context != "" {
		if filepath.IsAbs(spec.Context) {
			contextDir = filepath.Clean(spec.Context)
		} else {
			contextDir = filepath.Join(globalContext, spec.Context)
		}
	}

	r := &Resolved{Spec: spec, Context: contextDir}
	r.Ignore = append(append([]string(nil), globalIgnore...), spec.Ignore...)
	r.To = normalizeTo(spec.To)
	r.ToType = inferToType(spec.ToType, spec.To)

	if filepath.IsAbs(spec.From) {
		r.AbsoluteFrom = filepath.Clean(spec.From)
	} else {
		r.AbsoluteFrom = filepath.Join(contextDir, spec.From)
	}

	if HasMeta(spec.From) {
		return resolveGlob(fsys, r)
	}

	info, err := fsys.Stat(r.AbsoluteFrom)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewError(spec.From, "resolve", r.AbsoluteFrom,
				fmt.Errorf("unable to locate %q: %w", spec.From, err))
		}
		return nil, NewError(spec.From, "stat", r.AbsoluteFrom, err)
	}

	switch {
	case info.IsDir():
		r.FromType = FromDir
		r.Context = r.AbsoluteFrom
		r.Expr = DirGlob
	case info.Mode().IsRegular():
		r.FromType = FromFile
		r.Context = filepath.Dir(r.AbsoluteFrom)
	default:
		return nil, NewError(spec.From, "resolve", r.AbsoluteFrom,
			fmt.Errorf("unsupported file type %s", info.Mode().Type()))
	}
	return r, nil
}

// HasMeta reports whether s contains glob syntax.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func resolveGlob(fsys afero.Fs, r *Resolved) (*Resolved, error) {
	r.FromType = FromGlob

	expr := filepath.ToSlash(r.From)
	if filepath.IsAbs(r.From) {
		// Anchor the context at the glob's static prefix.
		base, rest := doublestar.SplitPattern(filepath.ToSlash(r.AbsoluteFrom))
		r.Context = filepath.FromSlash(base)
		expr = rest
	}
	expr = strings.TrimPrefix(expr, "./")

	if !doublestar.ValidatePattern(expr) {
		return nil, NewError(r.From, "resolve", r.AbsoluteFrom,
			fmt.Errorf("invalid glob %q", r.From))
	}
	r.Expr = expr

	root, _ := doublestar.SplitPattern(expr)
	rootPath := r.Context
	if root != "." {
		rootPath = filepath.Join(r.Context, filepath.FromSlash(root))
	}
	info, err := fsys.Stat(rootPath)
	if err != nil {
		return nil, NewError(r.From, "resolve", rootPath,
			fmt.Errorf("glob root %q: %w", rootPath, err))
	}
	if !info.IsDir() {
		return nil, NewError(r.From, "resolve", rootPath,
			fmt.Errorf("glob root %q is not a directory", rootPath))
	}
	return r, nil
}

func inferToType(explicit ToType, to string) ToType {
	if explicit != ToUnset {
		return explicit
	}
	if templateToken.MatchString(to) {
		return ToTemplate
	}
	if to == "" || filepath.Ext(to) == "" ||
		strings.HasSuffix(to, "/") || strings.HasSuffix(to, string(filepath.Separator)) {
		return ToDir
	}
	return ToFile
}

func normalizeTo(to string) string {
	if to == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(to))
}

// IsTemplate reports whether s contains a template token.
func IsTemplate(s string) bool {
	return templateToken.MatchString(s)
}
