package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// compiledPattern is a validated ignore glob that can match relative paths.
type compiledPattern struct {
	original string
	glob     string
	anchored bool // pattern starts with /
	dirOnly  bool // pattern ends with /
	baseOnly bool // pattern has no /, so it is tried against the basename
	noCase   bool
}

// compilePattern validates a glob and records how it should be applied.
func compilePattern(pattern string, noCase bool) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern, noCase: noCase}

	// Trailing / means directory-only.
	if strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// Leading / means anchored to the pattern's context.
	if strings.HasPrefix(pattern, "/") {
		cp.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}

	if pattern == "" {
		return nil, fmt.Errorf("empty ignore pattern %q", cp.original)
	}

	cp.baseOnly = !cp.anchored && !strings.Contains(pattern, "/")

	if noCase {
		pattern = strings.ToLower(pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid ignore pattern %q", cp.original)
	}
	cp.glob = pattern
	return cp, nil
}

// match tests whether a slash-separated relative path matches this pattern.
// Directory-only patterns match when any ancestor directory matches.
func (cp *compiledPattern) match(relPath string) bool {
	relPath = strings.TrimPrefix(relPath, "/")
	if cp.noCase {
		relPath = strings.ToLower(relPath)
	}

	if !cp.dirOnly {
		return cp.matchOne(relPath)
	}

	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if cp.matchOne(dir) {
			return true
		}
	}
	return false
}

func (cp *compiledPattern) matchOne(p string) bool {
	if cp.baseOnly {
		p = path.Base(p)
	}
	ok, err := doublestar.Match(cp.glob, p)
	return err == nil && ok
}

func (cp *compiledPattern) String() string {
	return cp.original
}
