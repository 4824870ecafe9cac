// Package expand turns a resolved pattern into the concrete files it names.
package expand

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/bamsammich/ferry/internal/filter"
	"github.com/bamsammich/ferry/internal/pattern"
)

// Match is one path produced by expansion.
type Match struct {
	// AbsoluteFrom is the absolute source path.
	AbsoluteFrom string
	// RelativeFrom is AbsoluteFrom relative to the pattern's context,
	// slash-separated.
	RelativeFrom string
}

// Expand returns the paths r names, in lexical order. File patterns yield
// their single source with no ignore filtering. Directory and glob patterns
// walk beneath the glob's static prefix and keep every entry that matches
// the glob and survives the ignore rules; directories may be among the
// results. An empty result is not an error.
func Expand(ctx context.Context, fsys afero.Fs, r *pattern.Resolved) ([]Match, error) {
	if r.FromType == pattern.FromFile {
		return []Match{{
			AbsoluteFrom: r.AbsoluteFrom,
			RelativeFrom: filepath.Base(r.AbsoluteFrom),
		}}, nil
	}

	ignore, err := filter.FromRules(r.Ignore, r.Glob.NoCase)
	if err != nil {
		return nil, pattern.NewError(r.From, "ignore", r.AbsoluteFrom, err)
	}

	glob := r.Expr
	if r.Glob.NoCase {
		glob = strings.ToLower(glob)
	}

	root := r.Context
	if base, _ := doublestar.SplitPattern(r.Expr); base != "." {
		root = filepath.Join(r.Context, filepath.FromSlash(base))
	}

	var matches []Match
	walkErr := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root && info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(r.Context, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if r.Glob.NoDot && isDotPath(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		subject := rel
		if r.Glob.NoCase {
			subject = strings.ToLower(rel)
		}
		if ok, _ := doublestar.Match(glob, subject); !ok {
			return nil
		}
		if !ignore.Match(rel) {
			return nil
		}

		matches = append(matches, Match{AbsoluteFrom: p, RelativeFrom: rel})
		return nil
	})
	if walkErr != nil {
		return nil, pattern.NewError(r.From, "expand", root, walkErr)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].RelativeFrom < matches[j].RelativeFrom
	})
	return matches, nil
}

func isDotPath(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
