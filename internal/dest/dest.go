// Package dest computes where a copied file lands in the build output.
package dest

import (
	"errors"
	"path"
	"path/filepath"

	"github.com/bamsammich/ferry/internal/pattern"
)

// ErrAbsoluteTo is returned when a destination is absolute but there is no
// concrete output root to make it relative to.
var ErrAbsoluteTo = errors.New("absolute destination requires an output path other than /")

// Input is everything Destination needs to know about one file.
type Input struct {
	Content      []byte // transformed content, consulted by [hash] tokens
	RelativeFrom string // relative to the pattern's context
	To           string // the pattern's to, slash-separated
	OutputRoot   string
	ToType       pattern.ToType
	Flatten      bool
}

// Destination returns the output-relative, slash-separated destination for
// one file. It is a pure function of its input.
func Destination(in Input) (string, error) {
	rel := filepath.ToSlash(in.RelativeFrom)
	if in.Flatten {
		rel = path.Base(rel)
	}

	var to string
	switch in.ToType {
	case pattern.ToTemplate:
		out, err := Interpolate(in.To, rel, in.Content)
		if err != nil {
			return "", err
		}
		to = out
	case pattern.ToFile:
		to = in.To
		if to == "" {
			to = rel
		}
	default:
		to = path.Join(in.To, rel)
	}

	if path.IsAbs(to) {
		if in.OutputRoot == "" || in.OutputRoot == "/" {
			return "", ErrAbsoluteTo
		}
		r, err := filepath.Rel(in.OutputRoot, filepath.FromSlash(to))
		if err != nil {
			return "", err
		}
		to = filepath.ToSlash(r)
	}

	return path.Clean(to), nil
}
