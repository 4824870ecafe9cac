package pattern

import (
	"errors"
	"fmt"
)

// Error records a failure scoped to one pattern, or to one file within it.
// It never aborts sibling patterns.
type Error struct {
	Err     error
	Pattern string // the pattern's from
	Path    string // absolute source path, when known
	Op      string // resolve, stat, read, transform, template
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pattern %q: %s: %v", e.Pattern, e.Op, e.Err)
	}
	return fmt.Sprintf("pattern %q: %s %s: %v", e.Pattern, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a pattern Error.
func NewError(from, op, path string, err error) *Error {
	return &Error{Pattern: from, Op: op, Path: path, Err: err}
}

// IsPatternError reports whether err carries a pattern Error.
func IsPatternError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
