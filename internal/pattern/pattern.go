package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// FromType identifies how a pattern's source expands into files.
type FromType int

const (
	FromFile FromType = iota + 1
	FromDir
	FromGlob
)

var fromTypeNames = [...]string{
	FromFile: "file",
	FromDir:  "dir",
	FromGlob: "glob",
}

func (t FromType) String() string {
	if t > 0 && int(t) < len(fromTypeNames) {
		return fromTypeNames[t]
	}
	return "unknown"
}

// ToType identifies how a pattern's destination is interpreted.
type ToType int

const (
	ToUnset ToType = iota
	ToFile
	ToDir
	ToTemplate
)

var toTypeNames = [...]string{
	ToUnset:    "",
	ToFile:     "file",
	ToDir:      "dir",
	ToTemplate: "template",
}

func (t ToType) String() string {
	if int(t) < len(toTypeNames) {
		return toTypeNames[t]
	}
	return "unknown"
}

// ParseToType parses "file", "dir" or "template". The empty string yields
// ToUnset, which leaves the type to be inferred from To.
func ParseToType(s string) (ToType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ToUnset, nil
	case "file":
		return ToFile, nil
	case "dir":
		return ToDir, nil
	case "template":
		return ToTemplate, nil
	default:
		return ToUnset, fmt.Errorf("invalid toType %q (want file, dir or template)", s)
	}
}

// TransformFunc rewrites a file's content before it is hashed and written.
type TransformFunc func(content []byte, absoluteFrom string) ([]byte, error)

// GlobOptions tunes expansion and ignore matching for one pattern.
// Dotfiles are matched and matching is case-sensitive unless set.
type GlobOptions struct {
	NoDot  bool
	NoCase bool
}

// Spec is one user-supplied copy rule.
type Spec struct {
	Transform       TransformFunc
	From            string
	To              string
	Context         string
	Ignore          []string
	ToType          ToType
	Glob            GlobOptions
	Flatten         bool
	Force           bool
	CopyPermissions bool
}

// Validate checks the parts of a Spec that can be checked without touching
// the filesystem.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.From) == "" {
		return errors.New("pattern has an empty from")
	}
	if s.ToType < ToUnset || s.ToType > ToTemplate {
		return fmt.Errorf("pattern %q: invalid toType %d", s.From, s.ToType)
	}
	return nil
}

func (s Spec) String() string {
	if s.To == "" {
		return s.From
	}
	return s.From + " -> " + s.To
}
