package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/bamsammich/ferry/internal/pattern"
)

// ProjectFiles are the names FindProject looks for, in order.
var ProjectFiles = []string{"ferry.toml", "ferry.yaml", "ferry.yml"}

//go:embed schema.json
var schemaJSON []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Project is a ferry.toml or ferry.yaml file.
type Project struct {
	// Context and Output are absolute once loaded; relative values in the
	// file resolve against the file's directory.
	Context         string          `json:"context"`
	Output          string          `json:"output"`
	DevServerOutput string          `json:"dev_server_output"`
	Options         ProjectOptions  `json:"options"`
	Patterns        []PatternConfig `json:"patterns"`

	// Path is the file the project was loaded from.
	Path string `json:"-"`
}

// ProjectOptions are the plugin-wide options.
type ProjectOptions struct {
	Ignore          []string `json:"ignore"`
	CopyUnmodified  bool     `json:"copy_unmodified"`
	Concurrency     int      `json:"concurrency"`
	FileConcurrency int      `json:"file_concurrency"`
	Debug           any      `json:"debug"` // bool or level name
}

// DebugLevel returns the debug option as a level name. true means "info".
func (o ProjectOptions) DebugLevel() string {
	switch v := o.Debug.(type) {
	case bool:
		if v {
			return "info"
		}
		return "warning"
	case string:
		return v
	default:
		return ""
	}
}

// PatternConfig is one pattern as written in a project file.
type PatternConfig struct {
	From            string     `json:"from"`
	To              string     `json:"to"`
	Context         string     `json:"context"`
	ToType          string     `json:"to_type"`
	Ignore          []string   `json:"ignore"`
	Glob            GlobConfig `json:"glob"`
	Flatten         bool       `json:"flatten"`
	Force           bool       `json:"force"`
	CopyPermissions bool       `json:"copy_permissions"`
}

// GlobConfig mirrors pattern.GlobOptions.
type GlobConfig struct {
	NoDot  bool `json:"no_dot"`
	NoCase bool `json:"no_case"`
}

// Spec converts the pattern to a pattern.Spec.
func (c PatternConfig) Spec() (pattern.Spec, error) {
	toType, err := pattern.ParseToType(c.ToType)
	if err != nil {
		return pattern.Spec{}, err
	}
	return pattern.Spec{
		From:            c.From,
		To:              c.To,
		Context:         c.Context,
		Ignore:          c.Ignore,
		ToType:          toType,
		Glob:            pattern.GlobOptions{NoDot: c.Glob.NoDot, NoCase: c.Glob.NoCase},
		Flatten:         c.Flatten,
		Force:           c.Force,
		CopyPermissions: c.CopyPermissions,
	}, nil
}

// Specs converts every pattern.
func (p *Project) Specs() ([]pattern.Spec, error) {
	specs := make([]pattern.Spec, 0, len(p.Patterns))
	for i, c := range p.Patterns {
		s, err := c.Spec()
		if err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// FindProject returns the first project file in dir, or "" when there is
// none.
func FindProject(dir string) string {
	for _, name := range ProjectFiles {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// ValidationError lists every schema violation in a project file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid config: %s", e.Path, strings.Join(e.Problems, "; "))
}

// LoadProject reads, validates and decodes a project file. The format is
// chosen by extension.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := validate(path, raw); err != nil {
		return nil, err
	}
	normalizePatterns(raw)

	// The validated document is re-encoded so both formats decode through
	// one set of field tags.
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var p Project
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p.Path = abs
	dir := filepath.Dir(abs)
	p.Context = resolveAgainst(dir, p.Context)
	if p.Output != "" {
		p.Output = resolveAgainst(dir, p.Output)
	}
	if p.DevServerOutput != "" {
		p.DevServerOutput = resolveAgainst(dir, p.DevServerOutput)
	}
	return &p, nil
}

func validate(path string, raw map[string]any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Path: path}
	for _, e := range result.Errors() {
		field := e.Field()
		if field == "" || field == "(root)" {
			field = "root"
		}
		verr.Problems = append(verr.Problems, field+": "+e.Description())
	}
	return verr
}

// normalizePatterns rewrites bare string patterns as {from: ...}.
func normalizePatterns(raw map[string]any) {
	items, ok := raw["patterns"].([]any)
	if !ok {
		return
	}
	for i, item := range items {
		if s, ok := item.(string); ok {
			items[i] = map[string]any{"from": s}
		}
	}
}

func resolveAgainst(dir, p string) string {
	if p == "" {
		return dir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// IsValidationError reports whether err is a schema violation.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
