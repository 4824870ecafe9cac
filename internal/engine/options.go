package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/stats"
)

// DefaultFileConcurrency bounds in-flight files within one pattern.
const DefaultFileConcurrency = 100

// Options configure a Plugin.
type Options struct {
	// Ignore rules apply to every pattern, ahead of its own rules.
	Ignore []string
	// CopyUnmodified disables the content-hash skip for repeated sources.
	CopyUnmodified bool
	// Concurrency bounds in-flight patterns. 0 is unbounded.
	Concurrency int
	// FileConcurrency bounds in-flight files per pattern. 0 means
	// DefaultFileConcurrency.
	FileConcurrency int
	// Debug is "warning" (default), "info" (or "true"), or "debug".
	Debug string

	Logger *slog.Logger
	Fs     afero.Fs
	Events chan<- event.Event
	Stats  *stats.Collector
}

func (o Options) validate() error {
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	if o.FileConcurrency < 0 {
		return fmt.Errorf("file concurrency must be positive, got %d", o.FileConcurrency)
	}
	if _, err := ParseDebug(o.Debug); err != nil {
		return err
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.FileConcurrency == 0 {
		o.FileConcurrency = DefaultFileConcurrency
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Stats == nil {
		o.Stats = stats.NewCollector()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	level, _ := ParseDebug(o.Debug)
	o.Logger = slog.New(&levelHandler{level: level, Handler: o.Logger.Handler()})
	return o
}

// ParseDebug maps the debug option to a log level.
func ParseDebug(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "warn", "warning":
		return slog.LevelWarn, nil
	case "true", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return 0, errors.New("debug must be one of warning, info, debug or true")
	}
}
