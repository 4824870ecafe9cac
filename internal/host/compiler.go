package host

import (
	"context"
	"fmt"
)

// Options are the build's global roots.
type Options struct {
	Context             string
	OutputPath          string
	DevServerOutputPath string
}

// ResolveOutput returns the directory assets are materialized under. An
// OutputPath of "/" means the dev server's output path when one is set.
func (o Options) ResolveOutput() string {
	if o.OutputPath == "/" && o.DevServerOutputPath != "" {
		return o.DevServerOutputPath
	}
	return o.OutputPath
}

// HookFunc is a hook tap. A returned error is recorded on the compilation.
type HookFunc func(ctx context.Context, comp *Compilation) error

type tap struct {
	name string
	fn   HookFunc
}

// Hook is an ordered list of named taps.
type Hook struct {
	taps []tap
}

// Tap appends fn under name.
func (h *Hook) Tap(name string, fn HookFunc) {
	h.taps = append(h.taps, tap{name: name, fn: fn})
}

// Len returns the number of taps.
func (h *Hook) Len() int { return len(h.taps) }

// Call runs every tap in order.
func (h *Hook) Call(ctx context.Context, comp *Compilation) {
	for _, t := range h.taps {
		if err := t.fn(ctx, comp); err != nil {
			comp.AddError(fmt.Errorf("%s: %w", t.name, err))
		}
	}
}

// Hooks are the lifecycle stages a plugin can tap.
type Hooks struct {
	// Emit runs before assets are written to disk.
	Emit Hook
	// AfterEmit runs once every asset is on disk.
	AfterEmit Hook
}

// Plugin registers taps on a Compiler.
type Plugin interface {
	Apply(c *Compiler)
}

// Compiler runs builds.
type Compiler struct {
	Options Options
	Hooks   Hooks

	// Emitter writes assets to disk. When nil, builds stop after the emit
	// stage and nothing is materialized.
	Emitter *Emitter
}

// NewCompiler returns a Compiler that materializes with emitter.
func NewCompiler(opts Options, emitter *Emitter) *Compiler {
	return &Compiler{Options: opts, Emitter: emitter}
}

// Use applies plugins in order.
func (c *Compiler) Use(plugins ...Plugin) {
	for _, p := range plugins {
		p.Apply(c)
	}
}

// NewCompilation returns an empty compilation for this compiler's roots.
func (c *Compiler) NewCompilation() *Compilation {
	return NewCompilation(c.Options.Context, c.Options.ResolveOutput())
}

// Run performs one build on a fresh compilation.
func (c *Compiler) Run(ctx context.Context) *Compilation {
	comp := c.NewCompilation()
	c.RunCompilation(ctx, comp)
	return comp
}

// RunCompilation performs one build on comp, which may already hold assets.
func (c *Compiler) RunCompilation(ctx context.Context, comp *Compilation) {
	c.Hooks.Emit.Call(ctx, comp)

	if c.Emitter == nil {
		return
	}
	if err := c.Emitter.Emit(ctx, comp.OutputPath, comp.Assets); err != nil {
		comp.AddError(fmt.Errorf("emit: %w", err))
	}

	c.Hooks.AfterEmit.Call(ctx, comp)
}
