// Package engine copies files named by patterns into a build's asset map.
//
// A Plugin taps the host's emit stage to resolve, expand and write every
// pattern, deduplicating by content hash and tracking source dependencies,
// and taps the after-emit stage to restore permission bits on the files
// the host wrote to disk.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/bamsammich/ferry/internal/host"
	"github.com/bamsammich/ferry/internal/pattern"
)

// Name is the tap name the plugin registers under.
const Name = "ferry"

// Plugin is a configured set of copy patterns.
type Plugin struct {
	opts     Options
	patterns []pattern.Spec

	mu     sync.Mutex
	builds map[*host.Compilation]*Build
}

// New validates patterns and opts. An empty pattern list is valid and
// copies nothing.
func New(patterns []pattern.Spec, opts Options) (*Plugin, error) {
	for i, spec := range patterns {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Plugin{
		opts:     opts.withDefaults(),
		patterns: append([]pattern.Spec(nil), patterns...),
		builds:   make(map[*host.Compilation]*Build),
	}, nil
}

// Patterns returns the configured patterns.
func (p *Plugin) Patterns() []pattern.Spec {
	return append([]pattern.Spec(nil), p.patterns...)
}

// Apply taps c's emit and after-emit hooks. Each emit starts from an
// empty Build; nothing carries over between builds.
func (p *Plugin) Apply(c *host.Compiler) {
	c.Hooks.Emit.Tap(Name, func(ctx context.Context, comp *host.Compilation) error {
		b := p.Run(ctx, comp)
		// After-emit never fires without an emitter.
		if c.Emitter == nil {
			return nil
		}
		p.mu.Lock()
		p.builds[comp] = b
		p.mu.Unlock()
		return nil
	})

	c.Hooks.AfterEmit.Tap(Name, func(_ context.Context, comp *host.Compilation) error {
		p.mu.Lock()
		b, ok := p.builds[comp]
		delete(p.builds, comp)
		p.mu.Unlock()

		if ok {
			_ = p.RestorePermissions(comp.OutputPath, b)
		}
		return nil
	})
}
