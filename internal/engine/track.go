package engine

import (
	"github.com/bamsammich/ferry/internal/host"
)

// track merges the build's dependencies into comp. The compilation's own
// containers decide membership, so sources shared with other plugins or
// repeated across patterns are added once.
func (p *Plugin) track(comp *host.Compilation, b *Build) {
	for _, f := range b.Files() {
		if comp.FileDependencies.Has(f) {
			continue
		}
		p.opts.Logger.Debug("adding to change tracking", "file", f)
		comp.FileDependencies.Add(f)
	}

	for _, d := range b.Contexts() {
		if comp.ContextDependencies.Contains(d) {
			continue
		}
		p.opts.Logger.Debug("adding to change tracking", "dir", d)
		comp.ContextDependencies.Append(d)
	}
}
