package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/expand"
	"github.com/bamsammich/ferry/internal/host"
	"github.com/bamsammich/ferry/internal/pattern"
)

// indexedErr orders errors by pattern and then by file so a build reports
// them deterministically no matter which task finished first.
type indexedErr struct {
	err     error
	pattern int
	file    int
}

// patternResult is what one pattern produced before its writes are
// committed.
type patternResult struct {
	errs    []indexedErr
	writes  []*pendingWrite
	context string // set for directory patterns
}

// Run copies every pattern into comp and returns the build's state. Files
// are read concurrently but committed in pattern order, then file order,
// so the earliest pattern wins a shared destination on every run. Errors
// are appended to comp; a failing pattern or file never stops the others.
// Dependencies are merged into comp once every pattern has finished.
func (p *Plugin) Run(ctx context.Context, comp *host.Compilation) *Build {
	b := newBuild()
	log := p.opts.Logger

	log.Debug("starting emit", "patterns", len(p.patterns), "context", comp.Context)
	event.Emit(p.opts.Events, event.Event{Type: event.BuildStarted, Total: int64(len(p.patterns))})

	results := make([]patternResult, len(p.patterns))

	var g errgroup.Group
	if p.opts.Concurrency > 0 {
		g.SetLimit(p.opts.Concurrency)
	}
	for i, spec := range p.patterns {
		g.Go(func() error {
			results[i] = p.runPattern(ctx, comp, b, i, spec)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // pattern errors are collected in results

	var errs []indexedErr
	for _, res := range results {
		if res.context != "" {
			b.trackContext(res.context)
		}
		for _, w := range res.writes {
			p.commitFile(comp, b, w)
		}
		errs = append(errs, res.errs...)
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].pattern != errs[j].pattern {
			return errs[i].pattern < errs[j].pattern
		}
		return errs[i].file < errs[j].file
	})

	// Partial progress is tracked even when patterns failed.
	p.track(comp, b)

	for _, e := range errs {
		log.Error("copy failed", "error", e.err)
		comp.AddError(e.err)
	}

	event.Emit(p.opts.Events, event.Event{Type: event.BuildComplete, Total: int64(comp.Assets.Len())})
	return b
}

func (p *Plugin) runPattern(
	ctx context.Context,
	comp *host.Compilation,
	b *Build,
	idx int,
	spec pattern.Spec,
) patternResult {
	var res patternResult

	r, err := pattern.Resolve(p.opts.Fs, comp.Context, p.opts.Ignore, spec)
	if err != nil {
		p.patternFailed(spec.From, err)
		res.errs = []indexedErr{{err: err, pattern: idx, file: -1}}
		return res
	}

	switch r.FromType {
	case pattern.FromDir:
		res.context = r.Context
	case pattern.FromFile:
		b.trackFile(r.AbsoluteFrom)
	}

	matches, err := expand.Expand(ctx, p.opts.Fs, r)
	if err != nil {
		p.patternFailed(spec.From, err)
		res.errs = []indexedErr{{err: err, pattern: idx, file: -1}}
		return res
	}

	p.opts.Stats.AddPatternsResolved(1)
	p.opts.Stats.AddFilesMatched(int64(len(matches)))
	event.Emit(p.opts.Events, event.Event{
		Type:    event.PatternResolved,
		Pattern: spec.From,
		Total:   int64(len(matches)),
	})
	p.opts.Logger.Debug("resolved pattern",
		"pattern", spec.From,
		"type", r.FromType,
		"to_type", r.ToType,
		"matches", len(matches),
	)

	writes := make([]*pendingWrite, len(matches))
	fileErrs := make([]error, len(matches))
	var g errgroup.Group
	g.SetLimit(p.opts.FileConcurrency)
	for j, m := range matches {
		g.Go(func() error {
			writes[j], fileErrs[j] = p.prepareFile(ctx, comp, b, r, m)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // file errors are collected in fileErrs

	for j, err := range fileErrs {
		if err == nil {
			if writes[j] != nil {
				res.writes = append(res.writes, writes[j])
			}
			continue
		}
		p.opts.Stats.AddFilesFailed(1)
		event.Emit(p.opts.Events, event.Event{
			Type:    event.FileFailed,
			Pattern: spec.From,
			Path:    matches[j].RelativeFrom,
			Error:   err,
		})
		res.errs = append(res.errs, indexedErr{err: err, pattern: idx, file: j})
	}
	return res
}

func (p *Plugin) patternFailed(from string, err error) {
	p.opts.Stats.AddPatternsFailed(1)
	event.Emit(p.opts.Events, event.Event{Type: event.PatternFailed, Pattern: from, Error: err})
}
