package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/bamsammich/ferry/internal/dest"
	"github.com/bamsammich/ferry/internal/digest"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/expand"
	"github.com/bamsammich/ferry/internal/host"
	"github.com/bamsammich/ferry/internal/pattern"
	"github.com/bamsammich/ferry/internal/platform"
)

// pendingWrite is a file that has been read and mapped to its destination
// but not yet committed to the asset map.
type pendingWrite struct {
	r         *pattern.Resolved
	m         expand.Match
	info      os.FileInfo
	content   []byte
	sum       string
	webpackTo string
}

// prepareFile does the per-file work that can run concurrently: stat, read,
// transform, digest and destination. Directories yield nil. Returned
// errors are pattern errors scoped to this file.
func (p *Plugin) prepareFile(
	ctx context.Context,
	comp *host.Compilation,
	b *Build,
	r *pattern.Resolved,
	m expand.Match,
) (*pendingWrite, error) {
	if err := ctx.Err(); err != nil {
		return nil, pattern.NewError(r.From, "copy", m.AbsoluteFrom, err)
	}

	log := p.opts.Logger.With("pattern", r.From, "path", m.AbsoluteFrom)
	fs := p.opts.Fs

	info, err := fs.Stat(m.AbsoluteFrom)
	if err != nil {
		return nil, pattern.NewError(r.From, "stat", m.AbsoluteFrom, err)
	}
	if info.IsDir() {
		log.Debug("skipping directory")
		return nil, nil //nolint:nilnil // directories produce no write
	}

	if r.FromType == pattern.FromGlob {
		b.trackFile(m.AbsoluteFrom)
	}

	log.Debug("reading")
	content, err := afero.ReadFile(fs, m.AbsoluteFrom)
	if err != nil {
		return nil, pattern.NewError(r.From, "read", m.AbsoluteFrom, err)
	}

	if r.Transform != nil {
		content, err = r.Transform(content, m.AbsoluteFrom)
		if err != nil {
			return nil, pattern.NewError(r.From, "transform", m.AbsoluteFrom, err)
		}
	}

	if r.ToType == pattern.ToTemplate {
		log.Debug("interpolating template", "template", r.To)
	}
	webpackTo, err := dest.Destination(dest.Input{
		Content:      content,
		RelativeFrom: m.RelativeFrom,
		To:           r.To,
		OutputRoot:   comp.OutputPath,
		ToType:       r.ToType,
		Flatten:      r.Flatten,
	})
	if err != nil {
		op := "destination"
		if r.ToType == pattern.ToTemplate {
			op = "template"
		}
		return nil, pattern.NewError(r.From, op, m.AbsoluteFrom, err)
	}

	return &pendingWrite{
		r:         r,
		m:         m,
		info:      info,
		content:   content,
		sum:       digest.Sum(content),
		webpackTo: webpackTo,
	}, nil
}

// commitFile applies the dedup check, the overwrite guard and the insert
// for w. Run calls it in pattern order, then file order, so the earliest
// pattern wins a shared destination or source.
func (p *Plugin) commitFile(comp *host.Compilation, b *Build, w *pendingWrite) {
	r, m := w.r, w.m
	log := p.opts.Logger.With("pattern", r.From, "path", m.AbsoluteFrom)
	base := event.Event{Pattern: r.From, Path: m.RelativeFrom, Dest: w.webpackTo, Size: w.info.Size()}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.written[m.AbsoluteFrom]
	if !p.opts.CopyUnmodified && rec != nil && rec.Hashes[w.sum] {
		log.Debug("skipping unchanged", "dest", w.webpackTo)
		p.skipped(base, "unchanged", nil)
		return
	}

	if !r.Force && comp.Assets.Has(w.webpackTo) {
		log.Info("skipping existing", "dest", w.webpackTo)
		p.skipped(base, "exists", fmt.Errorf("%s: %w", w.webpackTo, ErrWriteConflict))
		return
	}

	if rec == nil {
		rec = &WrittenRecord{Hashes: make(map[string]bool)}
		b.written[m.AbsoluteFrom] = rec
	}
	rec.Hashes[w.sum] = true

	if r.CopyPermissions {
		rec.CopyPermissions = true
		rec.Perms = platform.PermBits(w.info.Mode())
		rec.WebpackTo = w.webpackTo
	}

	log.Info("writing", "dest", w.webpackTo, "size", w.info.Size())
	comp.Assets.Set(w.webpackTo, host.NewAsset(w.content, w.info.Size()))

	p.opts.Stats.AddFilesCopied(1)
	p.opts.Stats.AddBytesCopied(int64(len(w.content)))
	base.Type = event.FileCopied
	event.Emit(p.opts.Events, base)
}

func (p *Plugin) skipped(e event.Event, reason string, err error) {
	p.opts.Stats.AddFilesSkipped(1)
	e.Type = event.FileSkipped
	e.Reason = reason
	e.Error = err
	event.Emit(p.opts.Events, e)
}
