package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/ferry/internal/stats"
)

// plainPresenter outputs one line per written asset to stdout, and
// periodic progress to stderr.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-tick.C:
			p.stats.Tick()
		case <-progress.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PatternFailed:
		fmt.Fprintf(p.w, "%s  %s\n", ev.Pattern, errText(ev.Error))
	case FileFailed:
		name := ev.Path
		if name == "" {
			name = ev.Dest
		}
		fmt.Fprintf(p.w, "%s  %s\n", name, errText(ev.Error))
	case AssetWritten:
		fmt.Fprintf(p.w, "%s  %s  %s\n", ev.Dest, FormatBytes(ev.Size), FormatRate(p.stats.RollingSpeed(5)))
	case PermissionsFailed:
		fmt.Fprintf(p.w, "%s  chmod: %s\n", ev.Dest, errText(ev.Error))
	}
	if !p.verbose {
		return
	}
	switch ev.Type {
	case PatternResolved:
		fmt.Fprintf(p.w, "%s  %s files\n", ev.Pattern, FormatCount(ev.Total))
	case FileCopied:
		fmt.Fprintf(p.w, "%s -> %s\n", ev.Path, ev.Dest)
	case FileSkipped:
		fmt.Fprintf(p.w, "%s  skipped (%s)\n", ev.Path, ev.Reason)
	case AssetUnchanged:
		fmt.Fprintf(p.w, "%s  unchanged\n", ev.Dest)
	case PermissionsRestored:
		fmt.Fprintf(p.w, "%s  permissions restored\n", ev.Dest)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	done := snap.FilesCopied + snap.FilesSkipped + snap.FilesFailed
	fmt.Fprintf(p.errW, "progress: %s/%s files %s written %s\n",
		FormatCount(done), FormatCount(snap.FilesMatched),
		FormatBytes(snap.BytesWritten),
		FormatRate(p.stats.RollingSpeed(10)),
	)
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

func errText(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
