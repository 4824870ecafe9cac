package ui

import (
	"fmt"
	"time"
)

const barWidth = 20

// statusPresenter prints the same lines as plainPresenter and keeps a single
// redrawn status line at the bottom of the terminal.
type statusPresenter struct {
	plain *plainPresenter
	width int
	drawn bool
}

func (p *statusPresenter) Run(events <-chan Event) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	redraw := time.NewTicker(100 * time.Millisecond)
	defer redraw.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clear()
				return nil
			}
			p.clear()
			p.plain.handleEvent(ev)
		case <-tick.C:
			p.plain.stats.Tick()
		case <-redraw.C:
			p.draw()
		}
	}
}

func (p *statusPresenter) clear() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.plain.errW, "\r\033[K")
	p.drawn = false
}

func (p *statusPresenter) draw() {
	line := p.statusLine()
	if len(line) > p.width {
		line = line[:p.width]
	}
	fmt.Fprintf(p.plain.errW, "\r\033[K%s", line)
	p.drawn = true
}

func (p *statusPresenter) statusLine() string {
	snap := p.plain.stats.Snapshot()
	done := snap.FilesCopied + snap.FilesSkipped + snap.FilesFailed
	pct := 0.0
	if snap.FilesMatched > 0 {
		pct = float64(done) / float64(snap.FilesMatched)
	}
	return fmt.Sprintf("%s %s/%s  %s  %s",
		ProgressBar(pct, barWidth),
		FormatCount(done), FormatCount(snap.FilesMatched),
		FormatBytes(snap.BytesWritten),
		FormatRate(p.plain.stats.RollingSpeed(5)),
	)
}

func (p *statusPresenter) Summary() string {
	return p.plain.Summary()
}
