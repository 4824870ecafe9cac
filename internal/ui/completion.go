package ui

import (
	"fmt"

	"github.com/bamsammich/ferry/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 412  written 398  unchanged 14  size 2.1 MB  time 1s  errors 0
func completionSummary(snap stats.Snapshot) string {
	icon := "✓"
	errs := snap.FilesFailed + snap.PatternsFailed
	if errs > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  written %s",
		icon,
		FormatCount(snap.FilesCopied),
		FormatCount(snap.AssetsWritten),
	)
	if snap.AssetsUnchanged > 0 {
		base += fmt.Sprintf("  unchanged %s", FormatCount(snap.AssetsUnchanged))
	}
	if snap.FilesSkipped > 0 {
		base += fmt.Sprintf("  skipped %s", FormatCount(snap.FilesSkipped))
	}
	base += fmt.Sprintf("  size %s  time %s  errors %d",
		FormatBytes(snap.BytesWritten),
		FormatDuration(snap.Elapsed),
		errs,
	)
	return base
}
