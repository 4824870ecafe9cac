package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
)

// RestorePermissions applies the captured permission bits to every output
// written with copyPermissions. It runs after the assets are on disk.
// Failures are logged and returned but never stop the remaining files.
func (p *Plugin) RestorePermissions(output string, b *Build) []error {
	var errs []error
	for _, t := range b.permissionTargets() {
		dst := filepath.Join(output, filepath.FromSlash(t.webpackTo))
		mode := os.FileMode(t.perms & platform.PermMask)

		p.opts.Logger.Debug("restoring permissions", "path", dst, "mode", mode)
		if err := p.opts.Fs.Chmod(dst, mode); err != nil {
			err = fmt.Errorf("restore permissions on %s: %w", dst, err)
			p.opts.Logger.Warn("failed to restore permissions", "source", t.source, "error", err)
			event.Emit(p.opts.Events, event.Event{
				Type:  event.PermissionsFailed,
				Path:  t.source,
				Dest:  t.webpackTo,
				Error: err,
			})
			errs = append(errs, err)
			continue
		}

		p.opts.Stats.AddPermsRestored(1)
		event.Emit(p.opts.Events, event.Event{
			Type: event.PermissionsRestored,
			Path: t.source,
			Dest: t.webpackTo,
		})
	}
	return errs
}
