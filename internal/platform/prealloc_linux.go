//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// The apparent size is left alone so a write that fails halfway leaves a
// short file, not a zero-padded one.
//
//nolint:gosec // G115: fd values are small non-negative integers
func preallocate(f *os.File, size int64) {
	//nolint:errcheck // EOPNOTSUPP on tmpfs and some network filesystems
	unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
