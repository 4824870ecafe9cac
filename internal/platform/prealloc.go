// Package platform holds the OS-specific pieces of writing build outputs.
package platform

import "os"

// Preallocate reserves size bytes of disk for f ahead of a write of that
// many bytes. It is advisory: filesystems without support are ignored.
func Preallocate(f *os.File, size int64) {
	if f == nil || size <= 0 {
		return
	}
	preallocate(f, size)
}
