//go:build unix

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// PermMask covers the owner, group and other read/write/execute triads.
const PermMask = unix.S_IRWXU | unix.S_IRWXG | unix.S_IRWXO

// PermBits returns the read/write/execute triads of mode.
func PermBits(mode os.FileMode) uint32 {
	return uint32(mode) & PermMask
}
