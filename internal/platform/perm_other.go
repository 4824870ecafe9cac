//go:build !unix

package platform

import "os"

// PermMask covers the owner, group and other read/write/execute triads.
const PermMask = 0o777

// PermBits returns the read/write/execute triads of mode.
func PermBits(mode os.FileMode) uint32 {
	return uint32(mode) & PermMask
}
