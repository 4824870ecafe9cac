package host

import (
	"sync"

	"github.com/spf13/afero"
)

// globalTmpRegistry tracks in-progress temporary files so an interrupted
// build can remove them.
var globalTmpRegistry = &tmpRegistry{}

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]afero.Fs
}

// RegisterTmp adds a temporary file on fs to the global registry.
func RegisterTmp(fs afero.Fs, path string) {
	globalTmpRegistry.mu.Lock()
	defer globalTmpRegistry.mu.Unlock()
	if globalTmpRegistry.paths == nil {
		globalTmpRegistry.paths = make(map[string]afero.Fs)
	}
	globalTmpRegistry.paths[path] = fs
}

// DeregisterTmp removes a temporary file path from the global registry.
func DeregisterTmp(path string) {
	globalTmpRegistry.mu.Lock()
	defer globalTmpRegistry.mu.Unlock()
	delete(globalTmpRegistry.paths, path)
}

// CleanupTmpFiles removes all registered temporary files.
func CleanupTmpFiles() {
	globalTmpRegistry.mu.Lock()
	paths := globalTmpRegistry.paths
	globalTmpRegistry.paths = nil
	globalTmpRegistry.mu.Unlock()

	for p, fs := range paths {
		_ = fs.Remove(p)
	}
}

func pendingTmpFiles() int {
	globalTmpRegistry.mu.Lock()
	defer globalTmpRegistry.mu.Unlock()
	return len(globalTmpRegistry.paths)
}
