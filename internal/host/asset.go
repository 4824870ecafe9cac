// Package host is the build pipeline the copy plugin runs inside: a
// Compiler with emit and after-emit hooks, a per-build Compilation holding
// the asset map and dependency containers, and an Emitter that writes the
// asset map to disk.
package host

import (
	"sort"
	"sync"
)

// Asset is one build output held in memory until the Emitter writes it.
type Asset interface {
	Size() int64
	Source() []byte
}

type bytesAsset struct {
	source []byte
	size   int64
}

// NewAsset returns an Asset over source. size is reported as given; it may
// differ from len(source) when the size was taken from a stat before a
// transform ran.
//
//nolint:ireturn // the asset map stores the interface
func NewAsset(source []byte, size int64) Asset {
	return &bytesAsset{source: source, size: size}
}

func (a *bytesAsset) Size() int64    { return a.size }
func (a *bytesAsset) Source() []byte { return a.source }

// AssetMap maps output-relative, slash-separated paths to assets. It is
// safe for concurrent use.
type AssetMap struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

// NewAssetMap returns an empty AssetMap.
func NewAssetMap() *AssetMap {
	return &AssetMap{assets: make(map[string]Asset)}
}

// Get returns the asset at path.
//
//nolint:ireturn // the asset map stores the interface
func (m *AssetMap) Get(path string) (Asset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[path]
	return a, ok
}

// Has reports whether an asset exists at path.
func (m *AssetMap) Has(path string) bool {
	_, ok := m.Get(path)
	return ok
}

// Set inserts or replaces the asset at path.
func (m *AssetMap) Set(path string, a Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[path] = a
}

// Len returns the number of assets.
func (m *AssetMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

// Paths returns every asset path in sorted order.
func (m *AssetMap) Paths() []string {
	m.mu.RLock()
	paths := make([]string, 0, len(m.assets))
	for p := range m.assets {
		paths = append(paths, p)
	}
	m.mu.RUnlock()

	sort.Strings(paths)
	return paths
}
