package host

import (
	"sync"
)

// Compilation is the state of one build. Plugins add assets, dependencies
// and errors to it from hook taps.
type Compilation struct {
	// Context is the absolute directory relative patterns resolve against.
	Context string
	// OutputPath is the resolved absolute output root.
	OutputPath string

	Assets              *AssetMap
	FileDependencies    *FileSet
	ContextDependencies *ContextList

	mu   sync.Mutex
	errs []error
}

// NewCompilation returns an empty Compilation for the given roots.
func NewCompilation(contextDir, outputPath string) *Compilation {
	return &Compilation{
		Context:             contextDir,
		OutputPath:          outputPath,
		Assets:              NewAssetMap(),
		FileDependencies:    NewFileSet(),
		ContextDependencies: NewContextList(),
	}
}

// AddError records a build error. Errors never stop the build.
func (c *Compilation) AddError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// Errors returns the recorded errors in the order they were added.
func (c *Compilation) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}
