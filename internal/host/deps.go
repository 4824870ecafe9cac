package host

import (
	"sort"
	"sync"
)

// FileSet is the set of absolute file paths a build depends on.
type FileSet struct {
	mu    sync.RWMutex
	files map[string]struct{}
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: make(map[string]struct{})}
}

// Has reports whether path is in the set.
func (s *FileSet) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// Add inserts path. It reports whether the path was new.
func (s *FileSet) Add(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; ok {
		return false
	}
	s.files[path] = struct{}{}
	return true
}

// Len returns the number of paths.
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// List returns the paths in sorted order.
func (s *FileSet) List() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// ContextList is the ordered list of directories a build depends on.
// Membership is checked by the caller with Contains before Append.
type ContextList struct {
	mu   sync.RWMutex
	dirs []string
}

// NewContextList returns an empty ContextList.
func NewContextList() *ContextList {
	return &ContextList{}
}

// Contains reports whether dir is already listed.
func (l *ContextList) Contains(dir string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, d := range l.dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// Append adds dir to the end of the list.
func (l *ContextList) Append(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs = append(l.dirs, dir)
}

// List returns a copy of the directories in insertion order.
func (l *ContextList) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.dirs...)
}
