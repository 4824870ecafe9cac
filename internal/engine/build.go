package engine

import (
	"errors"
	"sort"
	"sync"
)

// ErrWriteConflict marks a file that was not written because its
// destination already held an asset and the pattern did not set force.
// It is reported in events and logs, never as a build error.
var ErrWriteConflict = errors.New("destination already exists")

// WrittenRecord is what one source file produced in the current build.
type WrittenRecord struct {
	// Hashes holds the content digests already written for the source.
	Hashes map[string]bool
	// WebpackTo is the output-relative path permissions are restored on.
	WebpackTo       string
	Perms           uint32
	CopyPermissions bool
}

// Build is the state of one emit pass: the written table and the
// dependencies to hand to the compilation. It is created fresh for every
// build and shared by all of that build's file tasks.
type Build struct {
	mu       sync.Mutex
	written  map[string]*WrittenRecord
	files    map[string]struct{}
	contexts []string
}

func newBuild() *Build {
	return &Build{
		written: make(map[string]*WrittenRecord),
		files:   make(map[string]struct{}),
	}
}

func (b *Build) trackFile(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = struct{}{}
}

func (b *Build) trackContext(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.contexts {
		if d == dir {
			return
		}
	}
	b.contexts = append(b.contexts, dir)
}

// Files returns the tracked file dependencies in sorted order.
func (b *Build) Files() []string {
	b.mu.Lock()
	out := make([]string, 0, len(b.files))
	for f := range b.files {
		out = append(out, f)
	}
	b.mu.Unlock()

	sort.Strings(out)
	return out
}

// Contexts returns the tracked directory dependencies in pattern order.
func (b *Build) Contexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.contexts...)
}

// Record returns a copy of the record for absoluteFrom.
func (b *Build) Record(absoluteFrom string) (WrittenRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.written[absoluteFrom]
	if !ok {
		return WrittenRecord{}, false
	}
	out := *rec
	out.Hashes = make(map[string]bool, len(rec.Hashes))
	for h := range rec.Hashes {
		out.Hashes[h] = true
	}
	return out, true
}

// permissionTargets returns the records flagged for permission restore,
// keyed by source and ordered by source path.
func (b *Build) permissionTargets() []permTarget {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []permTarget
	for src, rec := range b.written {
		if rec.CopyPermissions {
			out = append(out, permTarget{source: src, webpackTo: rec.WebpackTo, perms: rec.Perms})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].source < out[j].source })
	return out
}

type permTarget struct {
	source    string
	webpackTo string
	perms     uint32
}
