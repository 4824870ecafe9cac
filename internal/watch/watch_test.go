package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/watch"
)

func newWatcher(t *testing.T) *watch.Watcher {
	t.Helper()
	w, err := watch.New(50*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWatcher_FileChange(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "robots.txt")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("a"), 0o644))

	w := newWatcher(t)
	require.NoError(t, w.Reset([]string{tracked}, nil))

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(tracked, []byte("b"), 0o644))

	changed, err := w.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, []string{tracked}, changed)
}

func TestWatcher_ContextDirRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static", "css"), 0o755))

	w := newWatcher(t)
	require.NoError(t, w.Reset(nil, []string{filepath.Join(dir, "static")}))

	added := filepath.Join(dir, "static", "css", "site.css")
	require.NoError(t, os.WriteFile(added, []byte("body{}"), 0o644))

	changed, err := w.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Contains(t, changed, added)
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	static := filepath.Join(dir, "static")
	require.NoError(t, os.Mkdir(static, 0o755))

	w := newWatcher(t)
	require.NoError(t, w.Reset(nil, []string{static}))

	sub := filepath.Join(static, "img")
	require.NoError(t, os.Mkdir(sub, 0o755))
	changed, err := w.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Contains(t, changed, sub)

	logo := filepath.Join(sub, "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("png"), 0o644))
	changed, err = w.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Contains(t, changed, logo)
}

func TestWatcher_ResetDropsOldPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	w := newWatcher(t)
	require.NoError(t, w.Reset([]string{a}, nil))
	require.NoError(t, w.Reset([]string{b}, nil))

	require.NoError(t, os.WriteFile(a, []byte("a2"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b2"), 0o644))

	changed, err := w.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, []string{b}, changed)
}

func TestWatcher_MissingDir(t *testing.T) {
	w := newWatcher(t)
	err := w.Reset(nil, []string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestWatcher_ContextCanceled(t *testing.T) {
	w := newWatcher(t)
	require.NoError(t, w.Reset(nil, []string{t.TempDir()}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
