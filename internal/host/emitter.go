package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bamsammich/ferry/internal/digest"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/stats"
)

// Manifest remembers what was written on previous runs so unchanged
// outputs can be left alone.
type Manifest interface {
	Unchanged(path, digest string, size int64) bool
	Record(path, digest string, size int64) error
}

// EmitterConfig controls how assets are materialized.
type EmitterConfig struct {
	Fs       afero.Fs
	Manifest Manifest
	Events   chan<- event.Event
	Stats    *stats.Collector
	Logger   *slog.Logger
	Workers  int
	BWLimit  int64 // bytes/sec across all workers; 0 is unlimited
}

// Emitter writes an AssetMap under an output root. Each file is written to
// a temporary sibling and renamed into place.
type Emitter struct {
	cfg     EmitterConfig
	limiter *rate.Limiter
	dirs    singleflight.Group
}

// dirCache remembers the directories one Emit call has created. It is not
// kept across calls: the output tree may be removed between builds.
type dirCache struct {
	made sync.Map
}

// NewEmitter returns an Emitter with defaults filled in.
func NewEmitter(cfg EmitterConfig) *Emitter {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU()*2, 32)
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Emitter{cfg: cfg}
	if cfg.BWLimit > 0 {
		e.limiter = NewBWLimiter(cfg.BWLimit)
	}
	return e
}

// Emit writes every asset under output. A failed asset does not stop the
// others; all failures are joined into the returned error.
func (e *Emitter) Emit(ctx context.Context, output string, assets *AssetMap) error {
	if output == "" {
		return errors.New("no output path")
	}

	paths := assets.Paths()
	errs := make([]error, len(paths))
	dirs := &dirCache{}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, p := range paths {
		a, _ := assets.Get(p)
		g.Go(func() error {
			errs[i] = e.emitOne(ctx, dirs, output, p, a)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // per-asset errors are collected in errs

	return errors.Join(errs...)
}

// Close removes any temporary files left by an interrupted Emit.
func (e *Emitter) Close() {
	CleanupTmpFiles()
}

func (e *Emitter) emitOne(ctx context.Context, dirs *dirCache, output, rel string, a Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := a.Source()
	size := int64(len(src))
	dst := filepath.Join(output, filepath.FromSlash(rel))

	var sum string
	if e.cfg.Manifest != nil {
		sum = digest.Sum(src)
		if e.cfg.Manifest.Unchanged(rel, sum, size) && e.onDisk(dst, size) {
			e.cfg.Stats.AddAssetsUnchanged(1)
			event.Emit(e.cfg.Events, event.Event{Type: event.AssetUnchanged, Dest: rel, Size: size})
			e.cfg.Logger.Debug("asset unchanged", "path", rel)
			return nil
		}
	}

	if err := e.writeFile(ctx, dirs, dst, src); err != nil {
		err = fmt.Errorf("write %s: %w", rel, err)
		event.Emit(e.cfg.Events, event.Event{Type: event.FileFailed, Dest: rel, Error: err})
		return err
	}

	if e.cfg.Manifest != nil {
		if err := e.cfg.Manifest.Record(rel, sum, size); err != nil {
			e.cfg.Logger.Warn("failed to record asset in manifest", "path", rel, "error", err)
		}
	}

	e.cfg.Stats.AddAssetsWritten(1)
	e.cfg.Stats.AddBytesWritten(size)
	event.Emit(e.cfg.Events, event.Event{Type: event.AssetWritten, Dest: rel, Size: size})
	e.cfg.Logger.Debug("wrote asset", "path", rel, "size", size)
	return nil
}

func (e *Emitter) onDisk(path string, size int64) bool {
	fi, err := e.cfg.Fs.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() == size
}

func (e *Emitter) writeFile(ctx context.Context, dirs *dirCache, dst string, src []byte) error {
	fs := e.cfg.Fs
	dir := filepath.Dir(dst)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.ferry-tmp", filepath.Base(dst), uuid.New().String()[:8]))

	if err := e.ensureDir(dirs, dir); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	RegisterTmp(fs, tmpPath)
	defer func() {
		DeregisterTmp(tmpPath)
		_ = fs.Remove(tmpPath) // no-op if rename succeeded
	}()

	f, err := fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create tmp %s: %w", tmpPath, err)
	}

	if osf, ok := f.(*os.File); ok && len(src) > 0 {
		platform.Preallocate(osf, int64(len(src)))
	}

	var w io.Writer = f
	if e.limiter != nil {
		w = newRateLimitedWriter(ctx, f, e.limiter)
	}
	if _, err := w.Write(src); err != nil {
		f.Close()
		return fmt.Errorf("write tmp %s: %w", tmpPath, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close tmp %s: %w", tmpPath, err)
	}

	if err := fs.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, dst, err)
	}
	return nil
}

// ensureDir creates dir once per Emit call, collapsing concurrent requests
// for the same directory.
func (e *Emitter) ensureDir(dirs *dirCache, dir string) error {
	if _, ok := dirs.made.Load(dir); ok {
		return nil
	}
	_, err, _ := e.dirs.Do(dir, func() (any, error) {
		if err := e.cfg.Fs.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dirs.made.Store(dir, struct{}{})
		return nil, nil
	})
	return err
}
