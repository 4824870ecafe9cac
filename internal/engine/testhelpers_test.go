package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/host"
	"github.com/bamsammich/ferry/internal/pattern"
)

const (
	testContext = "/proj"
	testOutput  = "/out"
)

func memTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0o644))
	}
	return fs
}

func newTestPlugin(t *testing.T, fs afero.Fs, opts Options, patterns ...pattern.Spec) *Plugin {
	t.Helper()
	opts.Fs = fs
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	p, err := New(patterns, opts)
	require.NoError(t, err)
	return p
}

func runBuild(p *Plugin, comp *host.Compilation) *Build {
	return p.Run(context.Background(), comp)
}

func newComp() *host.Compilation {
	return host.NewCompilation(testContext, testOutput)
}

func assetSource(t *testing.T, comp *host.Compilation, path string) string {
	t.Helper()
	a, ok := comp.Assets.Get(path)
	require.True(t, ok, "missing asset %s (have %v)", path, comp.Assets.Paths())
	return string(a.Source())
}
