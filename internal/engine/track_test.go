package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/pattern"
)

func TestTrack_GlobFilesAddedOnce(t *testing.T) {
	t.Parallel()

	fs := memTree(t, siteTree)
	p := newTestPlugin(t, fs, Options{CopyUnmodified: true},
		pattern.Spec{From: "static/*.txt", To: "a"},
		pattern.Spec{From: "static/**/*.txt", To: "b"},
	)
	comp := newComp()
	comp.FileDependencies.Add("/proj/static/x.txt")
	runBuild(p, comp)

	require.Empty(t, comp.Errors())
	assert.Equal(t, []string{"/proj/static/x.txt", "/proj/static/y.txt"}, comp.FileDependencies.List())
}

func TestTrack_ContextsAppearOnce(t *testing.T) {
	t.Parallel()

	fs := memTree(t, siteTree)
	p := newTestPlugin(t, fs, Options{},
		pattern.Spec{From: "static", To: "one"},
		pattern.Spec{From: "static", To: "two"},
		pattern.Spec{From: "static/css", To: "three"},
	)
	comp := newComp()
	comp.ContextDependencies.Append("/proj/static/css")
	runBuild(p, comp)

	require.Empty(t, comp.Errors())
	assert.ElementsMatch(t, []string{"/proj/static/css", "/proj/static"}, comp.ContextDependencies.List())
	assert.Len(t, comp.ContextDependencies.List(), 2)
}

func TestTrack_FilePatternTracksSource(t *testing.T) {
	t.Parallel()

	fs := memTree(t, siteTree)
	p := newTestPlugin(t, fs, Options{}, pattern.Spec{From: "a.txt"})
	comp := newComp()
	runBuild(p, comp)

	assert.Equal(t, []string{"/proj/a.txt"}, comp.FileDependencies.List())
	assert.Empty(t, comp.ContextDependencies.List())
}

func TestTrack_DirPatternDoesNotTrackFiles(t *testing.T) {
	t.Parallel()

	fs := memTree(t, siteTree)
	p := newTestPlugin(t, fs, Options{}, pattern.Spec{From: "static"})
	comp := newComp()
	runBuild(p, comp)

	assert.Zero(t, comp.FileDependencies.Len())
	assert.Equal(t, []string{"/proj/static"}, comp.ContextDependencies.List())
}

func TestTrack_RunsWhenPatternsFail(t *testing.T) {
	t.Parallel()

	fs := memTree(t, siteTree)
	p := newTestPlugin(t, fs, Options{},
		pattern.Spec{From: "missing"},
		pattern.Spec{From: "static"},
		pattern.Spec{From: "static/*.txt", Transform: func([]byte, string) ([]byte, error) {
			return nil, assert.AnError
		}},
	)
	comp := newComp()
	runBuild(p, comp)

	assert.Len(t, comp.Errors(), 3)
	assert.Equal(t, []string{"/proj/static"}, comp.ContextDependencies.List())
	assert.Equal(t, []string{"/proj/static/x.txt", "/proj/static/y.txt"}, comp.FileDependencies.List())
}
