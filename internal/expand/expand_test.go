package expand

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/pattern"
)

// newTestFs builds:
//
//	/proj/static/index.html
//	/proj/static/.htaccess
//	/proj/static/css/app.css
//	/proj/static/css/app.css.map
//	/proj/static/.git/HEAD
//	/proj/static/IMG/Logo.PNG
func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/static/index.html":      "<html>",
		"/proj/static/.htaccess":       "deny",
		"/proj/static/css/app.css":     "body{}",
		"/proj/static/css/app.css.map": "{}",
		"/proj/static/.git/HEAD":       "ref",
		"/proj/static/IMG/Logo.PNG":    "png",
	}
	for p, c := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(c), 0o644))
	}
	return fs
}

func resolve(t *testing.T, fs afero.Fs, spec pattern.Spec, ignore ...string) *pattern.Resolved {
	t.Helper()
	r, err := pattern.Resolve(fs, "/proj", ignore, spec)
	require.NoError(t, err)
	return r
}

func rels(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.RelativeFrom
	}
	return out
}

func TestExpand_FileShortCircuits(t *testing.T) {
	fs := newTestFs(t)
	// Ignore rules never apply to a literal file.
	r := resolve(t, fs, pattern.Spec{From: "static/index.html"}, "*.html")

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "/proj/static/index.html", ms[0].AbsoluteFrom)
	assert.Equal(t, "index.html", ms[0].RelativeFrom)
}

func TestExpand_DirRecursiveWithDotfiles(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static"})

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".git",
		".git/HEAD",
		".htaccess",
		"IMG",
		"IMG/Logo.PNG",
		"css",
		"css/app.css",
		"css/app.css.map",
		"index.html",
	}, rels(ms))
}

func TestExpand_NoDot(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static", Glob: pattern.GlobOptions{NoDot: true}})

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	for _, rel := range rels(ms) {
		assert.NotContains(t, rel, ".git")
		assert.NotEqual(t, ".htaccess", rel)
	}
	assert.Contains(t, rels(ms), "index.html")
}

func TestExpand_GlobWithIgnore(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static/**/*.css*", Ignore: []string{"*.map"}})

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"static/css/app.css"}, rels(ms))
	assert.Equal(t, "/proj/static/css/app.css", ms[0].AbsoluteFrom)
}

func TestExpand_GlobalIgnoreAndReinclude(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static", Ignore: []string{"*.map"}}, "!app.css.map", "*.html")

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Contains(t, rels(ms), "css/app.css.map")
	assert.NotContains(t, rels(ms), "index.html")
}

func TestExpand_CaseSensitivity(t *testing.T) {
	fs := newTestFs(t)

	// The static prefix static/img does not exist with that case.
	_, err := pattern.Resolve(fs, "/proj", nil, pattern.Spec{From: "static/img/*.png"})
	require.Error(t, err)

	r := resolve(t, fs, pattern.Spec{From: "static/**/*.png"})
	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Empty(t, ms)

	r = resolve(t, fs, pattern.Spec{From: "static/**/*.png", Glob: pattern.GlobOptions{NoCase: true}})
	ms, err = Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"static/IMG/Logo.PNG"}, rels(ms))
}

func TestExpand_EmptyIsNotError(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static/*.xyz"})

	ms, err := Expand(context.Background(), fs, r)
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestExpand_BadIgnoreRule(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static", Ignore: []string{"[a-"}})

	_, err := Expand(context.Background(), fs, r)
	require.Error(t, err)
	assert.True(t, pattern.IsPatternError(err))
}

func TestExpand_Cancelled(t *testing.T) {
	fs := newTestFs(t)
	r := resolve(t, fs, pattern.Spec{From: "static"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Expand(ctx, fs, r)
	assert.ErrorIs(t, err, context.Canceled)
}
