package pattern

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj/assets/img", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/proj/readme.md", []byte("readme"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/assets/app.css", []byte("body{}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/assets/img/logo.png", []byte("png"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/other/shared.txt", []byte("shared"), 0o644))
	return fs
}

func TestResolve_File(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "readme.md"})
	require.NoError(t, err)
	assert.Equal(t, FromFile, r.FromType)
	assert.Equal(t, "/proj/readme.md", r.AbsoluteFrom)
	assert.Equal(t, "/proj", r.Context)
	assert.Empty(t, r.Expr)
	assert.Equal(t, ToDir, r.ToType)
}

func TestResolve_Dir(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "assets", To: "static"})
	require.NoError(t, err)
	assert.Equal(t, FromDir, r.FromType)
	assert.Equal(t, "/proj/assets", r.AbsoluteFrom)
	assert.Equal(t, "/proj/assets", r.Context)
	assert.Equal(t, DirGlob, r.Expr)
	assert.Equal(t, ToDir, r.ToType)
}

func TestResolve_Glob(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "assets/**/*.png"})
	require.NoError(t, err)
	assert.Equal(t, FromGlob, r.FromType)
	assert.Equal(t, "/proj", r.Context)
	assert.Equal(t, "assets/**/*.png", r.Expr)
}

func TestResolve_AbsoluteGlobAnchorsContext(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "/other/*.txt"})
	require.NoError(t, err)
	assert.Equal(t, FromGlob, r.FromType)
	assert.Equal(t, "/other", r.Context)
	assert.Equal(t, "*.txt", r.Expr)
}

func TestResolve_AbsoluteFile(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "/other/shared.txt"})
	require.NoError(t, err)
	assert.Equal(t, "/other/shared.txt", r.AbsoluteFrom)
	assert.Equal(t, "/other", r.Context)
}

func TestResolve_ContextOverride(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", nil, Spec{From: "app.css", Context: "assets"})
	require.NoError(t, err)
	assert.Equal(t, "/proj/assets/app.css", r.AbsoluteFrom)

	r, err = Resolve(fs, "/proj", nil, Spec{From: "shared.txt", Context: "/other"})
	require.NoError(t, err)
	assert.Equal(t, "/other/shared.txt", r.AbsoluteFrom)
}

func TestResolve_Missing(t *testing.T) {
	fs := newTestFs(t)

	_, err := Resolve(fs, "/proj", nil, Spec{From: "nope.txt"})
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nope.txt", pe.Pattern)
	assert.Equal(t, "/proj/nope.txt", pe.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolve_GlobMissingRoot(t *testing.T) {
	fs := newTestFs(t)

	_, err := Resolve(fs, "/proj", nil, Spec{From: "missing/**/*.js"})
	require.Error(t, err)
	assert.True(t, IsPatternError(err))
}

func TestResolve_InvalidGlob(t *testing.T) {
	fs := newTestFs(t)

	_, err := Resolve(fs, "/proj", nil, Spec{From: "assets/[a-.css"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob")
}

func TestResolve_EmptyFrom(t *testing.T) {
	_, err := Resolve(afero.NewMemMapFs(), "/proj", nil, Spec{From: "  "})
	require.Error(t, err)
	assert.True(t, IsPatternError(err))
}

func TestResolve_IgnoreMerge(t *testing.T) {
	fs := newTestFs(t)

	r, err := Resolve(fs, "/proj", []string{"*.map"}, Spec{From: "assets", Ignore: []string{"*.psd"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.map", "*.psd"}, r.Ignore)
}

func TestInferToType(t *testing.T) {
	tests := []struct {
		name     string
		to       string
		explicit ToType
		want     ToType
	}{
		{name: "empty mirrors", to: "", want: ToDir},
		{name: "no extension", to: "static", want: ToDir},
		{name: "trailing slash", to: "static.v1/", want: ToDir},
		{name: "file", to: "out/robots.txt", want: ToFile},
		{name: "template", to: "[name].[hash:8].[ext]", want: ToTemplate},
		{name: "explicit wins", to: "[name].txt", explicit: ToFile, want: ToFile},
		{name: "explicit dir", to: "vendor.js", explicit: ToDir, want: ToDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferToType(tt.explicit, tt.to))
		})
	}
}

func TestParseToType(t *testing.T) {
	got, err := ParseToType("Template")
	require.NoError(t, err)
	assert.Equal(t, ToTemplate, got)

	got, err = ParseToType("")
	require.NoError(t, err)
	assert.Equal(t, ToUnset, got)

	_, err = ParseToType("folder")
	assert.Error(t, err)
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "glob", FromGlob.String())
	assert.Equal(t, "unknown", FromType(42).String())
	assert.Equal(t, "template", ToTemplate.String())
}
