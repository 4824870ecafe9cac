package host

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetMap(t *testing.T) {
	t.Parallel()

	m := NewAssetMap()
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("a.txt"))

	m.Set("b/c.txt", NewAsset([]byte("cc"), 2))
	m.Set("a.txt", NewAsset([]byte("transformed"), 3))

	a, ok := m.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, int64(3), a.Size())
	assert.Equal(t, []byte("transformed"), a.Source())

	assert.Equal(t, []string{"a.txt", "b/c.txt"}, m.Paths())
	assert.Equal(t, 2, m.Len())

	m.Set("a.txt", NewAsset([]byte("x"), 1))
	a, _ = m.Get("a.txt")
	assert.Equal(t, []byte("x"), a.Source())
}

func TestAssetMapConcurrent(t *testing.T) {
	t.Parallel()

	m := NewAssetMap()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(fmt.Sprintf("f%d", i), NewAsset(nil, 0))
			_ = m.Has("f0")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}

func TestFileSet(t *testing.T) {
	t.Parallel()

	s := NewFileSet()
	assert.True(t, s.Add("/b"))
	assert.True(t, s.Add("/a"))
	assert.False(t, s.Add("/a"))
	assert.True(t, s.Has("/a"))
	assert.False(t, s.Has("/c"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"/a", "/b"}, s.List())
}

func TestContextList(t *testing.T) {
	t.Parallel()

	l := NewContextList()
	assert.False(t, l.Contains("/x"))
	l.Append("/x")
	l.Append("/a")
	assert.True(t, l.Contains("/x"))
	assert.Equal(t, []string{"/x", "/a"}, l.List())

	got := l.List()
	got[0] = "mutated"
	assert.Equal(t, "/x", l.List()[0])
}
