package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func val(s string) []byte { return []byte(s) }

func TestLRUCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", val("value_a"))
	c.Set("b", val("value_b"))
	c.Set("c", val("value_c"))

	assert.Equal(t, 3, c.Len())

	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, val("value_a"), v)

	v, found = c.Get("b")
	require.True(t, found)
	assert.Equal(t, val("value_b"), v)
}

func TestLRUCache_LRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{MaxSize: 3, OnEvict: func(key string, _ []byte) { evicted = append(evicted, key) }})

	c.Set("a", val("value_a"))
	c.Set("b", val("value_b"))
	c.Set("c", val("value_c"))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", val("value_d"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	assert.Equal(t, []string{"d", "a", "c"}, c.Keys())
}

func TestLRUCache_Delete(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", val("value_a"))
	c.Set("b", val("value_b"))

	c.Delete("a")
	c.Delete("missing")

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(len("value_b")), c.CurrentBytes())

	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestLRUCache_Clear(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", val("value_a"))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Zero(t, c.CurrentBytes())
	assert.Empty(t, c.Keys())
}

func TestLRUCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", val("value_a"))
	c.Set("b", val("value_b"))
	c.Set("c", val("value_c"))
	c.Get("a")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, []string{"a", "c", "b"}, restored.Keys())
	v, found := restored.Get("c")
	require.True(t, found)
	assert.Equal(t, val("value_c"), v)
	assert.Equal(t, c.CurrentBytes(), restored.CurrentBytes())
}

func TestLRUCache_LoadAppliesLimits(t *testing.T) {
	c := New(Options{})
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, val(k))
	}
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	small := New(Options{MaxSize: 2})
	require.NoError(t, small.Load(&buf))
	assert.Equal(t, []string{"c", "b"}, small.Keys())
}

func TestLRUCache_LoadGarbage(t *testing.T) {
	c := New(Options{})
	err := c.Load(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}

func TestLRUCache_MaxBytes(t *testing.T) {
	c := New(Options{MaxBytes: 10})

	c.Set("a", val("12345"))
	c.Set("b", val("12345"))
	assert.Equal(t, 2, c.Len())

	c.Set("c", val("1"))
	assert.Equal(t, 2, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
	assert.LessOrEqual(t, c.CurrentBytes(), int64(10))
}

func TestLRUCache_Update(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", val("old"))
	c.Set("a", val("newer"))

	assert.Equal(t, 1, c.Len())
	v, _ := c.Get("a")
	assert.Equal(t, val("newer"), v)
	assert.Equal(t, int64(5), c.CurrentBytes())
}

func TestLRUCache_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.msgpack")

	c := New(Options{})
	require.NoError(t, c.LoadFromFile(path), "missing file is not an error")
	c.Set("k", val("v"))
	require.NoError(t, c.PersistToFile(path))

	restored := New(Options{})
	require.NoError(t, restored.LoadFromFile(path))
	v, found := restored.Get("k")
	require.True(t, found)
	assert.Equal(t, val("v"), v)
}

func TestStatsCache(t *testing.T) {
	c := NewStatsCache(Options{MaxSize: 10})
	c.Set("a", val("xy"))

	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	assert.Equal(t, Stats{Length: 1, CurrentBytes: 2, HitCount: 2, MissCount: 1}, stats)
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)
}
