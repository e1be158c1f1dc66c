package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache() (*Cache, *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New()
	c.now = clk.now
	return c, clk
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), time.Second))

	val, ok, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value1"), val)
}

func TestExpiration(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()
	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), 100*time.Millisecond))

	clk.t = clk.t.Add(150 * time.Millisecond)
	_, ok, _ := c.Get(ctx, "key1")
	assert.False(t, ok, "expired key must miss")
	assert.Equal(t, 1, c.Len(), "expiry is lazy until a sweep")

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, c.Len())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), time.Second))
	c.Delete("key1")
	_, ok, _ := c.Get(ctx, "key1")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	_ = c.Set(ctx, Key("content", "org-1", "list"), []byte("a"), time.Second)
	_ = c.Set(ctx, Key("content", "org-1", "item"), []byte("b"), time.Second)
	_ = c.Set(ctx, Key("content", "org-2", "list"), []byte("c"), time.Second)

	require.NoError(t, c.Invalidate(ctx, "content:org-1:"))

	_, ok1, _ := c.Get(ctx, "content:org-1:list")
	_, ok2, _ := c.Get(ctx, "content:org-1:item")
	_, ok3, _ := c.Get(ctx, "content:org-2:list")
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3, "other tenants keep their entries")
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	boom := errors.New("boom")

	_, err := Remember(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}
