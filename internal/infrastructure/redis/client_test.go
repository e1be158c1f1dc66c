package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	tests := map[string]string{
		"content:org-1:": "content:org-1:",
		"public:a*b:":    `public:a\*b:`,
		"x?[y]":          `x\?\[y\]`,
		`back\slash`:     `back\\slash`,
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeGlob(in), in)
	}
}

// unreachable returns a client pointed at a port nothing listens on.
func unreachable(t *testing.T) *Client {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromUniversal(rdb, nil)
}

func TestCacheStoreSurfacesConnectionErrors(t *testing.T) {
	store := NewCacheStore(unreachable(t), "tenantcms:", nil)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "content:org:list")
	require.Error(t, err)
	assert.False(t, found)

	assert.Error(t, store.Set(ctx, "content:org:list", []byte("x"), time.Minute))
	assert.Error(t, store.Invalidate(ctx, "content:org:"))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url", nil)
	assert.Error(t, err)
}
