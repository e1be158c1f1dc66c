package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(max, window)
	l.now = c.now
	return l, c
}

func TestAllowWithinWindow(t *testing.T) {
	l, c := newTestLimiter(2, time.Minute)

	ok, _ := l.Allow("ip:1")
	assert.True(t, ok)
	c.advance(10 * time.Second)
	ok, _ = l.Allow("ip:1")
	assert.True(t, ok)

	ok, retry := l.Allow("ip:1")
	assert.False(t, ok)
	assert.Equal(t, 50*time.Second, retry)

	ok, _ = l.Allow("ip:2")
	assert.True(t, ok, "keys are independent")
}

func TestWindowSlides(t *testing.T) {
	l, c := newTestLimiter(1, time.Minute)

	ok, _ := l.Allow("org:a")
	require.True(t, ok)
	c.advance(61 * time.Second)
	ok, _ = l.Allow("org:a")
	assert.True(t, ok)
}

func TestPrune(t *testing.T) {
	l, c := newTestLimiter(5, time.Minute)
	l.Allow("old")
	c.advance(2 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 1, l.Len())
}
