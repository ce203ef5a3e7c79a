package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_HitWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	c := New[[]string](true, clock)

	stored := c.Set("2024-05-01", []string{"a", "b"}, TTLFeed)

	clock.Advance(TTLFeed - time.Second)
	v, fetchedAt, ok := c.Get("2024-05-01")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, stored, fetchedAt)
}

func TestCache_ExpiresAtTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[int](true, clock)
	c.Set("k", 1, time.Minute)

	clock.Advance(time.Minute)
	_, _, ok := c.Get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalKeys)
	assert.Equal(t, 1, stats.ExpiredKeys)

	assert.Equal(t, 1, c.Evict())
	assert.Equal(t, 0, c.Stats().TotalKeys)
}

func TestCache_SetReplacesSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[string](true, clock)
	c.Set("k", "old", time.Hour)
	clock.Advance(time.Minute)
	second := c.Set("k", "new", time.Hour)

	v, fetchedAt, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, second, fetchedAt)
}

func TestCache_Disabled(t *testing.T) {
	c := New[string](false, nil)
	c.Set("k", "v", time.Hour)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Stats().Enabled)
}

func TestETag(t *testing.T) {
	etag := ComputeETag([]byte(`{"count":1}`))
	assert.Equal(t, etag, ComputeETag([]byte(`{"count":1}`)))
	assert.NotEqual(t, etag, ComputeETag([]byte(`{"count":2}`)))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}
