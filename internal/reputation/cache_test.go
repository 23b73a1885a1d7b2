package reputation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for TTL tests
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Lowercases", "HTTP://EXAMPLE.COM/Path", "http://example.com/path"},
		{"Strips trailing slash", "http://example.com/", "http://example.com"},
		{"Trims whitespace", "  http://example.com  ", "http://example.com"},
		{"Already normalized", "http://example.com/a", "http://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(tt.in))
		})
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewCacheWithClock(10, time.Hour, clock.Now)

	cache.Put("http://evil.test", true)

	malicious, ok := cache.Get("http://evil.test")
	assert.True(t, ok)
	assert.True(t, malicious)
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	clock := newFakeClock()
	cache := NewCacheWithClock(10, time.Hour, clock.Now)

	cache.Put("http://evil.test", true)
	clock.Advance(time.Hour + time.Second)

	_, ok := cache.Get("http://evil.test")
	assert.False(t, ok, "entry past expiresAt must never be a hit")
	assert.Equal(t, 0, cache.Len(), "expired entry is dropped on observation")
}

func TestCache_NormalizedKeysCollide(t *testing.T) {
	cache := NewCache(10, time.Hour)

	cache.Put("HTTP://Evil.Test/", true)

	malicious, ok := cache.Get("http://evil.test")
	assert.True(t, ok)
	assert.True(t, malicious)
}

func TestCache_CapacityEvictsOldestInsertion(t *testing.T) {
	cache := NewCache(1000, time.Hour)

	for i := 0; i < 1001; i++ {
		cache.Put(fmt.Sprintf("http://site-%d.test", i), false)
	}

	assert.Equal(t, 1000, cache.Len())
	_, ok := cache.Get("http://site-0.test")
	assert.False(t, ok, "oldest insertion is evicted first")
	_, ok = cache.Get("http://site-1000.test")
	assert.True(t, ok)
}

func TestCache_OverwriteRefreshesInsertionOrder(t *testing.T) {
	cache := NewCache(2, time.Hour)

	cache.Put("http://a.test", false)
	cache.Put("http://b.test", false)
	// Overwriting a counts as a fresh insertion, so b is now the oldest
	cache.Put("http://a.test", true)
	cache.Put("http://c.test", false)

	_, okB := cache.Get("http://b.test")
	assert.False(t, okB)
	malicious, okA := cache.Get("http://a.test")
	assert.True(t, okA)
	assert.True(t, malicious, "overwrite replaced the verdict")
}

func TestCache_Stats(t *testing.T) {
	cache := NewCache(10, time.Hour)

	cache.Put("http://a.test", false)
	cache.Get("http://a.test")
	cache.Get("http://missing.test")

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}
