package reputation

import (
	"strings"
	"sync"
	"time"

	"github.com/sentrychat/message-security/internal/domain"
)

// NormalizeURL canonicalizes a URL for cache keying: lower-cased, trailing
// slash stripped
func NormalizeURL(raw string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
}

// Cache is a time-bounded store of URL reputation verdicts. Entries expire
// after the configured TTL and capacity is enforced in insertion order: when
// the cache is full, the oldest-inserted entry is evicted.
//
// All operations take the cache lock, which keeps the insert+evict bookkeeping
// consistent under concurrent lookups for distinct URLs.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]domain.ReputationVerdict
	order    []string // insertion order, oldest first
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits   int64
	misses int64
}

// NewCache creates a reputation cache with the given capacity and TTL
func NewCache(capacity int, ttl time.Duration) *Cache {
	return NewCacheWithClock(capacity, ttl, time.Now)
}

// NewCacheWithClock creates a cache with an injected clock for tests
func NewCacheWithClock(capacity int, ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		entries:  make(map[string]domain.ReputationVerdict),
		capacity: capacity,
		ttl:      ttl,
		now:      now,
	}
}

// Get returns the cached verdict for a URL. An entry past its expiry is never
// returned as a hit; it is dropped on observation.
func (c *Cache) Get(url string) (malicious bool, ok bool) {
	key := NormalizeURL(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return false, false
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return false, false
	}
	c.hits++
	return entry.Malicious, true
}

// Put stores a verdict, overwriting any prior entry for the URL. An overwrite
// counts as a fresh insertion for eviction ordering. Capacity eviction happens
// lazily here: the oldest-inserted entry goes first.
func (c *Cache) Put(url string, malicious bool) {
	key := NormalizeURL(url)
	checkedAt := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	}
	c.entries[key] = domain.ReputationVerdict{
		URL:       key,
		Malicious: malicious,
		CheckedAt: checkedAt,
		ExpiresAt: checkedAt.Add(c.ttl),
	}
	c.order = append(c.order, key)

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached entries, expired or not
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since startup
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
