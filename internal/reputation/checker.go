package reputation

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/sentrychat/message-security/internal/metrics"
	"github.com/sentrychat/message-security/internal/ports"
)

// Checker resolves the reputation of every URL in a message, consulting the
// cache before the external service. Lookup failures fail open: a URL the
// service cannot classify is treated as clean, because falsely blocking a
// legitimate message costs more than missing a detection.
type Checker struct {
	cache  *Cache
	svc    ports.ReputationService
	logger *slog.Logger

	apiErrors atomic.Int64
}

// NewChecker creates a checker over the given cache and external service
func NewChecker(cache *Cache, svc ports.ReputationService, logger *slog.Logger) *Checker {
	return &Checker{cache: cache, svc: svc, logger: logger}
}

// CheckURL resolves one URL to a malicious/clean verdict
func (c *Checker) CheckURL(ctx context.Context, url string) bool {
	normalized := NormalizeURL(url)

	if malicious, ok := c.cache.Get(normalized); ok {
		metrics.ReputationCacheHits.Inc()
		return malicious
	}
	metrics.ReputationCacheMisses.Inc()

	malicious, err := c.svc.Lookup(ctx, normalized)
	if err != nil {
		// Fail open: error verdicts are not cached so the next lookup retries
		c.apiErrors.Add(1)
		metrics.ReputationAPIErrors.Inc()
		c.logger.Warn("Reputation lookup failed, treating as clean",
			"url", normalized, "error", err)
		return false
	}

	c.cache.Put(normalized, malicious)
	return malicious
}

// CheckURLs resolves a set of URLs. The first malicious verdict short-circuits
// the remaining checks and is returned as the offending URL.
func (c *Checker) CheckURLs(ctx context.Context, urls []string) (malicious bool, offender string) {
	for _, url := range urls {
		if ctx.Err() != nil {
			return false, ""
		}
		if c.CheckURL(ctx, url) {
			return true, NormalizeURL(url)
		}
	}
	return false, ""
}

// APIErrors returns the number of lookups that failed open since startup
func (c *Checker) APIErrors() int64 {
	return c.apiErrors.Load()
}
