package chaos

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache provides process-local, time-bounded memoization of the last
// fetched configuration. One Cache is created per container and reused
// across every invocation (spec.md §5: container-scoped process-wide
// state). Modeled on the teacher's RedisSchemaCache (core/schema_cache.go)
// stripped of its Redis transport: a single entry, a TTL, and atomic
// hit/miss counters for Stats().
type Cache struct {
	ttl time.Duration

	mu        sync.RWMutex
	config    Configuration
	fetchedAt time.Time
	hasEntry  bool

	hits   int64
	misses int64
}

// NewCache builds a Cache with the given TTL. A TTL of 0 means "never
// cache" — every Get reports a miss.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached configuration if one exists and is still fresh:
// now - fetchedAt < TTL (spec.md §4.3). A zero TTL always misses.
func (c *Cache) Get() (Configuration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ttl <= 0 || !c.hasEntry || time.Since(c.fetchedAt) >= c.ttl {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return c.config, true
}

// Set stores a freshly fetched configuration, starting its freshness
// window now. Cache entries are created only on successful fetch
// (spec.md §3).
func (c *Cache) Set(config Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
	c.fetchedAt = time.Now()
	c.hasEntry = true
}

// Clear evicts the current entry, used by explicit reset (spec.md §3) and
// by tests that need a cold cache between cases.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasEntry = false
	c.config = nil
}

// SetTTL updates the TTL in place. Used when the ambient TTL configuration
// is resolved after the cache has already been constructed (e.g. a
// package-level default cache created before LoadAmbientConfig runs).
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Stats reports cumulative hit/miss counts for operational visibility.
// Not required by spec.md, carried as ambient observability the teacher
// always exposes alongside a cache (core/schema_cache.go's Stats()).
func (c *Cache) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	stats := map[string]interface{}{
		"hits":   hits,
		"misses": misses,
	}
	if total := hits + misses; total > 0 {
		stats["hit_rate"] = float64(hits) / float64(total)
	}
	return stats
}

// ResolveTTL implements the TTL policy of spec.md §4.3: an explicit,
// parseable, non-negative TTL wins; otherwise the hosted backend defaults
// to 0 (it already caches externally, and a positive explicit TTL on that
// backend is logged here as a warning); any other backend defaults to 60
// seconds. An unparseable explicit value has already been flagged by
// LoadAmbientConfig via CacheTTLInvalid; this function logs a warning for
// it and falls back to the default as if unset.
func ResolveTTL(ambient AmbientConfig, logger Logger) time.Duration {
	if ambient.CacheTTLInvalid {
		logger.Warn(ActionConfig, "cache TTL value is not a valid non-negative integer, using default", map[string]interface{}{
			"default_ttl_seconds": defaultTTLForBackend(ambient.Backend),
		})
	} else if ambient.CacheTTLSeconds != nil {
		if ambient.Backend == BackendHosted && *ambient.CacheTTLSeconds > 0 {
			logger.Warn(ActionConfig, "explicit cache TTL set on the hosted backend, which already caches externally", map[string]interface{}{
				"ttl_seconds": *ambient.CacheTTLSeconds,
			})
		}
		return time.Duration(*ambient.CacheTTLSeconds) * time.Second
	}

	if ambient.Backend == BackendHosted {
		return 0
	}
	return time.Duration(defaultCacheTTLSeconds) * time.Second
}

func defaultTTLForBackend(backend BackendKind) int {
	if backend == BackendHosted {
		return 0
	}
	return defaultCacheTTLSeconds
}
