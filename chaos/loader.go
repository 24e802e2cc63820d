package chaos

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v5"
)

// Fetcher retrieves the raw configuration document's bytes from one of the
// two supported backends. Implementations live in the backend package;
// this interface is the seam getConfig is exercised through, satisfying
// spec.md §4.1's "exposes a replaceable fetch function for testing".
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher, the way the teacher's
// middleware package adapts handler functions to handler interfaces.
type FetcherFunc func(ctx context.Context) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// Loader is the public entry point of spec.md §4.1: getConfig() →
// Configuration, never nil, backed by a Cache and emitting the required
// cold-start and error log records.
type Loader struct {
	fetcher Fetcher
	cache   *Cache
	ambient AmbientConfig
	logger  Logger

	coldStart sync.Once
}

// NewLoader builds a Loader. fetcher may be nil when no backend was
// selected (BackendNone), in which case GetConfig always returns Empty().
func NewLoader(fetcher Fetcher, ambient AmbientConfig, logger Logger) *Loader {
	if logger == nil {
		logger = NoOpLogger{}
	}
	ttl := ResolveTTL(ambient, logger)
	return &Loader{
		fetcher: fetcher,
		cache:   NewCache(ttl),
		ambient: ambient,
		logger:  logger,
	}
}

// GetConfig returns the current typed configuration, serving from cache
// when fresh and otherwise performing a fetch. Any failure along the way —
// no backend configured, transport error, JSON parse failure — returns an
// empty configuration and logs an error; it is never propagated to the
// caller (spec.md §4.1, §7).
func (l *Loader) GetConfig(ctx context.Context) Configuration {
	if cfg, ok := l.cache.Get(); ok {
		return cfg
	}

	if l.fetcher == nil {
		l.logger.Error(ActionError, "no configuration backend is configured", map[string]interface{}{
			"backend": string(l.ambient.Backend),
		})
		return Empty()
	}

	// A transient backend hiccup (extension not warmed up yet, a dropped
	// connection to SSM) shouldn't immediately fall back to an empty
	// configuration for the rest of the cache TTL; retry a couple of
	// times with exponential backoff before giving up.
	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		return l.fetcher.Fetch(ctx)
	}, backoff.WithMaxTries(3))
	if err != nil {
		l.logger.Error(ActionError, "failed to fetch configuration", map[string]interface{}{
			"backend": string(l.ambient.Backend),
			"error":   err.Error(),
		})
		return Empty()
	}

	doc, err := decodeJSON(raw)
	if err != nil {
		l.logger.Error(ActionError, "configuration document is not valid JSON", map[string]interface{}{
			"backend": string(l.ambient.Backend),
			"error":   err.Error(),
		})
		return Empty()
	}

	result := parseFlags(doc)
	for _, fieldErr := range result.Errors {
		l.logger.Warn(ActionConfig, fieldErr.Error(), nil)
	}
	if n := len(result.Errors); n > 0 {
		l.logger.Warn(ActionConfig, fmt.Sprintf("%d validation error(s) found, affected flags dropped", n), nil)
	}

	l.cache.Set(result.Config)
	l.logColdStart(result.Config)
	return result.Config
}

// ClearCache evicts the cached entry, used by explicit reset (spec.md §3).
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

func (l *Loader) logColdStart(cfg Configuration) {
	l.coldStart.Do(func() {
		l.logger.Info(ActionConfig, "configuration loaded", map[string]interface{}{
			"backend":           string(l.ambient.Backend),
			"cache_ttl_seconds": int(l.cache.ttl.Seconds()),
			"enabled_modes":     cfg.EnabledModes(),
		})
	})
}
