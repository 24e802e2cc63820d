package chaos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheMissesWhenEmpty(t *testing.T) {
	c := NewCache(time.Minute)
	_, ok := c.Get()
	assert.False(t, ok)
}

func TestCacheHitsWithinTTL(t *testing.T) {
	c := NewCache(time.Minute)
	cfg := Configuration{ModeLatency: Flag{Mode: ModeLatency, Enabled: true}}
	c.Set(cfg)

	got, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, cfg, got)
}

func TestCacheMissesAfterTTLExpires(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set(Configuration{})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestCacheZeroTTLNeverCaches(t *testing.T) {
	c := NewCache(0)
	c.Set(Configuration{})

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestCacheClearEvictsEntry(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set(Configuration{})
	c.Clear()

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestResolveTTLExplicitValueWins(t *testing.T) {
	seconds := 30
	ambient := AmbientConfig{Backend: BackendParameter, CacheTTLSeconds: &seconds}
	logger, _ := newTestLogger()

	assert.Equal(t, 30*time.Second, ResolveTTL(ambient, logger))
}

func TestResolveTTLZeroDisablesCaching(t *testing.T) {
	zero := 0
	ambient := AmbientConfig{Backend: BackendParameter, CacheTTLSeconds: &zero}
	logger, _ := newTestLogger()

	assert.Equal(t, time.Duration(0), ResolveTTL(ambient, logger))
}

func TestResolveTTLHostedBackendDefaultsToZero(t *testing.T) {
	ambient := AmbientConfig{Backend: BackendHosted}
	logger, _ := newTestLogger()

	assert.Equal(t, time.Duration(0), ResolveTTL(ambient, logger))
}

func TestResolveTTLHostedBackendWithExplicitTTLWarns(t *testing.T) {
	seconds := 15
	ambient := AmbientConfig{Backend: BackendHosted, CacheTTLSeconds: &seconds}
	logger, logs := newTestLogger()

	got := ResolveTTL(ambient, logger)
	assert.Equal(t, 15*time.Second, got)
	assertAnyWarn(t, *logs)
}

func TestResolveTTLDefaultsTo60SecondsForParameterBackend(t *testing.T) {
	ambient := AmbientConfig{Backend: BackendParameter}
	logger, _ := newTestLogger()

	assert.Equal(t, 60*time.Second, ResolveTTL(ambient, logger))
}

func TestResolveTTLInvalidValueWarnsAndFallsBack(t *testing.T) {
	ambient := AmbientConfig{Backend: BackendParameter, CacheTTLInvalid: true}
	logger, logs := newTestLogger()

	got := ResolveTTL(ambient, logger)
	assert.Equal(t, 60*time.Second, got)
	assertAnyWarn(t, *logs)
}
