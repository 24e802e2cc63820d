package chaos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderGetConfigReturnsEmptyWithNoFetcher(t *testing.T) {
	loader := NewLoader(nil, AmbientConfig{}, nil)
	cfg := loader.GetConfig(context.Background())
	assert.Empty(t, cfg)
}

func TestLoaderGetConfigParsesSuccessfulFetch(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		return []byte(`{"latency":{"enabled":true,"min_latency":1,"max_latency":2}}`), nil
	})
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter}, nil)

	cfg := loader.GetConfig(context.Background())
	require.Contains(t, cfg, ModeLatency)
	assert.True(t, cfg[ModeLatency].Enabled)
}

func TestLoaderGetConfigReturnsEmptyOnTransportError(t *testing.T) {
	calls := 0
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, assert.AnError
	})
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter}, nil)

	cfg := loader.GetConfig(context.Background())
	assert.Empty(t, cfg)
	assert.Greater(t, calls, 0)
}

func TestLoaderGetConfigReturnsEmptyOnInvalidJSON(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		return []byte(`not json`), nil
	})
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter}, nil)

	cfg := loader.GetConfig(context.Background())
	assert.Empty(t, cfg)
}

func TestLoaderCachesSubsequentCalls(t *testing.T) {
	calls := 0
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	})
	seconds := 60
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter, CacheTTLSeconds: &seconds}, nil)

	loader.GetConfig(context.Background())
	loader.GetConfig(context.Background())

	assert.Equal(t, 1, calls)
}

func TestLoaderClearCacheForcesRefetch(t *testing.T) {
	calls := 0
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	})
	seconds := 60
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter, CacheTTLSeconds: &seconds}, nil)

	loader.GetConfig(context.Background())
	loader.ClearCache()
	loader.GetConfig(context.Background())

	assert.Equal(t, 2, calls)
}

func TestLoaderHostedBackendFetchesEveryCallWithNoExplicitTTL(t *testing.T) {
	calls := 0
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	})
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendHosted}, nil)

	loader.GetConfig(context.Background())
	loader.GetConfig(context.Background())

	assert.Equal(t, 2, calls)
}

func TestLoaderLogsColdStartOnlyOnce(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		return []byte(`{"latency":{"enabled":true,"min_latency":1,"max_latency":2}}`), nil
	})
	logger, logs := newTestLogger()
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendHosted}, logger)

	loader.GetConfig(context.Background())
	loader.GetConfig(context.Background())

	var coldStarts int
	for _, l := range *logs {
		if l.action == ActionConfig && l.msg == "configuration loaded" {
			coldStarts++
		}
	}
	assert.Equal(t, 1, coldStarts)
}

func TestResolveOptionsDefaultsToEmptyConfigurationWithNoProvider(t *testing.T) {
	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"ok": true}, nil
	}

	wrapped := Wrap(handler)
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.Equal(t, Response{"ok": true}, result)
}

func TestLoaderWithLoaderOption(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context) ([]byte, error) {
		return []byte(`{}`), nil
	})
	loader := NewLoader(fetcher, AmbientConfig{Backend: BackendParameter}, nil)

	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"ok": true}, nil
	}
	wrapped := Wrap(handler, WithLoader(loader))

	_, err := wrapped(context.Background(), Event{})
	require.NoError(t, err)
}
