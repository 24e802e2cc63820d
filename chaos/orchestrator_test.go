package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProvider(cfg Configuration) func(context.Context) Configuration {
	return func(context.Context) Configuration { return cfg }
}

func TestWrapEmptyPlanPassesThroughUnchanged(t *testing.T) {
	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"x": 1}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(Empty())))
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.Equal(t, Response{"x": 1}, result)
}

func TestWrapLatencyThenHandlerResultUnchanged(t *testing.T) {
	cfg := Configuration{
		ModeLatency: Flag{Mode: ModeLatency, Enabled: true, Percentage: 100,
			Latency: LatencyFields{MinMS: 10, MaxMS: 10}},
	}
	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"x": 1}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))

	start := time.Now()
	result, err := wrapped(context.Background(), Event{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Response{"x": 1}, result)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
}

func TestWrapStatuscodeShortCircuitsBeforeException(t *testing.T) {
	cfg := Configuration{
		ModeStatuscode: Flag{Mode: ModeStatuscode, Enabled: true, Percentage: 100,
			StatusCode: StatusCodeFields{Code: 418}},
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 100,
			Exception: ExceptionFields{Message: "no"}},
	}

	handlerCalled := false
	handler := func(ctx context.Context, event Event) (Response, error) {
		handlerCalled = true
		return Response{}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.False(t, handlerCalled)
	assert.Equal(t, 418, result["statusCode"])
}

func TestWrapLatencyThenExceptionNeverCallsHandler(t *testing.T) {
	cfg := Configuration{
		ModeLatency: Flag{Mode: ModeLatency, Enabled: true, Percentage: 100,
			Latency: LatencyFields{MinMS: 0, MaxMS: 0}},
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 100,
			Exception: ExceptionFields{Message: "Boom"}},
	}

	handlerCalled := false
	handler := func(ctx context.Context, event Event) (Response, error) {
		handlerCalled = true
		return Response{}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))
	_, err := wrapped(context.Background(), Event{})

	require.Error(t, err)
	assert.EqualError(t, err, "Boom")
	assert.False(t, handlerCalled)
}

func TestWrapCorruptionReplacesHandlerBody(t *testing.T) {
	cfg := Configuration{
		ModeCorruption: Flag{Mode: ModeCorruption, Enabled: true, Percentage: 100,
			Corruption: CorruptionFields{Body: "X", HasBody: true}},
	}

	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"statusCode": 200, "body": "orig"}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.Equal(t, Response{"statusCode": 200, "body": "X"}, result)
}

func TestWrapPercentageBelowRollNeverFires(t *testing.T) {
	cfg := Configuration{
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 50,
			Exception: ExceptionFields{Message: "should not fire"}},
	}

	handlerCalled := false
	handler := func(ctx context.Context, event Event) (Response, error) {
		handlerCalled = true
		return Response{"ok": true}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(neverFireRand))
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.True(t, handlerCalled)
	assert.Equal(t, Response{"ok": true}, result)
}

func TestWrapMatchMismatchSkipsInjection(t *testing.T) {
	cfg := Configuration{
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 100,
			Match:     []MatchCondition{{Path: "region", Value: "eu-west-1"}},
			Exception: ExceptionFields{Message: "should not fire"}},
	}

	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"ok": true}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))
	result, err := wrapped(context.Background(), Event{"region": "us-east-1"})

	require.NoError(t, err)
	assert.Equal(t, Response{"ok": true}, result)
}

func TestWrapDryRunNeverDispatchesEffects(t *testing.T) {
	cfg := Configuration{
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 100,
			Exception: ExceptionFields{Message: "would fire"}},
	}

	handlerCalled := false
	handler := func(ctx context.Context, event Event) (Response, error) {
		handlerCalled = true
		return Response{"ok": true}, nil
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand), WithDryRun(true))
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.True(t, handlerCalled)
	assert.Equal(t, Response{"ok": true}, result)
}

func TestWrapKillSwitchBypassesEverything(t *testing.T) {
	cfg := Configuration{
		ModeException: Flag{Mode: ModeException, Enabled: true, Percentage: 100,
			Exception: ExceptionFields{Message: "should not fire"}},
	}

	handler := func(ctx context.Context, event Event) (Response, error) {
		return Response{"ok": true}, nil
	}

	wrapped := Wrap(handler,
		WithConfigProvider(staticProvider(cfg)),
		WithRand(zeroRand),
		withAmbientConfig(func() AmbientConfig { return AmbientConfig{KillSwitch: true} }),
	)
	result, err := wrapped(context.Background(), Event{})

	require.NoError(t, err)
	assert.Equal(t, Response{"ok": true}, result)
}

func TestWrapHandlerErrorPropagatesUnchanged(t *testing.T) {
	sentinel := assert.AnError
	handler := func(ctx context.Context, event Event) (Response, error) {
		return nil, sentinel
	}

	wrapped := Wrap(handler, WithConfigProvider(staticProvider(Empty())))
	_, err := wrapped(context.Background(), Event{})

	assert.ErrorIs(t, err, sentinel)
}

func TestBeforeAfterHookPathMatchesWrap(t *testing.T) {
	cfg := Configuration{
		ModeCorruption: Flag{Mode: ModeCorruption, Enabled: true, Percentage: 100,
			Corruption: CorruptionFields{Body: "X", HasBody: true}},
	}

	inv, short, shortErr, skip := Before(context.Background(), Event{}, WithConfigProvider(staticProvider(cfg)), WithRand(zeroRand))
	require.False(t, skip)
	require.Nil(t, short)
	require.NoError(t, shortErr)
	require.NotNil(t, inv)

	result, err := inv.After(context.Background(), Response{"statusCode": 200, "body": "orig"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Response{"statusCode": 200, "body": "X"}, result)
}
