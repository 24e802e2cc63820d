package lambdaadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

func TestHooksBeforeAfterAppliesCorruption(t *testing.T) {
	cfg := chaos.Configuration{
		chaos.ModeCorruption: chaos.Flag{
			Mode: chaos.ModeCorruption, Enabled: true, Percentage: 100,
			Corruption: chaos.CorruptionFields{Body: "X", HasBody: true},
		},
	}

	h := NewHooks(chaos.WithConfigProvider(func(context.Context) chaos.Configuration { return cfg }))

	short, shortErr, skip := h.Before(context.Background(), chaos.Event{})
	require.False(t, skip)
	require.Nil(t, short)
	require.NoError(t, shortErr)

	result, err := h.After(context.Background(), chaos.Response{"statusCode": 200, "body": "orig"})
	require.NoError(t, err)
	assert.Equal(t, "X", result["body"])
}

func TestHooksOnErrorPropagatesUnchanged(t *testing.T) {
	h := NewHooks(chaos.WithConfigProvider(func(context.Context) chaos.Configuration { return chaos.Empty() }))

	_, _, skip := h.Before(context.Background(), chaos.Event{})
	require.False(t, skip)

	sentinel := assert.AnError
	err := h.OnError(sentinel)
	assert.ErrorIs(t, err, sentinel)
}
