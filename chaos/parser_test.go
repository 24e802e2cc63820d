package chaos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsBuildsTypedConfiguration(t *testing.T) {
	raw := map[string]interface{}{
		"latency": map[string]interface{}{
			"enabled":     true,
			"percentage":  float64(50),
			"min_latency": float64(10),
			"max_latency": float64(100),
		},
		"unknownmode": map[string]interface{}{"enabled": true},
	}

	result := parseFlags(raw)
	require.Empty(t, result.Errors)
	require.Contains(t, result.Config, ModeLatency)

	flag := result.Config[ModeLatency]
	assert.True(t, flag.Enabled)
	assert.Equal(t, 50, flag.Percentage)
	assert.Equal(t, 10, flag.Latency.MinMS)
	assert.Equal(t, 100, flag.Latency.MaxMS)
	assert.NotContains(t, result.Config, Mode("unknownmode"))
}

func TestParseFlagsDropsInvalidFlagEntirely(t *testing.T) {
	raw := map[string]interface{}{
		"statuscode": map[string]interface{}{
			"enabled":     true,
			"status_code": float64(9999),
		},
	}

	result := parseFlags(raw)
	assert.NotEmpty(t, result.Errors)
	assert.NotContains(t, result.Config, ModeStatuscode)
}

func TestParseFlagsDefaultsPercentageTo100(t *testing.T) {
	raw := map[string]interface{}{
		"exception": map[string]interface{}{"enabled": true},
	}
	result := parseFlags(raw)
	require.Empty(t, result.Errors)
	assert.Equal(t, 100, result.Config[ModeException].Percentage)
}

func TestParseFlagsDetectsLegacyFormat(t *testing.T) {
	raw := map[string]interface{}{
		"isEnabled":   true,
		"failureMode": "latency",
	}
	result := parseFlags(raw)
	assert.Empty(t, result.Config)
	require.Len(t, result.Errors, 1)
	assert.ErrorContains(t, result.Errors[0], ErrLegacyFormat.Error())
}

func TestParseFlagsDetectsLegacyFormatFromIsEnabledAlone(t *testing.T) {
	raw := map[string]interface{}{"isEnabled": true}
	result := parseFlags(raw)
	assert.Empty(t, result.Config)
	require.Len(t, result.Errors, 1)
	assert.ErrorContains(t, result.Errors[0], ErrLegacyFormat.Error())
}

func TestParseFlagsDetectsLegacyFormatFromFailureModeAlone(t *testing.T) {
	raw := map[string]interface{}{"failureMode": "latency"}
	result := parseFlags(raw)
	assert.Empty(t, result.Config)
	require.Len(t, result.Errors, 1)
	assert.ErrorContains(t, result.Errors[0], ErrLegacyFormat.Error())
}

func TestParseFlagsSkipsNonObjectModeValue(t *testing.T) {
	raw := map[string]interface{}{
		"latency": "not an object",
	}
	result := parseFlags(raw)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Config)
}

func TestParseFlagsPreservesDenylistPatterns(t *testing.T) {
	raw := map[string]interface{}{
		"denylist": map[string]interface{}{
			"enabled":    true,
			"percentage": float64(100),
			"deny_list":  []interface{}{`s3\..*\.amazonaws\.com`},
		},
	}
	result := parseFlags(raw)
	require.Empty(t, result.Errors)
	assert.Equal(t, []string{`s3\..*\.amazonaws\.com`}, result.Config[ModeDenylist].Denylist.Patterns)
}
