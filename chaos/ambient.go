package chaos

import (
	"os"
	"strconv"
)

// Ambient environment variable names (spec.md §6). Named by purpose, not
// tied to any one platform's conventions.
const (
	envParameterName   = "FAILURE_INJECTION_PARAM_NAME"
	envHostedApp       = "FAILURE_INJECTION_APPCONFIG_APPLICATION"
	envHostedEnv       = "FAILURE_INJECTION_APPCONFIG_ENVIRONMENT"
	envHostedProfile   = "FAILURE_INJECTION_APPCONFIG_PROFILE"
	envHostedPort      = "FAILURE_INJECTION_APPCONFIG_PORT"
	envCacheTTLSeconds = "FAILURE_INJECTION_CACHE_TTL_SECONDS"
	envKillSwitch      = "FAILURE_INJECTION_DISABLED"
)

const defaultHostedPort = 2772
const defaultCacheTTLSeconds = 60

// BackendKind identifies which of the two supported config sources is
// active for this container.
type BackendKind string

const (
	BackendNone      BackendKind = ""
	BackendHosted    BackendKind = "hosted"
	BackendParameter BackendKind = "parameterstore"
)

// AmbientConfig is the process configuration read from the environment
// once per container, mirroring the teacher's Config struct but scoped to
// the handful of values this library needs (spec.md §6 lists them by
// meaning, not by spelling — these constants are this module's spelling).
type AmbientConfig struct {
	Backend BackendKind

	ParameterName string

	HostedApp     string
	HostedEnv     string
	HostedProfile string
	HostedPort    int

	// CacheTTLSeconds is nil when no explicit value was provided, so the
	// cache can distinguish "not set" from "set to 0".
	CacheTTLSeconds *int
	CacheTTLInvalid bool

	KillSwitch bool
}

// LoadAmbientConfig reads the backend-selection and cache/kill-switch
// environment values. Backend selection priority (spec.md §4.1): hosted
// backend wins if all three of its identifiers are present, else parameter
// store if its identifier is present, else BackendNone.
func LoadAmbientConfig() AmbientConfig {
	cfg := AmbientConfig{
		HostedPort: defaultHostedPort,
	}

	cfg.HostedApp = os.Getenv(envHostedApp)
	cfg.HostedEnv = os.Getenv(envHostedEnv)
	cfg.HostedProfile = os.Getenv(envHostedProfile)
	cfg.ParameterName = os.Getenv(envParameterName)

	if v := os.Getenv(envHostedPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.HostedPort = port
		}
	}

	if cfg.HostedApp != "" && cfg.HostedEnv != "" && cfg.HostedProfile != "" {
		cfg.Backend = BackendHosted
	} else if cfg.ParameterName != "" {
		cfg.Backend = BackendParameter
	}

	if v := os.Getenv(envCacheTTLSeconds); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			cfg.CacheTTLSeconds = &seconds
		} else {
			cfg.CacheTTLInvalid = true
		}
	}

	cfg.KillSwitch = os.Getenv(envKillSwitch) == "true"

	return cfg
}
