package resilience

import "errors"

// Sentinel errors returned by this package's guard rails, mirroring the
// sentinel-error style of chaos/errors.go rather than importing it (this
// package has no dependency on chaos; chaos optionally depends on this
// package, not the reverse).
var (
	// ErrCircuitOpen is returned by Execute when the breaker is open and
	// the probe interval has not yet elapsed.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTooManyProbes is returned by Execute when a half-open breaker has
	// already admitted all of its allotted probes.
	ErrTooManyProbes = errors.New("resilience: half-open probe already in flight")
)
