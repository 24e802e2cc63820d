package chaos

import "math/rand"

// Rand is the PRNG surface every primitive and the orchestrator's
// percentage roll draws through. Injectable so spec.md §8's literal
// end-to-end scenarios ("assuming a PRNG returning 0", "PRNG returning 0.9")
// are directly constructible in tests without reaching into package
// internals.
type Rand interface {
	// Float64 returns a value in [0, 1), used for percentage rolls.
	Float64() float64
	// Intn returns a value in [0, n), used for the latency primitive's
	// uniform delay draw and the corruption mangle point.
	Intn(n int) int
}

// defaultRand wraps the top-level math/rand functions, which are safe for
// concurrent use and already seeded.
type defaultRand struct{}

func (defaultRand) Float64() float64 { return rand.Float64() }
func (defaultRand) Intn(n int) int   { return rand.Intn(n) }

// DefaultRand is the package-wide default source, overridden only in tests.
var DefaultRand Rand = defaultRand{}

// rollPercentage draws r in [0, 100) and reports whether r < percentage,
// matching spec.md §4.8 step 5b exactly (percentage:0 never fires since
// r is always >= 0; percentage:100 always fires since r is always < 100).
func rollPercentage(rng Rand, percentage int) bool {
	r := int(rng.Float64() * 100)
	return r < percentage
}
