package chaos

import (
	"context"
	"fmt"

	"github.com/gunnargrosch/failure-lambda/chaos/denylist"
	"github.com/gunnargrosch/failure-lambda/resilience"
)

// Handler is the invocation signature every adapter normalizes its
// platform's handler shape down to before calling Wrap.
type Handler func(ctx context.Context, event Event) (Response, error)

// Options configures Wrap, built via the functional-option pattern the
// teacher uses for its schema cache (core/schema_cache.go's
// SchemaCacheOption).
type Options struct {
	configProvider func(ctx context.Context) Configuration
	dryRun         bool
	rng            Rand
	logger         Logger
	ambientFn      func() AmbientConfig
	telemetry      Telemetry
	breaker        *resilience.CircuitBreaker
}

// Option mutates an Options value during Wrap's setup.
type Option func(*Options)

// WithConfigProvider overrides how Wrap obtains a Configuration each
// invocation, the "configProvider" option of spec.md §4.8. Typically set to
// a *Loader's GetConfig method via WithLoader; tests can supply any
// function, including one returning a fixed Configuration.
func WithConfigProvider(fn func(ctx context.Context) Configuration) Option {
	return func(o *Options) { o.configProvider = fn }
}

// WithLoader is a convenience wrapper around WithConfigProvider for the
// common case of wiring a real Loader.
func WithLoader(loader *Loader) Option {
	return WithConfigProvider(loader.GetConfig)
}

// WithDryRun sets the "dryRun" option of spec.md §4.8: resolved failures
// are logged but never actually dispatched.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) { o.dryRun = dryRun }
}

// WithRand overrides the PRNG source, used by tests to pin percentage
// rolls and the corruption mangle point (spec.md §8).
func WithRand(rng Rand) Option {
	return func(o *Options) { o.rng = rng }
}

// WithLogger overrides the structured logger. Defaults to NoOpLogger so
// Wrap never requires a logger to be supplied.
func WithLogger(logger Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// WithTelemetry wires an optional metrics hook, incremented once per
// primitive actually dispatched (dry-run rolls and skipped rolls are not
// counted).
func WithTelemetry(t Telemetry) Option {
	return func(o *Options) { o.telemetry = t }
}

// WithCircuitBreaker wires an optional resilience.CircuitBreaker that
// throttles repeated terminating injections (statuscode, exception): once
// enough consecutive injections trip the breaker's error threshold,
// further rolls for those two modes are skipped — treated as a non-firing
// roll — until the breaker's sleep window elapses. This keeps a
// misconfigured 100%-percentage short-circuiting flag from failing every
// single invocation in a container for the entire chaos experiment.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(o *Options) { o.breaker = cb }
}

// withAmbientConfig overrides ambient environment lookup, used by tests
// exercising the kill switch without mutating process environment
// variables. Unexported: this isn't part of the public configuration
// surface, only a test seam.
func withAmbientConfig(fn func() AmbientConfig) Option {
	return func(o *Options) { o.ambientFn = fn }
}

func resolveOptions(opts []Option) *Options {
	o := &Options{
		rng:       DefaultRand,
		logger:    NoOpLogger{},
		ambientFn: LoadAmbientConfig,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.configProvider == nil {
		// No backend was wired via WithLoader/WithConfigProvider. chaos
		// itself never imports backend (that would invert the dependency
		// direction backend.Fetcher already establishes), so the only
		// honest default here is an empty configuration; real deployments
		// always pass WithLoader from an adapter that has constructed the
		// appropriate backend.Fetcher.
		o.configProvider = func(context.Context) Configuration { return Empty() }
	}
	return o
}

// Wrap is the orchestrator's public operation (spec.md §4.8): it returns a
// Handler that drives the full pipeline around the caller's handler.
func Wrap(handler Handler, opts ...Option) Handler {
	options := resolveOptions(opts)

	return func(ctx context.Context, event Event) (result Response, err error) {
		inv, shortResult, shortErr, skip := runPrePhase(ctx, event, options)
		if skip {
			return shortResult, shortErr
		}
		if inv == nil {
			// Kill switch: run the handler unchanged.
			return handler(ctx, event)
		}

		defer func() {
			if r := recover(); r != nil {
				inv.logger.Error(ActionError, "panic during wrapped invocation", map[string]interface{}{
					"panic": fmt.Sprintf("%v", r),
				})
				denylist.Clear()
				clearDiskspace(inv.logger)
				panic(r)
			}
		}()

		result, err = handler(ctx, event)
		return inv.After(ctx, result, err)
	}
}

// Invocation carries the state a pre-phase run produces through to its
// matching post-phase call, for adapters that cannot invoke the handler
// themselves through a single closure (spec.md §2's before/after/onError
// integration adapter, implemented in the lambdaadapter package).
type Invocation struct {
	event      Event
	options    *Options
	logger     Logger
	corruption *ResolvedFailure
}

// Before runs the pre-handler phase (spec.md §4.8 steps 1-5). If skip is
// true, the caller must not invoke the handler at all: short and shortErr
// are the invocation's final outcome (a statuscode short-circuit response,
// or an injected exception). If skip is false and inv is nil, the kill
// switch is active and the caller should run its handler completely
// unwrapped. Otherwise the caller should invoke its handler and pass the
// result to inv.After.
func Before(ctx context.Context, event Event, opts ...Option) (inv *Invocation, short Response, shortErr error, skip bool) {
	options := resolveOptions(opts)
	inv, short, shortErr, skip = runPrePhase(ctx, event, options)
	return inv, short, shortErr, skip
}

// runPrePhase implements spec.md §4.8 steps 1-5 and is shared by Wrap and
// the exported Before entry point.
func runPrePhase(ctx context.Context, event Event, options *Options) (inv *Invocation, short Response, shortErr error, skip bool) {
	ambient := options.ambientFn()
	if ambient.KillSwitch {
		return nil, nil, nil, false
	}

	logger := perInvocationLogger(options.logger)
	rng := options.rng

	config := options.configProvider(ctx)
	resolved := resolveFailures(config)

	// Pre-cleanup (spec.md §4.8 step 4): always clear side effects from a
	// prior invocation before this one's rolls are evaluated, so a
	// non-firing roll this time never inherits last time's denylist or
	// disk pressure.
	denylist.Clear()
	clearDiskspace(logger)

	var corruption *ResolvedFailure
	for i := range resolved {
		rf := resolved[i]
		if rf.Mode == ModeCorruption {
			corruption = &resolved[i]
			continue
		}

		if !matches(event, rf.Flag.Match) {
			continue
		}
		if !rollPercentage(rng, rf.Percentage) {
			continue
		}
		if options.dryRun {
			logger.Info(ActionDryRun, "dry-run: would inject "+string(rf.Mode), map[string]interface{}{
				"mode": string(rf.Mode),
			})
			continue
		}

		if (rf.Mode == ModeStatuscode || rf.Mode == ModeException) && options.breaker != nil && !options.breaker.CanExecute() {
			logger.Warn(ActionBlock, "circuit breaker is open, skipping repeated terminating injection", map[string]interface{}{
				"mode": string(rf.Mode),
			})
			continue
		}

		options.telemetry.RecordInjection(ctx, rf.Mode)

		switch rf.Mode {
		case ModeLatency:
			latencyPrimitive(rf.Flag, rng, logger)

		case ModeTimeout:
			timeoutPrimitive(ctx, rf.Flag, logger)

		case ModeDiskspace:
			diskspacePrimitive(rf.Flag, logger)

		case ModeDenylist:
			denylist.Install(rf.Flag.Denylist.Patterns, denylistLoggerAdapter{logger})

		case ModeStatuscode:
			if options.breaker != nil {
				options.breaker.RecordFailure()
			}
			return nil, statuscodePrimitive(rf.Flag, logger), nil, true

		case ModeException:
			if options.breaker != nil {
				options.breaker.RecordFailure()
			}
			injected := exceptionPrimitive(rf.Flag, logger)
			logger.Error(ActionError, "invocation failing due to injected exception", map[string]interface{}{
				"error": injected.Error(),
			})
			denylist.Clear()
			clearDiskspace(logger)
			return nil, nil, injected, true
		}
	}

	return &Invocation{event: event, options: options, logger: logger, corruption: corruption}, nil, nil, false
}

// After runs the post-handler phase (spec.md §4.8 steps 6-9) given the
// handler's own result and error. On a handler error it logs, runs
// cleanup, and returns the error unchanged. On success it applies the
// corruption gate (if a corruption entry was resolved) and returns the
// possibly-corrupted result.
func (inv *Invocation) After(ctx context.Context, result Response, handlerErr error) (Response, error) {
	if handlerErr != nil {
		inv.logger.Error(ActionError, "handler returned an error", map[string]interface{}{
			"error": handlerErr.Error(),
		})
		denylist.Clear()
		clearDiskspace(inv.logger)
		return nil, handlerErr
	}

	if inv.corruption != nil && matches(inv.event, inv.corruption.Flag.Match) && rollPercentage(inv.options.rng, inv.corruption.Percentage) {
		if inv.options.dryRun {
			inv.logger.Info(ActionDryRun, "dry-run: would inject corruption", map[string]interface{}{
				"mode": string(ModeCorruption),
			})
		} else {
			inv.options.telemetry.RecordInjection(ctx, ModeCorruption)
			result = corruptionPrimitive(inv.corruption.Flag, result, inv.options.rng, inv.logger)
		}
	}

	return result, nil
}

// OnError runs the error cleanup path (spec.md §4.8 step 9) for adapters
// that invoke the handler themselves outside of After and only need
// cleanup and logging on failure. Returns err unchanged, matching the
// re-raise requirement.
func (inv *Invocation) OnError(err error) error {
	inv.logger.Error(ActionError, "handler returned an error", map[string]interface{}{
		"error": err.Error(),
	})
	denylist.Clear()
	clearDiskspace(inv.logger)
	return err
}

func perInvocationLogger(base Logger) Logger {
	if jl, ok := base.(*JSONLogger); ok {
		return jl.WithInvocation()
	}
	return base
}

// denylistLoggerAdapter satisfies denylist.Logger without the denylist
// package importing chaos's richer Logger interface.
type denylistLoggerAdapter struct{ logger Logger }

func (a denylistLoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(ActionError, msg, fields)
}
