// Package chaos implements the per-invocation failure injection pipeline:
// a typed, validated configuration is fetched (with per-container caching),
// resolved into an ordered plan of failure modes, and driven around a user
// handler in two phases — pre-handler primitives that can short-circuit the
// handler entirely, and a post-handler response-corruption pass.
//
// The pipeline itself has no opinion about how it is invoked. The
// lambdaadapter package wires it to an AWS Lambda handler or to
// before/after/onError hooks for other middleware frameworks; the backend
// package supplies the two supported configuration sources.
package chaos
