// Package denylist implements the resolver interceptor described in
// spec.md §4.7 and §9's redesign note: since a systems language offers no
// equivalent to monkey-patching the runtime's DNS entry point, the
// capability is exposed instead as an installer/remover pair plus a pure
// predicate function over hostnames, with LookupHost/DialContext as the
// concrete hook points. Install wires DialContext into http.DefaultTransport
// so the interception is actually transparent to any caller going through
// http.DefaultClient or an *http.Client with no Transport of its own,
// instead of only being reachable by code that opts in explicitly.
package denylist

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"sync"
)

// Logger is the minimal sink this package logs through. Defined locally
// rather than importing the chaos package's richer Logger to avoid an
// import cycle (chaos imports denylist, not the reverse).
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Warn(string, map[string]interface{}) {}

// state is the container-scoped, process-wide mutable state spec.md §5
// describes: a pattern set and an active flag, mutated only by the
// orchestrator's single active invocation per container so no lock beyond
// simple mutual exclusion against concurrent reads is required.
type state struct {
	mu       sync.RWMutex
	active   bool
	patterns []*regexp.Regexp
}

var global state

// transportMu serializes Install/Clear's mutation of http.DefaultTransport,
// kept separate from global.mu since it guards a different resource
// (the shared *http.Transport, not our own pattern state).
var transportMu sync.Mutex

// originalLookupHost captures the pre-interception entry point at package
// initialization time, before any Install call can run (spec.md §4.7: "the
// original host-resolution entry point is captured at startup, before
// interception").
var originalLookupHost = net.DefaultResolver.LookupHost

// originalDialContext captures http.DefaultTransport's dial hook at package
// init, so Clear can restore exactly what was there before — including
// whatever timeouts/keep-alives the process had already configured — rather
// than falling back to a bare zero-value net.Dialer.
var originalDialContext = captureOriginalDialContext()

func captureOriginalDialContext() func(ctx context.Context, network, address string) (net.Conn, error) {
	if t, ok := http.DefaultTransport.(*http.Transport); ok && t.DialContext != nil {
		return t.DialContext
	}
	return (&net.Dialer{}).DialContext
}

// Install activates interception with the given raw patterns, compiling
// each one and skipping (with a logged warning) any pattern that fails to
// compile — one bad pattern never disables the others (spec.md §4.7).
// Idempotent: a second call while already active simply replaces the
// pattern set, the inactive→active and active→active transitions of the
// state machine in spec.md §4.7. It also installs DialContext as
// http.DefaultTransport's dial hook, so the denylist is consulted by any
// outbound HTTP call the handler makes through http.DefaultClient or a
// client with no Transport of its own — not just callers that invoke
// LookupHost/DialContext directly.
func Install(rawPatterns []string, logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}

	compiled := make([]*regexp.Regexp, 0, len(rawPatterns))
	for _, p := range rawPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("denylist pattern failed to compile, skipping", map[string]interface{}{
				"pattern": p,
				"error":   err.Error(),
			})
			continue
		}
		compiled = append(compiled, re)
	}

	global.mu.Lock()
	global.active = true
	global.patterns = compiled
	global.mu.Unlock()

	installTransportHook()
}

// Clear restores the inactive state, emptying the pattern set, and restores
// http.DefaultTransport's original dial hook. Idempotent: calling Clear
// twice in a row leaves resolution in the same original state both times
// (spec.md §8's idempotence invariant).
func Clear() {
	global.mu.Lock()
	global.active = false
	global.patterns = nil
	global.mu.Unlock()

	restoreTransportHook()
}

func installTransportHook() {
	transportMu.Lock()
	defer transportMu.Unlock()
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		t.DialContext = DialContext
	}
}

func restoreTransportHook() {
	transportMu.Lock()
	defer transportMu.Unlock()
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		t.DialContext = originalDialContext
	}
}

// Active reports whether interception is currently installed.
func Active() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.active
}

// Denied is the pure predicate: true when interception is active and host
// matches any currently installed pattern.
func Denied(host string) bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if !global.active {
		return false
	}
	for _, re := range global.patterns {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}

// LookupHost is the interception point: library and adapter code calls
// this instead of net.LookupHost directly. A denied host fails with a
// DNSError shaped like a real NXDOMAIN outcome (spec.md §4.7); a
// non-matching host passes through to the captured original resolver
// unchanged. The failure is delivered asynchronously via a goroutine and a
// buffered channel rather than returned directly, so a caller blocked on
// the result cannot observe it completing on the same tick it was issued —
// spec.md §4.7's "must not block lookups synchronously" requirement.
func LookupHost(ctx context.Context, host string) ([]string, error) {
	if Denied(host) {
		resultCh := make(chan error, 1)
		go func() {
			resultCh <- &net.DNSError{
				Err:        "no such host",
				Name:       host,
				IsNotFound: true,
			}
		}()
		select {
		case err := <-resultCh:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return originalLookupHost(ctx, host)
}

// DialContext resolves address's host through LookupHost before dialing,
// so a denylisted host fails before any connection attempt. Installed as
// http.DefaultTransport's DialContext by Install, and equally usable by any
// other http.Transport or net.Dialer-based client that wants the same
// resolution hook.
func DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}

	if _, err := LookupHost(ctx, host); err != nil {
		return nil, err
	}

	return originalDialContext(ctx, network, address)
}
