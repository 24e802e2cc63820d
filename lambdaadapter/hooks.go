package lambdaadapter

import (
	"context"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

// Hooks exposes the same pipeline as discrete before/after/onError calls
// for middleware frameworks that drive the handler lifecycle themselves
// and only let a plugin observe each stage (spec.md §2's second
// integration adapter), generalizing the teacher's
// func(http.Handler) http.Handler middleware (core/middleware.go) to
// hook points instead of a single wrapping function.
type Hooks struct {
	opts []chaos.Option
	inv  *chaos.Invocation
}

// NewHooks builds a Hooks value configured the same way Wrap is.
func NewHooks(opts ...chaos.Option) *Hooks {
	return &Hooks{opts: opts}
}

// Before runs the pre-handler phase. When skip is true the framework must
// not call the user handler: short/shortErr is the invocation's final
// outcome. Otherwise the framework should call its handler normally and
// pass the result to After (success path) or OnError (failure path).
func (h *Hooks) Before(ctx context.Context, event chaos.Event) (short chaos.Response, shortErr error, skip bool) {
	inv, short, shortErr, skip := chaos.Before(ctx, event, h.opts...)
	h.inv = inv
	return short, shortErr, skip
}

// After runs the post-handler corruption phase. Only meaningful when the
// preceding Before call returned skip=false and a non-kill-switch
// Invocation; if Before's skip was true, the framework already has its
// final result and must not call After.
func (h *Hooks) After(ctx context.Context, result chaos.Response) (chaos.Response, error) {
	if h.inv == nil {
		// Kill switch was active: pass the handler's own result through
		// unchanged, nothing to apply.
		return result, nil
	}
	return h.inv.After(ctx, result, nil)
}

// OnError runs the error cleanup path for a handler that failed on its
// own, re-raising err unchanged after logging and cleanup.
func (h *Hooks) OnError(err error) error {
	if h.inv == nil {
		return err
	}
	return h.inv.OnError(err)
}
