// Package lambdaadapter exposes the two integration adapters of spec.md
// §2: one wraps a user handler directly for use with the AWS Lambda Go
// runtime, the other exposes the same pipeline as discrete before/after/
// onError hooks for middleware frameworks that don't let callers replace
// the whole handler. Wrap translates between aws-lambda-go's JSON-bytes
// handler convention and chaos.Event/chaos.Response; Hooks takes and
// returns chaos.Event/chaos.Response directly.
package lambdaadapter

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

// RawHandler is the user handler shape this adapter wraps: decoded event
// in, decoded response out, matching chaos.Handler exactly. Kept as a
// distinct name so call sites read as "my Lambda handler", not "my chaos
// handler".
type RawHandler = chaos.Handler

// Wrap adapts a RawHandler through chaos.Wrap and returns an
// aws-lambda-go lambda.Handler suitable for lambda.StartWithOptions,
// generalizing the teacher's func(http.Handler) http.Handler middleware
// shape (core/middleware.go) to aws-lambda-go's byte-oriented handler
// contract.
func Wrap(handler RawHandler, opts ...chaos.Option) lambda.Handler {
	wrapped := chaos.Wrap(handler, opts...)

	return lambda.NewHandler(func(ctx context.Context, rawEvent json.RawMessage) (interface{}, error) {
		var event chaos.Event
		if len(rawEvent) > 0 {
			if err := json.Unmarshal(rawEvent, &event); err != nil {
				event = chaos.Event{}
			}
		}
		if event == nil {
			event = chaos.Event{}
		}

		return wrapped(ctx, event)
	})
}
