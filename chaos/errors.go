package chaos

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is. Configuration and
// validation failures are never propagated to the handler; they exist so
// tests and logs can distinguish failure causes.
var (
	ErrBackendUnreachable = errors.New("chaos: config backend unreachable")
	ErrBadResponse        = errors.New("chaos: config backend returned a non-2xx response")
	ErrMissingValue       = errors.New("chaos: config backend response has no value field")
	ErrInvalidJSON        = errors.New("chaos: config document is not valid JSON")
	ErrLegacyFormat       = errors.New("chaos: config document uses the legacy isEnabled/failureMode shape")
	ErrNoBackend          = errors.New("chaos: no config backend identified in the ambient environment")

	ErrInvalidPattern = errors.New("chaos: regex pattern is invalid or exceeds the ReDoS guard")
)

// FieldError reports a single field-level validation failure for one flag.
// A flag with any FieldError is dropped from the parsed configuration
// (fail-closed); parseFlags accumulates these for logging.
type FieldError struct {
	Mode    string
	Field   string
	Message string
	Value   interface{}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s (value=%v)", e.Mode, e.Field, e.Message, e.Value)
}

func newFieldError(mode, field, message string, value interface{}) *FieldError {
	return &FieldError{Mode: mode, Field: field, Message: message, Value: value}
}
