package chaos

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// logSource is the constant envelope identifier required by every record.
const logSource = "failure-lambda"

// Action classifies a log record per the fixed envelope in spec.md §6.
type Action string

const (
	ActionConfig Action = "config"
	ActionInject Action = "inject"
	ActionBlock  Action = "block"
	ActionDryRun Action = "dryrun"
	ActionError  Action = "error"
	ActionClear  Action = "clear"
)

// Logger is the structured sink every component in this package writes
// through. Fields are merged into the envelope verbatim; callers own the
// action/mode naming. A nil Logger is never passed to a primitive — callers
// that don't want log output pass NoOpLogger.
type Logger interface {
	Info(action Action, msg string, fields map[string]interface{})
	Warn(action Action, msg string, fields map[string]interface{})
	Error(action Action, msg string, fields map[string]interface{})
}

// LoggerFunc adapts a single function to the Logger interface, routing
// every level through it with an explicit action/message/fields triplet.
// Used by callers (the dry-run CLI) that want to collect log records
// in-process rather than write them to a stream.
type LoggerFunc func(action Action, msg string, fields map[string]interface{})

func (f LoggerFunc) Info(action Action, msg string, fields map[string]interface{})  { f(action, msg, fields) }
func (f LoggerFunc) Warn(action Action, msg string, fields map[string]interface{})  { f(action, msg, fields) }
func (f LoggerFunc) Error(action Action, msg string, fields map[string]interface{}) { f(action, msg, fields) }

// NoOpLogger discards every record. Used as the zero-value default so
// components never need a nil check before logging.
type NoOpLogger struct{}

func (NoOpLogger) Info(Action, string, map[string]interface{})  {}
func (NoOpLogger) Warn(Action, string, map[string]interface{})  {}
func (NoOpLogger) Error(Action, string, map[string]interface{}) {}

// JSONLogger emits one JSON object per event, line-delimited, routed to
// stdout or stderr by level: info and dryrun records go to stdout, warn and
// error records go to stderr. This mirrors the teacher's ProductionLogger
// (field-map-merge, single marshal-and-print call per record) with the
// stdout/stderr split spec.md §6 requires instead of a single configured
// output.
type JSONLogger struct {
	stdout io.Writer
	stderr io.Writer

	mu       sync.Mutex
	invokeID string
}

// NewJSONLogger returns a Logger writing to os.Stdout/os.Stderr.
func NewJSONLogger() *JSONLogger {
	return &JSONLogger{stdout: os.Stdout, stderr: os.Stderr}
}

// WithInvocation returns a copy of the logger tagging every subsequent
// record with a fresh invocation-correlation id. The orchestrator calls
// this once per invocation so that a container's interleaved log lines can
// be grouped back together.
func (l *JSONLogger) WithInvocation() *JSONLogger {
	return &JSONLogger{stdout: l.stdout, stderr: l.stderr, invokeID: uuid.NewString()}
}

func (l *JSONLogger) Info(action Action, msg string, fields map[string]interface{}) {
	l.write(l.stdout, "info", action, msg, fields)
}

func (l *JSONLogger) Warn(action Action, msg string, fields map[string]interface{}) {
	l.write(l.stderr, "warn", action, msg, fields)
}

func (l *JSONLogger) Error(action Action, msg string, fields map[string]interface{}) {
	l.write(l.stderr, "error", action, msg, fields)
}

func (l *JSONLogger) write(w io.Writer, level string, action Action, msg string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"source":  logSource,
		"level":   level,
		"action":  string(action),
		"message": msg,
	}
	if l.invokeID != "" {
		entry["invocation_id"] = l.invokeID
	}
	for k, v := range fields {
		entry[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if data, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(w, string(data))
	}
}

// compile-time interface checks
var (
	_ Logger = (*JSONLogger)(nil)
	_ Logger = NoOpLogger{}
	_ Logger = LoggerFunc(nil)
)
