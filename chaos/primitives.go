package chaos

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event is a decoded invocation payload. Adapters are responsible for
// turning whatever wire shape their platform uses into this generic map so
// the match evaluator and primitives never depend on a specific event type.
type Event = map[string]interface{}

// Response is a decoded handler result. statuscode and corruption both
// operate on this shape; a nil Response simply means the handler hadn't
// produced one yet (the pre-phase short-circuit case).
type Response = map[string]interface{}

const diskFilePrefix = "diskspace-failure-"
const maxDiskSpaceMB = 10240
const bytesPerMB = 1024 * 1024

// injectedException is the error type raised by the exception primitive and
// by an orchestrator short-circuit. Callers that want to distinguish an
// injected failure from a genuine handler error can use errors.As.
type injectedException struct {
	Message string
}

func (e *injectedException) Error() string { return e.Message }

// latencyPrimitive sleeps a uniform random duration in [min, max]
// milliseconds and logs the chosen delay (spec.md §4.6).
func latencyPrimitive(flag Flag, rng Rand, logger Logger) {
	min, max := flag.Latency.MinMS, flag.Latency.MaxMS
	delay := min
	if max > min {
		delay = min + rng.Intn(max-min+1)
	}

	logger.Info(ActionInject, "injecting latency", map[string]interface{}{
		"mode":       string(ModeLatency),
		"delay_ms":   delay,
		"percentage": flag.Percentage,
	})
	time.Sleep(time.Duration(delay) * time.Millisecond)
}

// timeoutPrimitive sleeps toward the invocation's deadline minus a buffer,
// floored at 0, intending to cause a host-enforced timeout (spec.md §4.6).
// When ctx carries no deadline, the primitive logs a warning and performs
// no sleep rather than guessing a duration.
func timeoutPrimitive(ctx context.Context, flag Flag, logger Logger) {
	deadline, ok := ctx.Deadline()
	if !ok {
		logger.Warn(ActionError, "timeout injection requested but invocation context carries no deadline", map[string]interface{}{
			"mode": string(ModeTimeout),
		})
		return
	}

	remaining := time.Until(deadline)
	buffer := time.Duration(flag.Timeout.BufferMS) * time.Millisecond
	sleep := remaining - buffer
	if sleep < 0 {
		sleep = 0
	}

	logger.Info(ActionInject, "injecting timeout", map[string]interface{}{
		"mode":         string(ModeTimeout),
		"sleep_ms":     sleep.Milliseconds(),
		"remaining_ms": remaining.Milliseconds(),
		"buffer_ms":    flag.Timeout.BufferMS,
	})

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// exceptionPrimitive raises an injected failure carrying exception_msg, or
// the default message when unset (spec.md §4.6).
func exceptionPrimitive(flag Flag, logger Logger) error {
	msg := flag.Exception.Message
	if msg == "" {
		msg = "Injected exception"
	}

	logger.Info(ActionInject, "injecting exception", map[string]interface{}{
		"mode":    string(ModeException),
		"message": msg,
	})

	return &injectedException{Message: msg}
}

// statuscodePrimitive returns a well-formed response carrying the
// configured status code, defaulting to 500 when unset (spec.md §4.6).
func statuscodePrimitive(flag Flag, logger Logger) Response {
	code := flag.StatusCode.Code
	if code == 0 {
		code = 500
	}

	logger.Info(ActionInject, "injecting status code", map[string]interface{}{
		"mode":        string(ModeStatuscode),
		"status_code": code,
	})

	return Response{
		"statusCode": code,
		"headers": map[string]string{
			"Content-Type": "application/json",
		},
		"body": fmt.Sprintf(`{"message":"failure-lambda injected status code %d"}`, code),
	}
}

// diskspacePrimitive creates a uniquely named file under /tmp and extends it
// to disk_space MiB with Truncate. No data is written: the file reads back
// as zeros, and on filesystems that support sparse files no blocks are
// allocated for it. Errors are logged, never returned (spec.md §4.6:
// primitive errors never re-raise).
func diskspacePrimitive(flag Flag, logger Logger) {
	mb := flag.DiskSpace.MB
	if mb < 1 {
		mb = 1
	}
	if mb > maxDiskSpaceMB {
		mb = maxDiskSpaceMB
	}

	name := fmt.Sprintf("%s%d", diskFilePrefix, time.Now().UnixNano())
	path := filepath.Join(os.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		logger.Error(ActionError, "failed to create diskspace failure file", map[string]interface{}{
			"mode":  string(ModeDiskspace),
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	defer f.Close()

	if err := f.Truncate(int64(mb) * bytesPerMB); err != nil {
		logger.Error(ActionError, "failed to allocate diskspace failure file", map[string]interface{}{
			"mode":  string(ModeDiskspace),
			"path":  path,
			"error": err.Error(),
		})
		return
	}

	logger.Info(ActionInject, "injecting disk space exhaustion", map[string]interface{}{
		"mode":    string(ModeDiskspace),
		"path":    path,
		"size_mb": mb,
	})
}

// clearDiskspace removes every file under the temp directory sharing
// diskFilePrefix. Called unconditionally during orchestrator pre-cleanup
// and on the error path (spec.md §4.8 step 4, §4.7's cleanup analogue).
func clearDiskspace(logger Logger) {
	dir := os.TempDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(entry.Name()) < len(diskFilePrefix) || entry.Name()[:len(diskFilePrefix)] != diskFilePrefix {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn(ActionClear, "failed to remove diskspace failure file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

// corruptionPrimitive implements spec.md §4.6's tagged-variant corruption
// contract. When flag.Corruption.HasBody is set, the configured body
// replaces result["body"] if result carries that key; if result has no
// body key at all, a warning is logged and a fresh {body: ...} response is
// returned. Otherwise the original body is mangled: truncated at a random
// point between 30% and 80% of its length with three U+FFFD characters
// appended.
func corruptionPrimitive(flag Flag, result Response, rng Rand, logger Logger) Response {
	if flag.Corruption.HasBody {
		return replaceBody(flag.Corruption.Body, result, logger)
	}
	return mangleBody(result, rng, logger)
}

func replaceBody(body string, result Response, logger Logger) Response {
	if result == nil {
		logger.Warn(ActionInject, "corruption requested a body substitution but the handler result is not an object", nil)
		return Response{"body": body}
	}

	if _, hasBody := result["body"]; !hasBody {
		logger.Warn(ActionInject, "corruption target has no body field, substituting a fresh response", map[string]interface{}{
			"mode": string(ModeCorruption),
		})
		return Response{"body": body}
	}

	copied := make(Response, len(result))
	for k, v := range result {
		copied[k] = v
	}
	copied["body"] = body

	logger.Info(ActionInject, "injecting corruption", map[string]interface{}{
		"mode": string(ModeCorruption),
	})
	return copied
}

func mangleBody(result Response, rng Rand, logger Logger) Response {
	if result == nil {
		logger.Warn(ActionInject, "corruption mangle requested but handler result is not an object", nil)
		return result
	}

	raw, ok := result["body"]
	if !ok {
		logger.Warn(ActionInject, "corruption mangle requested but handler result has no body field", nil)
		return result
	}

	body, ok := raw.(string)
	if !ok {
		logger.Warn(ActionInject, "corruption mangle requested but body field is not a string", map[string]interface{}{
			"mode": string(ModeCorruption),
		})
		return result
	}

	runes := []rune(body)
	n := len(runes)
	if n == 0 {
		return result
	}

	lo := int(float64(n) * 0.3)
	hi := int(float64(n) * 0.8)
	cut := lo
	if hi > lo {
		cut = lo + rng.Intn(hi-lo)
	}

	mangled := string(runes[:cut]) + string([]rune{'�', '�', '�'})

	copied := make(Response, len(result))
	for k, v := range result {
		copied[k] = v
	}
	copied["body"] = mangled

	logger.Info(ActionInject, "injecting corruption", map[string]interface{}{
		"mode":      string(ModeCorruption),
		"cut_index": cut,
	})
	return copied
}
