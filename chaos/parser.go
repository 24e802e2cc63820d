package chaos

import "encoding/json"

// ParseResult carries a parsed Configuration plus every validation problem
// found along the way. A non-empty Errors slice does not mean Config is
// unusable: only the flags that failed validation are missing from it.
// Loader.GetConfig logs every error and keeps the surviving flags; other
// callers that want to report diagnostics can inspect both.
type ParseResult struct {
	Config Configuration
	Errors []*FieldError
}

// ParseConfiguration is the exported form of parseFlags, for callers
// outside this package (the dry-run CLI) that need to turn a raw document
// into a Configuration without duplicating the parsing logic. Validation
// errors are discarded; callers that need to report them should go
// through a Loader instead, which logs every FieldError it encounters.
func ParseConfiguration(raw map[string]interface{}) Configuration {
	return parseFlags(raw).Config
}

// parseFlags decodes a raw configuration document (already JSON-unmarshaled
// into a generic map) into a Configuration, validating every present mode
// along the way. Legacy single-flag documents (spec.md §9: the original
// project's flat "isEnabled"/"failureMode" shape) are detected and rejected
// with ErrLegacyFormat rather than silently misparsed, since the redesigned
// schema has no use for them and a half-translated legacy doc would produce
// a confusing partial configuration.
func parseFlags(raw map[string]interface{}) ParseResult {
	if isLegacyFormat(raw) {
		return ParseResult{
			Config: Empty(),
			Errors: []*FieldError{newFieldError("", "", ErrLegacyFormat.Error(), nil)},
		}
	}

	config := Empty()
	var errs []*FieldError

	for key, modeName := range validModes {
		modeRaw, present := raw[key]
		if !present {
			continue
		}

		fields, ok := modeRaw.(map[string]interface{})
		if !ok {
			errs = append(errs, newFieldError(key, "", "must be an object", modeRaw))
			continue
		}

		if fieldErrs := validateFlagValue(modeName, fields); len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}

		config[modeName] = buildFlag(modeName, fields)
	}

	return ParseResult{Config: config, Errors: errs}
}

// isLegacyFormat reports whether raw matches the original project's flat,
// single-mode document shape: a top-level "isEnabled" boolean and/or
// "failureMode" string instead of one object per mode. Either key alone is
// enough to reject the document — a partially-migrated document with only
// one of the two is still not a valid per-mode document.
func isLegacyFormat(raw map[string]interface{}) bool {
	_, hasIsEnabled := raw["isEnabled"]
	_, hasFailureMode := raw["failureMode"]
	return hasIsEnabled || hasFailureMode
}

// buildFlag assumes fields has already passed validateFlagValue for mode.
func buildFlag(mode Mode, fields map[string]interface{}) Flag {
	flag := Flag{Mode: mode}

	if enabled, ok := fields["enabled"].(bool); ok {
		flag.Enabled = enabled
	}
	flag.Percentage = 100
	if pct, ok := fields["percentage"]; ok {
		if v, isInt := asInt(pct); isInt {
			flag.Percentage = v
		}
	}
	if matchRaw, ok := fields["match"].([]interface{}); ok {
		flag.Match = buildMatchConditions(matchRaw)
	}

	switch mode {
	case ModeLatency:
		min, _ := asInt(fields["min_latency"])
		max, _ := asInt(fields["max_latency"])
		flag.Latency = LatencyFields{MinMS: min, MaxMS: max}

	case ModeTimeout:
		buffer, _ := asInt(fields["timeout_buffer_ms"])
		flag.Timeout = TimeoutFields{BufferMS: buffer}

	case ModeException:
		msg, _ := fields["exception_msg"].(string)
		flag.Exception = ExceptionFields{Message: msg}

	case ModeStatuscode:
		code, _ := asInt(fields["status_code"])
		flag.StatusCode = StatusCodeFields{Code: code}

	case ModeDiskspace:
		mb, _ := asInt(fields["disk_space"])
		flag.DiskSpace = DiskSpaceFields{MB: mb}

	case ModeDenylist:
		var patterns []string
		if listRaw, ok := fields["deny_list"].([]interface{}); ok {
			for _, p := range listRaw {
				if s, ok := p.(string); ok {
					patterns = append(patterns, s)
				}
			}
		}
		flag.Denylist = DenylistFields{Patterns: patterns}

	case ModeCorruption:
		if body, ok := fields["body"]; ok {
			if s, isStr := body.(string); isStr {
				flag.Corruption = CorruptionFields{Body: s, HasBody: true}
			}
		}
	}

	return flag
}

func buildMatchConditions(raw []interface{}) []MatchCondition {
	conditions := make([]MatchCondition, 0, len(raw))
	for _, entryRaw := range raw {
		entry, ok := entryRaw.(map[string]interface{})
		if !ok {
			continue
		}
		path, _ := entry["path"].(string)
		operator := OpEq
		if opStr, ok := entry["operator"].(string); ok {
			if op, known := validOperators[opStr]; known {
				operator = op
			}
		}
		value, _ := entry["value"].(string)
		conditions = append(conditions, MatchCondition{Path: path, Operator: operator, Value: value})
	}
	return conditions
}

// decodeJSON is a thin wrapper kept separate from parseFlags so backends can
// go straight from raw bytes to ParseResult without round-tripping through
// json.RawMessage at every call site.
func decodeJSON(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}
