package chaos

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// regexCache memoizes compiled match-condition patterns by source string,
// mirroring the teacher's schema-cache idiom (core/schema_cache.go) applied
// to regexes instead of JSON schemas: a single process-wide sync.Map, no
// eviction, since the pattern set in any one deployment is small and fixed.
var regexCache sync.Map // map[string]*regexp.Regexp

// matches evaluates a flag's match conditions against an invocation event
// (already decoded into a generic map) per spec.md §4.5. An empty condition
// list always matches. Conditions are conjunctive: all must pass.
func matches(event map[string]interface{}, conditions []MatchCondition) bool {
	if len(conditions) == 0 {
		return true
	}

	for _, cond := range conditions {
		value, found := resolvePath(event, cond.Path)
		if !evaluate(cond.Operator, value, found, cond.Value) {
			return false
		}
	}
	return true
}

// resolvePath walks a dotted path against nested maps, dropping to
// not-found at the first missing segment or non-object intermediate.
func resolvePath(event map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = event

	for _, seg := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, present := m[seg]
		if !present {
			return nil, false
		}
		current = v
	}

	return current, true
}

func evaluate(op Operator, value interface{}, found bool, want string) bool {
	switch op {
	case OpExists:
		return found && value != nil

	case OpEq, "":
		if !found || value == nil {
			return false
		}
		return stringForm(value) == want

	case OpStartsWith:
		if !found || value == nil {
			return false
		}
		return strings.HasPrefix(stringForm(value), want)

	case OpRegex:
		if !found || value == nil {
			return false
		}
		re, err := cachedRegex(want)
		if err != nil {
			return false
		}
		return re.MatchString(stringForm(value))

	default:
		return false
	}
}

func cachedRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := regexCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// stringForm renders an arbitrary decoded JSON value the way the match
// evaluator compares it: strings pass through unchanged, everything else
// uses its default formatting.
func stringForm(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
