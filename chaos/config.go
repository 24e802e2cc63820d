package chaos

// Mode names the closed set of recognized failure modes. Unknown keys in a
// raw configuration document are ignored by the parser, not rejected.
type Mode string

const (
	ModeLatency    Mode = "latency"
	ModeTimeout    Mode = "timeout"
	ModeDiskspace  Mode = "diskspace"
	ModeDenylist   Mode = "denylist"
	ModeStatuscode Mode = "statuscode"
	ModeException  Mode = "exception"
	ModeCorruption Mode = "corruption"
)

// canonicalOrder is the fixed execution order from spec.md §4.4. Resolver
// output always follows this order regardless of source key order.
var canonicalOrder = []Mode{
	ModeLatency,
	ModeTimeout,
	ModeDiskspace,
	ModeDenylist,
	ModeStatuscode,
	ModeException,
	ModeCorruption,
}

// Operator is the match-condition comparison applied to an event's field.
type Operator string

const (
	OpEq         Operator = "eq"
	OpExists     Operator = "exists"
	OpStartsWith Operator = "startsWith"
	OpRegex      Operator = "regex"
)

// MatchCondition is one predicate in a flag's match list. Operator defaults
// to OpEq when omitted from the source document.
type MatchCondition struct {
	Path     string   `json:"path"`
	Operator Operator `json:"operator,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// Flag holds the fields common to every failure mode plus the mode-specific
// payload. Only one of the *Fields structs is populated, matching the
// discriminated-variant redesign in spec.md §9: a single Mode tag plus a
// payload carrying only the fields relevant to that mode.
type Flag struct {
	Mode       Mode
	Enabled    bool
	Percentage int
	Match      []MatchCondition

	Latency    LatencyFields
	Timeout    TimeoutFields
	Exception  ExceptionFields
	StatusCode StatusCodeFields
	DiskSpace  DiskSpaceFields
	Denylist   DenylistFields
	Corruption CorruptionFields
}

// LatencyFields configures the latency failure mode. MinMS <= MaxMS is an
// invariant enforced by the validator; both are milliseconds.
type LatencyFields struct {
	MinMS int
	MaxMS int
}

// TimeoutFields configures the timeout failure mode.
type TimeoutFields struct {
	BufferMS int
}

// ExceptionFields configures the exception failure mode.
type ExceptionFields struct {
	Message string
}

// StatusCodeFields configures the statuscode failure mode. Code is in
// [100, 599]; 0 means "use the default of 500".
type StatusCodeFields struct {
	Code int
}

// DiskSpaceFields configures the diskspace failure mode. MB is in
// [1, 10240].
type DiskSpaceFields struct {
	MB int
}

// DenylistFields configures the denylist failure mode. Patterns have
// already compiled and passed the ReDoS guard by the time they reach a
// resolved plan.
type DenylistFields struct {
	Patterns []string
}

// CorruptionFields configures the corruption failure mode. Body is
// optional; an empty Body with HasBody false means "mangle the handler's
// own response body" rather than substitute a fixed one.
type CorruptionFields struct {
	Body    string
	HasBody bool
}

// Configuration is the typed, validated result of a successful fetch: a
// mapping from mode name to flag value. Ordering of the source document's
// keys carries no meaning; §4.3 fixes the execution order separately.
type Configuration map[Mode]Flag

// Empty returns a Configuration with no enabled flags, the value returned
// by getConfig on any failure per spec.md §4.1.
func Empty() Configuration {
	return Configuration{}
}

// EnabledModes returns the mode names with Enabled=true, used by cold-start
// logging (spec.md §4.1) to report which modes are active without dumping
// the full configuration.
func (c Configuration) EnabledModes() []string {
	modes := make([]string, 0, len(c))
	for _, m := range canonicalOrder {
		if flag, ok := c[m]; ok && flag.Enabled {
			modes = append(modes, string(m))
		}
	}
	return modes
}

// ResolvedFailure is one entry in the execution plan the resolver produces:
// a mode tag, its clamped percentage, and the full flag payload.
type ResolvedFailure struct {
	Mode       Mode
	Percentage int
	Flag       Flag
}
