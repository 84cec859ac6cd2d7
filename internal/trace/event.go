package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	// KindError records a failure that was handled.
	KindError
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	ScopeServer   Scope = iota + 1 // session lifecycle, catalog loads
	ScopeAnalysis                  // one orchestrator run
	ScopeDocument                  // per-document and per-analyzer detail
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeAnalysis:
		return "analysis"
	case ScopeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	Name     string            // e.g. "diagnose", "catalog.load"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
