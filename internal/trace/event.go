package trace

import "time"

type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	// KindHeartbeat is emitted on a timer while a run is alive.
	KindHeartbeat
)

var kindNames = [...]string{"unknown", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[0]
}

// Scope is how fine-grained an event is. Lower scopes are coarser; a Level
// admits every scope up to its own.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // load, run, write
	ScopePackage                    // one package
	ScopeGenerator                  // one generator pass over a package
	ScopeMember                     // one candidate declaration
)

var scopeNames = [...]string{"unknown", "driver", "package", "generator", "member"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return scopeNames[0]
}

type Event struct {
	Time time.Time
	// Seq orders events across goroutines.
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for a root span
	Name     string // "package:example.com/p", "generate:getter", ...
	Detail   string
	Extra    map[string]string
}
