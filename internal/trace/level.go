package trace

import (
	"fmt"
	"strings"
)

// Level controls how much is traced. Each level past LevelError admits
// one more Scope.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError traces nothing live; the CLI records everything and
	// writes it only when the run fails.
	LevelError
	LevelPhase  // driver and package spans
	LevelDetail // plus generator passes
	LevelDebug  // plus candidate members
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

func ParseLevel(s string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are traced at l.
func (l Level) ShouldEmit(scope Scope) bool {
	if l <= LevelError {
		return false
	}
	return int(scope) <= int(l)-int(LevelPhase)+int(ScopePackage)
}
