package pass

import (
	"fmt"
	"strings"
)

// DiagnosticTarget selects where a pass sends its diagnostics.
type DiagnosticTarget uint8

// The zero value is TargetDefault, which resolves to TargetReport, so an
// unset option never silences diagnostics. TargetNone has its own bit.
const (
	TargetDefault DiagnosticTarget = 0
	TargetReport  DiagnosticTarget = 1 << 0 // the diagnostic reporter
	TargetLog     DiagnosticTarget = 1 << 1 // the generator log
	TargetNone    DiagnosticTarget = 1 << 2
	TargetBoth                     = TargetReport | TargetLog
)

// Resolve maps TargetDefault to TargetReport.
func (t DiagnosticTarget) Resolve() DiagnosticTarget {
	if t == TargetDefault {
		return TargetReport
	}
	return t
}

func (t DiagnosticTarget) String() string {
	switch t {
	case TargetDefault:
		return "default"
	case TargetNone:
		return "none"
	case TargetReport:
		return "report"
	case TargetLog:
		return "log"
	case TargetBoth:
		return "both"
	}
	return "unknown"
}

// ParseTarget converts none|report|log|both to a DiagnosticTarget.
func ParseTarget(s string) (DiagnosticTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TargetNone, nil
	case "report", "":
		return TargetReport, nil
	case "log":
		return TargetLog, nil
	case "both":
		return TargetBoth, nil
	}
	return TargetReport, fmt.Errorf("invalid diagnostic target %q (expected none|report|log|both)", s)
}

// UnmarshalText lets configuration decoders fill a DiagnosticTarget.
func (t *DiagnosticTarget) UnmarshalText(text []byte) error {
	v, err := ParseTarget(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t DiagnosticTarget) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// LogFlags selects what the per-pass log file records.
type LogFlags uint8

const (
	LogNodes LogFlags = 1 << iota
	LogInputSource
	LogGeneratedSource
	LogDiagnostics

	LogDefault = LogGeneratedSource | LogDiagnostics
	LogAll     = LogNodes | LogInputSource | LogGeneratedSource | LogDiagnostics
)

var logFlagNames = []struct {
	flag LogFlags
	name string
}{
	{LogNodes, "nodes"},
	{LogInputSource, "input"},
	{LogGeneratedSource, "generated"},
	{LogDiagnostics, "diagnostics"},
}

func (f LogFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, n := range logFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseLogFlags parses a comma separated list such as "generated,diagnostics".
// "all" and "none" are accepted.
func ParseLogFlags(s string) (LogFlags, error) {
	var out LogFlags
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
			continue
		case "all":
			out |= LogAll
			continue
		case "none":
			continue
		}
		found := false
		for _, n := range logFlagNames {
			if n.name == part {
				out |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown log flag %q", part)
		}
	}
	return out, nil
}

func (f *LogFlags) UnmarshalText(text []byte) error {
	v, err := ParseLogFlags(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f LogFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// LoggingConfig controls the per-pass generator log.
type LoggingConfig struct {
	Enabled   bool
	Directory string
	Flags     LogFlags
}
