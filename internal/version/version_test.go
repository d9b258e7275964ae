package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	tests := []struct {
		in, want string
	}{
		{"1.2.3", "1.2.3"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"nightly", "nightly"},
		{"1.2", "1.2"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInfoString(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	i := Info{Version: "1.2.3", GitCommit: "abc123def4567890", BuildDate: "2024-01-15T10:30:00Z"}
	if got, want := i.String(), "durian 1.2.3 (abc123def456, 2024-01-15T10:30:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	i = Info{Version: "1.2.3", GitMessage: "fix cache"}
	if got, want := i.String(), "durian 1.2.3\n  fix cache"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCurrentReflectsOverrides(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "9.9.9"
	if Current().Version != "9.9.9" {
		t.Errorf("Current().Version = %q", Current().Version)
	}
}
