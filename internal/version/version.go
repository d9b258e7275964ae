// Package version carries build metadata. The variables are overridden at
// build time via -ldflags "-X durian/internal/version.Version=...".
package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of durian. It also keys the disk
	// cache, so entries written by another version are never replayed.
	Version = "0.1.0-dev"

	GitCommit  = ""
	GitMessage = ""
	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the build metadata as printed by `durian version --json`.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, GitMessage: GitMessage, BuildDate: BuildDate}
}

// Colored renders v with its major, minor and patch parts in distinct
// colors. Anything that is not MAJOR.MINOR.PATCH[-suffix] is returned as is.
func Colored(v string) string {
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String is the one-line description shown by `durian version`.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "durian %s", Colored(i.Version))
	if i.GitCommit != "" {
		commit := i.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, " (%s", commit)
		if i.BuildDate != "" {
			fmt.Fprintf(&b, ", %s", i.BuildDate)
		}
		b.WriteString(")")
	}
	if i.GitMessage != "" {
		fmt.Fprintf(&b, "\n  %s", i.GitMessage)
	}
	return b.String()
}
