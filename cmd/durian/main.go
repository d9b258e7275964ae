package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"durian/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "durian",
	Short: "Source generators for Go packages",
	Long: `durian runs source generators over Go packages. Generators are driven by
//durian: directives and write zz_durian_<generator>.go next to the package.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errDiagnostics signals a run that reported errors. They are already
// printed, so main only sets the exit status.
var errDiagnostics = errors.New("errors reported")

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringP("dir", "C", "", "run as if started in this directory")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "print phase timings")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics to keep (0=unlimited)")
	pf.Int("jobs", 0, "packages processed at once (0=GOMAXPROCS)")
	pf.String("log-level", "", "log level (panic|fatal|error|warning|info|debug|trace)")
	pf.String("log-format", "", "log format (text|json)")
	pf.String("trace", "", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-output", "", "trace output file, - for stderr")
	pf.Duration("trace-heartbeat", 0, "emit a trace heartbeat at this interval (0=off)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDiagnostics) {
			rootCmd.PrintErrln("durian:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
