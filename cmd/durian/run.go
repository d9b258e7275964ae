package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"durian/internal/diagfmt"
	"durian/internal/driver"
	"durian/internal/fix"
	"durian/internal/ui"
	"durian/internal/version"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return isTerminal(os.Stdout)
}

// addRunFlags registers the flags shared by generate, diag and fix.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("generators", nil, "generators to run (default all)")
	f.Bool("tests", false, "include test files")
	f.Bool("warnings-as-errors", false, "treat warnings as errors")
	f.Bool("no-cache", false, "disable the disk cache")
	f.Bool("pass-log", false, "write per-pass log files")
	f.String("format", "", "diagnostics format (pretty|short|json)")
	f.String("target", "", "where diagnostics go (report|log|both)")
	f.String("ui", "auto", "progress UI (auto|on|off)")
}

// driverOptions builds the options shared by every command that runs the
// generators.
func driverOptions(s *settings, patterns []string) (driver.Options, error) {
	c := s.cfg
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	opts := driver.Options{
		Dir:              s.dir,
		Patterns:         patterns,
		Tests:            c.Run.Tests.Bool,
		Generators:       c.Run.Generators,
		Features:         c.Features(),
		Jobs:             int(c.Run.Jobs.Int64),
		MaxDiagnostics:   int(c.Run.MaxDiagnostics.Int64),
		WarningsAsErrors: c.Run.WarningsAsErrors.Bool,
		Version:          version.Version,
		Logger:           s.logger,
		Logging:          c.PassLogging(),
		LogFs:            afero.NewBasePathFs(afero.NewOsFs(), s.dir),
		Target:           c.Target(),
		Fixes:            fix.DefaultRegistry(),
	}
	if c.Cache.Enabled.Bool {
		dir := c.Cache.Dir.String
		if dir == "" {
			var err error
			if dir, err = driver.DefaultCacheDir(); err != nil {
				return opts, err
			}
		}
		cache, err := driver.OpenDiskCache(afero.NewOsFs(), dir)
		if err != nil {
			s.logger.WithError(err).Warn("disk cache disabled")
		} else {
			opts.Cache = cache
		}
	}
	return opts, nil
}

type runOutcome struct {
	res *driver.Result
	err error
}

// runDriver runs the driver, behind the progress UI when it is enabled.
func runDriver(ctx context.Context, cmd *cobra.Command, opts driver.Options) (*driver.Result, error) {
	modeStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, err
	}
	mode, err := readUIMode(modeStr)
	if err != nil {
		return nil, err
	}
	if quiet(cmd) || !shouldUseTUI(mode) {
		return driver.Run(ctx, opts)
	}

	events := make(chan driver.Event, 256)
	outcome := make(chan runOutcome, 1)
	go func() {
		o := opts
		o.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, o)
		outcome <- runOutcome{res: res, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel("durian "+cmd.Name(), nil, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	out := <-outcome
	if uiErr != nil {
		return out.res, uiErr
	}
	return out.res, out.err
}

// report prints the diagnostics and timings and maps errors to the exit
// status.
func report(cmd *cobra.Command, s *settings, res *driver.Result) error {
	format, err := diagfmt.ParseFormat(s.cfg.Diagnostics.Format.String)
	if err != nil {
		return err
	}
	out := os.Stderr
	if format == diagfmt.FormatJSON {
		out = os.Stdout
	}
	if res.Bag.Len() > 0 || format == diagfmt.FormatJSON {
		if err := diagfmt.Write(out, format, res.Bag, res.Files, s.colored(out)); err != nil {
			return err
		}
	}
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		cmd.PrintErr(res.Timing.Summary())
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// prepare loads settings and starts tracing and profiling. cleanup must
// be called with the command's result when it is done.
func prepare(cmd *cobra.Command) (context.Context, *settings, func(error), error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	stopProf, err := setupProfiling(cmd, s)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, stopTrace, err := setupTracing(cmd.Context(), cmd, s)
	if err != nil {
		stopProf()
		return nil, nil, nil, err
	}
	return ctx, s, func(err error) {
		stopTrace(err)
		stopProf()
	}, nil
}
