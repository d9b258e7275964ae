package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/guregu/null.v3"

	"durian/internal/config"
)

// settings is the consolidated configuration of one command.
type settings struct {
	dir    string
	path   string // durian.toml in effect, if any
	cfg    config.Config
	logger *logrus.Logger
}

// loadSettings layers durian.toml, DURIAN_* variables and the flags the
// user actually set.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, err
	}

	flags, err := flagConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg, path, err := config.Consolidate(afero.NewOsFs(), dir, os.LookupEnv, flags)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.WithField("path", path).Debug("using configuration file")
	}
	return &settings{dir: dir, path: path, cfg: cfg, logger: logger}, nil
}

// flagConfig turns changed flags into a config layer. Flags left at their
// defaults do not override the file or the environment.
func flagConfig(cmd *cobra.Command) (config.Config, error) {
	var c config.Config
	f := cmd.Flags()
	str := func(name string, dst *null.String) error {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetString(name)
		*dst = null.StringFrom(v)
		return err
	}
	integer := func(name string, dst *null.Int) error {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetInt(name)
		*dst = null.IntFrom(int64(v))
		return err
	}
	boolean := func(name string, dst *null.Bool) error {
		if f.Lookup(name) == nil || !f.Changed(name) {
			return nil
		}
		v, err := f.GetBool(name)
		*dst = null.BoolFrom(v)
		return err
	}
	steps := []error{
		str("color", &c.Diagnostics.Color),
		str("log-level", &c.Log.Level),
		str("log-format", &c.Log.Format),
		str("trace", &c.Trace.Level),
		str("trace-output", &c.Trace.Output),
		integer("max-diagnostics", &c.Run.MaxDiagnostics),
		integer("jobs", &c.Run.Jobs),
		boolean("tests", &c.Run.Tests),
		boolean("warnings-as-errors", &c.Run.WarningsAsErrors),
		boolean("pass-log", &c.PassLog.Enabled),
	}
	if f.Lookup("format") != nil {
		steps = append(steps, str("format", &c.Diagnostics.Format))
	}
	if f.Lookup("target") != nil {
		steps = append(steps, str("target", &c.Diagnostics.Target))
	}
	if f.Lookup("no-cache") != nil && f.Changed("no-cache") {
		v, err := f.GetBool("no-cache")
		steps = append(steps, err)
		c.Cache.Enabled = null.BoolFrom(!v)
	}
	if f.Lookup("generators") != nil && f.Changed("generators") {
		v, err := f.GetStringSlice("generators")
		steps = append(steps, err)
		c.Run.Generators = v
	}
	for _, err := range steps {
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	l := logrus.New()
	l.Out = os.Stderr
	level, err := logrus.ParseLevel(cfg.Log.Level.String)
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)
	if cfg.Log.Format.String == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l, nil
}

// colored resolves the color mode against the terminal.
func (s *settings) colored(f *os.File) bool {
	switch s.cfg.Diagnostics.Color.String {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(f)
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Flags().GetBool("quiet")
	return q
}
