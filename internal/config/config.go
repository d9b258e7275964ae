// Package config loads durian.toml, applies DURIAN_* environment overrides
// and merges command line flags on top. Every setting is a null value so
// each layer only overrides what it sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/guregu/null.v3"

	"durian/internal/features"
	"durian/internal/features/defaultparam"
	"durian/internal/features/getter"
	"durian/internal/pass"
	"durian/internal/trace"
)

// FileName is the configuration file looked up from the working directory
// upwards.
const FileName = "durian.toml"

type Config struct {
	Run          RunConfig          `toml:"run"`
	Cache        CacheConfig        `toml:"cache"`
	Log          LogConfig          `toml:"log"`
	Diagnostics  DiagnosticsConfig  `toml:"diagnostics"`
	PassLog      PassLogConfig      `toml:"pass_log"`
	Trace        TraceConfig        `toml:"trace"`
	DefaultParam DefaultParamConfig `toml:"defaultparam"`
	Getter       GetterConfig       `toml:"getter"`
}

type RunConfig struct {
	// Generators is nil when unset; an empty list is not distinguishable.
	Generators       []string  `toml:"generators" envconfig:"DURIAN_GENERATORS"`
	Jobs             null.Int  `toml:"jobs" envconfig:"DURIAN_JOBS"`
	Tests            null.Bool `toml:"tests" envconfig:"DURIAN_TESTS"`
	WarningsAsErrors null.Bool `toml:"warnings_as_errors" envconfig:"DURIAN_WARNINGS_AS_ERRORS"`
	MaxDiagnostics   null.Int  `toml:"max_diagnostics" envconfig:"DURIAN_MAX_DIAGNOSTICS"`
}

type CacheConfig struct {
	Enabled null.Bool   `toml:"enabled" envconfig:"DURIAN_CACHE"`
	Dir     null.String `toml:"dir" envconfig:"DURIAN_CACHE_DIR"`
}

type LogConfig struct {
	Level  null.String `toml:"level" envconfig:"DURIAN_LOG_LEVEL"`
	Format null.String `toml:"format" envconfig:"DURIAN_LOG_FORMAT"`
}

type DiagnosticsConfig struct {
	Format null.String `toml:"format" envconfig:"DURIAN_DIAG_FORMAT"`
	Target null.String `toml:"target" envconfig:"DURIAN_DIAG_TARGET"`
	Color  null.String `toml:"color" envconfig:"DURIAN_COLOR"`
}

type PassLogConfig struct {
	Enabled   null.Bool   `toml:"enabled" envconfig:"DURIAN_PASS_LOG"`
	Directory null.String `toml:"directory" envconfig:"DURIAN_PASS_LOG_DIR"`
	Flags     null.String `toml:"flags" envconfig:"DURIAN_PASS_LOG_FLAGS"`
}

type TraceConfig struct {
	Level  null.String `toml:"level" envconfig:"DURIAN_TRACE"`
	Output null.String `toml:"output" envconfig:"DURIAN_TRACE_OUTPUT"`
}

type DefaultParamConfig struct {
	Suffix  null.String `toml:"suffix" envconfig:"DURIAN_DEFAULTPARAM_SUFFIX"`
	Workers null.Int    `toml:"workers" envconfig:"DURIAN_DEFAULTPARAM_WORKERS"`
}

type GetterConfig struct {
	Workers null.Int `toml:"workers" envconfig:"DURIAN_GETTER_WORKERS"`
}

// Default returns the built-in settings. Values are not marked valid so
// any layer overrides them.
func Default() Config {
	dp := defaultparam.DefaultConfig()
	return Config{
		Run: RunConfig{
			Jobs:             null.NewInt(0, false),
			Tests:            null.NewBool(false, false),
			WarningsAsErrors: null.NewBool(false, false),
			MaxDiagnostics:   null.NewInt(0, false),
		},
		Cache: CacheConfig{
			Enabled: null.NewBool(true, false),
		},
		Log: LogConfig{
			Level:  null.NewString("warning", false),
			Format: null.NewString("text", false),
		},
		Diagnostics: DiagnosticsConfig{
			Format: null.NewString("pretty", false),
			Target: null.NewString("report", false),
			Color:  null.NewString("auto", false),
		},
		PassLog: PassLogConfig{
			Enabled:   null.NewBool(false, false),
			Directory: null.NewString(".durian/logs", false),
			Flags:     null.NewString("generated,diagnostics", false),
		},
		Trace: TraceConfig{
			Level:  null.NewString("off", false),
			Output: null.NewString("-", false),
		},
		DefaultParam: DefaultParamConfig{
			Suffix:  null.NewString(dp.Suffix, false),
			Workers: null.NewInt(int64(dp.Workers), false),
		},
		Getter: GetterConfig{
			Workers: null.NewInt(1, false),
		},
	}
}

// Apply returns c with every valid value of o laid over it.
func (c Config) Apply(o Config) Config {
	if o.Run.Generators != nil {
		c.Run.Generators = o.Run.Generators
	}
	c.Run.Jobs = pickInt(c.Run.Jobs, o.Run.Jobs)
	c.Run.Tests = pickBool(c.Run.Tests, o.Run.Tests)
	c.Run.WarningsAsErrors = pickBool(c.Run.WarningsAsErrors, o.Run.WarningsAsErrors)
	c.Run.MaxDiagnostics = pickInt(c.Run.MaxDiagnostics, o.Run.MaxDiagnostics)

	c.Cache.Enabled = pickBool(c.Cache.Enabled, o.Cache.Enabled)
	c.Cache.Dir = pickString(c.Cache.Dir, o.Cache.Dir)

	c.Log.Level = pickString(c.Log.Level, o.Log.Level)
	c.Log.Format = pickString(c.Log.Format, o.Log.Format)

	c.Diagnostics.Format = pickString(c.Diagnostics.Format, o.Diagnostics.Format)
	c.Diagnostics.Target = pickString(c.Diagnostics.Target, o.Diagnostics.Target)
	c.Diagnostics.Color = pickString(c.Diagnostics.Color, o.Diagnostics.Color)

	c.PassLog.Enabled = pickBool(c.PassLog.Enabled, o.PassLog.Enabled)
	c.PassLog.Directory = pickString(c.PassLog.Directory, o.PassLog.Directory)
	c.PassLog.Flags = pickString(c.PassLog.Flags, o.PassLog.Flags)

	c.Trace.Level = pickString(c.Trace.Level, o.Trace.Level)
	c.Trace.Output = pickString(c.Trace.Output, o.Trace.Output)

	c.DefaultParam.Suffix = pickString(c.DefaultParam.Suffix, o.DefaultParam.Suffix)
	c.DefaultParam.Workers = pickInt(c.DefaultParam.Workers, o.DefaultParam.Workers)
	c.Getter.Workers = pickInt(c.Getter.Workers, o.Getter.Workers)
	return c
}

func pickInt(a, b null.Int) null.Int {
	if b.Valid {
		return b
	}
	return a
}

func pickBool(a, b null.Bool) null.Bool {
	if b.Valid {
		return b
	}
	return a
}

func pickString(a, b null.String) null.String {
	if b.Valid {
		return b
	}
	return a
}

// Find looks for durian.toml in startDir and its parents.
func Find(fs afero.Fs, startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := fs.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes one durian.toml. Unknown keys are an error.
func LoadFile(fs afero.Fs, path string) (Config, error) {
	var cfg Config
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, err
	}
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// FromEnv reads the DURIAN_* variables through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	sections := []any{
		&cfg.Run, &cfg.Cache, &cfg.Log, &cfg.Diagnostics,
		&cfg.PassLog, &cfg.Trace, &cfg.DefaultParam, &cfg.Getter,
	}
	for _, s := range sections {
		if err := envconfig.Process("", s, lookup); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Consolidate layers defaults, the nearest durian.toml, the environment and
// flags, in that order. path is empty when no file was found.
func Consolidate(fs afero.Fs, dir string, lookup func(string) (string, bool), flags Config) (cfg Config, path string, err error) {
	cfg = Default()
	path, found, err := Find(fs, dir)
	if err != nil {
		return cfg, "", err
	}
	if found {
		fileCfg, err := LoadFile(fs, path)
		if err != nil {
			return cfg, path, err
		}
		cfg = cfg.Apply(fileCfg)
	}
	envCfg, err := FromEnv(lookup)
	if err != nil {
		return cfg, path, err
	}
	cfg = cfg.Apply(envCfg).Apply(flags)
	return cfg, path, cfg.Validate()
}

// Validate checks every enumerated setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := logrus.ParseLevel(c.Log.Level.String); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format.String {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q (expected text|json)", c.Log.Format.String))
	}
	switch c.Diagnostics.Format.String {
	case "pretty", "short", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid diagnostics format %q (expected pretty|short|json)", c.Diagnostics.Format.String))
	}
	switch c.Diagnostics.Color.String {
	case "auto", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("invalid color mode %q (expected auto|on|off)", c.Diagnostics.Color.String))
	}
	if _, err := pass.ParseTarget(c.Diagnostics.Target.String); err != nil {
		errs = append(errs, err)
	}
	if _, err := pass.ParseLogFlags(c.PassLog.Flags.String); err != nil {
		errs = append(errs, err)
	}
	if _, err := trace.ParseLevel(c.Trace.Level.String); err != nil {
		errs = append(errs, err)
	}
	if c.Run.Jobs.Int64 < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Run.Jobs.Int64))
	}
	if !ident(c.DefaultParam.Suffix.String) {
		errs = append(errs, fmt.Errorf("defaultparam suffix %q is not a Go identifier", c.DefaultParam.Suffix.String))
	}
	for _, name := range c.Run.Generators {
		if !slices.Contains(features.Names(), name) {
			errs = append(errs, fmt.Errorf("%w %q (known: %v)", features.ErrUnknownGenerator, name, features.Names()))
		}
	}
	return errors.Join(errs...)
}

// Features converts the per-feature sections.
func (c Config) Features() features.Config {
	return features.Config{
		DefaultParam: defaultparam.Config{
			Suffix:  c.DefaultParam.Suffix.String,
			Workers: int(c.DefaultParam.Workers.Int64),
		},
		Getter: getter.Config{Workers: int(c.Getter.Workers.Int64)},
	}
}

// PassLogging converts the pass_log section.
func (c Config) PassLogging() pass.LoggingConfig {
	flags, _ := pass.ParseLogFlags(c.PassLog.Flags.String)
	return pass.LoggingConfig{
		Enabled:   c.PassLog.Enabled.Bool,
		Directory: c.PassLog.Directory.String,
		Flags:     flags,
	}
}

// Target converts the diagnostics target.
func (c Config) Target() pass.DiagnosticTarget {
	t, _ := pass.ParseTarget(c.Diagnostics.Target.String)
	return t
}

func ident(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || (i > 0 && '0' <= r && r <= '9') {
			continue
		}
		return false
	}
	return true
}
