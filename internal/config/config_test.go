package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"durian/internal/pass"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

const projectToml = `
[run]
generators = ["getter"]
jobs = 4

[diagnostics]
format = "short"

[defaultparam]
suffix = "Or"
`

func TestConsolidateLayers(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/proj/durian.toml", []byte(projectToml), 0o644))
	require.NoError(t, fs.MkdirAll("/work/proj/pkg/sub", 0o755))

	flags := Config{Diagnostics: DiagnosticsConfig{Format: null.StringFrom("json")}}
	cfg, path, err := Consolidate(fs, "/work/proj/pkg/sub", env(map[string]string{
		"DURIAN_JOBS":                 "2",
		"DURIAN_WARNINGS_AS_ERRORS":   "true",
		"DURIAN_DEFAULTPARAM_WORKERS": "3",
	}), flags)
	require.NoError(t, err)

	assert.Equal(t, "/work/proj/durian.toml", path)
	assert.Equal(t, []string{"getter"}, cfg.Run.Generators)
	assert.Equal(t, int64(2), cfg.Run.Jobs.Int64, "env overrides the file")
	assert.True(t, cfg.Run.WarningsAsErrors.Bool)
	assert.Equal(t, "json", cfg.Diagnostics.Format.String, "flags override everything")
	assert.Equal(t, "report", cfg.Diagnostics.Target.String, "defaults survive")

	fc := cfg.Features()
	assert.Equal(t, "Or", fc.DefaultParam.Suffix)
	assert.Equal(t, 3, fc.DefaultParam.Workers)
	assert.Equal(t, 1, fc.Getter.Workers)
}

func TestConsolidateWithoutFile(t *testing.T) {
	cfg, path, err := Consolidate(afero.NewMemMapFs(), "/nowhere", env(nil), Config{})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Nil(t, cfg.Run.Generators)
	assert.Equal(t, "Default", cfg.DefaultParam.Suffix.String)
	assert.Equal(t, pass.TargetReport, cfg.Target())
	logging := cfg.PassLogging()
	assert.False(t, logging.Enabled)
	assert.Equal(t, pass.LogDefault, logging.Flags)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/durian.toml", []byte("[run]\njobz = 1\n"), 0o644))
	_, err := LoadFile(fs, "/p/durian.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run.jobz")
}

func TestEnvGeneratorList(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DURIAN_GENERATORS": "getter,defaultparam"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"getter", "defaultparam"}, cfg.Run.Generators)
	assert.False(t, cfg.Run.Jobs.Valid)
}

func TestValidate(t *testing.T) {
	cfg := Default().Apply(Config{
		Log:          LogConfig{Format: null.StringFrom("xml")},
		Run:          RunConfig{Generators: []string{"nope"}},
		DefaultParam: DefaultParamConfig{Suffix: null.StringFrom("9x")},
	})
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log format "xml"`)
	assert.Contains(t, err.Error(), `unknown generator "nope"`)
	assert.Contains(t, err.Error(), `"9x" is not a Go identifier`)
	assert.NoError(t, Default().Validate())
}

func TestTemplateDecodesToDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/durian.toml", []byte(Template), 0o644))
	cfg, err := LoadFile(fs, "/p/durian.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), Default().Apply(cfg))
}
