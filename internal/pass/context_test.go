package pass

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durian/internal/compilation"
	"durian/internal/diag"
)

func testCompilation(t *testing.T) *compilation.Compilation {
	t.Helper()
	c, err := compilation.FromSources(nil, "example.com/p", map[string]string{
		"p.go": "package p\n\n//durian:partial\ntype T struct{}\n",
	})
	require.NoError(t, err)
	return c
}

func bufferLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf
	l.Formatter = &logrus.TextFormatter{DisableColors: true, DisableTimestamp: true}
	return l, &buf
}

func sampleDiag(c *compilation.Compilation) diag.Diagnostic {
	sp, _ := c.Span(c.Decl("T"))
	return diag.New(diag.TargetNotPartial, sp, "T")
}

func TestReportFanOut(t *testing.T) {
	comp := testCompilation(t)
	tests := []struct {
		target   DiagnosticTarget
		reported int
		logged   bool
	}{
		{TargetDefault, 1, false},
		{TargetNone, 0, false},
		{TargetReport, 1, false},
		{TargetLog, 0, true},
		{TargetBoth, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			bag := diag.NewBag(0)
			logger, buf := bufferLogger()
			pc := New(context.Background(), comp,
				WithGenerator("getter"),
				WithReporter(diag.BagReporter{Bag: bag}),
				WithTarget(tt.target),
				WithLogger(logger),
			)
			pc.Report(sampleDiag(comp))
			assert.Equal(t, tt.reported, bag.Len())
			if tt.logged {
				assert.Contains(t, buf.String(), "DUR0001")
				assert.Contains(t, buf.String(), "generator=getter")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestDeriveKeepsIdentity(t *testing.T) {
	comp := testCompilation(t)
	outer := diag.NewBag(0)
	inner := diag.NewBag(0)
	pc := New(context.Background(), comp, WithReporter(diag.BagReporter{Bag: outer}))
	derived := pc.Derive(diag.MultiReporter{diag.BagReporter{Bag: inner}, pc.Reporter()})

	derived.Report(sampleDiag(comp))
	assert.Equal(t, pc.ID(), derived.ID())
	assert.Equal(t, 1, outer.Len())
	assert.Equal(t, 1, inner.Len())
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pc := New(ctx, nil)
	require.NoError(t, pc.Err())
	cancel()
	assert.ErrorIs(t, pc.Err(), context.Canceled)
}

func TestPassLogFile(t *testing.T) {
	comp := testCompilation(t)
	fs := afero.NewMemMapFs()
	logger, _ := bufferLogger()
	pc := New(context.Background(), comp,
		WithGenerator("defaultparam"),
		WithTarget(TargetLog),
		WithLogger(logger),
		WithLogging(LoggingConfig{Enabled: true, Directory: "/logs", Flags: LogAll}, fs),
	)
	pc.LogInput()
	pc.LogNode("candidate", comp.Decl("T"))
	pc.LogGenerated("p_durian.go", []byte("package p\n"))
	pc.Report(sampleDiag(comp))
	require.NoError(t, pc.Close())

	matches, err := afero.Glob(fs, filepath.Join("/logs", "defaultparam", "example.com_p-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := afero.ReadFile(fs, matches[0])
	require.NoError(t, err)
	for _, kind := range []string{`"kind":"input"`, `"kind":"node"`, `"kind":"generated"`, `"kind":"diagnostic"`} {
		assert.Contains(t, string(data), kind)
	}
}

func TestDisabledLoggingWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	pc := New(context.Background(), testCompilation(t),
		WithLogging(LoggingConfig{Enabled: false, Directory: "/logs", Flags: LogAll}, fs))
	pc.LogGenerated("x.go", []byte("package p"))
	require.NoError(t, pc.Close())
	exists, _ := afero.DirExists(fs, "/logs")
	assert.False(t, exists)
}

func TestParseLogFlags(t *testing.T) {
	f, err := ParseLogFlags("generated, diagnostics")
	require.NoError(t, err)
	assert.Equal(t, LogDefault, f)
	all, err := ParseLogFlags("all")
	require.NoError(t, err)
	assert.Equal(t, LogAll, all)
	_, err = ParseLogFlags("bogus")
	assert.Error(t, err)

	var target DiagnosticTarget
	require.NoError(t, target.UnmarshalText([]byte("both")))
	assert.Equal(t, TargetBoth, target)
}

func TestTapSeesEveryTarget(t *testing.T) {
	comp := testCompilation(t)
	tap := diag.NewBag(0)
	logger, _ := bufferLogger()
	pc := New(context.Background(), comp, WithTarget(TargetNone), WithLogger(logger)).Tap(diag.BagReporter{Bag: tap})
	pc.Report(sampleDiag(comp))
	assert.Equal(t, 1, tap.Len())
}
