// Package pass carries the per-invocation state of one generator run over
// one compilation: cancellation, the diagnostic sinks and the logging
// configuration. A Context is never persisted across runs.
package pass

import (
	"context"
	"go/ast"
	"go/printer"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"durian/internal/compilation"
	"durian/internal/diag"
	"durian/internal/trace"
)

// Context is the state handed to filters and templates during one pass.
type Context struct {
	ctx       context.Context
	id        uuid.UUID
	generator string
	comp      *compilation.Compilation
	reporter  diag.Reporter
	target    DiagnosticTarget
	logging   LoggingConfig
	logger    *logrus.Entry
	tracer    trace.Tracer
	file      *fileLog
	taps      []diag.Reporter
}

// Option configures a Context.
type Option func(*Context)

// WithGenerator names the generator running the pass.
func WithGenerator(name string) Option {
	return func(c *Context) { c.generator = name }
}

// WithReporter sets the diagnostic reporter.
func WithReporter(r diag.Reporter) Option {
	return func(c *Context) { c.reporter = r }
}

// WithTarget selects the diagnostic sinks. TargetDefault keeps
// TargetReport.
func WithTarget(t DiagnosticTarget) Option {
	return func(c *Context) { c.target = t.Resolve() }
}

// WithLogging enables the per-pass log file. fs defaults to the OS
// filesystem.
func WithLogging(cfg LoggingConfig, fs afero.Fs) Option {
	return func(c *Context) {
		c.logging = cfg
		if fs == nil {
			fs = afero.NewOsFs()
		}
		c.file = &fileLog{fs: fs}
	}
}

// WithLogger sets the logger used for the Log target.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l.WithFields(logrus.Fields{})
		}
	}
}

// New creates a pass context over comp. The tracer is taken from ctx.
func New(ctx context.Context, comp *compilation.Compilation, opts ...Option) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		ctx:    ctx,
		id:     uuid.New(),
		comp:   comp,
		target: TargetReport,
		tracer: trace.FromContext(ctx),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	fields := logrus.Fields{"pass": c.id.String()}
	if c.generator != "" {
		fields["generator"] = c.generator
	}
	if comp != nil {
		fields["package"] = comp.PkgPath
	}
	c.logger = c.logger.WithFields(fields)
	if c.file != nil {
		if !c.logging.Enabled || c.logging.Directory == "" {
			c.file = nil
		} else {
			c.file.path = logPath(c.logging.Directory, c.generator, comp, c.id)
		}
	}
	return c
}

func (c *Context) Context() context.Context { return c.ctx }

// Err reports cancellation of the pass.
func (c *Context) Err() error { return c.ctx.Err() }

func (c *Context) ID() uuid.UUID { return c.id }

func (c *Context) Generator() string { return c.generator }

func (c *Context) Compilation() *compilation.Compilation { return c.comp }

func (c *Context) Target() DiagnosticTarget { return c.target }

func (c *Context) Logging() LoggingConfig { return c.logging }

func (c *Context) Logger() *logrus.Entry { return c.logger }

func (c *Context) Tracer() trace.Tracer { return c.tracer }

// StartSpan opens a trace span nested under the spans already open on the
// pass. The returned copy carries the new span, so work done through it
// nests under that span.
func (c *Context) StartSpan(scope trace.Scope, name string) (*Context, *trace.Span) {
	ctx, span := trace.Start(c.ctx, scope, name)
	cp := *c
	cp.ctx = ctx
	return &cp, span
}

// Reporter returns the reporter diagnostics go to under TargetReport.
func (c *Context) Reporter() diag.Reporter { return c.reporter }

// Derive returns a copy of c that reports to r. The copy shares the pass
// identity and log file.
func (c *Context) Derive(r diag.Reporter) *Context {
	cp := *c
	cp.reporter = r
	return &cp
}

// Tap returns a copy of c that additionally hands every diagnostic to r,
// whatever the target.
func (c *Context) Tap(r diag.Reporter) *Context {
	cp := *c
	cp.taps = append(append([]diag.Reporter(nil), c.taps...), r)
	return &cp
}

// Report is the single emission point for diagnostics of the pass.
func (c *Context) Report(d diag.Diagnostic) {
	for _, t := range c.taps {
		t.Report(d)
	}
	if c.target&TargetReport != 0 && c.reporter != nil {
		c.reporter.Report(d)
	}
	if c.target&TargetLog != 0 {
		c.logDiagnostic(d)
	}
}

func (c *Context) logDiagnostic(d diag.Diagnostic) {
	fields := logrus.Fields{
		"code":     d.Code().ID(),
		"severity": d.Severity.String(),
	}
	if c.comp != nil {
		if f := c.comp.Files.Get(d.Primary.File); f != nil {
			start, _ := c.comp.Files.Resolve(d.Primary)
			fields["pos"] = f.Path + ":" + start.String()
		}
	}
	entry := c.logger.WithFields(fields)
	switch d.Severity {
	case diag.SevError:
		entry.Error(d.Message())
	case diag.SevWarning:
		entry.Warn(d.Message())
	default:
		entry.Info(d.Message())
	}
	if c.file != nil && c.logging.Flags&LogDiagnostics != 0 {
		c.file.write(c.logger, "diagnostic", d.Message(), fields)
	}
}

// LogNode records the source of node when node logging is enabled.
func (c *Context) LogNode(label string, node ast.Node) {
	if c.file == nil || c.logging.Flags&LogNodes == 0 || c.comp == nil {
		return
	}
	var sb strings.Builder
	if err := printer.Fprint(&sb, c.comp.Fset, node); err != nil {
		sb.WriteString(err.Error())
	}
	c.file.write(c.logger, "node", sb.String(), logrus.Fields{"label": label})
}

// LogInput records every non-generated input file when enabled.
func (c *Context) LogInput() {
	if c.file == nil || c.logging.Flags&LogInputSource == 0 || c.comp == nil {
		return
	}
	for _, f := range c.comp.Syntax {
		sf := c.comp.SourceFile(f)
		if sf == nil || c.comp.IsGenerated(f) {
			continue
		}
		c.file.write(c.logger, "input", string(sf.Content), logrus.Fields{"file": sf.Path})
	}
}

// LogGenerated records a generated source when enabled.
func (c *Context) LogGenerated(name string, content []byte) {
	if c.file == nil || c.logging.Flags&LogGeneratedSource == 0 {
		return
	}
	c.file.write(c.logger, "generated", string(content), logrus.Fields{"file": name})
}

// Close flushes the pass log.
func (c *Context) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.close()
}
