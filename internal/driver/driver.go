// Package driver runs the enabled generators over loaded packages, caches
// their outcome on disk and writes the generated files.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"durian/internal/compilation"
	"durian/internal/diag"
	"durian/internal/features"
	"durian/internal/fix"
	"durian/internal/generator"
	"durian/internal/observ"
	"durian/internal/pass"
	"durian/internal/source"
	"durian/internal/trace"
)

// Options configures a run.
type Options struct {
	Dir      string
	Patterns []string
	Tests    bool

	// Generators selects generators by name; empty means all.
	Generators []string
	Features   features.Config

	// Jobs bounds the packages processed at once. Zero means GOMAXPROCS.
	Jobs             int
	MaxDiagnostics   int
	WarningsAsErrors bool

	// DryRun computes outputs without touching Output.
	DryRun bool
	// Output receives generated files. The OS filesystem when nil.
	Output afero.Fs
	Cache  *DiskCache
	// Version separates cache entries written by different builds.
	Version string

	Progress ProgressSink
	Logger   logrus.FieldLogger
	Logging  pass.LoggingConfig
	LogFs    afero.Fs
	Target   pass.DiagnosticTarget
	// Fixes attaches code fixes to the final diagnostics when set.
	Fixes *fix.Registry
}

// Output is one generated file.
type Output struct {
	Generator string
	Path      string
	Content   []byte
	// Unchanged means the file on disk already had this content.
	Unchanged bool
	// Removed marks a stale file deleted because its generator emitted
	// nothing for the package.
	Removed bool
}

type PackageResult struct {
	PkgPath    string
	Dir        string
	Generation source.Digest
	Cached     bool
	// Skipped packages had fatal load problems.
	Skipped  bool
	Accepted int
	Outputs  []Output
	Elapsed  time.Duration
}

type Result struct {
	Files    *source.FileSet
	Bag      *diag.Bag
	Packages []PackageResult
	Timing   observ.Report
}

// Run loads the packages matching opts.Patterns and generates code for them.
func Run(ctx context.Context, opts Options) (*Result, error) {
	timer := observ.NewTimer()
	files := source.NewFileSetWithBase(opts.Dir)

	idx := timer.Begin("load")
	emit(opts.Progress, "", StageLoad, StatusWorking, nil, 0)
	start := time.Now()
	comps, err := compilation.Load(ctx, compilation.LoadConfig{
		Dir:    opts.Dir,
		Tests:  opts.Tests,
		Files:  files,
		Logger: opts.logger(),
	}, opts.Patterns...)
	timer.End(idx, fmt.Sprintf("%d packages", len(comps)))
	if err != nil {
		emit(opts.Progress, "", StageLoad, StatusError, err, time.Since(start))
		return nil, err
	}
	emit(opts.Progress, "", StageLoad, StatusDone, nil, time.Since(start))

	return runCompilations(ctx, files, comps, opts, timer)
}

// RunCompilations generates code for already loaded compilations. Every
// compilation must report spans into files.
func RunCompilations(ctx context.Context, files *source.FileSet, comps []*compilation.Compilation, opts Options) (*Result, error) {
	return runCompilations(ctx, files, comps, opts, observ.NewTimer())
}

func runCompilations(ctx context.Context, files *source.FileSet, comps []*compilation.Compilation, opts Options, timer *observ.Timer) (*Result, error) {
	gens, err := features.Generators(opts.Features, opts.Generators...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(gens))
	for i, g := range gens {
		names[i] = g.Name()
	}
	if opts.Output == nil && !opts.DryRun {
		opts.Output = afero.NewOsFs()
	}
	r := &runner{
		opts:   opts,
		gens:   gens,
		config: configDigest(opts.Version, names, opts.Features),
		log:    opts.logger(),
		timer:  timer,
	}

	for _, c := range comps {
		emit(opts.Progress, c.PkgPath, StageGenerate, StatusQueued, nil, 0)
	}

	idx := timer.Begin("generate")
	results := make([]PackageResult, len(comps))
	bags := make([]*diag.Bag, len(comps))
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(comps))))
	for i, c := range comps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pr, bag, err := r.runPackage(gctx, c)
			results[i], bags[i] = pr, bag
			return err
		})
	}
	werr := g.Wait()
	timer.End(idx, fmt.Sprintf("%d packages", len(comps)))

	bag := diag.NewBag(opts.MaxDiagnostics)
	for _, b := range bags {
		bag.Merge(b)
	}
	bag = finish(bag, files, opts)
	res := &Result{Files: files, Bag: bag, Packages: results, Timing: timer.Report()}
	if werr != nil {
		return res, werr
	}
	return res, nil
}

// finish escalates warnings when asked, orders and dedups the diagnostics
// and attaches code fixes.
func finish(in *diag.Bag, files *source.FileSet, opts Options) *diag.Bag {
	items := in.Items()
	for i := range items {
		if opts.WarningsAsErrors && items[i].Severity == diag.SevWarning {
			items[i].Severity = diag.SevError
		}
	}
	if opts.Fixes != nil {
		items = opts.Fixes.AttachAll(items)
	}
	out := diag.NewBag(max(len(items), 1))
	for _, d := range items {
		out.Add(d)
	}
	out.Sort()
	out.Dedup()
	return out
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

type runner struct {
	opts   Options
	gens   []generator.Generator
	config source.Digest
	log    logrus.FieldLogger
	timer  *observ.Timer
}

func (r *runner) runPackage(ctx context.Context, c *compilation.Compilation) (PackageResult, *diag.Bag, error) {
	start := time.Now()
	ctx, span := trace.Start(ctx, trace.ScopePackage, "package:"+c.PkgPath)
	pr := PackageResult{PkgPath: c.PkgPath, Dir: c.Dir, Generation: c.Generation}
	bag := diag.NewBag(r.opts.MaxDiagnostics)
	log := r.log.WithField("package", c.PkgPath)
	emit(r.opts.Progress, c.PkgPath, StageGenerate, StatusWorking, nil, 0)

	reportProblems(c, bag)
	if c.HasFatal() {
		pr.Skipped = true
		pr.Elapsed = time.Since(start)
		span.End("skipped")
		emit(r.opts.Progress, c.PkgPath, StageGenerate, StatusError, fmt.Errorf("%s could not be loaded", c.PkgPath), pr.Elapsed)
		return pr, bag, nil
	}

	key := cacheKey(c.Generation, r.config)
	results, diags, cached := r.replay(c, key, bag, log)
	if !cached {
		var err error
		results, diags, err = r.generate(ctx, c)
		if err != nil {
			pr.Elapsed = time.Since(start)
			span.End("failed")
			emit(r.opts.Progress, c.PkgPath, StageGenerate, StatusError, err, pr.Elapsed)
			return pr, bag, err
		}
		if r.opts.Cache != nil {
			if err := r.opts.Cache.Put(key, toPayload(c.Files, c.PkgPath, r.opts.Version, results, diags)); err != nil {
				log.WithError(err).Warn("disk cache write failed")
			}
		}
	}
	pr.Cached = cached
	for _, d := range diags {
		bag.Add(d)
	}
	for _, res := range results {
		pr.Accepted += res.Accepted
	}

	emit(r.opts.Progress, c.PkgPath, StageWrite, StatusWorking, nil, time.Since(start))
	wstart := time.Now()
	pr.Outputs = r.write(c, results, bag, log)
	r.timer.Observe("write", time.Since(wstart))
	pr.Elapsed = time.Since(start)
	status := StatusDone
	if cached {
		status = StatusCached
	}
	span.WithExtra("cached", fmt.Sprint(cached)).End(fmt.Sprintf("%d outputs", len(pr.Outputs)))
	emit(r.opts.Progress, c.PkgPath, StageWrite, status, nil, pr.Elapsed)
	log.WithFields(logrus.Fields{
		"cached":   cached,
		"accepted": pr.Accepted,
		"outputs":  len(pr.Outputs),
		"elapsed":  pr.Elapsed,
	}).Debug("package done")
	return pr, bag, nil
}

// replay serves a package from the disk cache. Unreadable entries are
// reported and treated as misses.
func (r *runner) replay(c *compilation.Compilation, key source.Digest, bag *diag.Bag, log logrus.FieldLogger) ([]generator.Result, []diag.Diagnostic, bool) {
	if r.opts.Cache == nil {
		return nil, nil, false
	}
	var payload DiskPayload
	ok, err := r.opts.Cache.Get(key, &payload)
	if err == nil && ok {
		var results []generator.Result
		var diags []diag.Diagnostic
		results, diags, err = fromPayload(c.Files, &payload)
		if err == nil {
			log.Debug("replayed from disk cache")
			return results, diags, true
		}
	}
	if err != nil {
		bag.Add(diag.New(diag.CacheCorrupt, source.Span{}, c.PkgPath, err))
	}
	return nil, nil, false
}

func (r *runner) generate(ctx context.Context, c *compilation.Compilation) ([]generator.Result, []diag.Diagnostic, error) {
	genBag := diag.NewBag(r.opts.MaxDiagnostics)
	results := make([]generator.Result, 0, len(r.gens))
	for _, g := range r.gens {
		pc := pass.New(ctx, c,
			pass.WithGenerator(g.Name()),
			pass.WithReporter(diag.BagReporter{Bag: genBag}),
			pass.WithTarget(r.opts.Target),
			pass.WithLogging(r.opts.Logging, r.opts.LogFs),
			pass.WithLogger(r.log))
		gstart := time.Now()
		res, err := g.Generate(pc)
		r.timer.Observe("generate:"+g.Name(), time.Since(gstart))
		if cerr := pc.Close(); cerr != nil {
			r.log.WithError(cerr).Warn("closing generator log failed")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %s: %w", c.PkgPath, g.Name(), err)
		}
		results = append(results, res)
	}
	return results, genBag.Items(), nil
}

// reportProblems turns load, type-check and directive problems into
// diagnostics.
func reportProblems(c *compilation.Compilation, bag *diag.Bag) {
	for _, p := range c.Problems {
		sp, _ := c.PosSpan(p.Pos, p.Pos)
		desc := diag.TypeCheckFailed
		if p.Fatal {
			desc = diag.LoadPackageFailed
		}
		bag.Add(diag.New(desc, sp, p.Msg))
	}
	if c.HasFatal() {
		return
	}
	for _, p := range c.Directives().Problems() {
		sp, _ := c.PosSpan(p.Pos, p.End)
		bag.Add(diag.New(diag.MalformedDirective, sp, p.Raw, p.Reason))
	}
}
