package compilation

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"durian/internal/source"
)

// LoadConfig controls package loading.
type LoadConfig struct {
	Dir        string
	Tests      bool
	Env        []string
	BuildFlags []string
	// Files receives every parsed file. A new FileSet is created when nil.
	Files  *source.FileSet
	Logger logrus.FieldLogger
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedModule

// ErrNoPackages is returned when the patterns matched nothing.
var ErrNoPackages = errors.New("no packages matched")

// Load type-checks the packages matching patterns. Sources are normalized
// (BOM, CRLF) before parsing so spans always address FileSet content.
// Package level problems do not fail the call; they are recorded on the
// returned compilations.
func Load(ctx context.Context, cfg LoadConfig, patterns ...string) ([]*Compilation, error) {
	files := cfg.Files
	if files == nil {
		files = source.NewFileSetWithBase(cfg.Dir)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		idsMu sync.Mutex
		ids   = make(map[string]source.FileID)
	)
	fset := token.NewFileSet()
	pcfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        cfg.Dir,
		Env:        cfg.Env,
		BuildFlags: cfg.BuildFlags,
		Tests:      cfg.Tests,
		Fset:       fset,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			var extra source.FileFlags
			if isGeneratedSource(src) {
				extra = source.FileGenerated
			}
			id := files.AddNormalized(filename, src, extra)
			idsMu.Lock()
			ids[filename] = id
			idsMu.Unlock()
			return parser.ParseFile(fset, filename, files.Get(id).Content, parser.ParseComments|parser.SkipObjectResolution)
		},
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoPackages, patterns)
	}

	out := make([]*Compilation, 0, len(pkgs))
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := &Compilation{
			PkgPath: pkg.PkgPath,
			Name:    pkg.Name,
			Fset:    fset,
			Files:   files,
			Syntax:  pkg.Syntax,
			Types:   pkg.Types,
			Info:    pkg.TypesInfo,
			fileIDs: make(map[string]source.FileID, len(pkg.Syntax)),
		}
		if len(pkg.GoFiles) > 0 {
			c.Dir = filepath.Dir(pkg.GoFiles[0])
		}
		idsMu.Lock()
		for _, f := range pkg.Syntax {
			name := fset.File(f.FileStart).Name()
			c.fileIDs[name] = ids[name]
		}
		idsMu.Unlock()

		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				continue
			}
			c.Problems = append(c.Problems, Problem{Fatal: true, Msg: e.Error()})
		}
		for _, te := range pkg.TypeErrors {
			c.Problems = append(c.Problems, Problem{Pos: te.Pos, Msg: te.Msg})
		}
		c.finish()
		logger.WithFields(logrus.Fields{
			"package":    c.PkgPath,
			"files":      len(c.Syntax),
			"problems":   len(c.Problems),
			"generation": c.Generation.Short(),
		}).Debug("package loaded")
		out = append(out, c)
	}
	return out, nil
}
