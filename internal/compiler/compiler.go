// Package compiler drives a compilation: it parses every source file,
// resolves the files level by level in import order, and lowers each
// resolved function to a CFG. Files on the same level share no import
// relationship and are resolved concurrently, each into its own Namespace.
package compiler

import (
	"context"
	"path/filepath"
	"runtime"

	pkgerrors "github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"polyc/internal/ast"
	"polyc/internal/cfg"
	"polyc/internal/errors"
	"polyc/internal/ns"
	"polyc/internal/parser"
	"polyc/internal/sema"
	"polyc/internal/target"
)

var log = commonlog.GetLogger("polyc.compiler")

// Source is one input file
type Source struct {
	Path string
	Text string
}

// Options configures a compilation
type Options struct {
	Target *target.Target
	// Jobs bounds the units resolved at the same time; 0 uses GOMAXPROCS
	Jobs int
	// Cache, when set, is consulted before resolving a unit
	Cache *Cache
	// SkipLowering stops after resolution
	SkipLowering bool
}

// Unit is one compiled source file
type Unit struct {
	Path      string
	Source    string
	AST       *ast.SourceUnit
	Namespace *ns.Namespace
	Functions []*cfg.Function
	// Cached is set when the namespace came from the cache
	Cached bool

	parseDiags errors.Diagnostics
	targets    map[*ast.Import]*Unit
	// cyclic holds the imports dropped because they close a cycle
	cyclic map[*ast.Import]bool
	level  int
	key    string
}

// Function returns the CFG with the given name, or nil
func (u *Unit) Function(name string) *cfg.Function {
	for _, f := range u.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Result holds every unit in input order and the merged diagnostics
type Result struct {
	Units       []*Unit
	Diagnostics errors.Diagnostics
}

// HasErrors reports whether any unit produced an error diagnostic
func (r *Result) HasErrors() bool { return r.Diagnostics.HasErrors() }

// Unit returns the unit compiled from path, or nil
func (r *Result) Unit(path string) *Unit {
	for _, u := range r.Units {
		if u.Path == path {
			return u
		}
	}
	return nil
}

// Compile compiles files for opts.Target. Source problems are reported as
// diagnostics in the result; the error is reserved for invalid options
// and cancellation.
func Compile(ctx context.Context, files []Source, opts Options) (*Result, error) {
	if opts.Target == nil {
		return nil, pkgerrors.New("no target selected")
	}
	units, err := newUnits(files)
	if err != nil {
		return nil, err
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	if err := parseAll(ctx, units, jobs); err != nil {
		return nil, err
	}
	link(units)
	driverDiags := order(units)
	levels := byLevel(units)
	log.Debugf("compiling %d units in %d levels for %s", len(units), len(levels), opts.Target.Name())

	for i, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for _, u := range level {
			u := u
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				compileUnit(u, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, pkgerrors.Wrapf(err, "compiling level %d", i)
		}
	}

	res := &Result{Units: units}
	res.Diagnostics = append(res.Diagnostics, driverDiags...)
	for _, u := range units {
		res.Diagnostics = append(res.Diagnostics, u.parseDiags...)
		res.Diagnostics = append(res.Diagnostics, unitDiagnostics(u)...)
	}
	res.Diagnostics = res.Diagnostics.Sorted()
	log.Debugf("compiled %d units: %d errors, %d warnings", len(units),
		res.Diagnostics.Count(errors.Error), res.Diagnostics.Count(errors.Warning))
	return res, nil
}

func newUnits(files []Source) ([]*Unit, error) {
	seen := make(map[string]bool, len(files))
	units := make([]*Unit, len(files))
	for i, f := range files {
		p := filepath.Clean(f.Path)
		if seen[p] {
			return nil, pkgerrors.Errorf("file %s given twice", p)
		}
		seen[p] = true
		units[i] = &Unit{Path: p, Source: f.Text}
	}
	return units, nil
}

func parseAll(ctx context.Context, units []*Unit, jobs int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, u := range units {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, perrs := parser.ParseSource(u.Path, u.Source)
			u.AST = unit
			u.parseDiags = parseDiagnostics(perrs)
			return nil
		})
	}
	return pkgerrors.Wrap(g.Wait(), "parsing")
}

func parseDiagnostics(perrs []parser.ParseError) errors.Diagnostics {
	var ds errors.Diagnostics
	for _, pe := range perrs {
		end := pe.Position
		end.Offset += pe.Length
		end.Column += pe.Length
		ds = append(ds, errors.NewError(errors.ErrorParse, pe.Message, ast.Span{Pos: pe.Position, EndPos: end}).Build())
	}
	return ds
}

// compileUnit resolves and lowers one unit whose imports are all compiled
func compileUnit(u *Unit, opts Options) {
	u.key = cacheKey(u, opts.Target)
	if opts.Cache != nil {
		if e, ok := opts.Cache.get(u.key); ok && (opts.SkipLowering || e.lowered) {
			u.Namespace, u.Functions, u.Cached = e.ns, e.functions, true
			log.Debugf("%s: cache hit", u.Path)
			return
		}
	}

	imports := make(map[string]*ns.Namespace)
	for _, imp := range u.imports() {
		imports[imp.Path] = u.targets[imp].Namespace
	}
	u.Namespace = sema.Resolve(u.AST, opts.Target, imports)
	if !opts.SkipLowering {
		u.Functions = cfg.Build(u.Namespace, opts.Target)
	}
	if opts.Cache != nil {
		opts.Cache.add(u.key, &entry{ns: u.Namespace, functions: u.Functions, lowered: !opts.SkipLowering})
	}
}

// unitDiagnostics drops the resolver's unresolved-import reports for the
// imports the driver already reported as cyclic
func unitDiagnostics(u *Unit) errors.Diagnostics {
	if u.Namespace == nil {
		return nil
	}
	if len(u.cyclic) == 0 {
		return u.Namespace.Diagnostics
	}
	spans := make(map[ast.Span]bool, len(u.cyclic))
	for imp := range u.cyclic {
		spans[ast.SpanOf(imp)] = true
	}
	var out errors.Diagnostics
	for _, d := range u.Namespace.Diagnostics {
		if d.Code == errors.ErrorUnresolvedImport && spans[d.Span] {
			continue
		}
		out = append(out, d)
	}
	return out
}
