package sema

import (
	"fmt"

	"github.com/tliron/commonlog"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

var log = commonlog.GetLogger("polyc.sema")

// resolver holds the state of resolving one source unit. Every pass reads
// and writes the namespace through r.ns; nothing is global.
type resolver struct {
	ns     *ns.Namespace
	unit   *ast.SourceUnit
	target ns.Target

	// declarations kept for the later passes
	eventDecls map[*ns.Event]*ast.EventDecl
	errorDecls map[*ns.UserError]*ast.ErrorDecl
	varDecls   map[*ns.Variable]*ast.VarDecl

	// constant variables being folded, for cycle detection
	constState map[*ns.Variable]int

	// locals of each resolved body, for the unused variable check
	locals map[*ns.Function][]*ns.Variable
}

const (
	constPending = iota
	constResolving
	constDone
)

// Resolve builds the namespace of one parsed source unit. Imports maps each
// import path as written in the source to the already resolved namespace of
// that unit. Resolve never fails; problems are recorded as diagnostics.
func Resolve(unit *ast.SourceUnit, target ns.Target, imports map[string]*ns.Namespace) *ns.Namespace {
	r := &resolver{
		ns:         ns.New(unit.Path, target),
		unit:       unit,
		target:     target,
		eventDecls: make(map[*ns.Event]*ast.EventDecl),
		errorDecls: make(map[*ns.UserError]*ast.ErrorDecl),
		varDecls:   make(map[*ns.Variable]*ast.VarDecl),
		constState: make(map[*ns.Variable]int),
		locals:     make(map[*ns.Function][]*ns.Variable),
	}

	log.Debugf("resolving %s for target %s", unit.Path, target.Name())

	r.bindImports(imports)
	r.collect()
	r.resolveBases()
	r.linearizeAll()
	r.resolveTypeDecls()
	r.resolveConstants()
	r.resolveStateVariables()
	r.resolveSignatures()
	r.checkInheritance()
	r.resolveBodies()
	r.checkUnused()

	log.Debugf("resolved %s: %d contracts, %d functions, %d diagnostics",
		unit.Path, len(r.ns.Contracts), len(r.ns.Functions), len(r.ns.Diagnostics))
	return r.ns
}

func (r *resolver) diag(d errors.Diagnostic) {
	r.ns.Diagnose(d)
}

func (r *resolver) errorf(code string, span ast.Span, format string, args ...interface{}) {
	r.ns.Diagnose(errors.NewError(code, fmt.Sprintf(format, args...), span).Build())
}

func (r *resolver) warnf(code string, span ast.Span, format string, args ...interface{}) {
	r.ns.Diagnose(errors.NewWarning(code, fmt.Sprintf(format, args...), span).Build())
}

// bindImports makes every entity of the imported units visible by its own name
func (r *resolver) bindImports(imports map[string]*ns.Namespace) {
	for _, item := range r.unit.Items {
		imp, ok := item.(*ast.Import)
		if !ok {
			continue
		}
		other := imports[imp.Path]
		if other == nil {
			r.errorf(errors.ErrorUnresolvedImport, ast.SpanOf(imp), "import '%s' not found", imp.Path)
			continue
		}
		r.ns.Imports = append(r.ns.Imports, other)
		for _, name := range other.SymbolNames() {
			sym := other.Lookup(name)
			if !r.ns.Bind(name, sym) {
				prev := r.ns.Lookup(name)
				if prev.Span != sym.Span {
					r.diag(errors.AlreadyDefined(name, ast.SpanOf(imp), prev.Span))
				}
			}
		}
	}
}

// contracts lists the unit's own contracts that are still being resolved
func (r *resolver) contracts() []*ns.Contract {
	out := make([]*ns.Contract, 0, len(r.ns.Contracts))
	for _, c := range r.ns.Contracts {
		if !c.Fatal {
			out = append(out, c)
		}
	}
	return out
}

// qualify builds the namespace key of a member of c, or a file-level name
func qualify(c *ns.Contract, name string) string {
	if c == nil {
		return name
	}
	return c.Name + "." + name
}

func identSpan(id *ast.Ident) ast.Span {
	if id == nil {
		return ast.Span{}
	}
	return ast.SpanOf(id)
}
