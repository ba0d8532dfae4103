package sema

import (
	"fmt"
	"strings"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// checkUnused reports unused locals and parameters, and functions whose
// declared mutability is weaker than what their body needs
func (r *resolver) checkUnused() {
	for _, f := range r.ns.Functions {
		if f.Decl == nil || !f.HasBody || f.Body == nil {
			continue
		}
		for _, v := range r.locals[f] {
			if !v.Used && !strings.HasPrefix(v.Name, "_") {
				r.diag(errors.UnusedVariable(v.Name, v.Span))
			}
		}
		for _, p := range f.Params {
			if p.Var != nil && !p.Var.Used && !strings.HasPrefix(p.Name, "_") {
				r.diag(errors.UnusedParameter(p.Name, p.Span))
			}
		}
		r.checkMutability(f)
	}
}

func (r *resolver) checkMutability(f *ns.Function) {
	if f.Kind != ast.FuncRegular || f.Virtual || len(f.Overrides) > 0 || f.Override != nil {
		return
	}
	var want ast.Mutability
	switch f.Mutability {
	case ast.MutNonPayable:
		switch {
		case f.WritesState:
			return
		case f.ReadsState:
			want = ast.MutView
		default:
			want = ast.MutPure
		}
	case ast.MutView:
		if f.ReadsState || f.WritesState {
			return
		}
		want = ast.MutPure
	default:
		return
	}
	r.diag(errors.NewWarning(errors.WarningMutability,
		fmt.Sprintf("function '%s' can be declared '%s'", f.Name, want), f.Span).
		Build())
}
