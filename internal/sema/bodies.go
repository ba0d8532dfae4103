package sema

import (
	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// resolveBodies resolves state variable initializers and every function body
func (r *resolver) resolveBodies() {
	for _, c := range r.contracts() {
		for _, v := range c.Variables {
			if v.Kind == ns.VarState {
				r.stateInitializer(c, v)
			}
		}
	}

	// assembly functions are appended while bodies are resolved
	fns := append([]*ns.Function(nil), r.ns.Functions...)
	for _, f := range fns {
		if f.Decl == nil || f.Decl.Body == nil || (f.Contract != nil && f.Contract.Fatal) {
			continue
		}
		r.body(f)
	}
}

func (r *resolver) stateInitializer(c *ns.Contract, v *ns.Variable) {
	d := r.varDecls[v]
	if d.Init == nil {
		return
	}
	if _, isMap := v.Type.(ns.MappingType); isMap {
		r.errorf(errors.ErrorInvalidAssignment, ast.SpanOf(d.Init), "mapping '%s' cannot be initialized", v.Name)
		return
	}
	ctx := &context{contract: c, scope: newScope(nil)}
	v.Init = r.coerce(ctx, r.expr(ctx, d.Init), v.Type)
}

func (r *resolver) body(f *ns.Function) {
	ctx := r.functionContext(f)
	for _, p := range append(append([]*ns.Param{}, f.Params...), f.Returns...) {
		if p.Var != nil {
			r.declare(ctx, p.Var)
		}
	}
	b, _ := r.block(ctx, f.Decl.Body)
	f.Body = b.Stmts
	r.locals[f] = ctx.locals
	log.Debugf("resolved body of %s: %d statements", f.QualifiedName(), len(f.Body))
}
