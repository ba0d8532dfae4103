package sema

import (
	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// context is the state threaded through expression and statement resolution
type context struct {
	contract *ns.Contract
	fn       *ns.Function
	scope    *scope

	unchecked bool
	// constant is set where only compile-time constants may appear
	constant bool
	loops    int

	// assembly state
	yulLoops int
	yulFn    *ns.Function

	// locals declared in the body, in declaration order
	locals []*ns.Variable
}

func (r *resolver) constContext(c *ns.Contract) *context {
	return &context{contract: c, constant: true, scope: newScope(nil)}
}

func (r *resolver) functionContext(f *ns.Function) *context {
	return &context{contract: f.Contract, fn: f, scope: newScope(nil)}
}

func (ctx *context) push() {
	ctx.scope = newScope(ctx.scope)
}

func (ctx *context) pop() {
	ctx.scope = ctx.scope.parent
}

// declare adds a local to the innermost scope
func (r *resolver) declare(ctx *context, v *ns.Variable) {
	if prev := ctx.scope.lookupLocal(v.Name); prev != nil {
		r.diag(errors.AlreadyDefined(v.Name, v.Span, prev.Span))
		return
	}
	ctx.scope.define(v)
	if v.Kind == ns.VarLocal {
		ctx.locals = append(ctx.locals, v)
	}
}

func (r *resolver) readState(ctx *context, span ast.Span) {
	if ctx.fn == nil || ctx.constant {
		return
	}
	ctx.fn.ReadsState = true
	if ctx.fn.Mutability == ast.MutPure {
		r.errorf(errors.ErrorMutability, span, "function declared 'pure' but this expression reads from state")
	}
}

func (r *resolver) writeState(ctx *context, span ast.Span) {
	if ctx.fn == nil || ctx.constant {
		return
	}
	ctx.fn.WritesState = true
	if m := ctx.fn.Mutability; m == ast.MutPure || m == ast.MutView {
		r.errorf(errors.ErrorMutability, span, "function declared '%s' but this expression writes to state", m)
	}
}

// callState propagates the mutability of a callee into the caller
func (r *resolver) callState(ctx *context, span ast.Span, callee ast.Mutability) {
	switch callee {
	case ast.MutPure:
	case ast.MutView:
		r.readState(ctx, span)
	default:
		if ctx.fn != nil && !ctx.constant {
			ctx.fn.ReadsState = true
		}
		r.writeState(ctx, span)
	}
}
