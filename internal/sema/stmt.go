package sema

import (
	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// statements resolves a statement list. Statements after one that cannot
// complete are still checked but reported once and dropped from the tree.
// The second result reports whether control can reach the end of the list.
func (r *resolver) statements(ctx *context, list []ast.Stmt) ([]ns.Stmt, bool) {
	out := make([]ns.Stmt, 0, len(list))
	reachable, warned := true, false
	for _, s := range list {
		if !reachable && !warned {
			r.diag(errors.UnreachableCode(ast.SpanOf(s)))
			warned = true
		}
		st, next := r.stmt(ctx, s)
		if reachable {
			out = append(out, st)
			reachable = next
		}
	}
	return out, reachable
}

func (r *resolver) block(ctx *context, b *ast.BlockStmt) (*ns.Block, bool) {
	ctx.push()
	defer ctx.pop()
	saved := ctx.unchecked
	if b.Unchecked {
		if saved {
			r.errorf(errors.ErrorInvalidStatement, ast.SpanOf(b), "unchecked blocks cannot be nested")
		}
		ctx.unchecked = true
	}
	stmts, reachable := r.statements(ctx, b.Stmts)
	ctx.unchecked = saved
	return &ns.Block{StmtBase: ns.StmtBase{Loc: ast.SpanOf(b)}, Stmts: stmts}, reachable
}

// scoped resolves a statement in its own scope, as for loop and if bodies
func (r *resolver) scoped(ctx *context, s ast.Stmt) (ns.Stmt, bool) {
	if b, ok := s.(*ast.BlockStmt); ok {
		return r.block(ctx, b)
	}
	ctx.push()
	defer ctx.pop()
	if _, ok := s.(*ast.VarDeclStmt); ok {
		r.errorf(errors.ErrorInvalidStatement, ast.SpanOf(s), "variable declaration must be inside a block")
	}
	return r.stmt(ctx, s)
}

// stmt resolves one statement and reports whether control can continue after it
func (r *resolver) stmt(ctx *context, s ast.Stmt) (ns.Stmt, bool) {
	span := ast.SpanOf(s)
	base := ns.StmtBase{Loc: span}
	switch x := s.(type) {
	case *ast.BlockStmt:
		return r.block(ctx, x)

	case *ast.VarDeclStmt:
		if x.Tuple {
			return r.tupleDecl(ctx, x), true
		}
		return r.varDecl(ctx, x), true

	case *ast.ExprStmt:
		return r.exprStmt(ctx, x)

	case *ast.IfStmt:
		cond := r.cond(ctx, x.Cond)
		then, thenLive := r.scoped(ctx, x.Then)
		out := &ns.If{StmtBase: base, Cond: cond, Then: then}
		if x.Else == nil {
			return out, true
		}
		els, elseLive := r.scoped(ctx, x.Else)
		out.Else = els
		return out, thenLive || elseLive

	case *ast.ForStmt:
		ctx.push()
		defer ctx.pop()
		loop := &ns.For{StmtBase: base}
		if x.Init != nil {
			loop.Init, _ = r.stmt(ctx, x.Init)
		}
		if x.Cond != nil {
			loop.Cond = r.cond(ctx, x.Cond)
		}
		if x.Post != nil {
			loop.Next = r.expr(ctx, x.Post)
		}
		ctx.loops++
		loop.Body, _ = r.scoped(ctx, x.Body)
		ctx.loops--
		return loop, true

	case *ast.WhileStmt:
		loop := &ns.For{StmtBase: base, Cond: r.cond(ctx, x.Cond)}
		ctx.loops++
		loop.Body, _ = r.scoped(ctx, x.Body)
		ctx.loops--
		return loop, true

	case *ast.DoWhileStmt:
		loop := &ns.For{StmtBase: base, DoWhile: true}
		ctx.loops++
		loop.Body, _ = r.scoped(ctx, x.Body)
		ctx.loops--
		loop.Cond = r.cond(ctx, x.Cond)
		return loop, true

	case *ast.BreakStmt:
		if ctx.loops == 0 {
			r.errorf(errors.ErrorInvalidStatement, span, "'break' outside of a loop")
			return &ns.Invalid{StmtBase: base}, true
		}
		return &ns.Break{StmtBase: base}, false

	case *ast.ContinueStmt:
		if ctx.loops == 0 {
			r.errorf(errors.ErrorInvalidStatement, span, "'continue' outside of a loop")
			return &ns.Invalid{StmtBase: base}, true
		}
		return &ns.Continue{StmtBase: base}, false

	case *ast.ReturnStmt:
		return r.returnStmt(ctx, x), false

	case *ast.EmitStmt:
		return r.emit(ctx, x), true

	case *ast.RevertStmt:
		return r.revertError(ctx, x), false

	case *ast.AssemblyStmt:
		return &ns.Assembly{StmtBase: base, Body: r.assembly(ctx, x.Block)}, true

	case *ast.BadStmt:
		return &ns.Invalid{StmtBase: base}, true
	}
	r.errorf(errors.ErrorInvalidStatement, span, "unsupported statement")
	return &ns.Invalid{StmtBase: base}, true
}

// localType resolves the declared type of a local and checks its data location
func (r *resolver) localType(ctx *context, lv *ast.LocalVar) ns.Type {
	t := r.scopedType(lv.Type, ctx.contract, ctx)
	if ns.IsUnresolved(t) {
		return t
	}
	r.checkLocation(t, lv.Storage, identSpan(lv.Name), "variable", lv.Name.Name, true)
	return t
}

// checkLocation validates a data location annotation for a local or parameter
func (r *resolver) checkLocation(t ns.Type, loc ast.StorageLocation, span ast.Span, what, name string, allowStorage bool) {
	if !ns.IsReferenceType(t) {
		if loc != ast.LocDefault {
			r.errorf(errors.ErrorInvalidType, span, "data location can only be given for array, struct, mapping, bytes or string %s '%s'", what, name)
		}
		return
	}
	if _, isMap := t.(ns.MappingType); isMap && loc != ast.LocStorage {
		r.errorf(errors.ErrorInvalidType, span, "mapping %s '%s' must be declared 'storage'", what, name)
		return
	}
	switch {
	case loc == ast.LocDefault:
		r.errorf(errors.ErrorInvalidType, span, "data location must be specified for %s '%s'", what, name)
	case loc == ast.LocStorage && !allowStorage:
		r.errorf(errors.ErrorInvalidType, span, "%s '%s' cannot be declared 'storage' here", what, name)
	}
}

func (r *resolver) newLocal(ctx *context, lv *ast.LocalVar, t ns.Type) *ns.Variable {
	v := r.ns.NewVariable(lv.Name.Name, t, ns.VarLocal, identSpan(lv.Name))
	v.Contract = ctx.contract
	v.Storage = lv.Storage
	return v
}

func (r *resolver) varDecl(ctx *context, x *ast.VarDeclStmt) ns.Stmt {
	span := ast.SpanOf(x)
	lv := x.Vars[0]
	t := r.localType(ctx, lv)
	var init ns.Expr
	if x.Init != nil {
		// binding a storage pointer does not read the referenced value
		if lv.Storage == ast.LocStorage {
			init = r.coerce(ctx, r.resolve(ctx, x.Init), t)
		} else {
			init = r.coerce(ctx, r.expr(ctx, x.Init), t)
		}
	}
	v := r.newLocal(ctx, lv, t)
	if ns.IsStoragePointer(v) {
		switch {
		case init == nil:
			r.errorf(errors.ErrorInvalidAssignment, v.Span, "storage pointer '%s' must be initialized", v.Name)
		case !ns.IsStorage(init) && !ns.IsUnresolved(init.Type()):
			r.errorf(errors.ErrorInvalidAssignment, init.Span(), "storage pointer '%s' must be assigned a storage location", v.Name)
		}
	}
	r.declare(ctx, v)
	return &ns.VarDecl{StmtBase: ns.StmtBase{Loc: span}, Var: v, Init: init}
}

func (r *resolver) tupleDecl(ctx *context, x *ast.VarDeclStmt) ns.Stmt {
	span := ast.SpanOf(x)
	types := make([]ns.Type, len(x.Vars))
	for i, lv := range x.Vars {
		if lv != nil {
			types[i] = r.localType(ctx, lv)
		}
	}
	var init ns.Expr = ns.NewError(span)
	if x.Init == nil {
		r.errorf(errors.ErrorInvalidStatement, span, "tuple declaration must be initialized")
	} else {
		init = r.tupleValue(ctx, x.Init, types)
	}
	out := &ns.TupleDecl{StmtBase: ns.StmtBase{Loc: span}, Init: init}
	for i, lv := range x.Vars {
		if lv == nil {
			out.Vars = append(out.Vars, nil)
			continue
		}
		v := r.newLocal(ctx, lv, types[i])
		r.declare(ctx, v)
		out.Vars = append(out.Vars, v)
	}
	return out
}

// tupleValue resolves the right side of a tuple declaration or destructuring
// assignment against the component types; nil types are skipped components
func (r *resolver) tupleValue(ctx *context, e ast.Expr, types []ns.Type) ns.Expr {
	span := ast.SpanOf(e)
	if te, ok := e.(*ast.TupleExpr); ok {
		if len(te.Elems) != len(types) {
			r.errorf(errors.ErrorTypeMismatch, span, "tuple of %d components assigned to %d variables", len(te.Elems), len(types))
			return ns.NewError(span)
		}
		lit := &ns.TupleLit{Base: ns.Base{Loc: span}}
		var elemTypes []ns.Type
		for i, el := range te.Elems {
			if el == nil {
				r.errorf(errors.ErrorInvalidOperation, span, "tuple component cannot be empty")
				return ns.NewError(span)
			}
			v := r.expr(ctx, el)
			if types[i] != nil {
				v = r.coerce(ctx, v, types[i])
			} else if n, isLit := isLiteral(v); isLit {
				v = convert(n, n.Type())
			}
			lit.Elems = append(lit.Elems, v)
			elemTypes = append(elemTypes, v.Type())
		}
		lit.Ty = ns.TupleType{Elems: elemTypes}
		return lit
	}

	v := r.expr(ctx, e)
	if ns.IsUnresolved(v.Type()) {
		return v
	}
	tt, ok := v.Type().(ns.TupleType)
	if !ok || len(tt.Elems) != len(types) {
		n := 1
		if ok {
			n = len(tt.Elems)
		}
		r.errorf(errors.ErrorTypeMismatch, span, "expression produces %d values, %d expected", n, len(types))
		return ns.NewError(span)
	}
	for i, t := range types {
		if t == nil {
			continue
		}
		if c := ns.ImplicitConversion(tt.Elems[i], t); !c.OK {
			r.diag(errors.ImplicitConversion(tt.Elems[i].String(), t.String(), c.Reason, span))
			return ns.NewError(span)
		}
	}
	return v
}

func (r *resolver) exprStmt(ctx *context, x *ast.ExprStmt) (ns.Stmt, bool) {
	span := ast.SpanOf(x)
	base := ns.StmtBase{Loc: span}

	if call, ok := x.X.(*ast.CallExpr); ok {
		if id, ok := call.Fun.(*ast.IdentExpr); ok && ctx.scope.lookup(id.Name) == nil && r.lookupSymbol(ctx, id.Name) == nil {
			switch id.Name {
			case "require":
				return r.require(ctx, call), true
			case "assert":
				return r.assert(ctx, call), true
			case "revert":
				return r.revertReason(ctx, call), false
			}
		}
	}
	if as, ok := x.X.(*ast.AssignExpr); ok && as.Op == "=" {
		if te, ok := as.LHS.(*ast.TupleExpr); ok {
			return r.destructure(ctx, te, as), true
		}
	}
	e := r.expr(ctx, x.X)
	return &ns.ExprStmt{StmtBase: base, X: e}, true
}

func (r *resolver) require(ctx *context, call *ast.CallExpr) ns.Stmt {
	span := ast.SpanOf(call)
	out := &ns.Require{StmtBase: ns.StmtBase{Loc: span}}
	if call.IsNamed || len(call.Args) < 1 || len(call.Args) > 2 {
		r.args(ctx, call, span)
		r.errorf(errors.ErrorInvalidArguments, span, "'require' expects a condition and an optional reason string")
		out.Cond = ns.NewError(span)
		return out
	}
	out.Cond = r.cond(ctx, call.Args[0])
	if len(call.Args) == 2 {
		out.Reason = r.coerce(ctx, r.expr(ctx, call.Args[1]), ns.String)
	}
	return out
}

func (r *resolver) assert(ctx *context, call *ast.CallExpr) ns.Stmt {
	span := ast.SpanOf(call)
	out := &ns.Assert{StmtBase: ns.StmtBase{Loc: span}}
	if call.IsNamed || len(call.Args) != 1 {
		r.args(ctx, call, span)
		r.errorf(errors.ErrorInvalidArguments, span, "'assert' expects exactly one condition")
		out.Cond = ns.NewError(span)
		return out
	}
	out.Cond = r.cond(ctx, call.Args[0])
	return out
}

// revertReason resolves revert() and revert("reason")
func (r *resolver) revertReason(ctx *context, call *ast.CallExpr) ns.Stmt {
	span := ast.SpanOf(call)
	out := &ns.Revert{StmtBase: ns.StmtBase{Loc: span}}
	if call.IsNamed || len(call.Args) > 1 {
		r.args(ctx, call, span)
		r.errorf(errors.ErrorInvalidArguments, span, "'revert' expects an optional reason string")
		return out
	}
	if len(call.Args) == 1 {
		out.Reason = r.coerce(ctx, r.expr(ctx, call.Args[0]), ns.String)
	}
	return out
}

// revertError resolves "revert E(args)" for a user-defined error
func (r *resolver) revertError(ctx *context, x *ast.RevertStmt) ns.Stmt {
	span := ast.SpanOf(x)
	out := &ns.Revert{StmtBase: ns.StmtBase{Loc: span}}
	ue := r.lookupError(ctx, x.Call.Fun)
	if ue == nil {
		r.args(ctx, x.Call, span)
		return out
	}
	args, ok := r.args(ctx, x.Call, ue.Span)
	if !ok {
		return out
	}
	index, ordered := r.overload("error", ue.Name, span, []callable{{name: ue.Name, span: ue.Span, params: ue.Fields}}, args)
	if index < 0 {
		return out
	}
	out.Error, out.Args = ue, ordered
	return out
}

func (r *resolver) lookupError(ctx *context, fun ast.Expr) *ns.UserError {
	span := ast.SpanOf(fun)
	var sym *ns.Symbol
	var name string
	switch f := fun.(type) {
	case *ast.IdentExpr:
		name = f.Name
		sym = r.lookupSymbol(ctx, name)
	case *ast.MemberExpr:
		if id, ok := f.X.(*ast.IdentExpr); ok {
			name = f.Member.Name
			sym = r.ns.Lookup(id.Name + "." + name)
		}
	}
	if sym == nil {
		r.diag(errors.UndefinedName(name, span, r.visibleNames(ctx)))
		return nil
	}
	if sym.Kind != ns.SymError {
		r.errorf(errors.ErrorInvalidOperation, span, "'%s' is a %s, not an error", name, sym.Kind)
		return nil
	}
	return sym.Error
}

func (r *resolver) emit(ctx *context, x *ast.EmitStmt) ns.Stmt {
	span := ast.SpanOf(x)
	out := &ns.Emit{StmtBase: ns.StmtBase{Loc: span}}
	var events []*ns.Event
	var name string
	switch f := x.Call.Fun.(type) {
	case *ast.IdentExpr:
		name = f.Name
		if sym := r.lookupSymbol(ctx, name); sym != nil && sym.Kind == ns.SymEvent {
			events = sym.Events
		}
	case *ast.MemberExpr:
		if id, ok := f.X.(*ast.IdentExpr); ok {
			name = f.Member.Name
			if sym := r.ns.Lookup(id.Name + "." + name); sym != nil && sym.Kind == ns.SymEvent {
				events = sym.Events
			}
		}
	}
	if len(events) == 0 {
		r.args(ctx, x.Call, span)
		r.errorf(errors.ErrorUndefinedName, ast.SpanOf(x.Call.Fun), "event '%s' is not found", name)
		return &ns.Invalid{StmtBase: out.StmtBase}
	}
	decl := span
	if len(events) == 1 {
		decl = events[0].Span
	}
	args, ok := r.args(ctx, x.Call, decl)
	if !ok {
		return &ns.Invalid{StmtBase: out.StmtBase}
	}
	cands := make([]callable, len(events))
	for i, ev := range events {
		cands[i] = callable{name: ev.Name, span: ev.Span, params: ev.Fields}
	}
	index, ordered := r.overload("event", name, span, cands, args)
	if index < 0 {
		return &ns.Invalid{StmtBase: out.StmtBase}
	}
	r.writeState(ctx, span)
	out.Event, out.Args = events[index], ordered
	return out
}

// destructure resolves "(a, b) = f()" and "(a, b) = (b, a)"
func (r *resolver) destructure(ctx *context, lhs *ast.TupleExpr, as *ast.AssignExpr) ns.Stmt {
	span := ast.SpanOf(as)
	out := &ns.Destructure{StmtBase: ns.StmtBase{Loc: span}}
	types := make([]ns.Type, len(lhs.Elems))
	for i, el := range lhs.Elems {
		if el == nil {
			out.Targets = append(out.Targets, nil)
			continue
		}
		t := r.lvalue(ctx, el)
		out.Targets = append(out.Targets, t)
		if !ns.IsUnresolved(t.Type()) {
			types[i] = t.Type()
		}
	}
	out.Value = r.tupleValue(ctx, as.RHS, types)
	return out
}

func (r *resolver) returnStmt(ctx *context, x *ast.ReturnStmt) ns.Stmt {
	span := ast.SpanOf(x)
	out := &ns.Return{StmtBase: ns.StmtBase{Loc: span}}
	f := ctx.fn
	if x.Value == nil {
		if len(f.Returns) > 0 && !namedReturns(f) {
			r.errorf(errors.ErrorInvalidReturn, span, "missing return value, function '%s' returns %s", f.Name, plural(len(f.Returns), "value"))
		}
		return out
	}
	switch len(f.Returns) {
	case 0:
		r.expr(ctx, x.Value)
		r.errorf(errors.ErrorInvalidReturn, span, "function '%s' does not return a value", f.Name)
	case 1:
		out.Values = []ns.Expr{r.coerce(ctx, r.expr(ctx, x.Value), f.Returns[0].Type)}
	default:
		v := r.tupleValue(ctx, x.Value, f.ReturnTypes())
		if lit, ok := v.(*ns.TupleLit); ok {
			out.Values = lit.Elems
		} else {
			out.Values = []ns.Expr{v}
		}
	}
	return out
}

// namedReturns reports whether every return value of f is named
func namedReturns(f *ns.Function) bool {
	for _, p := range f.Returns {
		if p.Var == nil {
			return false
		}
	}
	return true
}
