package sema

import (
	"fmt"
	"math/big"
	"strings"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// argList is the resolved argument list of a call site
type argList struct {
	exprs []ns.Expr
	spans []ast.Span
	// names and nameSpans are set for named-argument calls
	names     []string
	nameSpans []ast.Span
	named     bool
	// unresolved is set when any argument failed to resolve
	unresolved bool
}

func (a *argList) len() int { return len(a.exprs) }

// args resolves the arguments of x. Duplicate names are reported here, before
// any candidate is considered; decl is the span the note points at.
func (r *resolver) args(ctx *context, x *ast.CallExpr, decl ast.Span) (*argList, bool) {
	out := &argList{named: x.IsNamed}
	ok := true
	if x.IsNamed {
		first := make(map[string]ast.Span)
		for _, na := range x.Named {
			span := identSpan(na.Name)
			v := r.expr(ctx, na.Value)
			if prev, dup := first[na.Name.Name]; dup {
				r.diag(errors.DuplicateArgument(na.Name.Name, span, prev, decl))
				ok = false
				continue
			}
			first[na.Name.Name] = span
			out.add(r, v, ast.SpanOf(na.Value))
			out.names = append(out.names, na.Name.Name)
			out.nameSpans = append(out.nameSpans, span)
		}
		return out, ok
	}
	for _, a := range x.Args {
		out.add(r, r.expr(ctx, a), ast.SpanOf(a))
	}
	return out, ok
}

func (a *argList) add(r *resolver, v ns.Expr, span ast.Span) {
	if ns.IsUnresolved(v.Type()) || !r.single(v) {
		a.unresolved = true
		v = ns.NewError(span)
	}
	a.exprs = append(a.exprs, v)
	a.spans = append(a.spans, span)
}

// mismatch explains why a candidate does not accept an argument list
type mismatch struct {
	reason string
	// arg is the offending argument, -1 when the problem is the count
	arg int
	// name is set for an unknown or missing named argument
	name    string
	missing bool
	conv    ns.Conversion
}

// match orders the arguments by params and checks every conversion. The
// cost is the number of implicit conversions needed.
func (r *resolver) match(args *argList, params []*ns.Param) ([]ns.Expr, int, *mismatch) {
	ordered := make([]ns.Expr, len(params))
	if args.named {
		for i, name := range args.names {
			j := paramIndex(params, name)
			if j < 0 {
				return nil, 0, &mismatch{arg: i, name: name, reason: fmt.Sprintf("no parameter named '%s'", name)}
			}
			ordered[j] = args.exprs[i]
		}
		for j, p := range params {
			if ordered[j] == nil {
				return nil, 0, &mismatch{arg: -1, name: p.Name, missing: true, reason: fmt.Sprintf("missing argument '%s'", p.Name)}
			}
		}
	} else {
		if args.len() != len(params) {
			return nil, 0, &mismatch{arg: -1, reason: fmt.Sprintf("expects %s, %d provided", plural(len(params), "argument"), args.len())}
		}
		copy(ordered, args.exprs)
	}

	cost := 0
	for i, p := range params {
		c := r.conversion(ordered[i], p.Type)
		if !c.OK {
			return nil, 0, &mismatch{
				arg:    i,
				conv:   c,
				reason: fmt.Sprintf("argument %d: implicit conversion from %s to %s not allowed", i+1, ordered[i].Type(), p.Type),
			}
		}
		cost += c.Cost
	}
	for i, p := range params {
		ordered[i] = convert(ordered[i], p.Type)
	}
	return ordered, cost, nil
}

func paramIndex(params []*ns.Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// callable is one overload candidate: a function, event or error
type callable struct {
	name   string
	span   ast.Span
	params []*ns.Param
}

func (c callable) display() string {
	parts := make([]string, len(c.params))
	for i, p := range c.params {
		parts[i] = p.Type.String()
	}
	return c.name + "(" + strings.Join(parts, ",") + ")"
}

// overload picks the candidate with the fewest implicit conversions. It
// returns -1 after reporting when no candidate or more than one candidate
// is best; the choice never depends on the order of cands.
func (r *resolver) overload(kind, name string, span ast.Span, cands []callable, args *argList) (int, []ns.Expr) {
	if args.unresolved {
		only := -1
		for i, c := range cands {
			if len(c.params) == args.len() {
				if only >= 0 {
					return -1, nil
				}
				only = i
			}
		}
		if only < 0 {
			return -1, nil
		}
		ordered, _, m := r.match(args, cands[only].params)
		if m != nil {
			return -1, nil
		}
		return only, ordered
	}

	best, bestCost := []int(nil), 0
	results := make([][]ns.Expr, len(cands))
	failures := make([]*mismatch, len(cands))
	for i, c := range cands {
		ordered, cost, m := r.match(args, c.params)
		if m != nil {
			failures[i] = m
			continue
		}
		results[i] = ordered
		switch {
		case best == nil || cost < bestCost:
			best, bestCost = []int{i}, cost
		case cost == bestCost:
			best = append(best, i)
		}
	}

	switch {
	case len(best) == 1:
		return best[0], results[best[0]]

	case len(best) > 1:
		b := errors.NewError(errors.ErrorAmbiguousCall, fmt.Sprintf("ambiguous call to '%s'", name), span)
		for _, i := range best {
			b.WithNote(cands[i].span, fmt.Sprintf("candidate '%s'", cands[i].display()))
		}
		r.diag(b.Build())
		return -1, nil

	case len(cands) == 1:
		r.reportMismatch(kind, cands[0], span, args, failures[0])
		return -1, nil
	}

	b := errors.NewError(errors.ErrorNoMatchingOverload,
		fmt.Sprintf("no candidate with matching signature for call to '%s'", name), span)
	for i, c := range cands {
		b.WithNote(c.span, fmt.Sprintf("candidate '%s': %s", c.display(), failures[i].reason))
	}
	r.diag(b.Build())
	return -1, nil
}

// reportMismatch gives the precise error for a call with a single candidate
func (r *resolver) reportMismatch(kind string, c callable, span ast.Span, args *argList, m *mismatch) {
	switch {
	case m.name != "" && !m.missing:
		r.diag(errors.UnknownArgument(kind, c.name, m.name, args.nameSpans[m.arg], c.span))
	case m.missing:
		r.diag(errors.MissingField(m.name, span, c.span))
	case m.arg < 0:
		r.diag(errors.NewError(errors.ErrorInvalidArguments,
			fmt.Sprintf("%s '%s' %s", kind, c.name, m.reason), span).
			WithNote(c.span, fmt.Sprintf("%s '%s' declared here", kind, c.name)).
			Build())
	default:
		e := r.argAt(args, c.params, m.arg)
		r.diag(errors.ImplicitConversion(e.Type().String(), c.params[m.arg].Type.String(), m.conv.Reason, e.Span()))
	}
}

// argAt returns the argument bound to parameter i
func (r *resolver) argAt(args *argList, params []*ns.Param, i int) ns.Expr {
	if !args.named {
		return args.exprs[i]
	}
	for k, name := range args.names {
		if name == params[i].Name {
			return args.exprs[k]
		}
	}
	return args.exprs[0]
}

func functionCallables(fs []*ns.Function) []callable {
	out := make([]callable, len(fs))
	for i, f := range fs {
		out[i] = callable{name: f.Name, span: f.Span, params: f.Params}
	}
	return out
}

// returnType is the type of a call expression to f
func returnType(f *ns.Function) ns.Type {
	switch len(f.Returns) {
	case 0:
		return ns.Void
	case 1:
		return f.Returns[0].Type
	}
	return ns.TupleType{Elems: f.ReturnTypes()}
}

func (r *resolver) call(ctx *context, x *ast.CallExpr) ns.Expr {
	span := ast.SpanOf(x)

	switch fun := x.Fun.(type) {
	case *ast.TypeNameExpr:
		to := r.resolveType(fun.Type, ctx.contract)
		return r.conversionCall(ctx, x, to)

	case *ast.IdentExpr:
		if ctx.scope.lookup(fun.Name) == nil {
			if fun.Name == "payable" {
				return r.conversionCall(ctx, x, ns.AddressType{Bits: r.target.AddressBits(), Payable: true})
			}
			if sym := r.lookupSymbol(ctx, fun.Name); sym != nil {
				return r.symbolCall(ctx, x, fun.Name, sym)
			}
			if _, ok := funcBuiltins[fun.Name]; ok {
				return r.builtinFunction(ctx, x, fun.Name)
			}
			if fun.Name == "type" {
				r.errorf(errors.ErrorInvalidOperation, span, "'type(...)' must be followed by a member")
				return ns.NewError(span)
			}
		}

	case *ast.MemberExpr:
		if out, ok := r.memberCall(ctx, x, fun); ok {
			return out
		}
	}

	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "function calls are not allowed in constant expressions")
		return ns.NewError(span)
	}
	return r.pointerCall(ctx, x, r.expr(ctx, x.Fun))
}

// pointerCall calls through a value of function type
func (r *resolver) pointerCall(ctx *context, x *ast.CallExpr, callee ns.Expr) ns.Expr {
	span := ast.SpanOf(x)
	if ns.IsUnresolved(callee.Type()) {
		r.args(ctx, x, span)
		return ns.NewError(span)
	}
	ft, ok := callee.Type().(ns.FunctionType)
	if !ok {
		r.args(ctx, x, span)
		r.errorf(errors.ErrorInvalidOperation, span, "%s is not callable", callee.Type())
		return ns.NewError(span)
	}
	args, _ := r.args(ctx, x, span)
	if args.named {
		r.errorf(errors.ErrorInvalidArguments, span, "function pointers cannot be called with named arguments")
		return ns.NewError(span)
	}
	if args.unresolved {
		return ns.NewError(span)
	}
	params := make([]*ns.Param, len(ft.Params))
	for i, t := range ft.Params {
		params[i] = &ns.Param{Type: t}
	}
	index, ordered := r.overload("function", "pointer", span, []callable{{name: "pointer", span: callee.Span(), params: params}}, args)
	if index < 0 {
		return ns.NewError(span)
	}
	r.callState(ctx, span, pointerMutability(ft))
	var rt ns.Type = ns.Void
	switch len(ft.Returns) {
	case 0:
	case 1:
		rt = ft.Returns[0]
	default:
		rt = ns.TupleType{Elems: ft.Returns}
	}
	return &ns.PointerCall{Base: ns.Base{Loc: span, Ty: rt}, Pointer: callee, Args: ordered}
}

func pointerMutability(ft ns.FunctionType) ast.Mutability {
	switch ft.Mutability {
	case "pure":
		return ast.MutPure
	case "view":
		return ast.MutView
	case "payable":
		return ast.MutPayable
	}
	return ast.MutNonPayable
}

// symbolCall handles calls whose callee names a declaration
func (r *resolver) symbolCall(ctx *context, x *ast.CallExpr, name string, sym *ns.Symbol) ns.Expr {
	span := ast.SpanOf(x)
	switch sym.Kind {
	case ns.SymStruct:
		return r.structLit(ctx, x, sym.Struct)
	case ns.SymContract:
		return r.conversionCall(ctx, x, ns.ContractType{Def: sym.Contract})
	case ns.SymEnum:
		return r.conversionCall(ctx, x, ns.EnumType{Def: sym.Enum})
	case ns.SymFunction:
		if ctx.constant {
			r.errorf(errors.ErrorNotConstant, span, "function calls are not allowed in constant expressions")
			return ns.NewError(span)
		}
		return r.internalCall(ctx, x, name, r.visible(ctx, sym.Functions))
	case ns.SymEvent:
		r.args(ctx, x, span)
		r.errorf(errors.ErrorInvalidOperation, span, "event '%s' must be used with 'emit'", name)
		return ns.NewError(span)
	case ns.SymError:
		r.args(ctx, x, span)
		r.errorf(errors.ErrorInvalidOperation, span, "error '%s' must be used with 'revert'", name)
		return ns.NewError(span)
	}
	if sym.Kind == ns.SymVariable {
		return r.pointerVariableCall(ctx, x, sym.Variable)
	}
	r.args(ctx, x, span)
	r.errorf(errors.ErrorInvalidOperation, span, "'%s' is not callable", name)
	return ns.NewError(span)
}

// pointerVariableCall calls through a state variable of function type
func (r *resolver) pointerVariableCall(ctx *context, x *ast.CallExpr, v *ns.Variable) ns.Expr {
	callee := r.variableRef(ctx, v, ast.SpanOf(x.Fun))
	if ns.IsStorage(callee) {
		r.readState(ctx, callee.Span())
	}
	return r.pointerCall(ctx, x, callee)
}

// visible drops candidates the calling context may not call: private
// functions of other contracts and external functions called internally
func (r *resolver) visible(ctx *context, fs []*ns.Function) []*ns.Function {
	out := make([]*ns.Function, 0, len(fs))
	for _, f := range fs {
		if f.Visibility == ast.VisPrivate && f.Contract != ctx.contract {
			continue
		}
		out = append(out, f)
	}
	return out
}

// internalCall resolves a direct call among the overloads fs
func (r *resolver) internalCall(ctx *context, x *ast.CallExpr, name string, fs []*ns.Function) ns.Expr {
	span := ast.SpanOf(x)
	if len(fs) == 0 {
		r.args(ctx, x, span)
		r.errorf(errors.ErrorUndefinedFunction, span, "function '%s' is not accessible here", name)
		return ns.NewError(span)
	}
	decl := span
	if len(fs) == 1 {
		decl = fs[0].Span
	}
	args, ok := r.args(ctx, x, decl)
	if !ok {
		return ns.NewError(span)
	}
	index, ordered := r.overload("function", name, span, functionCallables(fs), args)
	if index < 0 {
		return ns.NewError(span)
	}
	f := fs[index]
	if f.Visibility == ast.VisExternal {
		r.diag(errors.NewError(errors.ErrorInvalidOperation,
			fmt.Sprintf("function '%s' is external and cannot be called internally", name), span).
			WithSuggestion(fmt.Sprintf("call it as 'this.%s(...)'", name)).
			Build())
		return ns.NewError(span)
	}
	if f.Kind != ast.FuncRegular {
		r.errorf(errors.ErrorInvalidOperation, span, "%s cannot be called", f.Name)
		return ns.NewError(span)
	}
	r.callState(ctx, span, f.Mutability)
	log.Debugf("call to %s resolved to %s", name, f.Signature)
	return &ns.Call{Base: ns.Base{Loc: span, Ty: returnType(f)}, Fn: f, Args: ordered}
}

// externalCandidates lists the functions of c callable through an address
func (r *resolver) externalCandidates(c *ns.Contract, name string) []*ns.Function {
	var out []*ns.Function
	for _, f := range r.candidates(c, name, false) {
		if f.IsExternallyVisible() {
			out = append(out, f)
		}
	}
	return out
}

// memberCall handles calls of the form x.f(...). The second result is false
// when the callee prefix is a plain name left to the generic path.
func (r *resolver) memberCall(ctx *context, x *ast.CallExpr, fun *ast.MemberExpr) (ns.Expr, bool) {
	span := ast.SpanOf(x)
	name := fun.Member.Name

	if id, ok := fun.X.(*ast.IdentExpr); ok && ctx.scope.lookup(id.Name) == nil {
		if id.Name == "super" {
			if ctx.contract == nil {
				r.errorf(errors.ErrorInvalidOperation, span, "'super' is only available inside a contract")
				return ns.NewError(span), true
			}
			return r.internalCall(ctx, x, name, r.visible(ctx, r.candidates(ctx.contract, name, true))), true
		}
		sym := r.lookupSymbol(ctx, id.Name)
		if sym != nil && sym.Kind == ns.SymContract {
			return r.contractMemberCall(ctx, x, sym.Contract, name), true
		}
		if sym == nil && id.Name == "abi" {
			return r.abiEncode(ctx, x, name), true
		}
	}

	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "function calls are not allowed in constant expressions")
		return ns.NewError(span), true
	}

	base := r.resolve(ctx, fun.X)
	if ns.IsUnresolved(base.Type()) {
		r.args(ctx, x, span)
		return ns.NewError(span), true
	}
	switch t := base.Type().(type) {
	case ns.ContractType:
		fs := r.externalCandidates(t.Def, name)
		if len(fs) == 0 {
			r.args(ctx, x, span)
			r.errorf(errors.ErrorUndefinedFunction, identSpan(fun.Member), "contract '%s' has no external function '%s'", t.Def.Name, name)
			return ns.NewError(span), true
		}
		return r.externalCall(ctx, x, base, name, fs), true

	case ns.ArrayType, ns.BytesType:
		if name == "push" || name == "pop" {
			return r.arrayMethod(ctx, x, base, name), true
		}

	case ns.AddressType:
		if name == "transfer" || name == "send" {
			return r.transfer(ctx, x, base, t, name), true
		}
	}
	callee := r.memberOf(ctx, fun, base)
	if ns.IsStorage(callee) {
		r.readState(ctx, callee.Span())
	}
	return r.pointerCall(ctx, x, callee), true
}

// contractMemberCall handles C.f(...): library calls and explicit base calls
func (r *resolver) contractMemberCall(ctx *context, x *ast.CallExpr, c *ns.Contract, name string) ns.Expr {
	span := ast.SpanOf(x)
	sym := r.ns.Lookup(c.Name + "." + name)
	if sym == nil || sym.Kind != ns.SymFunction {
		if sym != nil && sym.Kind == ns.SymStruct {
			return r.structLit(ctx, x, sym.Struct)
		}
		if sym != nil && sym.Kind == ns.SymEnum {
			return r.conversionCall(ctx, x, ns.EnumType{Def: sym.Enum})
		}
		r.args(ctx, x, span)
		r.errorf(errors.ErrorUndefinedFunction, span, "contract '%s' has no function '%s'", c.Name, name)
		return ns.NewError(span)
	}
	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "function calls are not allowed in constant expressions")
		return ns.NewError(span)
	}
	switch {
	case c.IsLibrary():
		var fs []*ns.Function
		for _, f := range sym.Functions {
			if f.Visibility != ast.VisPrivate || ctx.contract == c {
				fs = append(fs, f)
			}
		}
		return r.internalCall(ctx, x, name, fs)
	case ctx.contract != nil && ctx.contract.IsDerivedFrom(c):
		return r.internalCall(ctx, x, name, r.visible(ctx, r.candidates(c, name, false)))
	}
	r.args(ctx, x, span)
	r.errorf(errors.ErrorInvalidOperation, span, "function '%s.%s' can only be called through an instance of '%s'", c.Name, name, c.Name)
	return ns.NewError(span)
}

func (r *resolver) externalCall(ctx *context, x *ast.CallExpr, addr ns.Expr, name string, fs []*ns.Function) ns.Expr {
	span := ast.SpanOf(x)
	decl := span
	if len(fs) == 1 {
		decl = fs[0].Span
	}
	args, ok := r.args(ctx, x, decl)
	if !ok {
		return ns.NewError(span)
	}
	index, ordered := r.overload("function", name, span, functionCallables(fs), args)
	if index < 0 {
		return ns.NewError(span)
	}
	f := fs[index]
	r.callState(ctx, span, f.Mutability)
	return &ns.ExternalCall{Base: ns.Base{Loc: span, Ty: returnType(f)}, Address: addr, Fn: f, Args: ordered}
}

// arrayMethod resolves push and pop on storage arrays and bytes
func (r *resolver) arrayMethod(ctx *context, x *ast.CallExpr, base ns.Expr, name string) ns.Expr {
	span := ast.SpanOf(x)
	args, _ := r.args(ctx, x, span)
	if !ns.IsStorage(base) {
		r.errorf(errors.ErrorInvalidOperation, span, "'%s' is only available on storage arrays", name)
		return ns.NewError(span)
	}
	var elem ns.Type = ns.FixedBytesType{N: 1}
	if at, ok := base.Type().(ns.ArrayType); ok {
		if at.Len >= 0 {
			r.errorf(errors.ErrorInvalidOperation, span, "'%s' is not available on fixed length arrays", name)
			return ns.NewError(span)
		}
		elem = at.Elem
	}
	if args.named || args.unresolved {
		return ns.NewError(span)
	}
	r.writeState(ctx, span)

	if name == "pop" {
		if args.len() != 0 {
			r.errorf(errors.ErrorInvalidArguments, span, "'pop' expects no arguments, %d provided", args.len())
			return ns.NewError(span)
		}
		return &ns.BuiltinCall{Base: ns.Base{Loc: span, Ty: ns.Void}, Name: "array.pop", Args: []ns.Expr{base}}
	}
	if args.len() != 1 {
		r.errorf(errors.ErrorInvalidArguments, span, "'push' expects 1 argument, %d provided", args.len())
		return ns.NewError(span)
	}
	value := r.coerce(ctx, args.exprs[0], elem)
	return &ns.BuiltinCall{Base: ns.Base{Loc: span, Ty: ns.Void}, Name: "array.push", Args: []ns.Expr{base, value}}
}

func (r *resolver) transfer(ctx *context, x *ast.CallExpr, addr ns.Expr, t ns.AddressType, name string) ns.Expr {
	span := ast.SpanOf(x)
	args, _ := r.args(ctx, x, span)
	if !t.Payable {
		r.errorf(errors.ErrorInvalidOperation, span, "'%s' is only available on 'address payable'", name)
		return ns.NewError(span)
	}
	if args.named || args.unresolved {
		return ns.NewError(span)
	}
	if args.len() != 1 {
		r.errorf(errors.ErrorInvalidArguments, span, "'%s' expects 1 argument, %d provided", name, args.len())
		return ns.NewError(span)
	}
	amount := r.coerce(ctx, args.exprs[0], ns.Uint(r.target.ValueBits()))
	var rt ns.Type = ns.Void
	if name == "send" {
		rt = ns.Bool
	}
	return r.builtinCall(ctx, "address."+name, span, []ns.Expr{addr, amount}, rt)
}

// conversionCall resolves T(x) for an elementary, contract or enum type T
func (r *resolver) conversionCall(ctx *context, x *ast.CallExpr, to ns.Type) ns.Expr {
	span := ast.SpanOf(x)
	if x.IsNamed || len(x.Args) != 1 {
		r.args(ctx, x, span)
		r.errorf(errors.ErrorInvalidArguments, span, "type conversion expects exactly one argument")
		return ns.NewError(span)
	}
	v := r.expr(ctx, x.Args[0])
	if ns.IsUnresolved(v.Type()) || ns.IsUnresolved(to) || !r.single(v) {
		return ns.NewError(span)
	}
	if out, handled := r.literalConversion(v, to, span); handled {
		return out
	}
	if !ns.ExplicitConversion(v.Type(), to, r.target) {
		r.errorf(errors.ErrorInvalidConversion, span, "explicit conversion from %s to %s not allowed", v.Type(), to)
		return ns.NewError(span)
	}
	if ns.Equal(v.Type(), to) {
		return v
	}
	return &ns.Cast{Base: ns.Base{Loc: span, Ty: to}, X: v}
}

// literalConversion converts number and string literals, whose value decides
// whether the conversion is allowed
func (r *resolver) literalConversion(v ns.Expr, to ns.Type, span ast.Span) (ns.Expr, bool) {
	if bl, ok := v.(*ns.BytesLit); ok {
		switch t := to.(type) {
		case ns.FixedBytesType:
			if len(bl.Value) > t.N {
				r.errorf(errors.ErrorInvalidConversion, span, "literal of %d bytes does not fit into %s", len(bl.Value), t)
				return ns.NewError(span), true
			}
			return &ns.BytesLit{Base: ns.Base{Loc: span, Ty: t}, Value: bl.Value}, true
		case ns.BytesType, ns.StringType:
			return &ns.BytesLit{Base: ns.Base{Loc: span, Ty: t}, Value: bl.Value}, true
		}
		return nil, false
	}

	lit, ok := isLiteral(v)
	if !ok {
		return nil, false
	}
	value := toBig(lit.Value, litSigned(lit))
	fail := func() (ns.Expr, bool) {
		r.errorf(errors.ErrorInvalidConversion, span, "literal %s cannot be converted to %s", value, to)
		return ns.NewError(span), true
	}
	switch t := to.(type) {
	case ns.IntType:
		if !fitsInt(value, t) {
			return fail()
		}
		return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: t}, Value: lit.Value}, true
	case ns.AddressType:
		if value.Sign() < 0 || value.BitLen() > t.Bits {
			return fail()
		}
		return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: t}, Value: lit.Value}, true
	case ns.FixedBytesType:
		if value.Sign() < 0 || value.BitLen() > t.N*8 {
			return fail()
		}
		return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: t}, Value: lit.Value}, true
	case ns.EnumType:
		if value.Sign() < 0 || value.Cmp(big.NewInt(int64(len(t.Def.Values)))) >= 0 {
			return fail()
		}
		return &ns.EnumValue{Base: ns.Base{Loc: span, Ty: t}, Def: t.Def, Index: int(value.Int64())}, true
	case ns.BoolType, ns.StringType, ns.BytesType:
		return fail()
	}
	return nil, false
}

// structLit resolves S(a, b) and S({x: a, y: b}). Every duplicate, unknown
// and missing field of a named construction is reported.
func (r *resolver) structLit(ctx *context, x *ast.CallExpr, s *ns.Struct) ns.Expr {
	span := ast.SpanOf(x)
	args, ok := r.args(ctx, x, s.Span)
	for _, f := range s.Fields {
		if _, isMap := f.Type.(ns.MappingType); isMap {
			r.diag(errors.NewError(errors.ErrorInvalidOperation,
				fmt.Sprintf("struct '%s' has a mapping field and cannot be constructed", s.Name), span).
				WithNote(f.Span, fmt.Sprintf("mapping field '%s'", f.Name)).
				Build())
			return ns.NewError(span)
		}
	}

	fields := make([]ns.Expr, len(s.Fields))
	if args.named {
		for i, name := range args.names {
			j := s.FieldIndex(name)
			if j < 0 {
				r.diag(errors.FieldNotFound(s.Name, name, args.nameSpans[i], s.Span, fieldNames(s)))
				ok = false
				continue
			}
			fields[j] = args.exprs[i]
		}
		for j, f := range s.Fields {
			if fields[j] == nil {
				r.diag(errors.MissingField(f.Name, span, s.Span))
				ok = false
			}
		}
	} else if args.len() != len(s.Fields) {
		r.diag(errors.NewError(errors.ErrorInvalidArguments,
			fmt.Sprintf("struct '%s' has %s, %d provided", s.Name, plural(len(s.Fields), "field"), args.len()), span).
			WithNote(s.Span, fmt.Sprintf("struct '%s' declared here", s.Name)).
			Build())
		return ns.NewError(span)
	} else {
		copy(fields, args.exprs)
	}
	if !ok {
		return ns.NewError(span)
	}
	for i, f := range s.Fields {
		fields[i] = r.coerce(ctx, fields[i], f.Type)
	}
	return &ns.StructLit{Base: ns.Base{Loc: span, Ty: ns.StructType{Def: s}}, Def: s, Fields: fields}
}
