package sema

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

var binOps = map[string]ns.BinOp{
	"+": ns.OpAdd, "-": ns.OpSub, "*": ns.OpMul, "/": ns.OpDiv, "%": ns.OpMod, "**": ns.OpExp,
	"<<": ns.OpShl, ">>": ns.OpShr, "&": ns.OpAnd, "|": ns.OpOr, "^": ns.OpXor,
}

var cmpOps = map[string]ns.CmpOp{
	"==": ns.CmpEq, "!=": ns.CmpNe, "<": ns.CmpLt, "<=": ns.CmpLe, ">": ns.CmpGt, ">=": ns.CmpGe,
}

// expr resolves e as a value. Storage locations used as values count as state reads.
func (r *resolver) expr(ctx *context, e ast.Expr) ns.Expr {
	out := r.resolve(ctx, e)
	switch out.(type) {
	case *ns.StorageRef, *ns.StorageSubscript, *ns.StorageField:
		r.readState(ctx, out.Span())
	}
	return out
}

// resolve resolves e without treating storage locations as reads
func (r *resolver) resolve(ctx *context, e ast.Expr) ns.Expr {
	span := ast.SpanOf(e)
	switch x := e.(type) {
	case *ast.NumberLit:
		return r.numberLit(x)

	case *ast.BoolLit:
		return &ns.BoolLit{Base: ns.Base{Loc: span, Ty: ns.Bool}, Value: x.Value}

	case *ast.StringLit:
		return &ns.BytesLit{Base: ns.Base{Loc: span, Ty: ns.String}, Value: []byte(x.Value)}

	case *ast.HexLit:
		return &ns.BytesLit{Base: ns.Base{Loc: span, Ty: ns.Bytes}, Value: x.Value}

	case *ast.IdentExpr:
		return r.ident(ctx, x)

	case *ast.MemberExpr:
		return r.member(ctx, x)

	case *ast.IndexExpr:
		return r.index(ctx, x)

	case *ast.CallExpr:
		return r.call(ctx, x)

	case *ast.UnaryExpr:
		return r.unary(ctx, x)

	case *ast.BinaryExpr:
		return r.binary(ctx, x)

	case *ast.AssignExpr:
		return r.assign(ctx, x)

	case *ast.TernaryExpr:
		return r.ternary(ctx, x)

	case *ast.TupleExpr:
		lit := &ns.TupleLit{Base: ns.Base{Loc: span}}
		var types []ns.Type
		for _, el := range x.Elems {
			if el == nil {
				r.errorf(errors.ErrorInvalidOperation, span, "tuple component cannot be empty")
				return ns.NewError(span)
			}
			v := r.expr(ctx, el)
			if !r.single(v) {
				return ns.NewError(span)
			}
			lit.Elems = append(lit.Elems, v)
			types = append(types, v.Type())
		}
		lit.Ty = ns.TupleType{Elems: types}
		return lit

	case *ast.ArrayLit:
		return r.arrayLit(ctx, x)

	case *ast.TypeNameExpr:
		r.errorf(errors.ErrorInvalidOperation, span, "type '%s' used as a value", typeText(x.Type))
		return ns.NewError(span)

	case *ast.BadExpr:
		return ns.NewError(span)
	}
	r.errorf(errors.ErrorInvalidOperation, span, "unsupported expression")
	return ns.NewError(span)
}

func typeText(t ast.TypeExpr) string {
	if et, ok := t.(*ast.ElementaryType); ok {
		return et.Name
	}
	return "type"
}

// numberLit parses decimal, hex and scientific literals exactly
func (r *resolver) numberLit(x *ast.NumberLit) ns.Expr {
	span := ast.SpanOf(x)
	b, ok := parseNumber(x.Value)
	if !ok {
		r.errorf(errors.ErrorInvalidType, span, "invalid number literal '%s'", x.Value)
		return ns.NewError(span)
	}
	return r.number(span, b)
}

func parseNumber(s string) (*big.Int, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	mantissa, exp := s, int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, ok := new(big.Int).SetString(s[i+1:], 10)
		if !ok || !e.IsInt64() || e.Int64() < 0 || e.Int64() > 77 {
			return nil, false
		}
		mantissa, exp = s[:i], e.Int64()
	}
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		frac := strings.TrimRight(mantissa[i+1:], "0")
		if int64(len(frac)) > exp {
			return nil, false
		}
		mantissa = mantissa[:i] + frac
		exp -= int64(len(frac))
	}
	m, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return nil, false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
	return m.Mul(m, scale), true
}

// single reports an error when e does not produce exactly one value
func (r *resolver) single(e ns.Expr) bool {
	switch t := e.Type().(type) {
	case ns.VoidType:
		r.errorf(errors.ErrorVoidInExpression, e.Span(), "expression does not produce a value")
		return false
	case ns.TupleType:
		r.errorf(errors.ErrorTypeMismatch, e.Span(), "expression produces %d values where one is expected", len(t.Elems))
		return false
	case ns.EventType, ns.UserErrorType:
		r.errorf(errors.ErrorInvalidOperation, e.Span(), "%s cannot be used as a value", t)
		return false
	}
	return true
}

// conversion checks whether e may be used where to is expected. Literals
// convert to any integer type that holds their value.
func (r *resolver) conversion(e ns.Expr, to ns.Type) ns.Conversion {
	if lit, ok := isLiteral(e); ok {
		t, isInt := to.(ns.IntType)
		if !isInt {
			return ns.ImplicitConversion(lit.Type(), to)
		}
		v := toBig(lit.Value, litSigned(lit))
		if !fitsInt(v, t) {
			return ns.Conversion{Reason: fmt.Sprintf("literal %s does not fit into %s", v, t)}
		}
		if ns.Equal(lit.Type(), to) {
			return ns.Conversion{OK: true}
		}
		return ns.Conversion{OK: true, Cost: 1}
	}
	if bl, ok := e.(*ns.BytesLit); ok {
		exact := ns.Conversion{OK: true}
		if !ns.Equal(bl.Type(), to) {
			exact.Cost = 1
		}
		switch t := to.(type) {
		case ns.StringType, ns.BytesType:
			return exact
		case ns.FixedBytesType:
			if bl.Type() == ns.Bytes && len(bl.Value) != t.N {
				return ns.Conversion{Reason: fmt.Sprintf("hex literal of %d bytes is not %s", len(bl.Value), t)}
			}
			if len(bl.Value) > t.N {
				return ns.Conversion{Reason: fmt.Sprintf("literal of %d bytes does not fit into %s", len(bl.Value), t)}
			}
			return ns.Conversion{OK: true, Cost: 1}
		}
	}
	return ns.ImplicitConversion(e.Type(), to)
}

// coerce converts e to type to, reporting rejected implicit conversions
func (r *resolver) coerce(ctx *context, e ns.Expr, to ns.Type) ns.Expr {
	if ns.IsUnresolved(e.Type()) || ns.IsUnresolved(to) {
		return e
	}
	if !r.single(e) {
		return ns.NewError(e.Span())
	}
	c := r.conversion(e, to)
	if !c.OK {
		r.diag(errors.ImplicitConversion(e.Type().String(), to.String(), c.Reason, e.Span()))
		return ns.NewError(e.Span())
	}
	return convert(e, to)
}

// convert builds the conversion of e to a type it is known to convert to
func convert(e ns.Expr, to ns.Type) ns.Expr {
	if ns.Equal(e.Type(), to) {
		if lit, ok := isLiteral(e); ok {
			return &ns.NumberLit{Base: ns.Base{Loc: lit.Loc, Ty: to}, Value: lit.Value}
		}
		return e
	}
	switch x := e.(type) {
	case *ns.NumberLit:
		if t, ok := ns.AsInt(to); ok {
			return &ns.NumberLit{Base: ns.Base{Loc: x.Loc, Ty: to}, Value: normalize(x.Value, t)}
		}
		return &ns.NumberLit{Base: ns.Base{Loc: x.Loc, Ty: to}, Value: x.Value}
	case *ns.BytesLit:
		return &ns.BytesLit{Base: ns.Base{Loc: x.Loc, Ty: to}, Value: x.Value}
	}
	return &ns.Cast{Base: ns.Base{Loc: e.Span(), Ty: to}, X: e}
}

// cond resolves a condition, which must be bool
func (r *resolver) cond(ctx *context, e ast.Expr) ns.Expr {
	v := r.expr(ctx, e)
	if ns.IsUnresolved(v.Type()) || !r.single(v) {
		return ns.NewError(v.Span())
	}
	if _, ok := v.Type().(ns.BoolType); !ok {
		r.diag(errors.TypeMismatch("bool", v.Type().String(), v.Span()))
		return ns.NewError(v.Span())
	}
	return v
}

// lookupSymbol finds a non-local name as seen from ctx: members of the
// contract and its bases first, then file-level entities
func (r *resolver) lookupSymbol(ctx *context, name string) *ns.Symbol {
	if sym := r.lookupMember(ctx.contract, name); sym != nil {
		if sym.Kind == ns.SymFunction {
			return &ns.Symbol{Kind: ns.SymFunction, Span: sym.Span, Functions: r.candidates(ctx.contract, name, false)}
		}
		if sym.Kind == ns.SymEvent {
			return &ns.Symbol{Kind: ns.SymEvent, Span: sym.Span, Events: r.eventCandidates(ctx.contract, name)}
		}
		return sym
	}
	return r.ns.Lookup(name)
}

// candidates collects the functions called name visible in c. A function
// hidden by an override in a more derived contract is not a candidate.
func (r *resolver) candidates(c *ns.Contract, name string, skipSelf bool) []*ns.Function {
	var out []*ns.Function
	seen := make(map[string]bool)
	linear := c.Linear
	if linear == nil {
		linear = []*ns.Contract{c}
	}
	if skipSelf && len(linear) > 0 {
		linear = linear[1:]
	}
	for _, b := range linear {
		sym := r.ns.Lookup(b.Name + "." + name)
		if sym == nil || sym.Kind != ns.SymFunction {
			continue
		}
		for _, f := range sym.Functions {
			key := f.Name + typeKey(f.ParamTypes())
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	if sym := r.ns.Lookup(name); sym != nil && sym.Kind == ns.SymFunction && !skipSelf {
		for _, f := range sym.Functions {
			if key := f.Name + typeKey(f.ParamTypes()); !seen[key] {
				seen[key] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func (r *resolver) eventCandidates(c *ns.Contract, name string) []*ns.Event {
	var out []*ns.Event
	for _, b := range c.Linear {
		if sym := r.ns.Lookup(b.Name + "." + name); sym != nil && sym.Kind == ns.SymEvent {
			out = append(out, sym.Events...)
		}
	}
	if sym := r.ns.Lookup(name); sym != nil && sym.Kind == ns.SymEvent {
		out = append(out, sym.Events...)
	}
	return out
}

func typeKey(ts []ns.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (r *resolver) ident(ctx *context, x *ast.IdentExpr) ns.Expr {
	span := ast.SpanOf(x)
	if v := ctx.scope.lookup(x.Name); v != nil {
		v.Used = true
		if v.Kind == ns.VarAsm {
			r.errorf(errors.ErrorAssembly, span, "assembly variable '%s' cannot be used outside assembly", x.Name)
			return ns.NewError(span)
		}
		if ctx.constant {
			r.errorf(errors.ErrorNotConstant, span, "'%s' is not a constant", x.Name)
			return ns.NewError(span)
		}
		return &ns.VarRef{Base: ns.Base{Loc: span, Ty: v.Type}, Var: v}
	}

	sym := r.lookupSymbol(ctx, x.Name)
	if sym == nil {
		switch x.Name {
		case "this":
			return r.thisExpr(ctx, span)
		case "msg", "block", "tx":
			r.errorf(errors.ErrorInvalidOperation, span, "'%s' must be followed by a member", x.Name)
			return ns.NewError(span)
		}
		r.diag(errors.UndefinedName(x.Name, span, r.visibleNames(ctx)))
		return ns.NewError(span)
	}

	switch sym.Kind {
	case ns.SymVariable:
		return r.variableRef(ctx, sym.Variable, span)
	case ns.SymFunction:
		if ctx.constant {
			break
		}
		if len(sym.Functions) != 1 {
			r.errorf(errors.ErrorAmbiguousCall, span, "function '%s' is overloaded, a pointer to it is ambiguous", x.Name)
			return ns.NewError(span)
		}
		f := sym.Functions[0]
		return &ns.FunctionRef{Base: ns.Base{Loc: span, Ty: functionType(f)}, Fn: f}
	}
	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "'%s' is not a constant", x.Name)
	} else {
		r.errorf(errors.ErrorInvalidOperation, span, "%s '%s' used as a value", sym.Kind, x.Name)
	}
	return ns.NewError(span)
}

func (r *resolver) variableRef(ctx *context, v *ns.Variable, span ast.Span) ns.Expr {
	v.Used = true
	if v.Kind == ns.VarConstant {
		r.ensureConstant(v)
		return &ns.VarRef{Base: ns.Base{Loc: span, Ty: v.Type}, Var: v}
	}
	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "'%s' is not a constant", v.Name)
		return ns.NewError(span)
	}
	if ctx.contract == nil || !ctx.contract.IsDerivedFrom(v.Contract) {
		r.errorf(errors.ErrorInvalidOperation, span, "state variable '%s' is not accessible here", v.Name)
		return ns.NewError(span)
	}
	return &ns.StorageRef{Base: ns.Base{Loc: span, Ty: v.Type}, Var: v}
}

func (r *resolver) thisExpr(ctx *context, span ast.Span) ns.Expr {
	if ctx.contract == nil || ctx.constant {
		r.errorf(errors.ErrorInvalidOperation, span, "'this' is only available inside a contract function")
		return ns.NewError(span)
	}
	return r.builtinCall(ctx, "this", span, nil, ns.ContractType{Def: ctx.contract})
}

func (r *resolver) visibleNames(ctx *context) []string {
	names := ctx.scope.names()
	if ctx.contract != nil {
		for _, b := range ctx.contract.Linear {
			prefix := b.Name + "."
			for _, n := range r.ns.SymbolNames() {
				if strings.HasPrefix(n, prefix) {
					names = append(names, n[len(prefix):])
				}
			}
		}
	}
	return append(names, r.ns.FileSymbols()...)
}

func functionType(f *ns.Function) ns.FunctionType {
	ft := ns.FunctionType{
		Params:   f.ParamTypes(),
		Returns:  f.ReturnTypes(),
		External: f.Visibility == ast.VisExternal,
	}
	if f.Mutability != ast.MutNonPayable {
		ft.Mutability = f.Mutability.String()
	}
	return ft
}

func (r *resolver) member(ctx *context, x *ast.MemberExpr) ns.Expr {
	span := ast.SpanOf(x)
	name := x.Member.Name

	if call, ok := x.X.(*ast.CallExpr); ok {
		if id, named := call.Fun.(*ast.IdentExpr); named && id.Name == "type" && ctx.scope.lookup(id.Name) == nil {
			return r.typeMember(ctx, call, x.Member, span)
		}
	}
	if id, ok := x.X.(*ast.IdentExpr); ok && ctx.scope.lookup(id.Name) == nil {
		if out, handled := r.qualifiedMember(ctx, id, name, span); handled {
			return out
		}
	}

	return r.memberOf(ctx, x, r.resolve(ctx, x.X))
}

// memberOf resolves a member of an already resolved value
func (r *resolver) memberOf(ctx *context, x *ast.MemberExpr, base ns.Expr) ns.Expr {
	span := ast.SpanOf(x)
	name := x.Member.Name
	if ns.IsUnresolved(base.Type()) || !r.single(base) {
		return ns.NewError(span)
	}
	switch t := base.Type().(type) {
	case ns.StructType:
		i := t.Def.FieldIndex(name)
		if i < 0 {
			r.diag(errors.FieldNotFound(t.Def.Name, name, identSpan(x.Member), t.Def.Span, fieldNames(t.Def)))
			return ns.NewError(span)
		}
		ft := t.Def.Fields[i].Type
		if ns.IsStorage(base) {
			return &ns.StorageField{Base: ns.Base{Loc: span, Ty: ft}, Struct: base, Def: t.Def, Field: i}
		}
		return &ns.FieldAccess{Base: ns.Base{Loc: span, Ty: ft}, Struct: base, Def: t.Def, Field: i}

	case ns.ArrayType, ns.BytesType:
		if name == "length" {
			if ns.IsStorage(base) {
				r.readState(ctx, span)
			}
			if at, ok := t.(ns.ArrayType); ok && at.Len >= 0 {
				return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: ns.Uint(256)}, Value: uint256.NewInt(uint64(at.Len))}
			}
			return &ns.ArrayLength{Base: ns.Base{Loc: span, Ty: ns.Uint(256)}, Array: base}
		}

	case ns.FixedBytesType:
		if name == "length" {
			return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: ns.Uint(8)}, Value: uint256.NewInt(uint64(t.N))}
		}

	case ns.AddressType:
		if name == "balance" {
			return r.builtinCall(ctx, "address.balance", span, []ns.Expr{base}, ns.Uint(r.target.ValueBits()))
		}

	case ns.ContractType:
		if fs := r.externalCandidates(t.Def, name); len(fs) > 0 {
			r.errorf(errors.ErrorInvalidOperation, span, "function '%s' of contract '%s' must be called", name, t.Def.Name)
			return ns.NewError(span)
		}
	}
	r.errorf(errors.ErrorFieldNotFound, identSpan(x.Member), "%s has no member '%s'", base.Type(), name)
	return ns.NewError(span)
}

func fieldNames(s *ns.Struct) []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// qualifiedMember handles "msg.sender", "E.Value", "C.constant" and other
// members whose prefix is a name rather than a value
func (r *resolver) qualifiedMember(ctx *context, id *ast.IdentExpr, name string, span ast.Span) (ns.Expr, bool) {
	sym := r.lookupSymbol(ctx, id.Name)
	if sym == nil {
		switch id.Name {
		case "msg", "block", "tx":
			full := id.Name + "." + name
			b, ok := memberBuiltins[full]
			if !ok {
				r.errorf(errors.ErrorFieldNotFound, span, "'%s' has no member '%s'", id.Name, name)
				return ns.NewError(span), true
			}
			if ctx.constant {
				r.errorf(errors.ErrorNotConstant, span, "'%s' is not a constant", full)
				return ns.NewError(span), true
			}
			return r.builtinCall(ctx, full, span, nil, b(r.target)), true
		}
		return nil, false
	}

	switch sym.Kind {
	case ns.SymEnum:
		for i, v := range sym.Enum.Values {
			if v == name {
				return &ns.EnumValue{Base: ns.Base{Loc: span, Ty: ns.EnumType{Def: sym.Enum}}, Def: sym.Enum, Index: i}, true
			}
		}
		r.errorf(errors.ErrorFieldNotFound, span, "enum '%s' has no value '%s'", sym.Enum.Name, name)
		return ns.NewError(span), true

	case ns.SymContract:
		member := r.ns.Lookup(sym.Contract.Name + "." + name)
		if member == nil {
			member = r.lookupMember(sym.Contract, name)
		}
		if member == nil {
			r.errorf(errors.ErrorFieldNotFound, span, "contract '%s' has no member '%s'", sym.Contract.Name, name)
			return ns.NewError(span), true
		}
		switch member.Kind {
		case ns.SymVariable:
			return r.variableRef(ctx, member.Variable, span), true
		case ns.SymEnum, ns.SymStruct:
			r.errorf(errors.ErrorInvalidOperation, span, "%s '%s.%s' used as a value", member.Kind, sym.Contract.Name, name)
			return ns.NewError(span), true
		case ns.SymFunction:
			if len(member.Functions) == 1 && !ctx.constant {
				f := member.Functions[0]
				return &ns.FunctionRef{Base: ns.Base{Loc: span, Ty: functionType(f)}, Fn: f}, true
			}
		}
		r.errorf(errors.ErrorInvalidOperation, span, "'%s.%s' cannot be used as a value", sym.Contract.Name, name)
		return ns.NewError(span), true
	}
	return nil, false
}

func (r *resolver) index(ctx *context, x *ast.IndexExpr) ns.Expr {
	span := ast.SpanOf(x)
	base := r.resolve(ctx, x.X)
	if x.Index == nil {
		r.errorf(errors.ErrorInvalidOperation, span, "index expression required")
		return ns.NewError(span)
	}
	if ns.IsUnresolved(base.Type()) || !r.single(base) {
		r.expr(ctx, x.Index)
		return ns.NewError(span)
	}

	switch t := base.Type().(type) {
	case ns.MappingType:
		key := r.coerce(ctx, r.expr(ctx, x.Index), t.Key)
		if !ns.IsStorage(base) {
			r.errorf(errors.ErrorInvalidOperation, span, "mapping can only be used in storage")
			return ns.NewError(span)
		}
		return &ns.StorageSubscript{Base: ns.Base{Loc: span, Ty: t.Value}, Array: base, Index: key}

	case ns.ArrayType:
		idx := r.arrayIndex(ctx, x.Index, t.Len)
		if ns.IsStorage(base) {
			return &ns.StorageSubscript{Base: ns.Base{Loc: span, Ty: t.Elem}, Array: base, Index: idx}
		}
		return &ns.Subscript{Base: ns.Base{Loc: span, Ty: t.Elem}, Array: base, Index: idx}

	case ns.BytesType:
		idx := r.arrayIndex(ctx, x.Index, -1)
		elem := ns.FixedBytesType{N: 1}
		if ns.IsStorage(base) {
			return &ns.StorageSubscript{Base: ns.Base{Loc: span, Ty: elem}, Array: base, Index: idx}
		}
		return &ns.Subscript{Base: ns.Base{Loc: span, Ty: elem}, Array: base, Index: idx}

	case ns.FixedBytesType:
		idx := r.arrayIndex(ctx, x.Index, int64(t.N))
		if ns.IsStorage(base) {
			r.readState(ctx, span)
		}
		return &ns.Subscript{Base: ns.Base{Loc: span, Ty: ns.FixedBytesType{N: 1}}, Array: base, Index: idx}
	}
	r.expr(ctx, x.Index)
	r.errorf(errors.ErrorInvalidOperation, span, "%s cannot be indexed", base.Type())
	return ns.NewError(span)
}

// arrayIndex resolves an index as uint256 and checks constant indexes against length
func (r *resolver) arrayIndex(ctx *context, e ast.Expr, length int64) ns.Expr {
	idx := r.expr(ctx, e)
	if ns.IsUnresolved(idx.Type()) {
		return idx
	}
	if t, ok := idx.Type().(ns.IntType); ok && t.Signed {
		if _, lit := isLiteral(idx); !lit {
			r.errorf(errors.ErrorTypeMismatch, idx.Span(), "array index must be unsigned, found %s", t)
			return ns.NewError(idx.Span())
		}
	}
	idx = r.coerce(ctx, idx, ns.Uint(256))
	if v, ok := ns.ConstValue(idx); ok && length >= 0 {
		if !v.IsUint64() || v.Uint64() >= uint64(length) {
			r.errorf(errors.ErrorInvalidOperation, idx.Span(), "array index %s out of bounds for length %d", v.ToBig(), length)
			return ns.NewError(idx.Span())
		}
	}
	return idx
}

func (r *resolver) unary(ctx *context, x *ast.UnaryExpr) ns.Expr {
	span := ast.SpanOf(x)
	switch x.Op {
	case "++", "--":
		target := r.lvalue(ctx, x.X)
		if ns.IsUnresolved(target.Type()) {
			return target
		}
		t, ok := target.Type().(ns.IntType)
		if !ok {
			r.diag(errors.InvalidOperation(x.Op, target.Type().String(), "", span))
			return ns.NewError(span)
		}
		return &ns.IncDec{Base: ns.Base{Loc: span, Ty: t}, Target: target, Inc: x.Op == "++", Post: x.Postfix, Checked: !ctx.unchecked}

	case "delete":
		target := r.lvalue(ctx, x.X)
		if ns.IsUnresolved(target.Type()) {
			return target
		}
		if _, ok := target.Type().(ns.MappingType); ok {
			r.errorf(errors.ErrorInvalidOperation, span, "'delete' cannot be applied to a mapping")
			return ns.NewError(span)
		}
		return &ns.Delete{Base: ns.Base{Loc: span, Ty: ns.Void}, Target: target}
	}

	v := r.expr(ctx, x.X)
	if ns.IsUnresolved(v.Type()) || !r.single(v) {
		return ns.NewError(span)
	}
	switch x.Op {
	case "!":
		v = r.coerce(ctx, v, ns.Bool)
		if b, ok := v.(*ns.BoolLit); ok {
			return &ns.BoolLit{Base: ns.Base{Loc: span, Ty: ns.Bool}, Value: !b.Value}
		}
		return &ns.Unary{Base: ns.Base{Loc: span, Ty: ns.Bool}, Op: "!", X: v}

	case "-":
		if lit, ok := isLiteral(v); ok {
			return r.number(span, new(big.Int).Neg(toBig(lit.Value, litSigned(lit))))
		}
		t, ok := v.Type().(ns.IntType)
		if !ok {
			r.diag(errors.InvalidOperation("-", v.Type().String(), "", span))
			return ns.NewError(span)
		}
		if !t.Signed {
			r.errorf(errors.ErrorInvalidOperation, span, "unary minus not allowed on unsigned type %s", t)
			return ns.NewError(span)
		}
		return &ns.Unary{Base: ns.Base{Loc: span, Ty: t}, Op: "-", X: v, Checked: !ctx.unchecked}

	case "~":
		if lit, ok := isLiteral(v); ok {
			v = convert(lit, lit.Type())
		}
		switch v.Type().(type) {
		case ns.IntType, ns.FixedBytesType:
			return &ns.Unary{Base: ns.Base{Loc: span, Ty: v.Type()}, Op: "~", X: v}
		}
		r.diag(errors.InvalidOperation("~", v.Type().String(), "", span))
		return ns.NewError(span)

	case "+":
		r.errorf(errors.ErrorInvalidOperation, span, "unary plus is not supported")
		return ns.NewError(span)
	}
	r.errorf(errors.ErrorInvalidOperation, span, "unknown operator '%s'", x.Op)
	return ns.NewError(span)
}

func (r *resolver) binary(ctx *context, x *ast.BinaryExpr) ns.Expr {
	span := ast.SpanOf(x)
	if x.Op == "&&" || x.Op == "||" {
		left, right := r.cond(ctx, x.X), r.cond(ctx, x.Y)
		if ns.IsUnresolved(left.Type()) || ns.IsUnresolved(right.Type()) {
			return ns.NewError(span)
		}
		return &ns.Logical{Base: ns.Base{Loc: span, Ty: ns.Bool}, And: x.Op == "&&", Left: left, Right: right}
	}

	left, right := r.expr(ctx, x.X), r.expr(ctx, x.Y)
	if ns.IsUnresolved(left.Type()) || ns.IsUnresolved(right.Type()) {
		return ns.NewError(span)
	}
	if !r.single(left) || !r.single(right) {
		return ns.NewError(span)
	}
	if op, ok := cmpOps[x.Op]; ok {
		return r.compare(ctx, span, x.Op, op, left, right)
	}
	op, ok := binOps[x.Op]
	if !ok {
		r.errorf(errors.ErrorInvalidOperation, span, "unknown operator '%s'", x.Op)
		return ns.NewError(span)
	}
	return r.arith(ctx, span, x.Op, op, left, right)
}

// arith types an arithmetic or bitwise operation. Operands are unified to
// the promoted type; literals take the type of the other operand when their
// value fits.
func (r *resolver) arith(ctx *context, span ast.Span, text string, op ns.BinOp, left, right ns.Expr) ns.Expr {
	a, aLit := isLiteral(left)
	b, bLit := isLiteral(right)
	if aLit && bLit {
		return r.foldLiterals(span, op, a, b)
	}
	checked := op.Checkable() && !ctx.unchecked

	switch op {
	case ns.OpShl, ns.OpShr:
		lt, ok := r.intOperand(left)
		rt, ok2 := r.intOperand(right)
		if !ok || !ok2 {
			r.diag(errors.InvalidOperation(text, left.Type().String(), right.Type().String(), span))
			return ns.NewError(span)
		}
		if rt.Signed {
			r.errorf(errors.ErrorInvalidOperation, right.Span(), "shift amount must be unsigned, found %s", rt)
			return ns.NewError(span)
		}
		return &ns.Binary{Base: ns.Base{Loc: span, Ty: lt}, Op: op, Left: convert(left, lt), Right: convert(right, rt)}

	case ns.OpExp:
		lt, ok := left.Type().(ns.IntType)
		if aLit {
			lt = ns.Uint(256)
			if litSigned(a) {
				lt = ns.Int(256)
			}
			ok = true
		}
		rt, ok2 := r.intOperand(right)
		if !ok || !ok2 {
			r.diag(errors.InvalidOperation(text, left.Type().String(), right.Type().String(), span))
			return ns.NewError(span)
		}
		if rt.Signed {
			r.errorf(errors.ErrorInvalidOperation, right.Span(), "exponent must be unsigned, found %s", rt)
			return ns.NewError(span)
		}
		return &ns.Binary{Base: ns.Base{Loc: span, Ty: lt}, Op: op, Left: convert(left, lt), Right: convert(right, rt), Checked: checked}
	}

	if op == ns.OpAnd || op == ns.OpOr || op == ns.OpXor {
		if fb, ok := left.Type().(ns.FixedBytesType); ok && ns.Equal(left.Type(), right.Type()) {
			return &ns.Binary{Base: ns.Base{Loc: span, Ty: fb}, Op: op, Left: left, Right: right}
		}
	}

	t, ok := r.unify(left, right)
	if !ok {
		r.diag(errors.InvalidOperation(text, left.Type().String(), right.Type().String(), span))
		return ns.NewError(span)
	}
	return &ns.Binary{Base: ns.Base{Loc: span, Ty: t}, Op: op, Left: convert(left, t), Right: convert(right, t), Checked: checked}
}

// intOperand is the integer type an operand is used at
func (r *resolver) intOperand(e ns.Expr) (ns.IntType, bool) {
	t, ok := e.Type().(ns.IntType)
	return t, ok
}

// unify computes the common integer type of two operands
func (r *resolver) unify(left, right ns.Expr) (ns.IntType, bool) {
	lt, ok1 := left.Type().(ns.IntType)
	rt, ok2 := right.Type().(ns.IntType)
	if !ok1 || !ok2 {
		return ns.IntType{}, false
	}
	if _, lit := isLiteral(left); lit && r.conversion(left, rt).OK {
		return rt, true
	}
	if _, lit := isLiteral(right); lit && r.conversion(right, lt).OK {
		return lt, true
	}
	return ns.Promote(lt, rt), true
}

func (r *resolver) compare(ctx *context, span ast.Span, text string, op ns.CmpOp, left, right ns.Expr) ns.Expr {
	out := func(l, rr ns.Expr) ns.Expr {
		return &ns.Compare{Base: ns.Base{Loc: span, Ty: ns.Bool}, Op: op, Left: l, Right: rr}
	}
	if a, ok := isLiteral(left); ok {
		if b, ok := isLiteral(right); ok {
			c := toBig(a.Value, litSigned(a)).Cmp(toBig(b.Value, litSigned(b)))
			return &ns.BoolLit{Base: ns.Base{Loc: span, Ty: ns.Bool}, Value: compareHolds(op, c)}
		}
	}
	if t, ok := r.unify(left, right); ok {
		return out(convert(left, t), convert(right, t))
	}

	ordered := op != ns.CmpEq && op != ns.CmpNe
	switch left.Type().(type) {
	case ns.StringType, ns.BytesType, ns.StructType, ns.ArrayType, ns.MappingType:
		r.errorf(errors.ErrorInvalidBinaryOperation, span, "%s cannot be compared with '%s', compare the keccak256 hashes instead", left.Type(), text)
		return ns.NewError(span)
	case ns.BoolType:
		if ordered {
			r.diag(errors.InvalidOperation(text, left.Type().String(), right.Type().String(), span))
			return ns.NewError(span)
		}
	}
	if r.conversion(right, left.Type()).OK {
		return out(left, convert(right, left.Type()))
	}
	if r.conversion(left, right.Type()).OK {
		return out(convert(left, right.Type()), right)
	}
	r.diag(errors.InvalidOperation(text, left.Type().String(), right.Type().String(), span))
	return ns.NewError(span)
}

func (r *resolver) ternary(ctx *context, x *ast.TernaryExpr) ns.Expr {
	span := ast.SpanOf(x)
	c := r.cond(ctx, x.Cond)
	a, b := r.expr(ctx, x.Then), r.expr(ctx, x.Else)
	if ns.IsUnresolved(c.Type()) || ns.IsUnresolved(a.Type()) || ns.IsUnresolved(b.Type()) {
		return ns.NewError(span)
	}
	if !r.single(a) || !r.single(b) {
		return ns.NewError(span)
	}
	t := a.Type()
	if it, ok := r.unify(a, b); ok {
		t = it
	} else if !r.conversion(b, t).OK {
		if !r.conversion(a, b.Type()).OK {
			r.diag(errors.TypeMismatch(a.Type().String(), b.Type().String(), b.Span()))
			return ns.NewError(span)
		}
		t = b.Type()
	}
	if lit, ok := c.(*ns.BoolLit); ok && ctx.constant {
		if lit.Value {
			return convert(a, t)
		}
		return convert(b, t)
	}
	return &ns.Ternary{Base: ns.Base{Loc: span, Ty: t}, Cond: c, Then: convert(a, t), Else: convert(b, t)}
}

// arrayLit resolves [a, b, c] to a fixed-size memory array. The element type
// is the first element type that every element converts to.
func (r *resolver) arrayLit(ctx *context, x *ast.ArrayLit) ns.Expr {
	span := ast.SpanOf(x)
	if len(x.Elems) == 0 {
		return ns.NewError(span)
	}
	elems := make([]ns.Expr, len(x.Elems))
	failed := false
	for i, el := range x.Elems {
		elems[i] = r.expr(ctx, el)
		if ns.IsUnresolved(elems[i].Type()) || !r.single(elems[i]) {
			failed = true
		}
	}
	if failed {
		return ns.NewError(span)
	}

	var elem ns.Type
	for _, cand := range elems {
		t := cand.Type()
		if !ns.IsValueType(t) {
			r.errorf(errors.ErrorInvalidType, cand.Span(), "array literal elements must be value types, found %s", t)
			return ns.NewError(span)
		}
		all := true
		for _, e := range elems {
			if !r.conversion(e, t).OK {
				all = false
				break
			}
		}
		if all {
			elem = t
			break
		}
	}
	if elem == nil {
		b := errors.NewError(errors.ErrorTypeMismatch, "array literal elements have no common type", span)
		for _, e := range elems {
			b.WithNote(e.Span(), fmt.Sprintf("element of type %s", e.Type()))
		}
		r.diag(b.Build())
		return ns.NewError(span)
	}
	for i, e := range elems {
		elems[i] = convert(e, elem)
	}
	return &ns.ArrayLit{Base: ns.Base{Loc: span, Ty: ns.ArrayType{Elem: elem, Len: int64(len(elems))}}, Elems: elems}
}

// lvalue resolves an assignable location
func (r *resolver) lvalue(ctx *context, e ast.Expr) ns.Expr {
	span := ast.SpanOf(e)
	switch x := e.(type) {
	case *ast.IdentExpr:
		if v := ctx.scope.lookup(x.Name); v != nil {
			if v.Kind == ns.VarAsm {
				r.errorf(errors.ErrorAssembly, span, "assembly variable '%s' cannot be used outside assembly", x.Name)
				return ns.NewError(span)
			}
			return &ns.VarRef{Base: ns.Base{Loc: span, Ty: v.Type}, Var: v}
		}
		sym := r.lookupSymbol(ctx, x.Name)
		if sym != nil && sym.Kind == ns.SymVariable {
			return r.stateTarget(ctx, sym.Variable, span)
		}
		if sym == nil {
			r.diag(errors.UndefinedName(x.Name, span, r.visibleNames(ctx)))
			return ns.NewError(span)
		}

	case *ast.MemberExpr, *ast.IndexExpr:
		out := r.resolve(ctx, e)
		switch out.(type) {
		case *ns.StorageSubscript, *ns.StorageField:
			r.writeState(ctx, span)
			return out
		case *ns.FieldAccess, *ns.Subscript:
			if s, ok := out.(*ns.Subscript); ok {
				if _, fixed := s.Array.Type().(ns.FixedBytesType); fixed {
					r.errorf(errors.ErrorInvalidAssignment, span, "fixed bytes elements cannot be assigned")
					return ns.NewError(span)
				}
			}
			return out
		case *ns.StorageRef:
			return r.stateTarget(ctx, out.(*ns.StorageRef).Var, span)
		case *ns.ErrorExpr:
			return out
		}
	}
	r.errorf(errors.ErrorInvalidAssignment, span, "expression is not assignable")
	return ns.NewError(span)
}

func (r *resolver) stateTarget(ctx *context, v *ns.Variable, span ast.Span) ns.Expr {
	switch {
	case v.Kind == ns.VarConstant:
		r.errorf(errors.ErrorInvalidAssignment, span, "cannot assign to constant '%s'", v.Name)
		return ns.NewError(span)
	case ctx.constant:
		r.errorf(errors.ErrorNotConstant, span, "'%s' is not a constant", v.Name)
		return ns.NewError(span)
	case v.Immutable && (ctx.fn == nil || ctx.fn.Kind != ast.FuncConstructor):
		r.errorf(errors.ErrorInvalidAssignment, span, "immutable '%s' can only be assigned in the constructor", v.Name)
		return ns.NewError(span)
	case ctx.contract == nil || !ctx.contract.IsDerivedFrom(v.Contract):
		r.errorf(errors.ErrorInvalidOperation, span, "state variable '%s' is not accessible here", v.Name)
		return ns.NewError(span)
	}
	v.Used = true
	r.writeState(ctx, span)
	return &ns.StorageRef{Base: ns.Base{Loc: span, Ty: v.Type}, Var: v}
}

func (r *resolver) assign(ctx *context, x *ast.AssignExpr) ns.Expr {
	span := ast.SpanOf(x)
	if _, ok := x.LHS.(*ast.TupleExpr); ok {
		r.errorf(errors.ErrorInvalidAssignment, span, "tuple assignment must be a statement of its own")
		return ns.NewError(span)
	}
	target := r.lvalue(ctx, x.LHS)
	rhs := r.expr(ctx, x.RHS)
	if ns.IsUnresolved(target.Type()) || ns.IsUnresolved(rhs.Type()) {
		return ns.NewError(span)
	}
	t := target.Type()
	if _, ok := t.(ns.MappingType); ok {
		r.errorf(errors.ErrorInvalidAssignment, span, "mappings cannot be assigned")
		return ns.NewError(span)
	}

	if x.Op == "=" {
		value := r.coerce(ctx, rhs, t)
		if vr, ok := target.(*ns.VarRef); ok && ns.IsStoragePointer(vr.Var) && !ns.IsStorage(value) && !ns.IsUnresolved(value.Type()) {
			r.errorf(errors.ErrorInvalidAssignment, span, "storage pointer '%s' must be assigned a storage location", vr.Var.Name)
		}
		return &ns.Assign{Base: ns.Base{Loc: span, Ty: t}, Target: target, Value: value}
	}

	op := binOps[strings.TrimSuffix(x.Op, "=")]
	it, ok := t.(ns.IntType)
	if !ok {
		if fb, isBytes := t.(ns.FixedBytesType); isBytes && (op == ns.OpAnd || op == ns.OpOr || op == ns.OpXor) {
			return &ns.Assign{Base: ns.Base{Loc: span, Ty: t}, Target: target, Value: r.coerce(ctx, rhs, fb), Compound: true, Op: op}
		}
		r.diag(errors.InvalidOperation(x.Op, t.String(), rhs.Type().String(), span))
		return ns.NewError(span)
	}
	if ns.IsStorage(target) {
		r.readState(ctx, span)
	}
	var value ns.Expr
	if op == ns.OpShl || op == ns.OpShr || op == ns.OpExp {
		rt, isInt := rhs.Type().(ns.IntType)
		if !isInt || (rt.Signed && !isLiteralExpr(rhs)) {
			r.errorf(errors.ErrorInvalidOperation, rhs.Span(), "right operand of '%s' must be unsigned", x.Op)
			return ns.NewError(span)
		}
		value = convert(rhs, rt)
	} else {
		value = r.coerce(ctx, rhs, it)
	}
	return &ns.Assign{
		Base:     ns.Base{Loc: span, Ty: t},
		Target:   target,
		Value:    value,
		Compound: true,
		Op:       op,
		Checked:  op.Checkable() && !ctx.unchecked,
	}
}

func isLiteralExpr(e ns.Expr) bool {
	_, ok := isLiteral(e)
	return ok
}
