package sema

import (
	"math/big"

	"github.com/holiman/uint256"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// Constants are held as 256-bit two's complement words. Signed values are
// sign-extended to 256 bits, unsigned values are below 2^bits.

var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// toBig interprets v as a value of type t
func toBig(v *uint256.Int, signed bool) *big.Int {
	if signed && v.Sign() < 0 {
		neg := new(uint256.Int).Neg(v)
		return new(big.Int).Neg(neg.ToBig())
	}
	return v.ToBig()
}

// fromBig stores b as a 256-bit word; false when |b| needs more than 256 bits
func fromBig(b *big.Int) (*uint256.Int, bool) {
	if b.Sign() >= 0 {
		if b.BitLen() > 256 {
			return nil, false
		}
		v, _ := uint256.FromBig(b)
		return v, true
	}
	abs := new(big.Int).Neg(b)
	if abs.BitLen() > 256 {
		return nil, false
	}
	v, _ := uint256.FromBig(abs)
	return new(uint256.Int).Neg(v), true
}

// fitsInt reports whether b is in the range of t
func fitsInt(b *big.Int, t ns.IntType) bool {
	if !t.Signed {
		return b.Sign() >= 0 && b.BitLen() <= t.Bits
	}
	if b.Sign() >= 0 {
		return b.BitLen() < t.Bits
	}
	m := new(big.Int).Neg(b)
	m.Sub(m, big.NewInt(1))
	return m.BitLen() < t.Bits
}

// intBounds is the smallest and largest value of t
func intBounds(t ns.IntType) (lo, hi *big.Int) {
	if !t.Signed {
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
		return big.NewInt(0), hi.Sub(hi, big.NewInt(1))
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
	return new(big.Int).Neg(half), new(big.Int).Sub(half, big.NewInt(1))
}

// literalType is the smallest integer type holding b
func literalType(b *big.Int) (ns.IntType, bool) {
	for bits := 8; bits <= 256; bits += 8 {
		t := ns.Uint(bits)
		if b.Sign() < 0 {
			t = ns.Int(bits)
		}
		if fitsInt(b, t) {
			return t, true
		}
	}
	return ns.IntType{}, false
}

// normalize wraps v to the width of t, sign-extending signed types
func normalize(v *uint256.Int, t ns.IntType) *uint256.Int {
	b := v.ToBig()
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	b.Mod(b, mod)
	if t.Signed && b.BitLen() == t.Bits {
		b.Sub(b, mod)
	}
	out, _ := fromBig(b)
	return out
}

func (r *resolver) number(span ast.Span, b *big.Int) ns.Expr {
	t, ok := literalType(b)
	if !ok {
		r.errorf(errors.ErrorNumericOverflow, span, "value %s does not fit in 256 bits", b.String())
		return ns.NewError(span)
	}
	v, _ := fromBig(b)
	return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: t}, Value: v, Literal: true}
}

// isLiteral reports whether e is an untyped number literal or a fold of literals
func isLiteral(e ns.Expr) (*ns.NumberLit, bool) {
	n, ok := e.(*ns.NumberLit)
	return n, ok && n.Literal
}

// constInt folds e, reporting a diagnostic when it is not a compile-time constant
func (r *resolver) constInt(ctx *context, e ns.Expr) (*uint256.Int, bool) {
	if ns.IsUnresolved(e.Type()) {
		return nil, false
	}
	v, ok := r.eval(e)
	if !ok {
		r.errorf(errors.ErrorNotConstant, e.Span(), "expression is not constant")
		return nil, false
	}
	if t, isInt := ns.AsInt(e.Type()); isInt && t.Signed && v.Sign() < 0 {
		r.errorf(errors.ErrorInvalidType, e.Span(), "negative value %s where a size is expected", toBig(v, true))
		return nil, false
	}
	return v, true
}

// eval folds constant expressions. Arithmetic is exact and then checked
// against the type of the expression.
func (r *resolver) eval(e ns.Expr) (*uint256.Int, bool) {
	switch x := e.(type) {
	case *ns.NumberLit, *ns.BoolLit, *ns.EnumValue:
		return ns.ConstValue(x)

	case *ns.VarRef:
		if x.Var.Kind != ns.VarConstant {
			return nil, false
		}
		r.ensureConstant(x.Var)
		if x.Var.Value == nil {
			return nil, false
		}
		return x.Var.Value, true

	case *ns.Cast:
		v, ok := r.eval(x.X)
		if !ok {
			return nil, false
		}
		if t, isInt := ns.AsInt(x.Type()); isInt {
			return normalize(v, t), true
		}
		return v, true

	case *ns.Unary:
		v, ok := r.eval(x.X)
		if !ok {
			return nil, false
		}
		switch x.Op {
		case "!":
			return boolWord(v.IsZero()), true
		case "~":
			t, _ := ns.AsInt(x.Type())
			return normalize(new(uint256.Int).Not(v), t), true
		case "-":
			t, _ := ns.AsInt(x.Type())
			b := new(big.Int).Neg(toBig(v, t.Signed))
			if !fitsInt(b, t) {
				r.errorf(errors.ErrorNumericOverflow, x.Span(), "negation overflows %s", t)
				return nil, false
			}
			out, _ := fromBig(b)
			return out, true
		}

	case *ns.Binary:
		a, ok1 := r.eval(x.Left)
		b, ok2 := r.eval(x.Right)
		if !ok1 || !ok2 {
			return nil, false
		}
		t, isInt := ns.AsInt(x.Type())
		if !isInt {
			return nil, false
		}
		return r.foldBinary(x.Span(), x.Op, a, b, t, x.Checked)

	case *ns.Compare:
		a, ok1 := r.eval(x.Left)
		b, ok2 := r.eval(x.Right)
		if !ok1 || !ok2 {
			return nil, false
		}
		signed := false
		if t, ok := ns.AsInt(x.Left.Type()); ok {
			signed = t.Signed
		}
		c := toBig(a, signed).Cmp(toBig(b, signed))
		return boolWord(compareHolds(x.Op, c)), true

	case *ns.Logical:
		a, ok1 := r.eval(x.Left)
		b, ok2 := r.eval(x.Right)
		if !ok1 || !ok2 {
			return nil, false
		}
		if x.And {
			return boolWord(!a.IsZero() && !b.IsZero()), true
		}
		return boolWord(!a.IsZero() || !b.IsZero()), true

	case *ns.Ternary:
		c, ok := r.eval(x.Cond)
		if !ok {
			return nil, false
		}
		if !c.IsZero() {
			return r.eval(x.Then)
		}
		return r.eval(x.Else)
	}
	return nil, false
}

func boolWord(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return uint256.NewInt(0)
}

func compareHolds(op ns.CmpOp, c int) bool {
	switch op {
	case ns.CmpEq:
		return c == 0
	case ns.CmpNe:
		return c != 0
	case ns.CmpLt:
		return c < 0
	case ns.CmpLe:
		return c <= 0
	case ns.CmpGt:
		return c > 0
	default:
		return c >= 0
	}
}

// foldBinary evaluates a op b in type t. Checked overflow and division by
// zero are diagnostics; unchecked arithmetic wraps.
func (r *resolver) foldBinary(span ast.Span, op ns.BinOp, a, b *uint256.Int, t ns.IntType, checked bool) (*uint256.Int, bool) {
	x, y := toBig(a, t.Signed), toBig(b, t.Signed)
	res := new(big.Int)
	switch op {
	case ns.OpAdd:
		res.Add(x, y)
	case ns.OpSub:
		res.Sub(x, y)
	case ns.OpMul:
		res.Mul(x, y)
	case ns.OpDiv, ns.OpMod:
		if y.Sign() == 0 {
			r.errorf(errors.ErrorConstantDivisionByZero, span, "divide by zero")
			return nil, false
		}
		if op == ns.OpDiv {
			res.Quo(x, y)
		} else {
			res.Rem(x, y)
		}
	case ns.OpExp:
		if y.Sign() < 0 {
			r.errorf(errors.ErrorInvalidOperation, span, "exponent cannot be negative")
			return nil, false
		}
		if y.BitLen() > 16 && x.CmpAbs(big.NewInt(1)) > 0 {
			r.errorf(errors.ErrorNumericOverflow, span, "power overflows %s", t)
			return nil, false
		}
		res.Exp(x, y, nil)
	case ns.OpShl:
		if y.BitLen() > 16 {
			return uint256.NewInt(0), true
		}
		res.Lsh(x, uint(y.Uint64()))
		return normalize(bigWord(res), t), true
	case ns.OpShr:
		if y.BitLen() > 16 {
			y = big.NewInt(256)
		}
		res.Rsh(x, uint(y.Uint64()))
	case ns.OpAnd:
		return normalize(new(uint256.Int).And(a, b), t), true
	case ns.OpOr:
		return normalize(new(uint256.Int).Or(a, b), t), true
	case ns.OpXor:
		return normalize(new(uint256.Int).Xor(a, b), t), true
	}
	if !fitsInt(res, t) {
		if checked {
			r.errorf(errors.ErrorNumericOverflow, span, "value %s does not fit into type %s", res.String(), t)
			return nil, false
		}
		return normalize(bigWord(res), t), true
	}
	out, _ := fromBig(res)
	return out, true
}

// bigWord reduces b modulo 2^256
func bigWord(b *big.Int) *uint256.Int {
	m := new(big.Int).Mod(b, two256)
	v, _ := uint256.FromBig(m)
	return v
}

// foldLiterals combines two untyped literals exactly, giving the result the
// smallest type that holds it
func (r *resolver) foldLiterals(span ast.Span, op ns.BinOp, a, b *ns.NumberLit) ns.Expr {
	x, y := toBig(a.Value, litSigned(a)), toBig(b.Value, litSigned(b))
	res := new(big.Int)
	switch op {
	case ns.OpAdd:
		res.Add(x, y)
	case ns.OpSub:
		res.Sub(x, y)
	case ns.OpMul:
		res.Mul(x, y)
	case ns.OpDiv, ns.OpMod:
		if y.Sign() == 0 {
			r.errorf(errors.ErrorConstantDivisionByZero, span, "divide by zero")
			return ns.NewError(span)
		}
		if op == ns.OpDiv {
			res.Quo(x, y)
		} else {
			res.Rem(x, y)
		}
	case ns.OpExp:
		if y.Sign() < 0 {
			r.errorf(errors.ErrorInvalidOperation, span, "exponent cannot be negative")
			return ns.NewError(span)
		}
		if y.BitLen() > 16 && x.CmpAbs(big.NewInt(1)) > 0 {
			r.errorf(errors.ErrorNumericOverflow, span, "value does not fit in 256 bits")
			return ns.NewError(span)
		}
		res.Exp(x, y, nil)
	case ns.OpShl:
		if y.Sign() < 0 || y.BitLen() > 16 {
			r.errorf(errors.ErrorNumericOverflow, span, "shift amount out of range")
			return ns.NewError(span)
		}
		res.Lsh(x, uint(y.Uint64()))
	case ns.OpShr:
		if y.Sign() < 0 || y.BitLen() > 16 {
			r.errorf(errors.ErrorNumericOverflow, span, "shift amount out of range")
			return ns.NewError(span)
		}
		res.Rsh(x, uint(y.Uint64()))
	case ns.OpAnd:
		res.And(x, y)
	case ns.OpOr:
		res.Or(x, y)
	case ns.OpXor:
		res.Xor(x, y)
	}
	return r.number(span, res)
}

func litSigned(n *ns.NumberLit) bool {
	t, _ := ns.AsInt(n.Type())
	return t.Signed
}

// ensureConstant folds the initializer of a constant variable on first use
func (r *resolver) ensureConstant(v *ns.Variable) {
	switch r.constState[v] {
	case constDone:
		return
	case constResolving:
		r.errorf(errors.ErrorNotConstant, v.Span, "constant '%s' refers to itself", v.Name)
		r.constState[v] = constDone
		return
	}
	d, ok := r.varDecls[v]
	if !ok {
		// imported constants are already folded
		return
	}
	r.constState[v] = constResolving
	defer func() { r.constState[v] = constDone }()

	v.Type = r.resolveType(d.Type, v.Contract)
	if d.Init == nil {
		return
	}
	ctx := r.constContext(v.Contract)
	init := r.coerce(ctx, r.expr(ctx, d.Init), v.Type)
	v.Init = init
	if ns.IsUnresolved(init.Type()) {
		return
	}
	if !ns.IsValueType(v.Type) {
		if _, ok := init.(*ns.BytesLit); ok {
			return
		}
		r.errorf(errors.ErrorNotConstant, init.Span(), "constant '%s' must be a value type or a literal", v.Name)
		return
	}
	if val, ok := r.eval(init); ok {
		v.Value = val
	} else {
		r.errorf(errors.ErrorNotConstant, init.Span(), "initializer of constant '%s' is not constant", v.Name)
	}
}

// resolveConstants folds every constant of the unit
func (r *resolver) resolveConstants() {
	for _, v := range r.ns.Constants {
		if v.Contract != nil && v.Contract.Fatal {
			continue
		}
		r.ensureConstant(v)
	}
}

// typeMember folds type(T).min and type(T).max of integer and enum types
func (r *resolver) typeMember(ctx *context, call *ast.CallExpr, member *ast.Ident, span ast.Span) ns.Expr {
	if len(call.Args) != 1 || call.IsNamed {
		r.errorf(errors.ErrorInvalidArguments, ast.SpanOf(call), "'type' takes exactly one type argument")
		return ns.NewError(span)
	}
	t := r.typeOperand(ctx, call.Args[0])
	if ns.IsUnresolved(t) {
		return ns.NewError(span)
	}
	switch x := t.(type) {
	case ns.IntType:
		lo, hi := intBounds(x)
		var b *big.Int
		switch member.Name {
		case "min":
			b = lo
		case "max":
			b = hi
		}
		if b != nil {
			v, _ := fromBig(b)
			return &ns.NumberLit{Base: ns.Base{Loc: span, Ty: x}, Value: v}
		}
	case ns.EnumType:
		switch member.Name {
		case "min":
			return &ns.EnumValue{Base: ns.Base{Loc: span, Ty: x}, Def: x.Def}
		case "max":
			return &ns.EnumValue{Base: ns.Base{Loc: span, Ty: x}, Def: x.Def, Index: len(x.Def.Values) - 1}
		}
	}
	r.errorf(errors.ErrorInvalidOperation, identSpan(member), "type(%s) has no member '%s'", t, member.Name)
	return ns.NewError(span)
}

// typeOperand resolves the argument of type(...), which names a type
func (r *resolver) typeOperand(ctx *context, e ast.Expr) ns.Type {
	switch x := e.(type) {
	case *ast.TypeNameExpr:
		return r.resolveType(x.Type, ctx.contract)
	case *ast.IdentExpr:
		if ctx.scope.lookup(x.Name) == nil {
			id := &ast.Ident{Pos: x.Pos, EndPos: x.EndPos, Name: x.Name}
			return r.userType(&ast.UserType{Pos: x.Pos, EndPos: x.EndPos, Path: []*ast.Ident{id}}, ctx.contract)
		}
	case *ast.MemberExpr:
		if base, ok := x.X.(*ast.IdentExpr); ok {
			id := &ast.Ident{Pos: base.Pos, EndPos: base.EndPos, Name: base.Name}
			return r.userType(&ast.UserType{Pos: x.Pos, EndPos: x.EndPos, Path: []*ast.Ident{id, x.Member}}, ctx.contract)
		}
	}
	r.errorf(errors.ErrorInvalidType, ast.SpanOf(e), "'type' expects a type name")
	return ns.Unresolved
}
