package cfg

import (
	"github.com/holiman/uint256"

	"polyc/internal/abi"
	"polyc/internal/builtins"
	"polyc/internal/ns"
)

type locKind int

const (
	locNone locKind = iota
	locVar
	locStorage
	locMemory
)

// location is an assignable place. addr is the slot of a storage location
// and the address of a memory location.
type location struct {
	kind locKind
	v    *ns.Variable
	addr *Value
	ty   ns.Type
}

func (b *builder) expr(e ns.Expr) *Value {
	if ns.IsUnresolved(e.Type()) {
		b.unreachable()
		return b.zero(b.wordType())
	}
	switch x := e.(type) {
	case *ns.NumberLit:
		return b.konst(x.Ty, x.Value)

	case *ns.BoolLit:
		return b.boolConst(x.Value)

	case *ns.BytesLit:
		return b.bytesLit(x)

	case *ns.VarRef:
		if x.Var.Kind == ns.VarConstant && x.Var.Value != nil {
			return b.konst(x.Ty, x.Var.Value)
		}
		return b.read(x.Var)

	case *ns.StorageRef, *ns.StorageSubscript, *ns.StorageField, *ns.FieldAccess:
		return b.load(b.lvalue(e))

	case *ns.Subscript:
		if fb, ok := x.Array.Type().(ns.FixedBytesType); ok {
			return b.byteAt(x, fb)
		}
		return b.load(b.lvalue(e))

	case *ns.ArrayLength:
		return b.arrayLength(x.Array)

	case *ns.Binary:
		return b.arith(x.Op, x.Ty, x.Checked, b.expr(x.Left), b.expr(x.Right))

	case *ns.Compare:
		l := b.expr(x.Left)
		r := b.convert(b.expr(x.Right), l.Type)
		return b.compare(x.Op, isSigned(l.Type), l, r)

	case *ns.Logical:
		return b.logical(x)

	case *ns.Unary:
		return b.unary(x)

	case *ns.Cast:
		return b.convert(b.expr(x.X), x.Ty)

	case *ns.Ternary:
		return b.ternary(x)

	case *ns.Assign:
		return b.assign(x)

	case *ns.IncDec:
		return b.incDec(x)

	case *ns.Delete:
		loc := b.lvalue(x.Target)
		if loc.kind == locStorage {
			b.clearStorage(loc.addr, loc.ty)
			return nil
		}
		b.store(loc, b.zeroValue(loc.ty, false))
		return nil

	case *ns.Call, *ns.ExternalCall, *ns.PointerCall:
		return firstOrNil(b.call(e))

	case *ns.BuiltinCall:
		return b.builtin(x)

	case *ns.StructLit:
		return b.structLit(x)

	case *ns.ArrayLit:
		return b.arrayLit(x)

	case *ns.EnumValue:
		return b.konst(x.Ty, uint256.NewInt(uint64(x.Index)))

	case *ns.FunctionRef:
		res := b.value(x.Ty)
		b.emit(&FunctionAddr{Result: res, Fn: x.Fn})
		return res

	case *ns.TupleLit:
		return firstOrNil(b.exprs(x, len(x.Elems)))
	}
	log.Warningf("unhandled expression %T", e)
	b.unreachable()
	return b.zero(b.wordType())
}

// exprs lowers an expression producing n values: a tuple, a call with
// several results or a single value
func (b *builder) exprs(e ns.Expr, n int) []*Value {
	var vals []*Value
	switch x := e.(type) {
	case *ns.TupleLit:
		for _, el := range x.Elems {
			vals = append(vals, b.expr(el))
		}
	case *ns.Call, *ns.ExternalCall, *ns.PointerCall:
		vals = b.call(e)
	default:
		vals = []*Value{b.expr(e)}
	}
	for len(vals) < n {
		vals = append(vals, b.zero(b.wordType()))
	}
	return vals
}

func (b *builder) bytesLit(x *ns.BytesLit) *Value {
	if fb, ok := x.Ty.(ns.FixedBytesType); ok {
		padded := make([]byte, fb.N)
		copy(padded, x.Value)
		return b.konst(x.Ty, new(uint256.Int).SetBytes(padded))
	}
	res := b.value(x.Ty)
	b.emit(&Alloc{Result: res, Size: b.word(uint64(len(x.Value))), Init: x.Value})
	return res
}

// Locations

func (b *builder) lvalue(e ns.Expr) *location {
	switch x := e.(type) {
	case *ns.VarRef:
		return &location{kind: locVar, v: x.Var, ty: x.Ty}
	case *ns.StorageRef, *ns.StorageSubscript, *ns.StorageField:
		return &location{kind: locStorage, addr: b.storageSlot(e), ty: e.Type()}
	case *ns.FieldAccess:
		base := b.expr(x.Struct)
		addr := b.value(b.wordType())
		b.emit(&FieldAddr{Result: addr, Base: base, Struct: x.Def, Field: x.Field,
			Offset: ns.FieldOffset(x.Def, x.Field, b.target)})
		return &location{kind: locMemory, addr: addr, ty: x.Ty}
	case *ns.Subscript:
		return &location{kind: locMemory, addr: b.elementAddr(x), ty: x.Ty}
	}
	b.unreachable()
	return &location{kind: locNone, ty: e.Type()}
}

// inline reports whether values of t are held in place inside memory
// aggregates rather than behind a pointer
func inline(t ns.Type) bool {
	switch x := t.(type) {
	case ns.StructType:
		return true
	case ns.ArrayType:
		return x.Len >= 0
	}
	return false
}

func (b *builder) load(loc *location) *Value {
	switch loc.kind {
	case locVar:
		return b.read(loc.v)
	case locStorage:
		if !ns.IsValueType(loc.ty) {
			return loc.addr
		}
		res := b.value(loc.ty)
		b.emit(&StorageLoad{Result: res, Slot: loc.addr})
		return res
	case locMemory:
		if inline(loc.ty) {
			return loc.addr
		}
		res := b.value(loc.ty)
		b.emit(&MemoryLoad{Result: res, Addr: loc.addr})
		return res
	}
	return b.zero(loc.ty)
}

func (b *builder) store(loc *location, val *Value) {
	switch loc.kind {
	case locVar:
		b.write(loc.v, val)
	case locStorage:
		b.emit(&StorageStore{Slot: loc.addr, Value: val})
	case locMemory:
		b.memStore(loc.addr, val, loc.ty)
	}
}

// clearStorage zeroes every slot a value of type t occupies from slot on.
// A dynamic array keeps its elements and loses its length.
func (b *builder) clearStorage(slot *Value, t ns.Type) {
	n := ns.StorageSlots(t)
	if n == 1 {
		b.emit(&StorageStore{Slot: slot, Value: b.zero(t)})
		return
	}
	for i := uint64(0); i < n; i++ {
		at := slot
		if i > 0 {
			at = b.binary(ns.OpAdd, b.wordType(), false, false, slot, b.word(i))
		}
		b.emit(&StorageStore{Slot: at, Value: b.zero(b.wordType())})
	}
}

func (b *builder) memStore(addr, val *Value, t ns.Type) {
	if inline(t) {
		b.emit(&MemoryCopy{Dst: addr, Src: val, Size: ns.MemorySize(t, b.target)})
		return
	}
	b.emit(&MemoryStore{Addr: addr, Value: val})
}

func (b *builder) slotOf(v *ns.Variable) uint64 {
	if b.contract != nil {
		if s, ok := b.contract.SlotOf(v); ok {
			return s
		}
	}
	return v.Slot
}

// storageSlot computes the slot of a storage location. Storage pointer
// locals hold their slot as their value.
func (b *builder) storageSlot(e ns.Expr) *Value {
	switch x := e.(type) {
	case *ns.StorageRef:
		return b.word(b.slotOf(x.Var))

	case *ns.VarRef:
		return b.read(x.Var)

	case *ns.StorageSubscript:
		base := b.storageSlot(x.Array)
		idx := b.expr(x.Index)
		switch t := x.Array.Type().(type) {
		case ns.ArrayType:
			if t.Len >= 0 {
				b.boundsCheck(idx, b.konst(ns.Uint(256), uint256.NewInt(uint64(t.Len))))
			} else {
				b.boundsCheck(idx, b.storageLength(base))
			}
		case ns.BytesType:
			b.boundsCheck(idx, b.storageLength(base))
		}
		res := b.value(b.wordType())
		b.emit(&StorageIndex{Result: res, Base: base, Index: idx, Container: x.Array.Type()})
		return res

	case *ns.StorageField:
		base := b.storageSlot(x.Struct)
		off := ns.FieldSlot(x.Def, x.Field)
		if off == 0 {
			return base
		}
		return b.binary(ns.OpAdd, b.wordType(), false, false, base, b.word(off))
	}
	return b.expr(e)
}

func (b *builder) storageLength(slot *Value) *Value {
	res := b.value(ns.Uint(256))
	b.emit(&ArrayLength{Result: res, Array: slot, Storage: true})
	return res
}

func (b *builder) arrayLength(arr ns.Expr) *Value {
	if at, ok := arr.Type().(ns.ArrayType); ok && at.Len >= 0 {
		return b.konst(ns.Uint(256), uint256.NewInt(uint64(at.Len)))
	}
	if ns.IsStorage(arr) {
		return b.storageLength(b.storageSlot(arr))
	}
	res := b.value(ns.Uint(256))
	b.emit(&ArrayLength{Result: res, Array: b.expr(arr)})
	return res
}

// elementAddr is the checked address of a memory array or bytes element
func (b *builder) elementAddr(x *ns.Subscript) *Value {
	arr := b.expr(x.Array)
	idx := b.expr(x.Index)
	var length *Value
	if at, ok := x.Array.Type().(ns.ArrayType); ok && at.Len >= 0 {
		length = b.konst(ns.Uint(256), uint256.NewInt(uint64(at.Len)))
	} else {
		length = b.value(ns.Uint(256))
		b.emit(&ArrayLength{Result: length, Array: arr})
	}
	b.boundsCheck(idx, length)
	res := b.value(b.wordType())
	b.emit(&ElementAddr{Result: res, Array: arr, Index: idx, ElemSize: ns.MemorySize(x.Ty, b.target)})
	return res
}

// byteAt extracts byte idx of a fixed bytes value, counting from the left
func (b *builder) byteAt(x *ns.Subscript, fb ns.FixedBytesType) *Value {
	v := b.expr(x.Array)
	idx := b.convert(b.expr(x.Index), ns.Uint(256))
	u256 := ns.Uint(256)
	b.boundsCheck(idx, b.konst(u256, uint256.NewInt(uint64(fb.N))))
	last := b.konst(u256, uint256.NewInt(uint64(fb.N-1)))
	pos := b.binary(ns.OpSub, u256, false, false, last, idx)
	bits := b.binary(ns.OpMul, u256, false, false, pos, b.konst(u256, uint256.NewInt(8)))
	shifted := b.binary(ns.OpShr, fb, false, false, v, bits)
	res := b.value(x.Ty)
	b.emit(&Cast{Result: res, Kind: CastTrunc, X: shifted})
	return res
}

func (b *builder) boundsCheck(idx, length *Value) {
	if idx.IsConst() && length.IsConst() && idx.Const.Lt(length.Const) && !isNegative(idx) {
		return
	}
	u256 := ns.Uint(256)
	ok := b.compare(ns.CmpLt, false, b.convert(idx, u256), b.convert(length, u256))
	b.check(ok, "bounds", func() Terminator { return b.panicPayload(abi.PanicOutOfBounds) })
}

// Arithmetic

func (b *builder) binary(op ns.BinOp, t ns.Type, signed, checked bool, l, r *Value) *Value {
	res := b.value(t)
	b.emit(&Binary{Result: res, Op: op, Signed: signed, Checked: checked, Left: l, Right: r})
	return res
}

func (b *builder) compare(op ns.CmpOp, signed bool, l, r *Value) *Value {
	res := b.value(ns.Bool)
	b.emit(&Compare{Result: res, Op: op, Signed: signed, Left: l, Right: r})
	return res
}

// arith lowers a binary operation at type t. The right operand of shifts
// and exponentiation keeps its own width.
func (b *builder) arith(op ns.BinOp, t ns.Type, checked bool, l, r *Value) *Value {
	l = b.convert(l, t)
	if op != ns.OpShl && op != ns.OpShr && op != ns.OpExp {
		r = b.convert(r, t)
	}
	signed := isSigned(t)
	checked = checked && op.Checkable()
	if op == ns.OpDiv || op == ns.OpMod {
		return b.division(op, t, signed, l, r)
	}
	return b.binary(op, t, signed, checked, l, r)
}

// division guards a divisor that is not a known nonzero constant: the zero
// branch yields 0 and a phi merges it with the quotient
func (b *builder) division(op ns.BinOp, t ns.Type, signed bool, l, r *Value) *Value {
	if r.IsConst() && !r.Const.IsZero() {
		return b.binary(op, t, signed, false, l, r)
	}
	isZero := b.compare(ns.CmpEq, false, r, b.zero(r.Type))
	zero := b.newBlock("div_zero")
	div := b.newBlock("div")
	end := b.newBlock("div_end")
	b.branch(isZero, zero, div)

	vals := make(map[*Block]*Value)
	b.enter(zero)
	b.jumpWith(end, vals, b.zero(t))
	b.enter(div)
	b.jumpWith(end, vals, b.binary(op, t, signed, false, l, r))
	b.enter(end)
	return b.merge(t, vals)
}

// jumpWith branches to a join, recording the value this edge contributes
func (b *builder) jumpWith(to *Block, vals map[*Block]*Value, v *Value) {
	if b.cur == nil {
		return
	}
	vals[b.cur] = v
	b.jump(to)
}

func (b *builder) logical(x *ns.Logical) *Value {
	l := b.expr(x.Left)
	prefix := "or"
	if x.And {
		prefix = "and"
	}
	rhs := b.newBlock(prefix + "_rhs")
	end := b.newBlock(prefix + "_end")

	vals := make(map[*Block]*Value)
	if b.cur != nil {
		vals[b.cur] = b.boolConst(!x.And)
	}
	if x.And {
		b.branch(l, rhs, end)
	} else {
		b.branch(l, end, rhs)
	}
	b.enter(rhs)
	b.jumpWith(end, vals, b.expr(x.Right))
	b.enter(end)
	return b.merge(ns.Bool, vals)
}

func (b *builder) ternary(x *ns.Ternary) *Value {
	if c, ok := ns.ConstValue(x.Cond); ok {
		if c.IsZero() {
			return b.convert(b.expr(x.Else), x.Ty)
		}
		return b.convert(b.expr(x.Then), x.Ty)
	}
	cond := b.expr(x.Cond)
	then := b.newBlock("ternary_then")
	els := b.newBlock("ternary_else")
	end := b.newBlock("ternary_end")
	b.branch(cond, then, els)

	vals := make(map[*Block]*Value)
	b.enter(then)
	b.jumpWith(end, vals, b.convert(b.expr(x.Then), x.Ty))
	b.enter(els)
	b.jumpWith(end, vals, b.convert(b.expr(x.Else), x.Ty))
	b.enter(end)
	return b.merge(x.Ty, vals)
}

func (b *builder) unary(x *ns.Unary) *Value {
	v := b.expr(x.X)
	res := b.value(x.Ty)
	inst := &Unary{Result: res, X: b.convert(v, x.Ty)}
	switch x.Op {
	case "!":
		inst.Op = UnaryNot
	case "~":
		inst.Op = UnaryCompl
	default:
		inst.Op = UnaryNeg
		inst.Checked = x.Checked
	}
	b.emit(inst)
	return res
}

func (b *builder) assign(x *ns.Assign) *Value {
	loc := b.lvalue(x.Target)
	if !x.Compound {
		v := b.expr(x.Value)
		if loc.kind != locVar || !ns.IsStoragePointer(loc.v) {
			v = b.convert(v, loc.ty)
		}
		b.store(loc, v)
		return v
	}
	cur := b.load(loc)
	res := b.arith(x.Op, loc.ty, x.Checked, cur, b.expr(x.Value))
	b.store(loc, res)
	return res
}

func (b *builder) incDec(x *ns.IncDec) *Value {
	loc := b.lvalue(x.Target)
	old := b.load(loc)
	op := ns.OpSub
	if x.Inc {
		op = ns.OpAdd
	}
	res := b.binary(op, loc.ty, isSigned(loc.ty), x.Checked, old, b.konst(loc.ty, uint256.NewInt(1)))
	b.store(loc, res)
	if x.Post {
		return old
	}
	return res
}

// Calls

func (b *builder) args(args []ns.Expr, params []ns.Type) []*Value {
	out := make([]*Value, len(args))
	for i, a := range args {
		v := b.expr(a)
		if i < len(params) {
			v = b.convert(v, params[i])
		}
		out[i] = v
	}
	return out
}

func (b *builder) results(types []ns.Type) []*Value {
	out := make([]*Value, len(types))
	for i, t := range types {
		out[i] = b.value(t)
	}
	return out
}

// call lowers a call to an internal, external or pointer target. Internal
// calls bind statically to the resolved function.
func (b *builder) call(e ns.Expr) []*Value {
	switch x := e.(type) {
	case *ns.Call:
		c := &Call{Fn: x.Fn, Args: b.args(x.Args, x.Fn.ParamTypes()), Rets: b.results(x.Fn.ReturnTypes())}
		b.emit(c)
		return c.Rets
	case *ns.ExternalCall:
		addr := b.expr(x.Address)
		c := &ExternalCall{Address: addr, Fn: x.Fn, Args: b.args(x.Args, x.Fn.ParamTypes()),
			Rets: b.results(x.Fn.ReturnTypes())}
		b.emit(c)
		return c.Rets
	case *ns.PointerCall:
		ptr := b.expr(x.Pointer)
		ft, _ := x.Pointer.Type().(ns.FunctionType)
		c := &PointerCall{Pointer: ptr, Args: b.args(x.Args, ft.Params), Rets: b.results(ft.Returns)}
		b.emit(c)
		return c.Rets
	}
	return nil
}

func (b *builder) builtin(x *ns.BuiltinCall) *Value {
	switch x.Name {
	case "array.push":
		b.push(x)
		return nil
	case "array.pop":
		b.pop(x)
		return nil
	}
	args := make([]*Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = b.expr(a)
	}
	op, _ := b.target.BuiltinOp(x.Name)
	call := &BuiltinCall{Name: x.Name, Op: op, Args: args, Access: builtins.Source[x.Name].Access}
	var res *Value
	if _, void := x.Ty.(ns.VoidType); !void {
		res = b.value(x.Ty)
		call.Rets = []*Value{res}
	}
	b.emit(call)
	return res
}

func elemType(t ns.Type) ns.Type {
	if at, ok := t.(ns.ArrayType); ok {
		return at.Elem
	}
	return ns.FixedBytesType{N: 1}
}

// push stores at index length and bumps the length held at the array slot
func (b *builder) push(x *ns.BuiltinCall) {
	arr := x.Args[0]
	slot := b.storageSlot(arr)
	length := b.storageLength(slot)
	elem := b.value(b.wordType())
	b.emit(&StorageIndex{Result: elem, Base: slot, Index: length, Container: arr.Type()})
	b.emit(&StorageStore{Slot: elem, Value: b.convert(b.expr(x.Args[1]), elemType(arr.Type()))})
	u256 := ns.Uint(256)
	b.emit(&StorageStore{Slot: slot, Value: b.binary(ns.OpAdd, u256, false, false, length, b.konst(u256, uint256.NewInt(1)))})
}

// pop fails on an empty array, clears the last element and shrinks the length
func (b *builder) pop(x *ns.BuiltinCall) {
	arr := x.Args[0]
	slot := b.storageSlot(arr)
	length := b.storageLength(slot)
	u256 := ns.Uint(256)
	nonEmpty := b.compare(ns.CmpNe, false, length, b.zero(u256))
	b.check(nonEmpty, "pop", func() Terminator { return b.panicPayload(abi.PanicEmptyPop) })
	last := b.binary(ns.OpSub, u256, false, false, length, b.konst(u256, uint256.NewInt(1)))
	elem := b.value(b.wordType())
	b.emit(&StorageIndex{Result: elem, Base: slot, Index: last, Container: arr.Type()})
	b.emit(&StorageStore{Slot: elem, Value: b.zero(elemType(arr.Type()))})
	b.emit(&StorageStore{Slot: slot, Value: last})
}

func (b *builder) structLit(x *ns.StructLit) *Value {
	res := b.value(x.Ty)
	b.emit(&Alloc{Result: res, Size: b.word(uint64(ns.MemorySize(x.Ty, b.target)))})
	for i, f := range x.Fields {
		ft := x.Def.Fields[i].Type
		val := b.convert(b.expr(f), ft)
		addr := b.value(b.wordType())
		b.emit(&FieldAddr{Result: addr, Base: res, Struct: x.Def, Field: i, Offset: ns.FieldOffset(x.Def, i, b.target)})
		b.memStore(addr, val, ft)
	}
	return res
}

func (b *builder) arrayLit(x *ns.ArrayLit) *Value {
	at := x.Ty.(ns.ArrayType)
	res := b.value(x.Ty)
	b.emit(&Alloc{Result: res, Size: b.word(uint64(ns.MemorySize(x.Ty, b.target)))})
	size := ns.MemorySize(at.Elem, b.target)
	for i, el := range x.Elems {
		val := b.convert(b.expr(el), at.Elem)
		addr := b.value(b.wordType())
		b.emit(&ElementAddr{Result: addr, Array: res, Index: b.konst(ns.Uint(256), uint256.NewInt(uint64(i))), ElemSize: size})
		b.memStore(addr, val, at.Elem)
	}
	return res
}

// Revert payloads

func (b *builder) errorPayload(reason *Value) *AssertFailure {
	return &AssertFailure{
		Selector: abi.Selector(abi.ErrorSignature, b.target.SelectorBytes()),
		Args:     []*Value{reason},
	}
}

func (b *builder) panicPayload(code uint64) *AssertFailure {
	return &AssertFailure{
		Selector: abi.Selector(abi.PanicSignature, b.target.SelectorBytes()),
		Args:     []*Value{b.konst(ns.Uint(256), uint256.NewInt(code))},
	}
}

// Conversions

func isSigned(t ns.Type) bool {
	it, ok := ns.AsInt(t)
	return ok && it.Signed
}

func isNegative(v *Value) bool {
	return isSigned(v.Type) && v.Const.Sign() < 0
}

// convert changes the width of a value type. Values of equal width are
// retyped in place; constants are folded.
func (b *builder) convert(val *Value, to ns.Type) *Value {
	if val == nil {
		return b.zero(to)
	}
	from := val.Type
	if ns.IsUnresolved(to) || ns.IsUnresolved(from) || ns.Equal(from, to) ||
		!ns.IsValueType(to) || !ns.IsValueType(from) {
		return val
	}
	if fb, ok := from.(ns.FixedBytesType); ok {
		if tb, ok := to.(ns.FixedBytesType); ok {
			return b.resizeBytes(val, fb, tb)
		}
	}

	fromBits, toBits := ns.BitWidth(from, b.target), ns.BitWidth(to, b.target)
	if val.IsConst() {
		return b.konst(to, truncate(val.Const, toBits, isSigned(to)))
	}
	var kind CastKind
	switch {
	case toBits > fromBits && isSigned(from):
		kind = CastSext
	case toBits > fromBits:
		kind = CastZext
	case toBits < fromBits:
		kind = CastTrunc
	default:
		return &Value{Type: to, forward: val}
	}
	res := b.value(to)
	b.emit(&Cast{Result: res, Kind: kind, X: val})
	return res
}

// resizeBytes converts between fixed bytes types, which are left aligned:
// widening pads on the right and narrowing keeps the leading bytes
func (b *builder) resizeBytes(val *Value, from, to ns.FixedBytesType) *Value {
	shift := uint(8 * (to.N - from.N))
	if to.N < from.N {
		shift = uint(8 * (from.N - to.N))
	}
	if val.IsConst() {
		v := new(uint256.Int)
		if to.N > from.N {
			v.Lsh(val.Const, shift)
		} else {
			v.Rsh(val.Const, shift)
		}
		return b.konst(to, truncate(v, to.N*8, false))
	}
	amount := b.konst(ns.Uint(256), uint256.NewInt(uint64(shift)))
	if to.N > from.N {
		wide := b.value(to)
		b.emit(&Cast{Result: wide, Kind: CastZext, X: val})
		return b.binary(ns.OpShl, to, false, false, wide, amount)
	}
	shifted := b.binary(ns.OpShr, from, false, false, val, amount)
	res := b.value(to)
	b.emit(&Cast{Result: res, Kind: CastTrunc, X: shifted})
	return res
}

// truncate keeps the low bits of v, sign extending the result to 256 bits
// for signed types
func truncate(v *uint256.Int, bits int, signed bool) *uint256.Int {
	out := new(uint256.Int).Set(v)
	if bits >= 256 {
		return out
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bits))
	mask.SubUint64(mask, 1)
	out.And(out, mask)
	if signed && !new(uint256.Int).Rsh(out, uint(bits-1)).IsZero() {
		out.Or(out, new(uint256.Int).Not(mask))
	}
	return out
}
