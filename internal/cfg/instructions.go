package cfg

import (
	"github.com/holiman/uint256"

	"polyc/internal/builtins"
	"polyc/internal/ns"
)

// Instruction is one non-terminating operation of a block
type Instruction interface {
	Operands() []*Value
	Results() []*Value
	Effects() Effect
	mapOperands(f func(*Value) *Value)
}

// Terminator ends a block
type Terminator interface {
	Instruction
	Successors() []*Block
}

// Binary is an arithmetic or bitwise operation at the width of its result
// type. Checked operations fail on overflow; the check itself is target policy.
type Binary struct {
	Result  *Value
	Op      ns.BinOp
	Signed  bool
	Checked bool
	Left    *Value
	Right   *Value
}

// Compare produces a bool
type Compare struct {
	Result *Value
	Op     ns.CmpOp
	Signed bool
	Left   *Value
	Right  *Value
}

// UnaryOp is the operator of a Unary
type UnaryOp string

const (
	UnaryNot   UnaryOp = "not"
	UnaryCompl UnaryOp = "compl"
	UnaryNeg   UnaryOp = "neg"
)

type Unary struct {
	Result  *Value
	Op      UnaryOp
	X       *Value
	Checked bool
}

// CastKind is the width change a Cast performs
type CastKind string

const (
	CastZext  CastKind = "zext"
	CastSext  CastKind = "sext"
	CastTrunc CastKind = "trunc"
)

// Cast changes the width of X to the width of the result type
type Cast struct {
	Result *Value
	Kind   CastKind
	X      *Value
}

type StorageLoad struct {
	Result *Value
	Slot   *Value
}

type StorageStore struct {
	Slot  *Value
	Value *Value
}

// StorageIndex computes the slot of an element of a storage mapping or
// array. How the slot is derived is target policy.
type StorageIndex struct {
	Result    *Value
	Base      *Value
	Index     *Value
	Container ns.Type
}

// ArrayLength reads the length of a dynamic array or bytes value
type ArrayLength struct {
	Result  *Value
	Array   *Value
	Storage bool
}

type MemoryLoad struct {
	Result *Value
	Addr   *Value
}

type MemoryStore struct {
	Addr  *Value
	Value *Value
}

// MemoryCopy copies Size bytes, for aggregates held inline in other aggregates
type MemoryCopy struct {
	Dst  *Value
	Src  *Value
	Size int
}

// FieldAddr is the address of a memory struct field at byte Offset
type FieldAddr struct {
	Result *Value
	Base   *Value
	Struct *ns.Struct
	Field  int
	Offset int
}

// ElementAddr is the address of a memory array element. The index has
// already been checked against the length.
type ElementAddr struct {
	Result   *Value
	Array    *Value
	Index    *Value
	ElemSize int
}

// Alloc reserves Size bytes of memory, optionally initialized with Init
type Alloc struct {
	Result *Value
	Size   *Value
	Init   []byte
}

// Call is an internal call
type Call struct {
	Rets []*Value
	Fn   *ns.Function
	Args []*Value
}

type ExternalCall struct {
	Rets    []*Value
	Address *Value
	Fn      *ns.Function
	Args    []*Value
}

type PointerCall struct {
	Rets    []*Value
	Pointer *Value
	Args    []*Value
}

// BuiltinCall is a builtin whose lowering the target supplies. Op is the
// host operation named in the target profile.
type BuiltinCall struct {
	Rets   []*Value
	Name   string
	Op     string
	Args   []*Value
	Access builtins.Access
}

// FunctionAddr is an internal function used as a value
type FunctionAddr struct {
	Result *Value
	Fn     *ns.Function
}

// Emit logs an event. Topics include the event signature hash unless the
// event is anonymous.
type Emit struct {
	Event  *ns.Event
	Topics []*Value
	Data   []*Value
}

// Native is an assembly builtin with no dedicated instruction
type Native struct {
	Rets []*Value
	Name string
	Args []*Value
}

// Branch jumps unconditionally
type Branch struct {
	Target *Block
}

type BranchCond struct {
	Cond  *Value
	True  *Block
	False *Block
}

type SwitchCase struct {
	Value  *uint256.Int
	Target *Block
}

// Switch is a multi-way branch on a word value
type Switch struct {
	Value   *Value
	Cases   []SwitchCase
	Default *Block
}

// Return leaves the function. Data is set instead of Values when assembly
// returns a raw memory range (offset, size).
type Return struct {
	Values []*Value
	Data   []*Value
}

type Unreachable struct{}

// AssertFailure aborts execution. The revert payload is the selector
// followed by the ABI encoding of Args, or the raw memory range Data.
type AssertFailure struct {
	Selector []byte
	Args     []*Value
	Data     []*Value
}

func mapAll(vs []*Value, f func(*Value) *Value) {
	for i, v := range vs {
		vs[i] = f(v)
	}
}

func concat(lists ...[]*Value) []*Value {
	var out []*Value
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func (i *Binary) Operands() []*Value { return []*Value{i.Left, i.Right} }
func (i *Binary) Results() []*Value  { return []*Value{i.Result} }
func (i *Binary) Effects() Effect    { return 0 }
func (i *Binary) mapOperands(f func(*Value) *Value) {
	i.Left, i.Right = f(i.Left), f(i.Right)
}

func (i *Compare) Operands() []*Value { return []*Value{i.Left, i.Right} }
func (i *Compare) Results() []*Value  { return []*Value{i.Result} }
func (i *Compare) Effects() Effect    { return 0 }
func (i *Compare) mapOperands(f func(*Value) *Value) {
	i.Left, i.Right = f(i.Left), f(i.Right)
}

func (i *Unary) Operands() []*Value                { return []*Value{i.X} }
func (i *Unary) Results() []*Value                 { return []*Value{i.Result} }
func (i *Unary) Effects() Effect                   { return 0 }
func (i *Unary) mapOperands(f func(*Value) *Value) { i.X = f(i.X) }

func (i *Cast) Operands() []*Value                { return []*Value{i.X} }
func (i *Cast) Results() []*Value                 { return []*Value{i.Result} }
func (i *Cast) Effects() Effect                   { return 0 }
func (i *Cast) mapOperands(f func(*Value) *Value) { i.X = f(i.X) }

func (i *StorageLoad) Operands() []*Value                { return []*Value{i.Slot} }
func (i *StorageLoad) Results() []*Value                 { return []*Value{i.Result} }
func (i *StorageLoad) Effects() Effect                   { return EffectReadState }
func (i *StorageLoad) mapOperands(f func(*Value) *Value) { i.Slot = f(i.Slot) }

func (i *StorageStore) Operands() []*Value { return []*Value{i.Slot, i.Value} }
func (i *StorageStore) Results() []*Value  { return nil }
func (i *StorageStore) Effects() Effect    { return EffectWriteState }
func (i *StorageStore) mapOperands(f func(*Value) *Value) {
	i.Slot, i.Value = f(i.Slot), f(i.Value)
}

func (i *StorageIndex) Operands() []*Value { return []*Value{i.Base, i.Index} }
func (i *StorageIndex) Results() []*Value  { return []*Value{i.Result} }
func (i *StorageIndex) Effects() Effect    { return 0 }
func (i *StorageIndex) mapOperands(f func(*Value) *Value) {
	i.Base, i.Index = f(i.Base), f(i.Index)
}

func (i *ArrayLength) Operands() []*Value { return []*Value{i.Array} }
func (i *ArrayLength) Results() []*Value  { return []*Value{i.Result} }
func (i *ArrayLength) Effects() Effect {
	if i.Storage {
		return EffectReadState
	}
	return EffectReadMemory
}
func (i *ArrayLength) mapOperands(f func(*Value) *Value) { i.Array = f(i.Array) }

func (i *MemoryLoad) Operands() []*Value                { return []*Value{i.Addr} }
func (i *MemoryLoad) Results() []*Value                 { return []*Value{i.Result} }
func (i *MemoryLoad) Effects() Effect                   { return EffectReadMemory }
func (i *MemoryLoad) mapOperands(f func(*Value) *Value) { i.Addr = f(i.Addr) }

func (i *MemoryStore) Operands() []*Value { return []*Value{i.Addr, i.Value} }
func (i *MemoryStore) Results() []*Value  { return nil }
func (i *MemoryStore) Effects() Effect    { return EffectWriteMemory }
func (i *MemoryStore) mapOperands(f func(*Value) *Value) {
	i.Addr, i.Value = f(i.Addr), f(i.Value)
}

func (i *MemoryCopy) Operands() []*Value { return []*Value{i.Dst, i.Src} }
func (i *MemoryCopy) Results() []*Value  { return nil }
func (i *MemoryCopy) Effects() Effect    { return EffectReadMemory | EffectWriteMemory }
func (i *MemoryCopy) mapOperands(f func(*Value) *Value) {
	i.Dst, i.Src = f(i.Dst), f(i.Src)
}

func (i *FieldAddr) Operands() []*Value                { return []*Value{i.Base} }
func (i *FieldAddr) Results() []*Value                 { return []*Value{i.Result} }
func (i *FieldAddr) Effects() Effect                   { return 0 }
func (i *FieldAddr) mapOperands(f func(*Value) *Value) { i.Base = f(i.Base) }

func (i *ElementAddr) Operands() []*Value { return []*Value{i.Array, i.Index} }
func (i *ElementAddr) Results() []*Value  { return []*Value{i.Result} }
func (i *ElementAddr) Effects() Effect    { return 0 }
func (i *ElementAddr) mapOperands(f func(*Value) *Value) {
	i.Array, i.Index = f(i.Array), f(i.Index)
}

func (i *Alloc) Operands() []*Value                { return []*Value{i.Size} }
func (i *Alloc) Results() []*Value                 { return []*Value{i.Result} }
func (i *Alloc) Effects() Effect                   { return EffectWriteMemory }
func (i *Alloc) mapOperands(f func(*Value) *Value) { i.Size = f(i.Size) }

func (i *Call) Operands() []*Value { return i.Args }
func (i *Call) Results() []*Value  { return i.Rets }
func (i *Call) Effects() Effect {
	e := EffectCall
	if i.Fn.ReadsState {
		e |= EffectReadState
	}
	if i.Fn.WritesState {
		e |= EffectWriteState
	}
	return e
}
func (i *Call) mapOperands(f func(*Value) *Value) { mapAll(i.Args, f) }

func (i *ExternalCall) Operands() []*Value { return concat([]*Value{i.Address}, i.Args) }
func (i *ExternalCall) Results() []*Value  { return i.Rets }
func (i *ExternalCall) Effects() Effect {
	return EffectCall | EffectReadState | EffectWriteState
}
func (i *ExternalCall) mapOperands(f func(*Value) *Value) {
	i.Address = f(i.Address)
	mapAll(i.Args, f)
}

func (i *PointerCall) Operands() []*Value { return concat([]*Value{i.Pointer}, i.Args) }
func (i *PointerCall) Results() []*Value  { return i.Rets }
func (i *PointerCall) Effects() Effect {
	return EffectCall | EffectReadState | EffectWriteState
}
func (i *PointerCall) mapOperands(f func(*Value) *Value) {
	i.Pointer = f(i.Pointer)
	mapAll(i.Args, f)
}

func (i *BuiltinCall) Operands() []*Value { return i.Args }
func (i *BuiltinCall) Results() []*Value  { return i.Rets }
func (i *BuiltinCall) Effects() Effect {
	switch i.Access {
	case builtins.Read:
		return EffectReadState
	case builtins.Write:
		return EffectReadState | EffectWriteState
	}
	return 0
}
func (i *BuiltinCall) mapOperands(f func(*Value) *Value) { mapAll(i.Args, f) }

func (i *FunctionAddr) Operands() []*Value            { return nil }
func (i *FunctionAddr) Results() []*Value             { return []*Value{i.Result} }
func (i *FunctionAddr) Effects() Effect               { return 0 }
func (i *FunctionAddr) mapOperands(func(*Value) *Value) {}

func (i *Emit) Operands() []*Value { return concat(i.Topics, i.Data) }
func (i *Emit) Results() []*Value  { return nil }
func (i *Emit) Effects() Effect    { return EffectLog }
func (i *Emit) mapOperands(f func(*Value) *Value) {
	mapAll(i.Topics, f)
	mapAll(i.Data, f)
}

func (i *Native) Operands() []*Value { return i.Args }
func (i *Native) Results() []*Value  { return i.Rets }
func (i *Native) Effects() Effect {
	switch i.Name {
	case "mstore8":
		return EffectWriteMemory
	case "msize":
		return EffectReadMemory
	}
	return 0
}
func (i *Native) mapOperands(f func(*Value) *Value) { mapAll(i.Args, f) }

func (t *Branch) Operands() []*Value              { return nil }
func (t *Branch) Results() []*Value               { return nil }
func (t *Branch) Effects() Effect                 { return 0 }
func (t *Branch) Successors() []*Block            { return []*Block{t.Target} }
func (t *Branch) mapOperands(func(*Value) *Value) {}

func (t *BranchCond) Operands() []*Value                { return []*Value{t.Cond} }
func (t *BranchCond) Results() []*Value                 { return nil }
func (t *BranchCond) Effects() Effect                   { return 0 }
func (t *BranchCond) Successors() []*Block              { return []*Block{t.True, t.False} }
func (t *BranchCond) mapOperands(f func(*Value) *Value) { t.Cond = f(t.Cond) }

func (t *Switch) Operands() []*Value { return []*Value{t.Value} }
func (t *Switch) Results() []*Value  { return nil }
func (t *Switch) Effects() Effect    { return 0 }
func (t *Switch) Successors() []*Block {
	out := make([]*Block, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		out = append(out, c.Target)
	}
	return append(out, t.Default)
}
func (t *Switch) mapOperands(f func(*Value) *Value) { t.Value = f(t.Value) }

func (t *Return) Operands() []*Value { return concat(t.Values, t.Data) }
func (t *Return) Results() []*Value  { return nil }
func (t *Return) Effects() Effect {
	if len(t.Data) > 0 {
		return EffectReadMemory
	}
	return 0
}
func (t *Return) Successors() []*Block { return nil }
func (t *Return) mapOperands(f func(*Value) *Value) {
	mapAll(t.Values, f)
	mapAll(t.Data, f)
}

func (t *Unreachable) Operands() []*Value              { return nil }
func (t *Unreachable) Results() []*Value               { return nil }
func (t *Unreachable) Effects() Effect                 { return 0 }
func (t *Unreachable) Successors() []*Block            { return nil }
func (t *Unreachable) mapOperands(func(*Value) *Value) {}

func (t *AssertFailure) Operands() []*Value { return concat(t.Args, t.Data) }
func (t *AssertFailure) Results() []*Value  { return nil }
func (t *AssertFailure) Effects() Effect {
	if len(t.Data) > 0 {
		return EffectReadMemory
	}
	return 0
}
func (t *AssertFailure) Successors() []*Block { return nil }
func (t *AssertFailure) mapOperands(f func(*Value) *Value) {
	mapAll(t.Args, f)
	mapAll(t.Data, f)
}
