package ns

import (
	"fmt"
	"strings"
)

// Type is the closed set of resolved types
type Type interface {
	String() string
	isType()
}

// IntType is an integer of an explicit width in bits
type IntType struct {
	Bits   int
	Signed bool
}

type BoolType struct{}

// AddressType is an account address; its width is fixed by the target
type AddressType struct {
	Bits    int
	Payable bool
}

// FixedBytesType is bytes1..bytes32
type FixedBytesType struct {
	N int
}

type BytesType struct{}

type StringType struct{}

// ArrayType is a fixed array when Len >= 0, dynamic when Len is -1
type ArrayType struct {
	Elem Type
	Len  int64
}

type MappingType struct {
	Key   Type
	Value Type
}

type StructType struct {
	Def *Struct
}

type EnumType struct {
	Def *Enum
}

type ContractType struct {
	Def *Contract
}

// FunctionType is a function pointer
type FunctionType struct {
	Params     []Type
	Returns    []Type
	External   bool
	Mutability string
}

type UserErrorType struct {
	Def *UserError
}

type EventType struct {
	Def *Event
}

type VoidType struct{}

// TupleType carries the values of a call returning more than one result
type TupleType struct {
	Elems []Type
}

// UnresolvedType marks an expression that failed to resolve. It converts to
// and from everything so one error does not cascade.
type UnresolvedType struct{}

func (IntType) isType()        {}
func (BoolType) isType()       {}
func (AddressType) isType()    {}
func (FixedBytesType) isType() {}
func (BytesType) isType()      {}
func (StringType) isType()     {}
func (ArrayType) isType()      {}
func (MappingType) isType()    {}
func (StructType) isType()     {}
func (EnumType) isType()       {}
func (ContractType) isType()   {}
func (FunctionType) isType()   {}
func (UserErrorType) isType()  {}
func (EventType) isType()      {}
func (VoidType) isType()       {}
func (TupleType) isType()      {}
func (UnresolvedType) isType() {}

var (
	Bool       Type = BoolType{}
	Void       Type = VoidType{}
	String     Type = StringType{}
	Bytes      Type = BytesType{}
	Unresolved Type = UnresolvedType{}
)

// Uint returns the unsigned integer type of the given width
func Uint(bits int) IntType { return IntType{Bits: bits} }

// Int returns the signed integer type of the given width
func Int(bits int) IntType { return IntType{Bits: bits, Signed: true} }

func (t IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bits)
	}
	return fmt.Sprintf("uint%d", t.Bits)
}

func (BoolType) String() string { return "bool" }

func (t AddressType) String() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}

func (t FixedBytesType) String() string { return fmt.Sprintf("bytes%d", t.N) }
func (BytesType) String() string        { return "bytes" }
func (StringType) String() string       { return "string" }

func (t ArrayType) String() string {
	if t.Len < 0 {
		return t.Elem.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.Elem, t.Len)
}

func (t MappingType) String() string {
	return fmt.Sprintf("mapping(%s => %s)", t.Key, t.Value)
}

func (t StructType) String() string   { return "struct " + t.Def.QualifiedName() }
func (t EnumType) String() string     { return "enum " + t.Def.QualifiedName() }
func (t ContractType) String() string { return "contract " + t.Def.Name }

func (t FunctionType) String() string {
	var b strings.Builder
	b.WriteString("function(")
	b.WriteString(typeList(t.Params))
	b.WriteString(")")
	if t.External {
		b.WriteString(" external")
	} else {
		b.WriteString(" internal")
	}
	if t.Mutability != "" {
		b.WriteString(" " + t.Mutability)
	}
	if len(t.Returns) > 0 {
		b.WriteString(" returns (" + typeList(t.Returns) + ")")
	}
	return b.String()
}

func (t UserErrorType) String() string { return "error " + t.Def.Name }
func (t EventType) String() string     { return "event " + t.Def.Name }
func (VoidType) String() string        { return "void" }
func (t TupleType) String() string     { return "(" + typeList(t.Elems) + ")" }
func (UnresolvedType) String() string  { return "<unresolved>" }

func typeList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Equal reports structural type equality
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case IntType, BoolType, FixedBytesType, BytesType, StringType, VoidType, UnresolvedType:
		return a == b
	case AddressType:
		y, ok := b.(AddressType)
		return ok && x.Bits == y.Bits && x.Payable == y.Payable
	case ArrayType:
		y, ok := b.(ArrayType)
		return ok && x.Len == y.Len && Equal(x.Elem, y.Elem)
	case MappingType:
		y, ok := b.(MappingType)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case StructType:
		y, ok := b.(StructType)
		return ok && x.Def == y.Def
	case EnumType:
		y, ok := b.(EnumType)
		return ok && x.Def == y.Def
	case ContractType:
		y, ok := b.(ContractType)
		return ok && x.Def == y.Def
	case UserErrorType:
		y, ok := b.(UserErrorType)
		return ok && x.Def == y.Def
	case EventType:
		y, ok := b.(EventType)
		return ok && x.Def == y.Def
	case FunctionType:
		y, ok := b.(FunctionType)
		return ok && x.External == y.External && x.Mutability == y.Mutability &&
			EqualList(x.Params, y.Params) && EqualList(x.Returns, y.Returns)
	case TupleType:
		y, ok := b.(TupleType)
		return ok && EqualList(x.Elems, y.Elems)
	}
	return false
}

// EqualList compares two type lists element-wise
func EqualList(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// AsInt returns the integer view of t. Enums are uint8.
func AsInt(t Type) (IntType, bool) {
	switch x := t.(type) {
	case IntType:
		return x, true
	case EnumType:
		return Uint(8), true
	}
	return IntType{}, false
}

// IsUnresolved reports whether t is the error placeholder
func IsUnresolved(t Type) bool {
	_, ok := t.(UnresolvedType)
	return ok
}

// IsValueType reports whether values of t fit in a machine word and are copied
func IsValueType(t Type) bool {
	switch t.(type) {
	case IntType, BoolType, AddressType, FixedBytesType, EnumType, ContractType, FunctionType:
		return true
	}
	return false
}

// IsReferenceType reports whether t has a data location
func IsReferenceType(t Type) bool {
	switch t.(type) {
	case ArrayType, StructType, BytesType, StringType, MappingType:
		return true
	}
	return false
}

// WordType is the untyped machine word of a target
func WordType(t Target) IntType {
	return Uint(t.WordBits())
}

// BitWidth returns the width in bits of a value type as held in a register
func BitWidth(t Type, target Target) int {
	switch x := t.(type) {
	case IntType:
		return x.Bits
	case BoolType:
		return 1
	case AddressType:
		return x.Bits
	case FixedBytesType:
		return x.N * 8
	case EnumType:
		return 8
	case ContractType:
		return target.AddressBits()
	}
	return target.WordBits()
}

// MemorySize is the number of bytes a value of t occupies in a memory struct or array
func MemorySize(t Type, target Target) int {
	switch x := t.(type) {
	case BoolType:
		return 1
	case IntType, AddressType, FixedBytesType, EnumType, ContractType:
		return (BitWidth(x, target) + 7) / 8
	case ArrayType:
		if x.Len >= 0 {
			return int(x.Len) * MemorySize(x.Elem, target)
		}
	case StructType:
		size := 0
		for _, f := range x.Def.Fields {
			size += MemorySize(f.Type, target)
		}
		return size
	}
	// pointers
	return target.WordBits() / 8
}

// StorageSlots is the number of consecutive storage slots a value of t occupies
func StorageSlots(t Type) uint64 {
	switch x := t.(type) {
	case ArrayType:
		if x.Len >= 0 {
			return uint64(x.Len) * StorageSlots(x.Elem)
		}
	case StructType:
		var n uint64
		for _, f := range x.Def.Fields {
			n += StorageSlots(f.Type)
		}
		return n
	}
	return 1
}

// FieldOffset is the byte offset of field i of a memory struct
func FieldOffset(s *Struct, i int, target Target) int {
	off := 0
	for _, f := range s.Fields[:i] {
		off += MemorySize(f.Type, target)
	}
	return off
}

// FieldSlot is the storage slot offset of field i of a storage struct
func FieldSlot(s *Struct, i int) uint64 {
	var slot uint64
	for _, f := range s.Fields[:i] {
		slot += StorageSlots(f.Type)
	}
	return slot
}

// ABIName is the canonical name of t in function and event signatures
func ABIName(t Type) string {
	switch x := t.(type) {
	case AddressType, ContractType:
		return "address"
	case EnumType:
		return "uint8"
	case ArrayType:
		if x.Len < 0 {
			return ABIName(x.Elem) + "[]"
		}
		return fmt.Sprintf("%s[%d]", ABIName(x.Elem), x.Len)
	case StructType:
		parts := make([]string, len(x.Def.Fields))
		for i, f := range x.Def.Fields {
			parts[i] = ABIName(f.Type)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case FunctionType:
		return "function"
	}
	return t.String()
}
