package ns

import (
	"github.com/holiman/uint256"

	"polyc/internal/ast"
)

// Expr is a resolved, typed expression
type Expr interface {
	Span() ast.Span
	Type() Type
	isExpr()
}

// Base carries the span and type shared by every expression
type Base struct {
	Loc ast.Span
	Ty  Type
}

func (b *Base) Span() ast.Span { return b.Loc }
func (b *Base) Type() Type     { return b.Ty }
func (*Base) isExpr()          {}

// BinOp is an arithmetic or bitwise operator
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpShl
	OpShr
	OpAnd
	OpOr
	OpXor
)

var binOpNames = [...]string{"add", "sub", "mul", "div", "mod", "pow", "shl", "shr", "and", "or", "xor"}

func (op BinOp) String() string { return binOpNames[op] }

// Checkable reports whether overflow checking applies to op
func (op BinOp) Checkable() bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpExp
}

// CmpOp is a comparison operator
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}

func (op CmpOp) String() string { return cmpOpNames[op] }

// NumberLit is an integer constant stored as 256-bit two's complement.
// Literal is set while the constant still comes straight from source and may
// convert to any integer type its value fits.
type NumberLit struct {
	Base
	Value   *uint256.Int
	Literal bool
}

type BoolLit struct {
	Base
	Value bool
}

// BytesLit is a string, hex or fixed-bytes literal
type BytesLit struct {
	Base
	Value []byte
}

// VarRef reads a local, parameter or return variable
type VarRef struct {
	Base
	Var *Variable
}

// StorageRef denotes a state variable location
type StorageRef struct {
	Base
	Var *Variable
}

// StorageSubscript addresses an element of a storage mapping or array
type StorageSubscript struct {
	Base
	Array Expr
	Index Expr
}

// StorageField addresses a field of a storage struct
type StorageField struct {
	Base
	Struct Expr
	Def    *Struct
	Field  int
}

// FieldAccess reads a field of a memory struct
type FieldAccess struct {
	Base
	Struct Expr
	Def    *Struct
	Field  int
}

// Subscript reads an element of a memory array or bytes value
type Subscript struct {
	Base
	Array Expr
	Index Expr
}

// ArrayLength is the length of an array or bytes value
type ArrayLength struct {
	Base
	Array Expr
}

// Binary is an arithmetic or bitwise operation on promoted operands
type Binary struct {
	Base
	Op      BinOp
	Left    Expr
	Right   Expr
	Checked bool
}

// Compare compares two operands of the same type
type Compare struct {
	Base
	Op    CmpOp
	Left  Expr
	Right Expr
}

// Logical is a short-circuit && or ||
type Logical struct {
	Base
	And   bool
	Left  Expr
	Right Expr
}

// Unary is !x, ~x or -x
type Unary struct {
	Base
	Op      string
	X       Expr
	Checked bool
}

// Cast converts X to the expression type; the lowering decides extend or truncate
type Cast struct {
	Base
	X Expr
}

type Ternary struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

// Assign stores Value into Target; Op is set for compound assignment
type Assign struct {
	Base
	Target   Expr
	Value    Expr
	Compound bool
	Op       BinOp
	Checked  bool
}

// IncDec is ++ or -- on an assignable location
type IncDec struct {
	Base
	Target  Expr
	Inc     bool
	Post    bool
	Checked bool
}

// Delete resets a location to its zero value
type Delete struct {
	Base
	Target Expr
}

// Call is an internal call to a resolved function
type Call struct {
	Base
	Fn   *Function
	Args []Expr
}

// ExternalCall calls a function on another contract instance
type ExternalCall struct {
	Base
	Address Expr
	Fn      *Function
	Args    []Expr
}

// PointerCall calls through a function pointer
type PointerCall struct {
	Base
	Pointer Expr
	Args    []Expr
}

// BuiltinCall is a language builtin; Hook marks builtins lowered by the target
type BuiltinCall struct {
	Base
	Name string
	Args []Expr
	Hook bool
}

// StructLit constructs a memory struct; Fields follow declaration order
type StructLit struct {
	Base
	Def    *Struct
	Fields []Expr
}

// ArrayLit builds a fixed-size memory array; Elems are converted to the
// element type
type ArrayLit struct {
	Base
	Elems []Expr
}

type EnumValue struct {
	Base
	Def   *Enum
	Index int
}

// FunctionRef is a function used as a value
type FunctionRef struct {
	Base
	Fn *Function
}

// TupleLit groups the values of a parenthesized list or multi-value return
type TupleLit struct {
	Base
	Elems []Expr
}

// ErrorExpr stands in for an expression that failed to resolve
type ErrorExpr struct {
	Base
}

// NewError returns a placeholder expression covering span
func NewError(span ast.Span) *ErrorExpr {
	return &ErrorExpr{Base: Base{Loc: span, Ty: Unresolved}}
}

// IsStorage reports whether e denotes a storage location rather than a value
func IsStorage(e Expr) bool {
	switch x := e.(type) {
	case *StorageRef, *StorageSubscript, *StorageField:
		return true
	case *VarRef:
		return IsStoragePointer(x.Var)
	}
	return false
}

// IsStoragePointer reports whether v is a local that refers into storage
func IsStoragePointer(v *Variable) bool {
	return v.Kind != VarState && v.Storage == ast.LocStorage && IsReferenceType(v.Type)
}

// ConstValue returns the folded value of a literal expression
func ConstValue(e Expr) (*uint256.Int, bool) {
	switch x := e.(type) {
	case *NumberLit:
		return x.Value, true
	case *BoolLit:
		if x.Value {
			return uint256.NewInt(1), true
		}
		return uint256.NewInt(0), true
	case *EnumValue:
		return uint256.NewInt(uint64(x.Index)), true
	}
	return nil, false
}
