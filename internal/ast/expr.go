package ast

// ElementaryType is a builtin type name
// Example: "uint256", "int8", "bytes32", "address payable", "string"
type ElementaryType struct {
	Pos     Position
	EndPos  Position
	Name    string
	Payable bool
}

// UserType is a (possibly qualified) reference to a declared type
// Example: "Point", "Token.State"
type UserType struct {
	Pos    Position
	EndPos Position
	Path   []*Ident
}

// ArrayType is a fixed or dynamic array type; Len is nil for dynamic arrays
// Example: "uint256[]", "bool[4]"
type ArrayType struct {
	Pos    Position
	EndPos Position
	Elem   TypeExpr
	Len    Expr
}

// MappingType represents a mapping
// Example: "mapping(address => uint256)"
type MappingType struct {
	Pos    Position
	EndPos Position
	Key    TypeExpr
	Value  TypeExpr
}

// FunctionType is a function pointer type
// Example: "function (uint256) internal pure returns (bool)"
type FunctionType struct {
	Pos        Position
	EndPos     Position
	Params     []*Param
	Returns    []*Param
	Visibility Visibility
	Mutability Mutability
}

// NumberLit is a decimal or hexadecimal number literal with underscores removed
// Example: "1_000", "0xff", "1e18"
type NumberLit struct {
	Pos    Position
	EndPos Position
	Value  string
}

// BoolLit represents true or false
type BoolLit struct {
	Pos    Position
	EndPos Position
	Value  bool
}

// StringLit is a string literal with escapes decoded
type StringLit struct {
	Pos    Position
	EndPos Position
	Value  string
}

// HexLit is a hex string literal
// Example: hex"deadbeef"
type HexLit struct {
	Pos    Position
	EndPos Position
	Value  []byte
}

// IdentExpr is a bare name in expression position
type IdentExpr struct {
	Pos    Position
	EndPos Position
	Name   string
}

// MemberExpr is a member access
// Example: "msg.sender", "p.x", "arr.length"
type MemberExpr struct {
	Pos    Position
	EndPos Position
	X      Expr
	Member *Ident
}

// IndexExpr is a subscript; Index is nil in type position ("T[]")
type IndexExpr struct {
	Pos    Position
	EndPos Position
	X      Expr
	Index  Expr
}

// NamedArg is one "name: value" pair of a named-argument call
type NamedArg struct {
	Pos    Position
	EndPos Position
	Name   *Ident
	Value  Expr
}

// CallExpr is a function call, struct construction or type conversion
// Example: "f(1, 2)", "Point({x: 1, y: 2})", "uint8(x)"
type CallExpr struct {
	Pos     Position
	EndPos  Position
	Fun     Expr
	Args    []Expr
	Named   []*NamedArg
	IsNamed bool
}

// UnaryExpr is a prefix or postfix operator
// Example: "-x", "!ok", "++i", "i--"
type UnaryExpr struct {
	Pos     Position
	EndPos  Position
	Op      string
	X       Expr
	Postfix bool
}

// BinaryExpr is a binary operator application
type BinaryExpr struct {
	Pos    Position
	EndPos Position
	Op     string
	X      Expr
	Y      Expr
}

// AssignExpr is a plain or compound assignment
// Example: "x = 1", "total += amount"
type AssignExpr struct {
	Pos    Position
	EndPos Position
	Op     string
	LHS    Expr
	RHS    Expr
}

// TernaryExpr is "cond ? a : b"
type TernaryExpr struct {
	Pos    Position
	EndPos Position
	Cond   Expr
	Then   Expr
	Else   Expr
}

// TupleExpr is a parenthesized list; nil elements are omitted components
// Example: "(a, b)", "(, x)"
type TupleExpr struct {
	Pos    Position
	EndPos Position
	Elems  []Expr
}

// ArrayLit is an inline array of at least one element
// Example: "[uint8(1), 2, 3]"
type ArrayLit struct {
	Pos    Position
	EndPos Position
	Elems  []Expr
}

// TypeNameExpr is a type used in expression position, such as a conversion callee
// Example: "uint8" in "uint8(x)", "address" in "address(this)"
type TypeNameExpr struct {
	Pos    Position
	EndPos Position
	Type   TypeExpr
}

// BadExpr represents an expression that failed to parse
type BadExpr struct {
	Pos     Position
	EndPos  Position
	Message string
}
