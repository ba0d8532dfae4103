package ast

// YulBlock is a braced list of assembly statements
type YulBlock struct {
	Pos    Position
	EndPos Position
	Stmts  []YulStmt
}

// YulLet declares assembly variables
// Example: "let x, y := f()"
type YulLet struct {
	Pos    Position
	EndPos Position
	Names  []*Ident
	Value  YulExpr
}

// YulAssign assigns one or more assembly or source variables
// Example: "x := add(x, 1)"
type YulAssign struct {
	Pos    Position
	EndPos Position
	Names  []*YulIdent
	Value  YulExpr
}

type YulExprStmt struct {
	Pos    Position
	EndPos Position
	Call   *YulCall
}

type YulIf struct {
	Pos    Position
	EndPos Position
	Cond   YulExpr
	Body   *YulBlock
}

// YulCase is one switch arm; Value is nil for default
type YulCase struct {
	Pos    Position
	EndPos Position
	Value  *YulLiteral
	Body   *YulBlock
}

type YulSwitch struct {
	Pos    Position
	EndPos Position
	Cond   YulExpr
	Cases  []*YulCase
}

type YulFor struct {
	Pos    Position
	EndPos Position
	Init   *YulBlock
	Cond   YulExpr
	Post   *YulBlock
	Body   *YulBlock
}

type YulBreak struct {
	Pos    Position
	EndPos Position
}

type YulContinue struct {
	Pos    Position
	EndPos Position
}

type YulLeave struct {
	Pos    Position
	EndPos Position
}

// YulFunction is a function defined inside an assembly block
// Example: "function double(a) -> r { r := mul(a, 2) }"
type YulFunction struct {
	Pos     Position
	EndPos  Position
	Name    *Ident
	Params  []*Ident
	Returns []*Ident
	Body    *YulBlock
}

// YulLiteralKind is the lexical kind of an assembly literal
type YulLiteralKind int

const (
	YulNumber YulLiteralKind = iota
	YulString
	YulBool
	YulHex
)

type YulLiteral struct {
	Pos    Position
	EndPos Position
	Kind   YulLiteralKind
	Value  string
}

// YulIdent is a name, optionally with a suffix such as ".slot"
type YulIdent struct {
	Pos    Position
	EndPos Position
	Name   string
	Suffix string
}

type YulCall struct {
	Pos    Position
	EndPos Position
	Name   *Ident
	Args   []YulExpr
}

type BadYul struct {
	Pos     Position
	EndPos  Position
	Message string
}
