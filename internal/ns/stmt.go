package ns

import "polyc/internal/ast"

// Stmt is a resolved statement
type Stmt interface {
	Span() ast.Span
	isStmt()
}

// StmtBase carries the span of a statement
type StmtBase struct {
	Loc ast.Span
}

func (s *StmtBase) Span() ast.Span { return s.Loc }
func (*StmtBase) isStmt()          {}

type Block struct {
	StmtBase
	Stmts []Stmt
}

// VarDecl declares a local; a nil Init means the zero value
type VarDecl struct {
	StmtBase
	Var  *Variable
	Init Expr
}

// TupleDecl declares several locals from one multi-value expression; nil entries are skipped
type TupleDecl struct {
	StmtBase
	Vars []*Variable
	Init Expr
}

// Destructure assigns a multi-value expression to several locations
type Destructure struct {
	StmtBase
	Targets []Expr
	Value   Expr
}

type ExprStmt struct {
	StmtBase
	X Expr
}

type If struct {
	StmtBase
	Cond Expr
	Then Stmt
	Else Stmt
}

// For covers for, while and do-while loops. While loops have no Init or
// Next; do-while runs the body before the first condition check.
type For struct {
	StmtBase
	Init    Stmt
	Cond    Expr
	Next    Expr
	Body    Stmt
	DoWhile bool
}

type Break struct {
	StmtBase
}

type Continue struct {
	StmtBase
}

type Return struct {
	StmtBase
	Values []Expr
}

// Require reverts when Cond is false, with an optional reason string
type Require struct {
	StmtBase
	Cond   Expr
	Reason Expr
}

// Assert raises a panic when Cond is false
type Assert struct {
	StmtBase
	Cond Expr
}

// Revert aborts with a user error, a reason string, or no data
type Revert struct {
	StmtBase
	Error  *UserError
	Args   []Expr
	Reason Expr
}

type Emit struct {
	StmtBase
	Event *Event
	Args  []Expr
}

// Assembly is an inline assembly block
type Assembly struct {
	StmtBase
	Body *YulBlock
}

// Invalid replaces a statement that could not be resolved
type Invalid struct {
	StmtBase
}
