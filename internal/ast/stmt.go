package ast

// BlockStmt is a braced statement list, optionally marked unchecked
type BlockStmt struct {
	Pos       Position
	EndPos    Position
	Stmts     []Stmt
	Unchecked bool
}

// LocalVar is one declared variable of a declaration statement
type LocalVar struct {
	Pos     Position
	EndPos  Position
	Type    TypeExpr
	Storage StorageLocation
	Name    *Ident
}

// VarDeclStmt declares one or more locals; nil entries in Vars are skipped tuple components
// Example: "uint256 x = 1;", "(uint a, , bool b) = f();"
type VarDeclStmt struct {
	Pos    Position
	EndPos Position
	Vars   []*LocalVar
	Tuple  bool
	Init   Expr
}

// ExprStmt is an expression evaluated for its side effects
type ExprStmt struct {
	Pos    Position
	EndPos Position
	X      Expr
}

// IfStmt represents if/else
type IfStmt struct {
	Pos    Position
	EndPos Position
	Cond   Expr
	Then   Stmt
	Else   Stmt
}

// ForStmt represents "for (init; cond; post) body"; every header part is optional
type ForStmt struct {
	Pos    Position
	EndPos Position
	Init   Stmt
	Cond   Expr
	Post   Expr
	Body   Stmt
}

// WhileStmt represents "while (cond) body"
type WhileStmt struct {
	Pos    Position
	EndPos Position
	Cond   Expr
	Body   Stmt
}

// DoWhileStmt represents "do body while (cond);"
type DoWhileStmt struct {
	Pos    Position
	EndPos Position
	Body   Stmt
	Cond   Expr
}

type BreakStmt struct {
	Pos    Position
	EndPos Position
}

type ContinueStmt struct {
	Pos    Position
	EndPos Position
}

// ReturnStmt returns zero, one or a tuple of values
type ReturnStmt struct {
	Pos    Position
	EndPos Position
	Value  Expr
}

// EmitStmt emits an event
// Example: "emit Transfer(from, to, amount);"
type EmitStmt struct {
	Pos    Position
	EndPos Position
	Call   *CallExpr
}

// RevertStmt reverts with a user-defined error
// Example: "revert Insufficient(1, 2);"
type RevertStmt struct {
	Pos    Position
	EndPos Position
	Call   *CallExpr
}

// AssemblyStmt holds an inline assembly block
type AssemblyStmt struct {
	Pos    Position
	EndPos Position
	Block  *YulBlock
}

// BadStmt represents a statement that failed to parse
type BadStmt struct {
	Pos     Position
	EndPos  Position
	Message string
}
