package ns

import (
	"github.com/holiman/uint256"

	"polyc/internal/ast"
)

// YulStmt is a resolved inline assembly statement
type YulStmt interface {
	Span() ast.Span
	isYulStmt()
}

// YulExpr is a resolved inline assembly expression. Every value is one
// untyped machine word; Returns is the number of words produced.
type YulExpr interface {
	Span() ast.Span
	Returns() int
	isYulExpr()
}

type YulBase struct {
	Loc ast.Span
}

func (y *YulBase) Span() ast.Span { return y.Loc }
func (*YulBase) isYulStmt()       {}
func (*YulBase) isYulExpr()       {}

type YulBlock struct {
	YulBase
	Stmts []YulStmt
	// Functions declared in this block, hoisted
	Functions []*Function
}

type YulLet struct {
	YulBase
	Vars  []*Variable
	Value YulExpr
}

// YulAssign writes assembly locals or source variables
type YulAssign struct {
	YulBase
	Targets []*Variable
	Value   YulExpr
}

type YulExprStmt struct {
	YulBase
	X YulExpr
}

type YulIf struct {
	YulBase
	Cond YulExpr
	Body *YulBlock
}

type YulCase struct {
	Value *uint256.Int
	Loc   ast.Span
	Body  *YulBlock
}

type YulSwitch struct {
	YulBase
	Cond    YulExpr
	Cases   []*YulCase
	Default *YulBlock
}

type YulFor struct {
	YulBase
	Init *YulBlock
	Cond YulExpr
	Post *YulBlock
	Body *YulBlock
}

type YulBreak struct{ YulBase }
type YulContinue struct{ YulBase }
type YulLeave struct{ YulBase }

// YulFunction is the resolved body of a function declared in assembly
type YulFunction struct {
	Params  []*Variable
	Returns []*Variable
	Body    *YulBlock
}

type YulNumber struct {
	YulBase
	Value *uint256.Int
}

// YulVarRef reads an assembly local or a source variable
type YulVarRef struct {
	YulBase
	Var *Variable
}

// YulSlot is the storage slot of a state variable, "x.slot"
type YulSlot struct {
	YulBase
	Var *Variable
}

// YulBuiltin is an assembly builtin; Hook marks target-provided builtins
type YulBuiltin struct {
	YulBase
	Name string
	Args []YulExpr
	Rets int
	Hook bool
}

// YulCall calls a function declared in assembly
type YulCall struct {
	YulBase
	Fn   *Function
	Args []YulExpr
}

// YulError stands in for an assembly expression that failed to resolve
type YulError struct {
	YulBase
}

func (*YulNumber) Returns() int    { return 1 }
func (*YulVarRef) Returns() int    { return 1 }
func (*YulSlot) Returns() int      { return 1 }
func (b *YulBuiltin) Returns() int { return b.Rets }
func (c *YulCall) Returns() int    { return len(c.Fn.Returns) }
func (*YulError) Returns() int     { return 1 }
