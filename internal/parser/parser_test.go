package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/ast"
)

func parse(t *testing.T, src string) *ast.SourceUnit {
	t.Helper()
	unit, errs := ParseSource("test.sol", src)
	require.Empty(t, errs, "unexpected parse errors")
	return unit
}

// body parses stmts as the body of C.f and returns its statements
func body(t *testing.T, stmts string) []ast.Stmt {
	t.Helper()
	unit := parse(t, "contract C { function f() public { "+stmts+" } }")
	require.Len(t, unit.Items, 1)
	contract := unit.Items[0].(*ast.ContractDecl)
	require.Len(t, contract.Parts, 1)
	return contract.Parts[0].(*ast.FunctionDecl).Body.Stmts
}

// render prints an expression fully parenthesized
func render(x ast.Expr) string {
	switch e := x.(type) {
	case *ast.IdentExpr:
		return e.Name
	case *ast.NumberLit:
		return e.Value
	case *ast.BoolLit:
		return fmt.Sprint(e.Value)
	case *ast.BinaryExpr:
		return "(" + render(e.X) + " " + e.Op + " " + render(e.Y) + ")"
	case *ast.UnaryExpr:
		if e.Postfix {
			return "(" + render(e.X) + e.Op + ")"
		}
		return "(" + e.Op + render(e.X) + ")"
	case *ast.TernaryExpr:
		return "(" + render(e.Cond) + " ? " + render(e.Then) + " : " + render(e.Else) + ")"
	case *ast.AssignExpr:
		return render(e.LHS) + " " + e.Op + " " + render(e.RHS)
	case *ast.MemberExpr:
		return render(e.X) + "." + e.Member.Name
	case *ast.IndexExpr:
		return render(e.X) + "[" + render(e.Index) + "]"
	case *ast.CallExpr:
		var args []string
		for _, a := range e.Args {
			args = append(args, render(a))
		}
		return render(e.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *ast.ArrayLit:
		var elems []string
		for _, el := range e.Elems {
			elems = append(elems, render(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *ast.TypeNameExpr:
		if et, ok := e.Type.(*ast.ElementaryType); ok {
			return et.Name
		}
		return fmt.Sprintf("<%T>", e.Type)
	default:
		return fmt.Sprintf("<%T>", x)
	}
}

func TestParseSourceItems(t *testing.T) {
	unit := parse(t, `
pragma solidity ^0.8.0;
import "lib/token.sol";
uint256 constant MAX = 1_000;
abstract contract C is A, B {}
library L {}
`)
	require.Len(t, unit.Items, 4, "pragma produces no item")

	imp := unit.Items[0].(*ast.Import)
	assert.Equal(t, "lib/token.sol", imp.Path)

	max := unit.Items[1].(*ast.VarDecl)
	assert.True(t, max.Constant)
	assert.Equal(t, "MAX", max.Name.Name)
	assert.Equal(t, "1000", max.Init.(*ast.NumberLit).Value)

	c := unit.Items[2].(*ast.ContractDecl)
	assert.Equal(t, ast.KindAbstract, c.Kind)
	assert.Equal(t, "C", c.Name.Name)
	require.Len(t, c.Bases, 2)
	assert.Equal(t, "A", c.Bases[0].Name)
	assert.Equal(t, "B", c.Bases[1].Name)

	assert.Equal(t, ast.KindLibrary, unit.Items[3].(*ast.ContractDecl).Kind)
}

func TestParseFunctionHeader(t *testing.T) {
	unit := parse(t, `
contract C {
    function f(uint256 a, address b) public view virtual override(A, B) returns (uint256) {
        return a;
    }
    function g() external;
    constructor() payable {}
}
`)
	parts := unit.Items[0].(*ast.ContractDecl).Parts
	require.Len(t, parts, 3)

	f := parts[0].(*ast.FunctionDecl)
	assert.Equal(t, ast.FuncRegular, f.Kind)
	assert.Equal(t, "f", f.Name.Name)
	require.Len(t, f.Params, 2)
	assert.Equal(t, "b", f.Params[1].Name.Name)
	require.Len(t, f.Returns, 1)
	assert.Nil(t, f.Returns[0].Name)
	assert.Equal(t, ast.VisPublic, f.Visibility)
	assert.Equal(t, ast.MutView, f.Mutability)
	assert.True(t, f.Virtual)
	require.NotNil(t, f.Override)
	assert.Len(t, f.Override.Bases, 2)
	require.NotNil(t, f.Body)
	assert.IsType(t, &ast.ReturnStmt{}, f.Body.Stmts[0])

	g := parts[1].(*ast.FunctionDecl)
	assert.Equal(t, ast.VisExternal, g.Visibility)
	assert.Nil(t, g.Body)

	ctor := parts[2].(*ast.FunctionDecl)
	assert.Equal(t, ast.FuncConstructor, ctor.Kind)
	assert.Equal(t, ast.MutPayable, ctor.Mutability)
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a ** b ** c", "(a ** (b ** c))"},
		{"a || b && c", "(a || (b && c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a << 1 + 2", "(a << (1 + 2))"},
		{"a & b | c ^ d", "((a & b) | (c ^ d))"},
		{"-a * b", "((-a) * b)"},
		{"!ok && x", "((!ok) && x)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"c ? a : b + 1", "(c ? a : (b + 1))"},
		{"s.items[i](d)", "s.items[i](d)"},
		{"i++ + 1", "((i++) + 1)"},
		{"[uint8(1), b + 1][i]", "[uint8(1), (b + 1)][i]"},
		{"type(uint8).max - 1", "(type(uint8).max - 1)"},
		{"type(E).min", "type(E).min"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := body(t, "x = "+tt.src+";")
			require.Len(t, stmts, 1)
			assign := stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr)
			assert.Equal(t, "=", assign.Op)
			assert.Equal(t, tt.want, render(assign.RHS))
		})
	}
}

func TestParseCompoundAssignmentIsRightAssociative(t *testing.T) {
	stmts := body(t, "a = b += 1;")
	assign := stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr)
	assert.Equal(t, "a = b += 1", render(assign))
	assert.Equal(t, "+=", assign.RHS.(*ast.AssignExpr).Op)
}

func TestParseNamedArguments(t *testing.T) {
	stmts := body(t, "p = Point({x: 1, y: 2});")
	call := stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr).RHS.(*ast.CallExpr)
	assert.True(t, call.IsNamed)
	assert.Empty(t, call.Args)
	require.Len(t, call.Named, 2)
	assert.Equal(t, "x", call.Named[0].Name.Name)
	assert.Equal(t, "2", call.Named[1].Value.(*ast.NumberLit).Value)
}

func TestParseDeclarations(t *testing.T) {
	stmts := body(t, `
        uint256 a = 1;
        bytes memory data;
        (uint256 b, , bool c) = g();
        (a, b) = (b, a);
    `)
	require.Len(t, stmts, 4)

	a := stmts[0].(*ast.VarDeclStmt)
	assert.False(t, a.Tuple)
	assert.Equal(t, "a", a.Vars[0].Name.Name)
	assert.Equal(t, "uint256", a.Vars[0].Type.(*ast.ElementaryType).Name)

	data := stmts[1].(*ast.VarDeclStmt)
	assert.Equal(t, ast.LocMemory, data.Vars[0].Storage)
	assert.Nil(t, data.Init)

	tuple := stmts[2].(*ast.VarDeclStmt)
	assert.True(t, tuple.Tuple)
	require.Len(t, tuple.Vars, 3)
	assert.Equal(t, "b", tuple.Vars[0].Name.Name)
	assert.Nil(t, tuple.Vars[1])
	assert.Equal(t, "c", tuple.Vars[2].Name.Name)
	assert.IsType(t, &ast.CallExpr{}, tuple.Init)

	swap := stmts[3].(*ast.ExprStmt).X.(*ast.AssignExpr)
	assert.Len(t, swap.LHS.(*ast.TupleExpr).Elems, 2)
	assert.Len(t, swap.RHS.(*ast.TupleExpr).Elems, 2)
}

func TestParseControlFlow(t *testing.T) {
	stmts := body(t, `
        for (uint256 i = 0; i < n; i++) { if (i == 2) continue; else break; }
        while (x > 0) x--;
        do { x++; } while (x < 10);
        unchecked { x = x - 1; }
    `)
	require.Len(t, stmts, 4)

	loop := stmts[0].(*ast.ForStmt)
	assert.IsType(t, &ast.VarDeclStmt{}, loop.Init)
	assert.Equal(t, "(i < n)", render(loop.Cond))
	assert.Equal(t, "(i++)", render(loop.Post))
	ifStmt := loop.Body.(*ast.BlockStmt).Stmts[0].(*ast.IfStmt)
	assert.IsType(t, &ast.ContinueStmt{}, ifStmt.Then)
	assert.IsType(t, &ast.BreakStmt{}, ifStmt.Else)

	assert.IsType(t, &ast.WhileStmt{}, stmts[1])
	assert.IsType(t, &ast.DoWhileStmt{}, stmts[2])
	assert.True(t, stmts[3].(*ast.BlockStmt).Unchecked)
}

func TestParseLiterals(t *testing.T) {
	stmts := body(t, `s = "ab" "cd"; h = hex"00ff"; n = 0x1_0;`)
	lit := func(i int) ast.Expr { return stmts[i].(*ast.ExprStmt).X.(*ast.AssignExpr).RHS }
	assert.Equal(t, "abcd", lit(0).(*ast.StringLit).Value)
	assert.Equal(t, []byte{0x00, 0xff}, lit(1).(*ast.HexLit).Value)
	assert.Equal(t, "0x10", lit(2).(*ast.NumberLit).Value)
}

func TestParseOddHexLiteral(t *testing.T) {
	_, errs := ParseSource("test.sol", `contract C { function f() public { h = hex"abc"; } }`)
	require.Len(t, errs, 1)
	assert.Equal(t, "hex string literal must have an even number of digits", errs[0].Message)
}

func TestParseAssembly(t *testing.T) {
	stmts := body(t, `
        assembly {
            let v := add(x, 1)
            switch v
            case 0 { v := 1 }
            default { }
            function double(a) -> r { r := mul(a, 2) }
        }
    `)
	require.Len(t, stmts, 1)
	block := stmts[0].(*ast.AssemblyStmt).Block
	require.Len(t, block.Stmts, 3)

	let := block.Stmts[0].(*ast.YulLet)
	require.Len(t, let.Names, 1)
	call := let.Value.(*ast.YulCall)
	assert.Equal(t, "add", call.Name.Name)
	assert.Len(t, call.Args, 2)

	sw := block.Stmts[1].(*ast.YulSwitch)
	require.Len(t, sw.Cases, 2)
	require.NotNil(t, sw.Cases[0].Value)
	assert.Equal(t, "0", sw.Cases[0].Value.Value)
	assert.Nil(t, sw.Cases[1].Value, "default has no value")

	fn := block.Stmts[2].(*ast.YulFunction)
	assert.Len(t, fn.Params, 1)
	assert.Len(t, fn.Returns, 1)
}

func TestParseErrorPosition(t *testing.T) {
	src := "contract C {\n    function f() public {\n        x = ;\n        y = 1;\n    }\n    uint256 z;\n}\n"
	unit, errs := ParseSource("test.sol", src)
	require.Len(t, errs, 1)
	assert.Equal(t, "expected expression, found ';'", errs[0].Message)
	assert.Equal(t, 3, errs[0].Position.Line)
	assert.Equal(t, 13, errs[0].Position.Column)
	assert.Equal(t, "test.sol:3:13: expected expression, found ';'", errs[0].Error())

	parts := unit.Items[0].(*ast.ContractDecl).Parts
	require.Len(t, parts, 2, "parsing continues after the error")
	stmts := parts[0].(*ast.FunctionDecl).Body.Stmts
	require.Len(t, stmts, 2)
	assert.IsType(t, &ast.BadExpr{}, stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr).RHS)
	assert.Equal(t, "z", parts[1].(*ast.VarDecl).Name.Name)
}

func TestParseRecoversAtStatementBoundary(t *testing.T) {
	unit, errs := ParseSource("test.sol", `
contract C {
    function f() public {
        ) ;
        y = 1;
    }
}
`)
	require.NotEmpty(t, errs)
	stmts := unit.Items[0].(*ast.ContractDecl).Parts[0].(*ast.FunctionDecl).Body.Stmts
	require.Len(t, stmts, 2)
	assert.IsType(t, &ast.BadStmt{}, stmts[0])
	assert.Equal(t, "y = 1", render(stmts[1].(*ast.ExprStmt).X))
}

func TestParseEmptyArrayLiteral(t *testing.T) {
	_, errs := ParseSource("test.sol", "contract C { function f() public { x = []; } }")
	require.Len(t, errs, 1)
	assert.Equal(t, "array literal needs at least one element, found ']'", errs[0].Message)
}

func TestParseUnexpectedEOF(t *testing.T) {
	unit, errs := ParseSource("test.sol", "contract C {")
	require.NotEmpty(t, errs)
	assert.Equal(t, "expected '}' to close contract, found 'end of file'", errs[len(errs)-1].Message)
	require.Len(t, unit.Items, 1)
}

func TestParseFileLevelVariableMustBeConstant(t *testing.T) {
	_, errs := ParseSource("test.sol", "uint256 x = 1;")
	require.Len(t, errs, 1)
	assert.Equal(t, "only constants may be declared at file level", errs[0].Message)
}
