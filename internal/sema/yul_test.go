package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/errors"
	"polyc/internal/ns"
)

func assemblyOf(t *testing.T, f *ns.Function, i int) *ns.YulBlock {
	t.Helper()
	require.Greater(t, len(f.Body), i)
	asm, ok := f.Body[i].(*ns.Assembly)
	require.True(t, ok, "statement %d is %T", i, f.Body[i])
	return asm.Body
}

func TestAssemblyResolves(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 counter;
    uint256 constant STEP = 2;
    function bump(uint256 by) public returns (uint256 result) {
        assembly {
            function double(v) -> r { r := mul(v, STEP) }
            let cur := sload(counter.slot)
            switch by
            case 0 { cur := add(cur, 1) }
            case 0x01 { cur := add(cur, double(1)) }
            default { cur := add(cur, by) }
            for { let i := 0 } lt(i, 2) { i := add(i, 1) } {
                if eq(i, 1) { break }
            }
            sstore(counter.slot, cur)
            result := cur
        }
    }
}
`)
	requireClean(t, n)
	bump := function(t, n, "C.bump")
	assert.True(t, bump.ReadsState)
	assert.True(t, bump.WritesState, "sstore inside assembly is attributed to the enclosing function")

	block := assemblyOf(t, bump, 0)
	require.Len(t, block.Functions, 1)
	double := block.Functions[0]
	assert.Equal(t, "bump.asm.double", double.Name)
	assert.Equal(t, ns.Uint(256), double.Params[0].Type)
	assert.Same(t, double, function(t, n, "C.bump.asm.double"))

	let := block.Stmts[0].(*ns.YulLet)
	load := let.Value.(*ns.YulBuiltin)
	assert.Equal(t, "sload", load.Name)
	slot := load.Args[0].(*ns.YulSlot)
	assert.Equal(t, "counter", slot.Var.Name)

	sw := block.Stmts[1].(*ns.YulSwitch)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, uint64(1), sw.Cases[1].Value.Uint64())
	assert.NotNil(t, sw.Default)

	body := double.Asm.Body.Stmts[0].(*ns.YulAssign)
	step := body.Value.(*ns.YulBuiltin).Args[1].(*ns.YulNumber)
	assert.Equal(t, uint64(2), step.Value.Uint64(), "constants are inlined as numbers")
}

func TestAssemblyFunctionNamesAreNumbered(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f() public pure returns (uint256 x) {
        assembly { function g() -> r { r := 1 } x := g() }
        assembly { function g() -> r { r := 2 } x := add(x, g()) }
    }
}
`)
	requireClean(t, n)
	f := function(t, n, "C.f")
	assert.Equal(t, "f.asm.g", assemblyOf(t, f, 0).Functions[0].Name)
	assert.Equal(t, "f.asm.g.1", assemblyOf(t, f, 1).Functions[0].Name)
}

func TestAssemblyErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"count mismatch", "let a, b := add(1, 2)", "variable count mismatch: 2 variables declared, expression produces 1 value"},
		{"unused result", "add(1, 2)", "top level expression returns 1 value, use 'pop()' to discard them"},
		{"void value", "if mstore(0, 1) { }", "expression must produce one value, produces 0"},
		{"void let", "let a := mstore(0, 1)", "variable count mismatch: 1 variable declared, expression produces 0 values"},
		{"break outside loop", "break", "'break' outside of a for loop"},
		{"leave outside function", "leave", "'leave' outside of an assembly function"},
		{"builtin arity", "let a := add(1)", "builtin 'add' expects 2 arguments, 1 provided"},
		{"unknown function", "let a := frobnicate()", "function 'frobnicate' is not found"},
		{"state without slot", "let a := total", "state variable 'total' must be accessed with 'total.slot'"},
		{"assign state", "total := 1", "state variable 'total' cannot be assigned in assembly, use 'sstore(total.slot, ...)'"},
		{"slot on local", "let a := 1 let b := a.slot", "suffix '.slot' is not valid for variable 'a'"},
		{"builtin as name", "function add(a) -> r { r := a }", "cannot use builtin function name 'add' as identifier"},
		{"oversized literal", "let a := 0x1000000000000000000000000000000000000000000000000000000000000000000", "number literal '0x1000000000000000000000000000000000000000000000000000000000000000000' does not fit in a word"},
		{"function arity", "function g(a) -> r { r := a } let x := g(1, 2)", "function 'g' expects 1 argument, 2 provided"},
		{"outer variable in function", "let outer := 1 function g() -> r { r := outer }", "'outer' is not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, `
contract C {
    uint256 total;
    function f() public {
        assembly { `+tt.body+` }
    }
}
`)
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestDuplicateSwitchCase(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint256 v) public pure {
        assembly {
            switch v
            case 1 { }
            case 0x01 { }
        }
    }
}
`)
	errs := n.Diagnostics.WithCode(errors.ErrorAssembly)
	require.Len(t, errs, 1)
	assert.Equal(t, "duplicate case value 1", errs[0].Message)
	assert.Equal(t, []string{"previous case here"}, noteMessages(errs[0]))
}

func TestAssemblyTargetHooks(t *testing.T) {
	src := `
contract C {
    function f() public view returns (uint256 who) {
        assembly { who := caller() }
    }
}
`
	requireClean(t, resolveOn(t, "evm", src))

	n := resolveOn(t, "solana", src)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, errors.ErrorUnsupportedBuiltin, errs[0].Code)
	assert.Equal(t, "builtin 'caller' is not available on target 'solana'", errs[0].Message)
}

func TestAssemblyWordWidthFollowsTarget(t *testing.T) {
	src := `
contract C {
    function f() public pure returns (uint256 x) {
        assembly { x := 0x10000000000000000 }
    }
}
`
	requireClean(t, resolveOn(t, "evm", src))
	errs := resolveOn(t, "solana", src).Diagnostics.Errors()
	assert.Contains(t, messages(errs), "number literal '0x10000000000000000' does not fit in a word")
}
