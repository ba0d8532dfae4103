package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/errors"
	"polyc/internal/ns"
)

func linearNames(c *ns.Contract) []string {
	names := make([]string, len(c.Linear))
	for i, x := range c.Linear {
		names[i] = x.Name
	}
	return names
}

func TestLinearization(t *testing.T) {
	n := resolveSource(t, `
contract A {}
contract B is A {}
contract C is A {}
contract D is B, C {}
contract E is A, B {}
`)
	requireClean(t, n)
	assert.Equal(t, []string{"A"}, linearNames(contract(t, n, "A")))
	assert.Equal(t, []string{"D", "C", "B", "A"}, linearNames(contract(t, n, "D")))
	assert.Equal(t, []string{"E", "B", "A"}, linearNames(contract(t, n, "E")))
}

func TestImpossibleLinearization(t *testing.T) {
	n := resolveSource(t, `
contract A {}
contract B is A {}
contract C is B, A {}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, errors.ErrorLinearization, errs[0].Code)
	assert.Equal(t, "linearization of contract 'C' is impossible", errs[0].Message)
	assert.Len(t, errs[0].Notes, 2)
	assert.True(t, contract(t, n, "C").Fatal)
	assert.False(t, contract(t, n, "B").Fatal)
}

func TestCyclicBasesAreFatalOnlyForTheCycle(t *testing.T) {
	n := resolveSource(t, `
contract A is B {}
contract B is A {}
contract Ok {
    function f() public pure returns (uint256) { return 1; }
}
`)
	errs := n.Diagnostics.Errors()
	assert.ElementsMatch(t, []string{
		"base 'B' from contract 'A' is cyclic",
		"base 'A' from contract 'B' is cyclic",
	}, messages(errs))
	assert.True(t, contract(t, n, "A").Fatal)
	assert.True(t, contract(t, n, "B").Fatal)
	assert.False(t, contract(t, n, "Ok").Fatal)
	assert.NotEmpty(t, function(t, n, "Ok.f").Body, "contracts outside the cycle are resolved")
}

func TestBaseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"self", "contract A is A {}", "contract 'A' cannot have itself as a base contract"},
		{"duplicate", "contract A {} contract B is A, A {}", "contract 'B' duplicate base 'A'"},
		{"library base", "library L {} contract A is L {}", "library 'L' cannot be used as base contract for contract 'A'"},
		{"interface from contract", "contract A {} interface I is A {}", "interface 'I' cannot have contract 'A' as a base"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, tt.src)
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestInheritedLayout(t *testing.T) {
	n := resolveSource(t, `
contract A { uint256 a; }
contract B is A { uint256 b; mapping(uint256 => uint256) m; }
`)
	requireClean(t, n)
	b := contract(t, n, "B")
	require.Len(t, b.Layout, 3)
	for i, name := range []string{"a", "b", "m"} {
		assert.Equal(t, name, b.Layout[i].Var.Name)
		assert.Equal(t, uint64(i), b.Layout[i].Slot)
	}
	a := contract(t, n, "A")
	slot, ok := b.SlotOf(a.Variables[0])
	assert.True(t, ok)
	assert.Equal(t, uint64(0), slot)
	assert.Equal(t, uint64(1), b.Variables[0].Slot)
}

const diamond = `
contract A { function f() public virtual returns (uint256) { return 1; } }
contract B is A { function f() public virtual override returns (uint256) { return 2; } }
contract C is A { function f() public virtual override returns (uint256) { return 3; } }
`

func TestDiamondOverride(t *testing.T) {
	n := resolveSource(t, diamond+`
contract D is B, C { function f() public override(B, C) returns (uint256) { return 4; } }
`)
	requireClean(t, n)
	d := function(t, n, "D.f")
	assert.ElementsMatch(t, []*ns.Function{function(t, n, "B.f"), function(t, n, "C.f")}, d.Overrides)
	assert.Equal(t, []*ns.Function{function(t, n, "A.f")}, function(t, n, "B.f").Overrides)
}

func TestOverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "missing override list",
			src:  diamond + `contract D is B, C { function f() public returns (uint256) { return 4; } }`,
			msg:  "function 'f' should specify override list 'override(B,C)'",
		},
		{
			name: "incomplete override list",
			src:  diamond + `contract D is B, C { function f() public override(B) returns (uint256) { return 4; } }`,
			msg:  "function 'f' missing overrides 'C', specify 'override(B,C)'",
		},
		{
			name: "bare override with two bases",
			src:  diamond + `contract D is B, C { function f() public override returns (uint256) { return 4; } }`,
			msg:  "function 'f' missing overrides 'B,C', specify 'override(B,C)'",
		},
		{
			name: "conflicting bases",
			src:  diamond + `contract D is B, C {}`,
			msg:  "derived contract 'D' must override function 'f', two or more base contracts define function with same name and parameter types",
		},
		{
			name: "nothing to override",
			src:  `contract A { function g() public override {} }`,
			msg:  "'g' does not override anything",
		},
		{
			name: "not virtual",
			src:  `contract A { function f() public {} } contract B is A { function f() public override {} }`,
			msg:  "function 'f' overrides functions which are not 'virtual'",
		},
		{
			name: "missing override",
			src:  `contract A { function f() public virtual {} } contract B is A { function f() public {} }`,
			msg:  "function 'f' should specify 'override'",
		},
		{
			name: "return types",
			src: `contract A { function f() public virtual returns (uint256) { return 1; } }
                  contract B is A { function f() public override returns (bool) { return true; } }`,
			msg: "function 'f' overrides function with different return types",
		},
		{
			name: "visibility",
			src: `contract A { function f() public virtual {} }
                  contract B is A { function f() external override {} }`,
			msg: "function 'f' changes visibility from 'public' to 'external'",
		},
		{
			name: "mutability",
			src: `contract A { uint256 x; function f() public view virtual returns (uint256) { return x; } }
                  contract B is A { function f() public override returns (uint256) { x = 1; return x; } }`,
			msg: "function 'f' changes mutability from 'view' to 'nonpayable'",
		},
		{
			name: "unimplemented",
			src:  `abstract contract A { function f() public virtual; } contract B is A {}`,
			msg:  "contract 'B' missing implementation for function 'f'",
		},
		{
			name: "body without virtual",
			src:  `abstract contract A { function f() public; }`,
			msg:  "function 'f' without implementation must be marked 'virtual'",
		},
		{
			name: "interface body",
			src:  `interface I { function f() external {} }`,
			msg:  "function 'f' in interface cannot have a body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, tt.src)
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestInterfaceImplementation(t *testing.T) {
	n := resolveSource(t, `
interface I {
    function f() external returns (uint256);
}
contract C is I {
    uint256 x;
    function f() external returns (uint256) {
        x = x + 1;
        return x;
    }
}
`)
	requireClean(t, n)
	i := function(t, n, "I.f")
	assert.True(t, i.Virtual, "interface functions are implicitly virtual")
	assert.Equal(t, []*ns.Function{i}, function(t, n, "C.f").Overrides)
}

func TestAbstractContractMayLeaveFunctionsOpen(t *testing.T) {
	n := resolveSource(t, `
abstract contract A { function f() public virtual returns (uint256); }
abstract contract B is A {}
contract C is B { function f() public pure override returns (uint256) { return 7; } }
`)
	requireClean(t, n)
	assert.Empty(t, n.Diagnostics.WithCode(errors.ErrorMissingImplementation))
}

func TestOverrideListValidation(t *testing.T) {
	n := resolveSource(t, `
contract A { function f() public virtual {} }
contract X {}
contract B is A { function f() public override(A, X) {} }
`)
	assert.Contains(t, messages(n.Diagnostics.Errors()), "override list names 'X' which is not a base of 'B'")
}
