package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/errors"
)

func TestUnusedWarnings(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint256 a, uint256 b, uint256 _skip) public pure returns (uint256) {
        uint256 unused = 1;
        uint256 _ignored = 2;
        return a;
    }
}
`)
	requireClean(t, n)
	assert.Equal(t, []string{"local variable 'unused' is declared but never used"},
		messages(n.Diagnostics.WithCode(errors.WarningUnusedVariable)))
	assert.Equal(t, []string{"function parameter 'b' is never read"},
		messages(n.Diagnostics.WithCode(errors.WarningUnusedParameter)))
}

func TestMutabilityWarnings(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 x;
    function reads() public returns (uint256) { return x; }
    function nothing() public view returns (uint256) { return 1; }
    function writes() public { x = 2; }
    function base() public virtual returns (uint256) { return 3; }
    constructor() { x = 1; }
}
`)
	requireClean(t, n)
	assert.ElementsMatch(t, []string{
		"function 'reads' can be declared 'view'",
		"function 'nothing' can be declared 'pure'",
	}, messages(n.Diagnostics.WithCode(errors.WarningMutability)))
}

func TestMutabilityViolations(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 x;
    function p() public pure returns (uint256) { return x; }
    function v() public view { x = 1; }
    function e() public view { emit Done(); }
    event Done();
}
`)
	assert.ElementsMatch(t, []string{
		"function declared 'pure' but this expression reads from state",
		"function declared 'view' but this expression writes to state",
		"function declared 'view' but this expression writes to state",
	}, messages(n.Diagnostics.WithCode(errors.ErrorMutability)))
}

func TestCallPropagatesMutability(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 x;
    function get() internal view returns (uint256) { return x; }
    function bad() public pure returns (uint256) { return get(); }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, "function declared 'pure' but this expression reads from state", errs[0].Message)
}

func TestWarningsDoNotFailTheUnit(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint256 a) public pure {
        return;
        a;
    }
}
`)
	assert.False(t, n.HasErrors())
	assert.NotEmpty(t, n.Diagnostics.Warnings())
}
