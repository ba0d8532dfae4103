package sema

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/errors"
	"polyc/internal/ns"
)

func constant(t *testing.T, n *ns.Namespace, name string) *ns.Variable {
	t.Helper()
	sym := n.Lookup(name)
	require.NotNil(t, sym, "constant %s", name)
	require.Equal(t, ns.SymVariable, sym.Kind)
	require.Equal(t, ns.VarConstant, sym.Variable.Kind)
	return sym.Variable
}

func TestConstantFolding(t *testing.T) {
	n := resolveSource(t, `
uint256 constant WORD = 32;
contract C {
    uint256 constant A = 2 ** 8;
    uint256 constant B = A * 3 + 1;
    int8 constant N = -128;
    uint8 constant M = uint8(300 - 45);
    uint256 constant LATER = EARLIER + WORD;
    uint256 constant EARLIER = 10;
    uint16 constant SHIFTED = 1 << 15;
    bool constant FLAG = A > B;
    uint256[EARLIER] items;
}
`)
	requireClean(t, n)
	tests := []struct {
		name string
		want *uint256.Int
	}{
		{"WORD", uint256.NewInt(32)},
		{"C.A", uint256.NewInt(256)},
		{"C.B", uint256.NewInt(769)},
		{"C.N", new(uint256.Int).Neg(uint256.NewInt(128))},
		{"C.M", uint256.NewInt(255)},
		{"C.LATER", uint256.NewInt(42)},
		{"C.SHIFTED", uint256.NewInt(1 << 15)},
		{"C.FLAG", uint256.NewInt(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := constant(t, n, tt.name)
			require.NotNil(t, v.Value)
			assert.True(t, tt.want.Eq(v.Value), "got %s", v.Value.Hex())
		})
	}

	items := n.Lookup("C.items").Variable
	assert.Equal(t, ns.ArrayType{Elem: ns.Uint(256), Len: 10}, items.Type)
}

func TestConstantErrors(t *testing.T) {
	tests := []struct {
		name string
		decl string
		code string
		msg  string
	}{
		{"division by zero", "uint256 constant Z = 1 / 0;", errors.ErrorConstantDivisionByZero, "divide by zero"},
		{"modulo by zero", "uint256 constant Z = 7 % (3 - 3);", errors.ErrorConstantDivisionByZero, "divide by zero"},
		{"typed overflow", "uint8 constant X = 200; uint8 constant Y = X + 100;", errors.ErrorNumericOverflow, "value 300 does not fit into type uint8"},
		{"literal too wide", "uint8 constant O = 255 + 1;", errors.ErrorInvalidConversion, "implicit conversion from uint16 to uint8 not allowed"},
		{"self reference", "uint256 constant A = B + 1; uint256 constant B = A;", errors.ErrorNotConstant, "constant 'A' refers to itself"},
		{"runtime value", "uint256 constant T = block.number;", errors.ErrorNotConstant, "'block.number' is not a constant"},
		{"uninitialized", "uint256 constant U;", errors.ErrorNotConstant, "constant 'U' must be initialized"},
		{"zero size array", "uint256 constant L = 0; uint256[L] xs;", errors.ErrorInvalidType, "zero size array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, "contract C {\n"+tt.decl+"\n}\n")
			found := n.Diagnostics.WithCode(tt.code)
			require.NotEmpty(t, found, "%v", messages(n.Diagnostics))
			assert.Contains(t, messages(found), tt.msg)
		})
	}
}

func TestLocalArrayLengthMustBeConstant(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 constant K = 2;
    function f(uint256 n) public pure returns (uint256) {
        uint256[K] memory a;
        uint256[n + 1] memory b;
        return a[0];
    }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, errors.ErrorNotConstant, errs[0].Code)
	assert.Equal(t, "'n' is not a constant", errs[0].Message)
	assert.Empty(t, n.Diagnostics.WithCode(errors.WarningUnusedParameter))
}

func TestTypeBounds(t *testing.T) {
	n := resolveSource(t, `
contract C {
    enum Color { Red, Green, Blue }
    int8 constant LO = type(int8).min;
    int8 constant HI = type(int8).max;
    uint16 constant U = type(uint16).max;
    uint256 constant ZERO = type(uint256).min;
    uint256 constant FULL = type(uint256).max;
    function last() public pure returns (Color) { return type(Color).max; }
    function first() public pure returns (Color) { return type(Color).min; }
}
`)
	requireClean(t, n)
	tests := []struct {
		name string
		want *uint256.Int
	}{
		{"C.LO", new(uint256.Int).Neg(uint256.NewInt(128))},
		{"C.HI", uint256.NewInt(127)},
		{"C.U", uint256.NewInt(65535)},
		{"C.ZERO", uint256.NewInt(0)},
		{"C.FULL", new(uint256.Int).SetAllOne()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := constant(t, n, tt.name)
			require.NotNil(t, v.Value)
			assert.True(t, tt.want.Eq(v.Value), "got %s", v.Value.Hex())
		})
	}

	last := function(t, n, "C.last").Body[0].(*ns.Return).Values[0].(*ns.EnumValue)
	assert.Equal(t, 2, last.Index)
	first := function(t, n, "C.first").Body[0].(*ns.Return).Values[0].(*ns.EnumValue)
	assert.Equal(t, 0, first.Index)
}

func TestTypeBoundErrors(t *testing.T) {
	tests := []struct {
		expr string
		msg  string
	}{
		{"type(bool).max", "type(bool) has no member 'max'"},
		{"type(uint8).bits", "type(uint8) has no member 'bits'"},
		{"type(a).max", "'type' expects a type name"},
		{"type(uint8, uint16).max", "'type' takes exactly one type argument"},
		{"uint256(type(uint8))", "'type(...)' must be followed by a member"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			n := resolveSource(t, "contract C {\n    function f(uint256 a) public pure returns (uint256) { a; return "+tt.expr+"; }\n}\n")
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestUncheckedFoldWraps(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f() public pure returns (uint8) {
        uint8 x = 255;
        unchecked { x = x + 1; }
        return x;
    }
}
`)
	requireClean(t, n)
}

func TestNormalize(t *testing.T) {
	v := normalize(uint256.NewInt(0x1ff), ns.Uint(8))
	assert.Equal(t, uint64(0xff), v.Uint64())

	neg := normalize(uint256.NewInt(0x80), ns.Int(8))
	assert.Equal(t, int64(-128), toBig(neg, true).Int64())
}

func TestLiteralType(t *testing.T) {
	tests := []struct {
		value int64
		want  ns.IntType
	}{
		{0, ns.Uint(8)},
		{255, ns.Uint(8)},
		{256, ns.Uint(16)},
		{-1, ns.Int(8)},
		{-129, ns.Int(16)},
	}
	for _, tt := range tests {
		got, ok := literalType(big.NewInt(tt.value))
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "literal %d", tt.value)
	}
}
