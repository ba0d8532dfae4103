package sema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/ast"
	"polyc/internal/cfg"
	"polyc/internal/errors"
	"polyc/internal/ns"
	"polyc/internal/parser"
	"polyc/internal/target"
)

func resolveSource(t *testing.T, src string) *ns.Namespace {
	t.Helper()
	return resolveOn(t, "evm", src)
}

func resolveOn(t *testing.T, targetName, src string) *ns.Namespace {
	t.Helper()
	unit, perrs := parser.ParseSource("test.sol", src)
	require.Empty(t, perrs, "source must parse")
	tg, err := target.Lookup(targetName)
	require.NoError(t, err)
	return Resolve(unit, tg, nil)
}

func messages(ds errors.Diagnostics) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

func noteMessages(d errors.Diagnostic) []string {
	out := make([]string, len(d.Notes))
	for i, n := range d.Notes {
		out[i] = n.Message
	}
	return out
}

// requireClean fails when the unit has any error diagnostic
func requireClean(t *testing.T, n *ns.Namespace) {
	t.Helper()
	require.False(t, n.HasErrors(), "unexpected errors: %v", messages(n.Diagnostics.Errors()))
}

func function(t *testing.T, n *ns.Namespace, qualified string) *ns.Function {
	t.Helper()
	for _, f := range n.Functions {
		if f.QualifiedName() == qualified {
			return f
		}
	}
	require.FailNow(t, "function not found", qualified)
	return nil
}

func contract(t *testing.T, n *ns.Namespace, name string) *ns.Contract {
	t.Helper()
	sym := n.Lookup(name)
	require.NotNil(t, sym, "contract %s", name)
	require.Equal(t, ns.SymContract, sym.Kind)
	return sym.Contract
}

func TestResolveCleanContract(t *testing.T) {
	n := resolveSource(t, `
contract Token {
    mapping(address => uint256) balances;
    uint256 public total;
    event Transfer(address indexed from, address indexed to, uint256 amount);

    constructor(uint256 supply) {
        total = supply;
        balances[msg.sender] = supply;
    }

    function transfer(address to, uint256 amount) public returns (bool) {
        require(balances[msg.sender] >= amount, "insufficient balance");
        balances[msg.sender] -= amount;
        balances[to] += amount;
        emit Transfer(msg.sender, to, amount);
        return true;
    }

    function balanceOf(address who) public view returns (uint256) {
        return balances[who];
    }
}
`)
	requireClean(t, n)
	assert.Empty(t, n.Diagnostics.Warnings())

	c := contract(t, n, "Token")
	require.Len(t, c.Layout, 2)
	assert.Equal(t, "balances", c.Layout[0].Var.Name)
	assert.Equal(t, uint64(1), c.Layout[1].Slot)

	transfer := function(t, n, "Token.transfer")
	assert.Equal(t, "transfer(address,uint256)", transfer.Signature)
	assert.Equal(t, "0xa9059cbb", hexSelector(transfer.Selector))
	assert.True(t, transfer.WritesState)

	balanceOf := function(t, n, "Token.balanceOf")
	assert.True(t, balanceOf.ReadsState)
	assert.False(t, balanceOf.WritesState)
}

func hexSelector(b []byte) string {
	const digits = "0123456789abcdef"
	out := []byte("0x")
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0xf])
	}
	return string(out)
}

func TestNoMatchingOverload(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(int256 a) public pure returns (int256) { return a; }
    function f(int256 a, bool b) public pure returns (int256) {
        if (b) { return a; }
        return 0;
    }
    function g() public pure returns (int256) { return f(1, 2); }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	d := errs[0]
	assert.Equal(t, errors.ErrorNoMatchingOverload, d.Code)
	assert.Equal(t, "no candidate with matching signature for call to 'f'", d.Message)
	require.Len(t, d.Notes, 2)
	assert.ElementsMatch(t, []string{
		"candidate 'f(int256)': expects 1 argument, 2 provided",
		"candidate 'f(int256,bool)': argument 2: implicit conversion from uint8 to bool not allowed",
	}, noteMessages(d))
}

func TestOverloadOrderIndependent(t *testing.T) {
	bodies := []string{
		`function f(uint8 a) internal pure returns (bool) { return a == 0; }
         function f(uint256 a) internal pure returns (uint256) { return a; }`,
		`function f(uint256 a) internal pure returns (uint256) { return a; }
         function f(uint8 a) internal pure returns (bool) { return a == 0; }`,
	}
	for i, decls := range bodies {
		n := resolveSource(t, `
contract C {
    `+decls+`
    function g(uint8 x, uint16 y) public pure returns (bool, uint256) {
        bool a = f(x);
        uint256 b = f(y);
        return (a, b);
    }
}
`)
		requireClean(t, n)
		g := function(t, n, "C.g")
		narrow := g.Body[0].(*ns.VarDecl).Init.(*ns.Call)
		assert.Equal(t, ns.Uint(8), narrow.Fn.Params[0].Type, "order %d", i)
		wide := g.Body[1].(*ns.VarDecl).Init.(*ns.Call)
		assert.Equal(t, ns.Uint(256), wide.Fn.Params[0].Type, "order %d", i)
		ret := g.Body[2].(*ns.Return)
		assert.Len(t, ret.Values, 2)
	}
}

func TestAmbiguousCall(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint16 a) internal pure returns (uint16) { return a; }
    function f(uint32 a) internal pure returns (uint32) { return a; }
    function g(uint8 x) public pure { f(x); }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, errors.ErrorAmbiguousCall, errs[0].Code)
	assert.Equal(t, "ambiguous call to 'f'", errs[0].Message)
	assert.ElementsMatch(t, []string{"candidate 'f(uint16)'", "candidate 'f(uint32)'"}, noteMessages(errs[0]))
}

func TestSingleCandidateErrors(t *testing.T) {
	tests := []struct {
		name string
		call string
		code string
		msg  string
	}{
		{"arity", "f(1, 2)", errors.ErrorInvalidArguments, "function 'f' expects 1 argument, 2 provided"},
		{"conversion", "f(true)", errors.ErrorInvalidConversion, "implicit conversion from bool to uint256 not allowed"},
		{"unknown named", "f({b: 1})", errors.ErrorFieldNotFound, "function 'f' has no field 'b'"},
		{"duplicate named", "f({a: 1, a: 2})", errors.ErrorDuplicateField, "duplicate argument 'a'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, `
contract C {
    function f(uint256 a) internal pure returns (uint256) { return a; }
    function g() public pure { `+tt.call+`; }
}
`)
			errs := n.Diagnostics.Errors()
			require.Len(t, errs, 1, "%v", messages(errs))
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.msg, errs[0].Message)
		})
	}
}

func TestStructConstruction(t *testing.T) {
	src := `
contract C {
    struct Point { uint256 x; uint256 y; }
    function make() public pure returns (uint256) {
        Point memory p = %s;
        return p.x;
    }
}
`
	t.Run("ok", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({y: 2, x: 1})"))
		requireClean(t, n)
	})

	t.Run("missing field", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({x: 1})"))
		errs := n.Diagnostics.Errors()
		require.Len(t, errs, 1, "%v", messages(errs))
		assert.Equal(t, errors.ErrorMissingField, errs[0].Code)
		assert.Equal(t, "missing field 'y'", errs[0].Message)
		require.Len(t, errs[0].Notes, 1)
		s := n.Lookup("C.Point").Struct
		assert.Equal(t, s.Span, errs[0].Notes[0].Span, "note points at the struct declaration")
	})

	t.Run("unknown field", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({x: 1, y: 2, z: 3})"))
		errs := n.Diagnostics.Errors()
		require.Len(t, errs, 1, "%v", messages(errs))
		assert.Equal(t, "struct 'Point' has no field 'z'", errs[0].Message)
		assert.NotEmpty(t, errs[0].Notes)
	})

	t.Run("duplicate field", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({x: 1, x: 2, y: 3})"))
		errs := n.Diagnostics.Errors()
		require.Len(t, errs, 1, "%v", messages(errs))
		assert.Equal(t, "duplicate argument 'x'", errs[0].Message)
		assert.Len(t, errs[0].Notes, 2)
	})

	t.Run("every field error", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({x: 1, x: 2, z: 3})"))
		errs := n.Diagnostics.Errors()
		assert.ElementsMatch(t, []string{
			"duplicate argument 'x'",
			"struct 'Point' has no field 'z'",
			"missing field 'y'",
		}, messages(errs))
	})

	t.Run("every missing field", func(t *testing.T) {
		n := resolveSource(t, fmt.Sprintf(src, "Point({})"))
		errs := n.Diagnostics.WithCode(errors.ErrorMissingField)
		assert.Equal(t, []string{"missing field 'x'", "missing field 'y'"}, messages(errs))
	})
}

func TestArrayLiterals(t *testing.T) {
	tests := []struct {
		expr string
		want ns.Type
	}{
		{"[1, 2, 3]", ns.ArrayType{Elem: ns.Uint(8), Len: 3}},
		{"[1, 256]", ns.ArrayType{Elem: ns.Uint(16), Len: 2}},
		{"[uint256(1), 2, 3]", ns.ArrayType{Elem: ns.Uint(256), Len: 3}},
		{"[-1, 2]", ns.ArrayType{Elem: ns.Int(8), Len: 2}},
		{"[true, false]", ns.ArrayType{Elem: ns.Bool, Len: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			n := resolveSource(t, "contract C {\n    function f() public pure { "+tt.expr+"; }\n}\n")
			requireClean(t, n)
			lit := function(t, n, "C.f").Body[0].(*ns.ExprStmt).X.(*ns.ArrayLit)
			assert.Equal(t, tt.want, lit.Type())
			for _, el := range lit.Elems {
				assert.True(t, ns.Equal(tt.want.(ns.ArrayType).Elem, el.Type()))
			}
		})
	}

	n := resolveSource(t, `
contract C {
    function f() public pure returns (uint256) {
        uint256[3] memory xs = [uint256(1), 2, 3];
        return xs[2];
    }
}
`)
	requireClean(t, n)

	n = resolveSource(t, `
contract C {
    function f() public pure { [uint8(1), true]; }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "array literal elements have no common type", errs[0].Message)
	assert.Equal(t, []string{"element of type uint8", "element of type bool"}, noteMessages(errs[0]))
}

func TestRecursiveStruct(t *testing.T) {
	n := resolveSource(t, `
contract C {
    struct S { T t; uint8 b; }
    struct T { S s; S[2] more; S[] list; }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, "struct 'S' has infinite size", errs[0].Message)

	tdef := n.Lookup("C.T").Struct
	assert.True(t, ns.IsUnresolved(tdef.Fields[0].Type), "field closing the cycle is cut")
	assert.True(t, ns.IsUnresolved(tdef.Fields[1].Type))
	assert.Equal(t, ns.ArrayType{Elem: ns.StructType{Def: n.Lookup("C.S").Struct}, Len: -1}, tdef.Fields[2].Type,
		"dynamic arrays end the cycle")
	assert.NotPanics(t, func() { ns.StorageSlots(ns.StructType{Def: tdef}) })
}

func TestUndefinedNameSuggestion(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 counter;
    function f() public view returns (uint256) { return countr; }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, errors.ErrorUndefinedName, errs[0].Code)
	assert.Equal(t, "'countr' is not found", errs[0].Message)
	require.NotEmpty(t, errs[0].Suggestions)
	assert.Contains(t, errs[0].Suggestions[0].Message, "counter")
}

func TestDuplicateDeclarations(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256 x;
    uint256 x;
    function f(uint256 a) public pure returns (uint256) { return a; }
    function f(uint256 b) public pure returns (uint256) { return b; }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 2, "%v", messages(errs))
	assert.Equal(t, "already defined 'x'", errs[0].Message)
	assert.Equal(t, "previous definition of 'x'", errs[0].Notes[0].Message)
	assert.Equal(t, "function 'f' with the same parameter types is already defined", errs[1].Message)
}

func TestUnsupportedBuiltin(t *testing.T) {
	src := `
contract C {
    function f() public view returns (address) { return tx.origin; }
}
`
	requireClean(t, resolveOn(t, "evm", src))

	n := resolveOn(t, "solana", src)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1, "%v", messages(errs))
	assert.Equal(t, errors.ErrorUnsupportedBuiltin, errs[0].Code)
	assert.Equal(t, "builtin 'tx.origin' is not available on target 'solana'", errs[0].Message)
}

func TestAbiEncode(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint256 a, address b) public pure returns (bytes memory) { return abi.encode(a, b, 1); }
    function g(bytes4 s, uint256 a) public pure returns (bytes memory) { return abi.encodeWithSelector(s, a); }
    function h(string memory s) public pure returns (bytes memory) { return abi.encodePacked(s, uint8(1)); }
}
`)
	requireClean(t, n)
	call := function(t, n, "C.f").Body[0].(*ns.Return).Values[0].(*ns.BuiltinCall)
	assert.Equal(t, "abi.encode", call.Name)
	assert.True(t, call.Hook)
	require.Len(t, call.Args, 3)
	assert.Equal(t, ns.Uint(8), call.Args[2].Type(), "literals take their smallest type")
	assert.Equal(t, ns.Bytes, call.Type())

	sel := function(t, n, "C.g").Body[0].(*ns.Return).Values[0].(*ns.BuiltinCall)
	assert.Equal(t, ns.FixedBytesType{N: 4}, sel.Args[0].Type())

	tests := []struct {
		target string
		body   string
		msg    string
	}{
		{"evm", "abi.decode(a);", "'abi' has no member 'decode'"},
		{"evm", "abi.encodeWithSelector();", "'abi.encodeWithSelector' expects a selector as first argument"},
		{"evm", "abi.encode(m);", "mappings cannot be encoded"},
		{"solana", "abi.encodePacked(a);", "builtin 'abi.encodePacked' is not available on target 'solana'"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			n := resolveOn(t, tt.target, `
contract C {
    mapping(uint64 => uint64) m;
    function f(uint64 a) public view { `+tt.body+` }
}
`)
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestResolveNeverPanicsOnBadInput(t *testing.T) {
	tg, err := target.Lookup("evm")
	require.NoError(t, err)
	for name, src := range map[string]string{
		"syntax errors": `
contract C is Missing {
    function f( public { x = ; }
    uint256 y = z + ;
}
`,
		"unknown event":      `contract C { function f() public { emit Missing(1); } }`,
		"event mismatch":     `contract C { event Ev(uint256 v); function f(int256 r) public { emit Ev(r); } }`,
		"recursive struct":   `contract C { struct S { S a; uint8 b; } S st; function g() public { S memory s; st.b = 1; } }`,
		"mutual recursion":   `contract C { struct S { T t; } struct T { S s; S[2] more; } function g() public pure { T memory t; S memory s; } }`,
		"struct fields":      `contract C { struct P { uint x; uint y; } function g() public pure returns (uint) { P memory p = P({x: 1, x: 2, z: 3}); return p.x; } }`,
		"unknown error":      `contract C { function g() public pure { revert Missing(1); } }`,
		"local array length": `contract C { function g(uint n) public pure returns (uint) { uint[n + 1] memory b; return b[0]; } }`,
		"bad delete":         `contract C { function g() public pure { delete 1; } }`,
		"mixed array":        `contract C { function g() public pure { uint8[2] memory a = [uint8(1), true]; } }`,
		"type of value":      `contract C { function g(uint a) public pure returns (uint) { return type(a).max; } }`,
	} {
		t.Run(name, func(t *testing.T) {
			unit, _ := parser.ParseSource("bad.sol", src)
			require.NotNil(t, unit)
			assert.NotPanics(t, func() {
				n := Resolve(unit, tg, nil)
				assert.True(t, n.HasErrors())
				for _, f := range cfg.Build(n, tg) {
					assert.NotEmpty(t, f.Blocks, f.Name)
				}
			})
		})
	}
}

func TestImports(t *testing.T) {
	tg, err := target.Lookup("evm")
	require.NoError(t, err)

	libUnit, perrs := parser.ParseSource("lib.sol", `
uint256 constant LIMIT = 10;
struct Pair { uint256 a; uint256 b; }
function clamp(uint256 v) pure returns (uint256) { return v > LIMIT ? LIMIT : v; }
`)
	require.Empty(t, perrs)
	lib := Resolve(libUnit, tg, nil)
	requireClean(t, lib)

	mainUnit, perrs := parser.ParseSource("main.sol", `
import "lib.sol";
contract C {
    function f(uint256 x) public pure returns (uint256) {
        Pair memory p = Pair(x, LIMIT);
        return clamp(p.a + p.b);
    }
}
`)
	require.Empty(t, perrs)
	n := Resolve(mainUnit, tg, map[string]*ns.Namespace{"lib.sol": lib})
	requireClean(t, n)
	require.Len(t, n.Imports, 1)
	assert.Same(t, lib, n.Imports[0])

	missing := Resolve(mainUnit, tg, nil)
	errs := missing.Diagnostics.WithCode(errors.ErrorUnresolvedImport)
	require.Len(t, errs, 1)
	assert.Equal(t, "import 'lib.sol' not found", errs[0].Message)
}

func TestStatementForms(t *testing.T) {
	n := resolveSource(t, `
contract C {
    uint256[] items;
    function f(uint256 n) public returns (uint256 sum) {
        for (uint256 i = 0; i < n; i++) {
            if (i == 3) { continue; }
            sum += i;
        }
        uint256 j = 0;
        while (j < n) { j++; }
        do { j--; } while (j > 0);
        (uint256 a, , uint256 c) = triple();
        (a, c) = (c, a);
        items.push(a + c);
        items.pop();
        unchecked { sum = sum - 1; }
    }
    function triple() internal pure returns (uint256, bool, uint256) { return (1, true, 2); }
}
`)
	requireClean(t, n)
	f := function(t, n, "C.f")
	require.Len(t, f.Body, 9)
	assert.IsType(t, &ns.For{}, f.Body[0])
	assert.IsType(t, &ns.TupleDecl{}, f.Body[4])
	assert.IsType(t, &ns.Destructure{}, f.Body[5])
	assert.True(t, f.WritesState)

	block := f.Body[8].(*ns.Block)
	sub := block.Stmts[0].(*ns.ExprStmt).X.(*ns.Assign)
	assert.False(t, sub.Value.(*ns.Binary).Checked, "unchecked blocks emit wrapping arithmetic")
}

func TestStatementErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"break outside loop", "break;", "'break' outside of a loop"},
		{"missing return value", "return;", "missing return value, function 'f' returns 1 value"},
		{"require in expression", "uint256 x = require(true) ? 1 : 2; x;", "'require' must be used as a statement"},
		{"memory location on value", "uint256 memory x = 1; x;", "data location can only be given for array, struct, mapping, bytes or string variable 'x'"},
		{"missing location", "bytes b = msg.data; b;", "data location must be specified for variable 'b'"},
		{"void value", "uint256 x = g(); x;", "expression does not produce a value"},
		{"delete mapping", "delete m;", "'delete' cannot be applied to a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := resolveSource(t, `
contract C {
    mapping(uint256 => uint256) m;
    function g() internal pure {}
    function f() public view returns (uint256) { `+tt.body+` return 0; }
}
`)
			assert.Contains(t, messages(n.Diagnostics.Errors()), tt.msg)
		})
	}
}

func TestUnreachableStatementsAreDropped(t *testing.T) {
	n := resolveSource(t, `
contract C {
    function f(uint256 a) public pure returns (uint256) {
        return a;
        a = a + 1;
        a = a + 2;
    }
}
`)
	requireClean(t, n)
	warns := n.Diagnostics.WithCode(errors.WarningUnreachableCode)
	require.Len(t, warns, 1, "reported once per block")
	assert.Len(t, function(t, n, "C.f").Body, 1)
}

func TestFreeFunctionDefaults(t *testing.T) {
	n := resolveSource(t, `
function twice(uint256 a) pure returns (uint256) { return a * 2; }
contract C {
    function f() external pure returns (uint256) { return twice(2); }
}
`)
	requireClean(t, n)
	assert.Equal(t, ast.VisInternal, function(t, n, "twice").Visibility)
	assert.Equal(t, ast.VisExternal, function(t, n, "C.f").Visibility)
}
