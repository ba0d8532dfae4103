package cfg

import (
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyc/internal/ns"
	"polyc/internal/parser"
	"polyc/internal/sema"
	"polyc/internal/target"
)

func resolveOn(t *testing.T, targetName, src string) (*ns.Namespace, *target.Target) {
	t.Helper()
	unit, perrs := parser.ParseSource("test.sol", src)
	require.Empty(t, perrs, "source must parse")
	tg, err := target.Lookup(targetName)
	require.NoError(t, err)
	return sema.Resolve(unit, tg, nil), tg
}

func buildOn(t *testing.T, targetName, src string) []*Function {
	t.Helper()
	n, tg := resolveOn(t, targetName, src)
	require.False(t, n.HasErrors(), "unexpected errors: %v", n.Diagnostics.Errors())
	fns := Build(n, tg)
	for _, f := range fns {
		wellFormed(t, f)
	}
	return fns
}

func build(t *testing.T, src string) []*Function {
	t.Helper()
	return buildOn(t, "evm", src)
}

func named(t *testing.T, fns []*Function, name string) *Function {
	t.Helper()
	for _, f := range fns {
		if f.Name == name {
			return f
		}
	}
	require.FailNow(t, "function not built", name)
	return nil
}

func blockNames(f *Function) []string {
	names := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		names[i] = b.Name
	}
	return names
}

// wellFormed checks the structural invariants every built function keeps
func wellFormed(t *testing.T, f *Function) {
	t.Helper()
	require.NotEmpty(t, f.Blocks, f.Name)
	for i, b := range f.Blocks {
		assert.Equal(t, i, b.ID, "%s: block numbering", f.Name)
		assert.NotNil(t, b.Term, "%s: %s has no terminator", f.Name, b.Label())
		if i > 0 {
			assert.NotEmpty(t, b.Preds, "%s: %s has no predecessor", f.Name, b.Label())
		} else {
			assert.Empty(t, b.Preds, "%s: entry has a predecessor", f.Name)
		}
		for _, s := range b.Succs() {
			assert.Contains(t, s.Preds, b, "%s: %s -> %s edge", f.Name, b.Label(), s.Label())
		}
		for _, phi := range b.Phis {
			require.Len(t, phi.Edges, len(b.Preds), "%s: phi in %s", f.Name, b.Label())
			for j, e := range phi.Edges {
				assert.Same(t, b.Preds[j], e.Block)
				assert.NotSame(t, phi.Result, e.Value, "%s: self edge survived", f.Name)
			}
		}
	}
}

func TestIfJoinInsertsPhi(t *testing.T) {
	fns := build(t, `
contract C {
    function f(bool c) public pure returns (uint256) {
        uint256 x;
        if (c) { x = 1; } else { x = 2; }
        return x;
    }
}
`)
	f := named(t, fns, "C.f")
	assert.Empty(t, cmp.Diff([]string{"entry", "then", "else", "endif"}, blockNames(f)))
	text := Print(f)
	assert.Contains(t, text, "block0: # entry\n  branchcond %c.0, block1, block2\n")
	assert.Contains(t, text, "block3: # endif\n  # phi %x.1 = [1, block1], [2, block2]\n  return %x.1\n")
}

func TestOneSidedAssignment(t *testing.T) {
	fns := build(t, `
contract C {
    function f(bool c) public pure returns (uint256) {
        uint256 x = 0;
        if (c) { x = 1; }
        return x;
    }
}
`)
	text := Print(named(t, fns, "C.f"))
	assert.Contains(t, text, "# phi %x.1 = [0, block0], [1, block1]")
}

func TestEqualValuesNeedNoPhi(t *testing.T) {
	fns := build(t, `
contract C {
    function f(bool c) public pure returns (uint256) {
        uint256 x;
        if (c) { x = 1; } else { x = 1; }
        return x;
    }
}
`)
	f := named(t, fns, "C.f")
	endif := f.Block("endif")
	require.NotNil(t, endif)
	assert.Empty(t, endif.Phis)
	assert.Contains(t, Print(f), "return 1")

	fns = build(t, `
contract C {
    function f(bool c, uint256 a) public pure returns (uint256) {
        uint256 x;
        if (c) { x = a * 2 + 1; } else { x = a * 2 + 1; }
        return x;
    }
}
`)
	f = named(t, fns, "C.f")
	endif = f.Block("endif")
	require.NotNil(t, endif)
	assert.Empty(t, endif.Phis, "equal computations merge without a phi")
	require.Len(t, endif.Instrs, 2)
	add, ok := endif.Instrs[1].(*Binary)
	require.True(t, ok)
	assert.Equal(t, "x", add.Result.Name)
	assert.Same(t, endif.Instrs[0].Results()[0], add.Left)
	ret, ok := endif.Term.(*Return)
	require.True(t, ok)
	assert.Same(t, add.Result, ret.Values[0])
	assert.NotContains(t, Print(f), "# phi")
}

func TestDeadJoinIsNotCreated(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 a) public pure returns (uint256) {
        if (a > 1) { return 1; } else { return 2; }
    }
    function g() public pure returns (uint256 x) {
        if (false) { x = 1; }
    }
}
`)
	f := named(t, fns, "C.f")
	assert.Nil(t, f.Block("endif"), "both branches return")
	assert.Empty(t, cmp.Diff([]string{"entry", "then", "else"}, blockNames(f)))

	g := named(t, fns, "C.g")
	assert.Nil(t, g.Block("then"), "constant false condition")
	assert.Contains(t, Print(g), "return 0")
}

func TestForLoop(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 n) public pure returns (uint256 s) {
        for (uint256 i = 0; i < n; i++) {
            if (i == 2) { continue; }
            s += i;
        }
    }
}
`)
	f := named(t, fns, "C.f")
	assert.Empty(t, cmp.Diff(
		[]string{"entry", "cond", "body", "endfor", "then", "endif", "next"},
		blockNames(f)))

	then := f.Block("then")
	br, ok := then.Term.(*Branch)
	require.True(t, ok, "%T", then.Term)
	assert.Equal(t, "next", br.Target.Name, "continue runs the increment")

	cond := f.Block("cond")
	require.Len(t, cond.Preds, 2)
	assert.Equal(t, "next", cond.Preds[1].Name, "back edge from the increment")
	text := Print(f)
	assert.Contains(t, text, "# phi %i.1 = [0, block0], [%i.2, block6]")
	assert.NotContains(t, text, "%n.1", "loop invariant parameter gets no phi")
}

func TestWhileAndDoWhileContinue(t *testing.T) {
	fns := build(t, `
contract C {
    function w(uint256 n) public pure returns (uint256 i) {
        while (i < n) {
            i++;
            if (i == 3) { continue; }
        }
    }
    function d(uint256 n) public pure returns (uint256 i) {
        do {
            i++;
            if (i == 3) { continue; }
        } while (i < n);
    }
}
`)
	for _, name := range []string{"C.w", "C.d"} {
		t.Run(name, func(t *testing.T) {
			f := named(t, fns, name)
			br, ok := f.Block("then").Term.(*Branch)
			require.True(t, ok)
			assert.Equal(t, "cond", br.Target.Name)
		})
	}
	assert.Empty(t, cmp.Diff(
		[]string{"entry", "body", "then", "endif", "cond", "enddo"},
		blockNames(named(t, fns, "C.d"))))
}

func TestConstantLoopConditionIsFolded(t *testing.T) {
	fns := build(t, `
contract C {
    function f() public pure returns (uint256 i) {
        while (true) {
            i++;
            if (i > 5) { break; }
        }
    }
    function g() public pure returns (uint256 i) {
        do { i++; } while (false);
    }
}
`)
	f := named(t, fns, "C.f")
	text := Print(f)
	assert.NotContains(t, text, "branchcond true")
	_, ok := f.Block("cond").Term.(*Branch)
	assert.True(t, ok, "%T", f.Block("cond").Term)
	end := f.Block("endfor")
	require.NotNil(t, end)
	assert.Len(t, end.Preds, 1, "only the break reaches the exit")
	assert.Empty(t, end.Phis)

	g := named(t, fns, "C.g")
	body := g.Block("body")
	require.NotNil(t, body)
	assert.Len(t, body.Preds, 1, "no back edge")
	assert.Empty(t, body.Phis)
	assert.NotContains(t, Print(g), "branchcond")
}

func TestDivisionGuard(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 a, uint256 b) public pure returns (uint256) { return a / b; }
    function g(uint256 a) public pure returns (uint256) { return a / 2; }
    function h(int256 a, int256 b) public pure returns (int256) { return a % b; }
}
`)
	f := named(t, fns, "C.f")
	bc, ok := f.Entry().Term.(*BranchCond)
	require.True(t, ok)
	assert.Equal(t, "div_zero", bc.True.Name)
	assert.Equal(t, "div", bc.False.Name)
	text := Print(f)
	assert.Contains(t, text, "%0 = eq uint256 %b.0, 0")
	assert.Contains(t, text, "%1 = div uint256 %a.0, %b.0")
	assert.Contains(t, text, "# phi %2 = [0, block1], [%1, block2]\n  return %2")

	g := named(t, fns, "C.g")
	require.Len(t, g.Blocks, 1, "nonzero constant divisor needs no guard")
	assert.Contains(t, Print(g), "%0 = div uint256 %a.0, 2")

	assert.Contains(t, Print(named(t, fns, "C.h")), "smod int256 %a.0, %b.0")
}

func TestRequireAndAssert(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 a) public pure returns (uint256) {
        require(a > 0, "positive");
        assert(a != 7);
        return a;
    }
}
`)
	f := named(t, fns, "C.f")
	bc := f.Entry().Term.(*BranchCond)
	assert.Equal(t, "require_pass", bc.True.Name)

	fail := f.Block("require_fail").Term.(*AssertFailure)
	assert.Equal(t, "08c379a0", hex.EncodeToString(fail.Selector))
	require.Len(t, fail.Args, 1)
	assert.Equal(t, "string", fail.Args[0].Type.String())

	panicked := f.Block("assert_fail").Term.(*AssertFailure)
	assert.Equal(t, "4e487b71", hex.EncodeToString(panicked.Selector))
	require.Len(t, panicked.Args, 1)
	assert.Equal(t, uint64(1), panicked.Args[0].Const.Uint64())
}

func TestRevertPayloadUsesTargetSelectorWidth(t *testing.T) {
	src := `
contract C {
    function f(uint256 a) public pure {
        require(a > 0, "positive");
    }
}
`
	evm := named(t, buildOn(t, "evm", src), "C.f")
	assert.Len(t, evm.Block("require_fail").Term.(*AssertFailure).Selector, 4)
	solana := named(t, buildOn(t, "solana", src), "C.f")
	assert.Len(t, solana.Block("require_fail").Term.(*AssertFailure).Selector, 8)
}

func TestArithmeticWidths(t *testing.T) {
	fns := build(t, `
contract C {
    function mixed(uint8 a, int16 b) public pure returns (int16) { return a + b; }
    function wrap(uint256 a) public pure returns (uint256 r) {
        unchecked { r = a + 1; }
    }
}
`)
	text := Print(named(t, fns, "C.mixed"))
	assert.Contains(t, text, "zext uint8 %a.0 to int16")
	assert.Contains(t, text, "add checked int16")

	wrap := named(t, fns, "C.wrap")
	var found *Binary
	for _, inst := range wrap.Entry().Instrs {
		if bin, ok := inst.(*Binary); ok {
			found = bin
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.Checked, "unchecked blocks wrap")
	assert.Contains(t, Print(wrap), "%r.1 = add uint256 %a.0, 1")
}

func TestStorageLowering(t *testing.T) {
	fns := build(t, `
contract C {
    uint256 total;
    mapping(address => uint256) balances;
    function get(address who) public view returns (uint256) { return balances[who]; }
    function set(address who, uint256 v) public { balances[who] = v; total += v; }
}
`)
	get := named(t, fns, "C.get")
	text := Print(get)
	assert.Contains(t, text, "%0 = storage_index mapping(address => uint256) 1, %who.0")
	assert.Contains(t, text, "%1 = load storage uint256 %0")
	assert.True(t, get.Effects().Has(EffectReadState))
	assert.False(t, get.Effects().WritesState())

	set := named(t, fns, "C.set")
	text = Print(set)
	assert.Contains(t, text, "store storage %0, %v.0")
	assert.Contains(t, text, "load storage uint256 0")
	assert.True(t, set.Effects().WritesState())
}

func TestStorageArrayPushPop(t *testing.T) {
	fns := build(t, `
contract C {
    uint256[] items;
    function add(uint256 v) public { items.push(v); }
    function drop() public { items.pop(); }
}
`)
	text := Print(named(t, fns, "C.add"))
	assert.Contains(t, text, "%0 = array_length storage 0")
	assert.Contains(t, text, "%1 = storage_index uint256[] 0, %0")
	assert.Contains(t, text, "store storage %1, %v.0")
	assert.Contains(t, text, "store storage 0, %2")

	drop := named(t, fns, "C.drop")
	fail := drop.Block("pop_fail").Term.(*AssertFailure)
	assert.Equal(t, uint64(0x31), fail.Args[0].Const.Uint64())
}

func TestDeleteClearsEverySlot(t *testing.T) {
	fns := build(t, `
contract C {
    struct P { uint256 a; uint256 b; }
    P p;
    uint256 total;
    function clear() public { delete p; delete total; }
    function local(uint256 v) public pure returns (uint256) { delete v; return v; }
}
`)
	var stores []*StorageStore
	for _, blk := range named(t, fns, "C.clear").Blocks {
		for _, inst := range blk.Instrs {
			if st, ok := inst.(*StorageStore); ok {
				stores = append(stores, st)
			}
		}
	}
	require.Len(t, stores, 3)
	for _, st := range stores {
		require.True(t, st.Value.IsConst())
		assert.True(t, st.Value.Const.IsZero())
	}
	assert.Equal(t, uint64(0), stores[0].Slot.Const.Uint64())
	next, ok := stores[1].Slot.Def.(*Binary)
	require.True(t, ok, "second field slot is computed")
	assert.Equal(t, ns.OpAdd, next.Op)
	assert.Equal(t, uint64(1), next.Right.Const.Uint64())
	assert.Equal(t, uint64(2), stores[2].Slot.Const.Uint64())

	assert.Contains(t, Print(named(t, fns, "C.local")), "return 0")
}

func TestArrayLiteralIsAllocated(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 a) public pure returns (uint256) {
        uint256[3] memory xs = [a, 2, type(uint8).max];
        return xs[1];
    }
}
`)
	f := named(t, fns, "C.f")
	var alloc *Alloc
	var elems []*ElementAddr
	var stores []*MemoryStore
	for _, inst := range f.Entry().Instrs {
		switch x := inst.(type) {
		case *Alloc:
			if alloc == nil {
				alloc = x
			}
		case *ElementAddr:
			elems = append(elems, x)
		case *MemoryStore:
			stores = append(stores, x)
		}
	}
	require.NotNil(t, alloc)
	assert.Equal(t, uint64(96), alloc.Size.Const.Uint64())
	require.GreaterOrEqual(t, len(elems), 3)
	for i, el := range elems[:3] {
		assert.Same(t, alloc.Result, el.Array)
		assert.Equal(t, uint64(i), el.Index.Const.Uint64())
		assert.Equal(t, 32, el.ElemSize)
	}
	require.Len(t, stores, 3)
	assert.Equal(t, "a", stores[0].Value.Name)
	assert.Equal(t, uint64(255), stores[2].Value.Const.Uint64())
	assert.Nil(t, f.Block("bounds_fail"), "constant index within the literal length")
}

func TestMemoryIndexIsBoundsChecked(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256[] memory xs, uint256 i) public pure returns (uint256) { return xs[i]; }
    function g(uint256[3] memory xs) public pure returns (uint256) { return xs[1]; }
}
`)
	f := named(t, fns, "C.f")
	fail := f.Block("bounds_fail").Term.(*AssertFailure)
	assert.Equal(t, uint64(0x32), fail.Args[0].Const.Uint64())
	assert.Contains(t, Print(f), "array_length memory %xs.0")

	g := named(t, fns, "C.g")
	assert.Nil(t, g.Block("bounds_fail"), "constant index within a fixed length")
}

func TestShortCircuit(t *testing.T) {
	fns := build(t, `
contract C {
    function both(bool a, bool b) public pure returns (bool) { return a && b; }
    function either(bool a, bool b) public pure returns (bool) { return a || b; }
}
`)
	both := named(t, fns, "C.both")
	assert.Empty(t, cmp.Diff([]string{"entry", "and_rhs", "and_end"}, blockNames(both)))
	assert.Contains(t, Print(both), "# phi %0 = [false, block0], [%b.0, block1]")

	either := named(t, fns, "C.either")
	assert.Empty(t, cmp.Diff([]string{"entry", "or_end", "or_rhs"}, blockNames(either)))
	assert.Contains(t, Print(either), "# phi %0 = [true, block0], [%b.0, block2]")
}

func TestMultipleReturns(t *testing.T) {
	fns := build(t, `
contract C {
    function pair() internal pure returns (uint256, uint256) { return (1, 2); }
    function f() public pure returns (uint256) {
        (uint256 a, uint256 b) = pair();
        return a + b;
    }
}
`)
	assert.Contains(t, Print(named(t, fns, "C.pair")), "return 1, 2")
	text := Print(named(t, fns, "C.f"))
	assert.Contains(t, text, "%a.1, %b.1 = call C.pair()")
	assert.Contains(t, text, "add checked uint256 %a.1, %b.1")
}

func TestAssemblySwitch(t *testing.T) {
	fns := build(t, `
contract C {
    function f(uint256 x) public pure returns (uint256 r) {
        assembly {
            let v := 0
            switch x
            case 0 { v := 1 }
            default { v := 2 }
            r := v
        }
    }
}
`)
	f := named(t, fns, "C.f")
	text := Print(f)
	assert.Contains(t, text, "switch %x.0, [0: block1], default block2")
	assert.Contains(t, text, "block3: # endswitch\n  # phi %v.1 = [1, block1], [2, block2]\n  return %v.1")
}

func TestAssemblyWordConversions(t *testing.T) {
	src := `
contract C {
    function f(uint8 a) public pure returns (uint8 r) {
        assembly { r := add(a, 1) }
    }
    function g(uint256 a) public pure returns (uint256 r) {
        assembly { r := add(a, 1) }
    }
}
`
	evm := build(t, src)
	text := Print(named(t, evm, "C.f"))
	assert.Contains(t, text, "%0 = zext uint8 %a.0 to uint256")
	assert.Contains(t, text, "%1 = add uint256 %0, 1")
	assert.Contains(t, text, "%r.1 = trunc uint256 %1 to uint8")

	solana := buildOn(t, "solana", src)
	text = Print(named(t, solana, "C.g"))
	assert.Contains(t, text, "%0 = trunc uint256 %a.0 to uint64")
	assert.Contains(t, text, "%1 = add uint64 %0, 1")
	assert.Contains(t, text, "%r.1 = zext uint64 %1 to uint256")
}

func TestAssemblyFunctionsAreBuilt(t *testing.T) {
	fns := build(t, `
contract C {
    function f() public pure returns (uint256 x) {
        assembly {
            function double(v) -> r { r := mul(v, 2) }
            x := double(3)
        }
    }
}
`)
	double := named(t, fns, "C.f.asm.double")
	assert.Contains(t, Print(double), "%r.1 = mul uint256 %v.0, 2\n  return %r.1")
	assert.Contains(t, Print(named(t, fns, "C.f")), "call C.f.asm.double(3)")
}

func TestBuiltinHooks(t *testing.T) {
	src := `
contract C {
    function who() public view returns (address) { return msg.sender; }
}
`
	tests := []struct {
		target string
		op     string
	}{
		{"evm", "caller"},
		{"polkadot", "seal_caller"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			f := named(t, buildOn(t, tt.target, src), "C.who")
			var call *BuiltinCall
			for _, inst := range f.Entry().Instrs {
				if c, ok := inst.(*BuiltinCall); ok {
					call = c
				}
			}
			require.NotNil(t, call)
			assert.Equal(t, "msg.sender", call.Name)
			assert.Equal(t, tt.op, call.Op)
			assert.True(t, f.Effects().Has(EffectReadState))
		})
	}
}

func TestAbiEncodeIsLoweredByTarget(t *testing.T) {
	src := `
contract C {
    function enc(uint64 a, bool b) public pure returns (bytes memory) { return abi.encode(a, b); }
}
`
	for target, op := range map[string]string{"evm": "abi_encode", "polkadot": "scale_encode", "solana": "borsh_encode"} {
		t.Run(target, func(t *testing.T) {
			f := named(t, buildOn(t, target, src), "C.enc")
			var call *BuiltinCall
			for _, inst := range f.Entry().Instrs {
				if c, ok := inst.(*BuiltinCall); ok {
					call = c
				}
			}
			require.NotNil(t, call)
			assert.Equal(t, "abi.encode", call.Name)
			assert.Equal(t, op, call.Op)
			require.Len(t, call.Args, 2)
			require.Len(t, call.Rets, 1)
			assert.False(t, f.Effects().Has(EffectReadState))
		})
	}
}

func TestConstructorRunsInitializers(t *testing.T) {
	implicit := build(t, `
contract C {
    uint256 a = 5;
    uint256 b;
    function get() public view returns (uint256) { return a; }
}
`)
	ctor := named(t, implicit, "C.constructor")
	assert.Nil(t, ctor.Source)
	assert.Equal(t, "function C.constructor()\nblock0: # entry\n  store storage 0, 5\n  return\n", Print(ctor))

	explicit := build(t, `
contract C {
    uint256 a = 5;
    uint256 b;
    constructor(uint256 x) { b = x; }
}
`)
	text := Print(named(t, explicit, "C.constructor"))
	assert.Contains(t, text, "  store storage 0, 5\n  store storage 1, %x.0\n")
}

func TestEventsCountAsWrites(t *testing.T) {
	fns := build(t, `
contract C {
    event Moved(address indexed to, uint256 amount);
    function f(address to) public { emit Moved(to, 3); }
}
`)
	f := named(t, fns, "C.f")
	var ev *Emit
	for _, inst := range f.Entry().Instrs {
		if e, ok := inst.(*Emit); ok {
			ev = e
		}
	}
	require.NotNil(t, ev)
	assert.Len(t, ev.Topics, 2, "signature topic and one indexed field")
	assert.Len(t, ev.Data, 1)
	assert.True(t, f.Effects().WritesState())
}

func TestUnresolvedBecomesUnreachable(t *testing.T) {
	n, tg := resolveOn(t, "evm", `
contract C {
    function f() public pure returns (uint256) { return missing; }
}
`)
	require.True(t, n.HasErrors())
	fns := Build(n, tg)
	f := named(t, fns, "C.f")
	wellFormed(t, f)
	_, ok := f.Entry().Term.(*Unreachable)
	assert.True(t, ok, "%T", f.Entry().Term)
}

func TestUnresolvedEmitBecomesUnreachable(t *testing.T) {
	for name, src := range map[string]string{
		"unknown event": `
contract C {
    function f() public { emit Missing(1); }
}
`,
		"argument mismatch": `
contract C {
    event Ev(uint256 v);
    function f(int256 r) public { emit Ev(r); }
}
`,
	} {
		t.Run(name, func(t *testing.T) {
			n, tg := resolveOn(t, "evm", src)
			require.True(t, n.HasErrors())
			var fns []*Function
			require.NotPanics(t, func() { fns = Build(n, tg) })
			f := named(t, fns, "C.f")
			wellFormed(t, f)
			_, ok := f.Entry().Term.(*Unreachable)
			assert.True(t, ok, "%T", f.Entry().Term)
		})
	}
}

func TestRecursiveStructIsLowered(t *testing.T) {
	n, tg := resolveOn(t, "evm", `
contract C {
    struct S { S a; uint8 b; }
    S stored;
    function g() public pure { S memory s; }
}
`)
	errs := n.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "struct 'S' has infinite size", errs[0].Message)
	var fns []*Function
	require.NotPanics(t, func() { fns = Build(n, tg) })
	wellFormed(t, named(t, fns, "C.g"))
}

func TestRenderingIsDeterministic(t *testing.T) {
	src := `
contract C {
    uint256 total;
    mapping(address => uint256) balances;
    function f(uint256 n, address who) public returns (uint256 s) {
        for (uint256 i = 0; i < n; i++) {
            if (i % 2 == 0 && balances[who] > i) { s += i; } else { s = s / (i + 1); }
        }
        total = s > 10 ? s : 10;
    }
}
`
	first := PrintAll(build(t, src))
	second := PrintAll(build(t, src))
	assert.Empty(t, cmp.Diff(first, second))
}
