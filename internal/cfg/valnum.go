package cfg

import (
	"fmt"

	"polyc/internal/ns"
)

// pureKey identifies the operation of an instruction that computes its result
// from its operands alone
func pureKey(inst Instruction) (string, bool) {
	switch i := inst.(type) {
	case *Binary:
		return fmt.Sprintf("binary %v %t %t", i.Op, i.Signed, i.Checked), true
	case *Compare:
		return fmt.Sprintf("compare %v %t", i.Op, i.Signed), true
	case *Unary:
		return fmt.Sprintf("unary %s %t", i.Op, i.Checked), true
	case *Cast:
		return "cast " + string(i.Kind), true
	}
	return "", false
}

// equivalent reports whether a and b always hold the same value: either they
// are the same value or the same pure operation of equivalent operands.
func equivalent(a, b *Value) bool {
	a, b = a.resolve(), b.resolve()
	if a == b {
		return true
	}
	if a.Def == nil || b.Def == nil || !ns.Equal(a.Type, b.Type) {
		return false
	}
	ka, ok := pureKey(a.Def)
	if !ok {
		return false
	}
	if kb, ok := pureKey(b.Def); !ok || ka != kb {
		return false
	}
	oa, ob := a.Def.Operands(), b.Def.Operands()
	if len(oa) != len(ob) {
		return false
	}
	for i := range oa {
		if !equivalent(oa[i], ob[i]) {
			return false
		}
	}
	return true
}

// equalEdges returns the incoming values of a phi when they are distinct but
// all equivalent. Self edges are ignored.
func equalEdges(phi *Phi) []*Value {
	var vals []*Value
	for _, e := range phi.Edges {
		v := e.Value.resolve()
		if v == phi.Result {
			continue
		}
		if len(vals) > 0 && !equivalent(vals[0], v) {
			return nil
		}
		vals = append(vals, v)
	}
	if len(vals) < 2 {
		return nil
	}
	return vals
}

// recompute materializes the value shared by vals at the head of blk. Leaves
// common to every edge are reused; their definitions dominate every
// predecessor and therefore blk.
func (b *builder) recompute(blk *Block, vals []*Value) *Value {
	first := vals[0].resolve()
	shared := true
	for _, v := range vals[1:] {
		if v.resolve() != first {
			shared = false
			break
		}
	}
	if shared {
		return first
	}

	operands := first.Def.Operands()
	args := make([]*Value, len(operands))
	for i := range operands {
		column := make([]*Value, len(vals))
		for j, v := range vals {
			column[j] = v.resolve().Def.Operands()[i]
		}
		args[i] = b.recompute(blk, column)
	}

	result := &Value{Type: first.Type}
	var inst Instruction
	switch i := first.Def.(type) {
	case *Binary:
		inst = &Binary{Result: result, Op: i.Op, Signed: i.Signed, Checked: i.Checked, Left: args[0], Right: args[1]}
	case *Compare:
		inst = &Compare{Result: result, Op: i.Op, Signed: i.Signed, Left: args[0], Right: args[1]}
	case *Unary:
		inst = &Unary{Result: result, Op: i.Op, Checked: i.Checked, X: args[0]}
	case *Cast:
		inst = &Cast{Result: result, Kind: i.Kind, X: args[0]}
	}
	result.Def = inst

	at := b.hoisted[blk]
	blk.Instrs = append(blk.Instrs, nil)
	copy(blk.Instrs[at+1:], blk.Instrs[at:])
	blk.Instrs[at] = inst
	b.hoisted[blk] = at + 1
	return result
}
