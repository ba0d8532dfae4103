// Package cfg lowers resolved function bodies into control flow graphs in
// SSA form: numbered basic blocks, one terminator per block, phi nodes at
// joins and a closed set of width-explicit instructions.
package cfg

import (
	"strconv"

	"github.com/holiman/uint256"

	"polyc/internal/ns"
)

// Target is what the builder needs from a target profile: the widths and
// the host operation of every target-lowered builtin
type Target interface {
	ns.Target
	BuiltinOp(name string) (string, bool)
}

// Function is the CFG of one resolved function
type Function struct {
	Name    string
	Source  *ns.Function
	Params  []*Value
	Returns []ns.Type
	// Blocks in allocation order; Blocks[0] is the entry
	Blocks []*Block

	consts map[string]*Value
}

// Entry returns the unique entry block
func (f *Function) Entry() *Block { return f.Blocks[0] }

// Block returns the first block with the given name, or nil
func (f *Function) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Effects is the union of the effects of every instruction
func (f *Function) Effects() Effect {
	var e Effect
	for _, b := range f.Blocks {
		for _, inst := range b.Instrs {
			e |= inst.Effects()
		}
		if b.Term != nil {
			e |= b.Term.Effects()
		}
	}
	return e
}

// Block is a basic block. A block is numbered when its first incoming edge
// is created, so every block except the entry has a predecessor.
type Block struct {
	ID     int
	Name   string
	Phis   []*Phi
	Instrs []Instruction
	Term   Terminator
	Preds  []*Block

	sealed     bool
	defs       map[*ns.Variable]*Value
	incomplete []*Phi
}

// Label is "blockN"
func (b *Block) Label() string { return "block" + strconv.Itoa(b.ID) }

// Succs returns the successors named by the terminator
func (b *Block) Succs() []*Block {
	if b.Term == nil {
		return nil
	}
	return b.Term.Successors()
}

// Value is an SSA value. Values written to a source variable carry its name
// and a version; constants are interned per function.
type Value struct {
	ID      int
	Name    string
	Version int
	Type    ns.Type
	Const   *uint256.Int
	// Def is nil for constants and parameters
	Def Instruction

	forward *Value
}

// IsConst reports whether v is an interned constant
func (v *Value) IsConst() bool { return v.Const != nil }

func (v *Value) resolve() *Value {
	for v.forward != nil {
		v = v.forward
	}
	return v
}

// PhiEdge is the value a predecessor contributes to a phi
type PhiEdge struct {
	Value *Value
	Block *Block
}

// Phi merges one value per predecessor. Var is nil for phis created by
// short circuit, ternary and division lowering.
type Phi struct {
	Result *Value
	Var    *ns.Variable
	Block  *Block
	Edges  []PhiEdge
}

func (p *Phi) Operands() []*Value {
	ops := make([]*Value, len(p.Edges))
	for i, e := range p.Edges {
		ops[i] = e.Value
	}
	return ops
}
func (p *Phi) Results() []*Value { return []*Value{p.Result} }
func (p *Phi) Effects() Effect   { return 0 }

func (p *Phi) mapOperands(f func(*Value) *Value) {
	for i := range p.Edges {
		p.Edges[i].Value = f(p.Edges[i].Value)
	}
}

// Effect is a set of observable effects of an instruction
type Effect uint8

const (
	EffectReadState Effect = 1 << iota
	EffectWriteState
	EffectReadMemory
	EffectWriteMemory
	EffectLog
	EffectCall
)

// Has reports whether every effect in o is in e
func (e Effect) Has(o Effect) bool { return e&o == o }

// WritesState reports whether e modifies contract state; events count as writes
func (e Effect) WritesState() bool { return e&(EffectWriteState|EffectLog) != 0 }

func firstOrNil(vs []*Value) *Value {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}
