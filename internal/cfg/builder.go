package cfg

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/tliron/commonlog"

	"polyc/internal/abi"
	"polyc/internal/ast"
	"polyc/internal/ns"
)

var log = commonlog.GetLogger("polyc.cfg")

// loop holds the jump targets of the innermost loop
type loop struct {
	brk  *Block
	cont *Block
}

// builder lowers one function. cur is nil while lowering code that no
// edge reaches; nothing is emitted then.
type builder struct {
	fn       *Function
	ns       *ns.Namespace
	target   Target
	contract *ns.Contract
	source   *ns.Function
	cur      *Block
	loops    []loop
	hoisted  map[*Block]int
}

// Build lowers every function of n that has a body. Contracts whose
// linearization failed are skipped. A concrete contract with state
// initializers but no constructor gets a synthesized one.
func Build(n *ns.Namespace, target Target) []*Function {
	var out []*Function
	for _, f := range n.Functions {
		if f.Contract != nil && f.Contract.Fatal {
			continue
		}
		if !f.HasBody && f.Asm == nil {
			continue
		}
		out = append(out, BuildFunction(n, f, target))
	}
	for _, c := range n.Contracts {
		if c.Fatal || !c.IsConcrete() || hasConstructor(c) || !hasInitializers(c) {
			continue
		}
		b := newBuilder(n, c, target, &Function{Name: c.Name + ".constructor"})
		b.initializers(c)
		b.terminate(&Return{})
		b.finish()
		out = append(out, b.fn)
	}
	log.Debugf("built %d functions for %s", len(out), n.Path)
	return out
}

// BuildFunction lowers a single function, constructor or assembly function
func BuildFunction(n *ns.Namespace, f *ns.Function, target Target) *Function {
	b := newBuilder(n, f.Contract, target, &Function{Name: functionName(f), Source: f})
	b.source = f
	b.params(f)
	switch {
	case f.Asm != nil:
		b.yulBlock(f.Asm.Body)
	default:
		if f.Kind == ast.FuncConstructor && f.Contract != nil {
			b.initializers(f.Contract)
		}
		b.stmts(f.Body)
	}
	if b.cur != nil {
		b.terminate(&Return{Values: b.returnValues()})
	}
	b.finish()
	log.Debugf("built %s: %d blocks", b.fn.Name, len(b.fn.Blocks))
	return b.fn
}

func newBuilder(n *ns.Namespace, c *ns.Contract, target Target, fn *Function) *builder {
	fn.consts = make(map[string]*Value)
	b := &builder{fn: fn, ns: n, target: target, contract: c, hoisted: make(map[*Block]int)}
	entry := b.newBlock("entry")
	entry.sealed = true
	b.place(entry)
	b.cur = entry
	return b
}

func functionName(f *ns.Function) string {
	name := f.Name
	switch f.Kind {
	case ast.FuncConstructor:
		name = "constructor"
	case ast.FuncFallback:
		name = "fallback"
	case ast.FuncReceive:
		name = "receive"
	}
	if f.Contract == nil {
		return name
	}
	return f.Contract.Name + "." + name
}

func hasConstructor(c *ns.Contract) bool {
	for _, f := range c.Functions {
		if f.Kind == ast.FuncConstructor {
			return true
		}
	}
	return false
}

func hasInitializers(c *ns.Contract) bool {
	for _, s := range c.Layout {
		if s.Var.Init != nil {
			return true
		}
	}
	return false
}

// params defines the parameters in the entry block and zeroes named returns
func (b *builder) params(f *ns.Function) {
	for i, p := range f.Params {
		name := p.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		v := &Value{Name: name, Type: p.Type}
		b.fn.Params = append(b.fn.Params, v)
		if p.Var != nil {
			b.cur.defs[p.Var] = v
		}
	}
	for _, r := range f.Returns {
		b.fn.Returns = append(b.fn.Returns, r.Type)
		if r.Var != nil {
			b.write(r.Var, b.zero(r.Type))
		}
	}
}

// initializers stores every state variable initializer of c in slot order
func (b *builder) initializers(c *ns.Contract) {
	for _, s := range c.Layout {
		if s.Var.Init == nil {
			continue
		}
		val := b.convert(b.expr(s.Var.Init), s.Var.Type)
		b.emit(&StorageStore{Slot: b.word(s.Slot), Value: val})
	}
}

// returnValues reads the current value of every return variable
func (b *builder) returnValues() []*Value {
	if b.source == nil {
		return nil
	}
	vals := make([]*Value, len(b.source.Returns))
	for i, r := range b.source.Returns {
		if r.Var != nil {
			vals[i] = b.read(r.Var)
		} else {
			vals[i] = b.zero(r.Type)
		}
	}
	return vals
}

// Blocks

func (b *builder) newBlock(name string) *Block {
	return &Block{ID: -1, Name: name, defs: make(map[*ns.Variable]*Value)}
}

func (b *builder) place(blk *Block) {
	blk.ID = len(b.fn.Blocks)
	b.fn.Blocks = append(b.fn.Blocks, blk)
}

// link adds an edge; a block is numbered by its first incoming edge
func (b *builder) link(from, to *Block) {
	to.Preds = append(to.Preds, from)
	if to.ID < 0 {
		b.place(to)
	}
}

// switchTo makes blk current. A block without incoming edges is dead and
// leaves nothing current.
func (b *builder) switchTo(blk *Block) {
	if blk.ID < 0 {
		b.cur = nil
		return
	}
	b.cur = blk
}

// enter seals blk and makes it current
func (b *builder) enter(blk *Block) {
	b.seal(blk)
	b.switchTo(blk)
}

func (b *builder) emit(inst Instruction) {
	if b.cur == nil {
		return
	}
	for _, r := range inst.Results() {
		r.Def = inst
	}
	b.cur.Instrs = append(b.cur.Instrs, inst)
}

func (b *builder) terminate(t Terminator) {
	if b.cur == nil {
		return
	}
	from := b.cur
	from.Term = t
	for _, s := range t.Successors() {
		b.link(from, s)
	}
	b.cur = nil
}

func (b *builder) jump(to *Block) {
	b.terminate(&Branch{Target: to})
}

func (b *builder) branch(cond *Value, t, f *Block) {
	b.terminate(&BranchCond{Cond: cond, True: t, False: f})
}

// test branches on cond. A constant condition jumps to the taken successor
// only, so the other one gains no edge.
func (b *builder) test(cond ns.Expr, t, f *Block) {
	if c, ok := ns.ConstValue(cond); ok {
		if c.IsZero() {
			b.jump(f)
		} else {
			b.jump(t)
		}
		return
	}
	b.branch(b.expr(cond), t, f)
}

func (b *builder) unreachable() {
	b.terminate(&Unreachable{})
}

// Values

func (b *builder) value(t ns.Type) *Value {
	return &Value{Type: t}
}

// konst returns the interned constant v of type t
func (b *builder) konst(t ns.Type, v *uint256.Int) *Value {
	key := t.String() + ":" + v.Hex()
	if c, ok := b.fn.consts[key]; ok {
		return c
	}
	c := &Value{Type: t, Const: new(uint256.Int).Set(v)}
	b.fn.consts[key] = c
	return c
}

func (b *builder) zero(t ns.Type) *Value {
	return b.konst(t, new(uint256.Int))
}

func (b *builder) word(n uint64) *Value {
	return b.konst(b.wordType(), uint256.NewInt(n))
}

func (b *builder) wordType() ns.Type {
	return ns.WordType(b.target)
}

func (b *builder) boolConst(v bool) *Value {
	if v {
		return b.konst(ns.Bool, uint256.NewInt(1))
	}
	return b.zero(ns.Bool)
}

// SSA construction, with blocks sealed once all their predecessors are known

func (b *builder) write(v *ns.Variable, val *Value) {
	if b.cur == nil || val == nil {
		return
	}
	if val.Name == "" && val.Def != nil {
		val.Name = v.Name
	}
	b.cur.defs[v] = val
}

func (b *builder) read(v *ns.Variable) *Value {
	if b.cur == nil {
		return b.zero(v.Type)
	}
	return b.readIn(b.cur, v)
}

func (b *builder) readIn(blk *Block, v *ns.Variable) *Value {
	if val, ok := blk.defs[v]; ok {
		return val
	}
	var val *Value
	switch {
	case !blk.sealed:
		phi := b.newPhi(blk, v)
		blk.incomplete = append(blk.incomplete, phi)
		val = phi.Result
	case len(blk.Preds) == 0:
		val = b.zero(v.Type)
	case len(blk.Preds) == 1:
		val = b.readIn(blk.Preds[0], v)
	default:
		phi := b.newPhi(blk, v)
		blk.defs[v] = phi.Result
		b.addPhiOperands(phi)
		val = phi.Result
	}
	blk.defs[v] = val
	return val
}

func (b *builder) newPhi(blk *Block, v *ns.Variable) *Phi {
	phi := &Phi{Result: &Value{Name: v.Name, Type: v.Type}, Var: v, Block: blk}
	phi.Result.Def = phi
	blk.Phis = append(blk.Phis, phi)
	return phi
}

func (b *builder) addPhiOperands(phi *Phi) {
	for _, p := range phi.Block.Preds {
		phi.Edges = append(phi.Edges, PhiEdge{Value: b.readIn(p, phi.Var), Block: p})
	}
}

func (b *builder) seal(blk *Block) {
	if blk.sealed {
		return
	}
	blk.sealed = true
	for _, phi := range blk.incomplete {
		b.addPhiOperands(phi)
	}
	blk.incomplete = nil
}

// merge joins one value per live predecessor of the current block.
// vals is keyed by the block each edge leaves.
func (b *builder) merge(t ns.Type, vals map[*Block]*Value) *Value {
	if b.cur == nil {
		return b.zero(t)
	}
	if len(b.cur.Preds) == 1 {
		return vals[b.cur.Preds[0]]
	}
	phi := &Phi{Result: b.value(t), Block: b.cur}
	phi.Result.Def = phi
	for _, p := range b.cur.Preds {
		phi.Edges = append(phi.Edges, PhiEdge{Value: vals[p], Block: p})
	}
	b.cur.Phis = append(b.cur.Phis, phi)
	return phi.Result
}

// finish seals every block, forwards trivial phis, rewrites operands to
// the surviving values and numbers them
func (b *builder) finish() {
	for _, blk := range b.fn.Blocks {
		b.seal(blk)
	}
	for changed := true; changed; {
		changed = false
		for _, blk := range b.fn.Blocks {
			kept := blk.Phis[:0]
			for _, phi := range blk.Phis {
				if same := b.trivial(phi); same != nil {
					phi.Result.forward = same
					changed = true
					continue
				}
				if vals := equalEdges(phi); vals != nil {
					v := b.recompute(blk, vals)
					v.Name = phi.Result.Name
					phi.Result.forward = v
					changed = true
					continue
				}
				kept = append(kept, phi)
			}
			blk.Phis = kept
		}
	}

	resolve := func(v *Value) *Value {
		if v == nil {
			return nil
		}
		return v.resolve()
	}
	for _, blk := range b.fn.Blocks {
		for _, phi := range blk.Phis {
			phi.mapOperands(resolve)
		}
		for _, inst := range blk.Instrs {
			inst.mapOperands(resolve)
		}
		if blk.Term != nil {
			blk.Term.mapOperands(resolve)
		}
	}
	b.number()
}

// trivial returns the single value a phi merges besides itself, or nil
func (b *builder) trivial(phi *Phi) *Value {
	var same *Value
	for _, e := range phi.Edges {
		v := e.Value.resolve()
		if v == phi.Result || v == same {
			continue
		}
		if same != nil {
			return nil
		}
		same = v
	}
	if same == nil {
		return b.zero(phi.Result.Type)
	}
	return same
}

// number assigns versions to named values and ids to temporaries in block order
func (b *builder) number() {
	versions := make(map[string]int)
	id := 0
	assign := func(v *Value) {
		if v.Name != "" {
			versions[v.Name]++
			v.Version = versions[v.Name]
			return
		}
		v.ID = id
		id++
	}
	for _, blk := range b.fn.Blocks {
		for _, phi := range blk.Phis {
			assign(phi.Result)
		}
		for _, inst := range blk.Instrs {
			for _, r := range inst.Results() {
				assign(r)
			}
		}
	}
}

// Statements

func (b *builder) stmts(list []ns.Stmt) {
	for _, s := range list {
		if b.cur == nil {
			return
		}
		b.stmt(s)
	}
}

func (b *builder) stmt(s ns.Stmt) {
	switch x := s.(type) {
	case *ns.Block:
		b.stmts(x.Stmts)

	case *ns.VarDecl:
		b.varDecl(x)

	case *ns.TupleDecl:
		vals := b.exprs(x.Init, len(x.Vars))
		for i, v := range x.Vars {
			if v != nil {
				b.write(v, b.convert(vals[i], v.Type))
			}
		}

	case *ns.Destructure:
		b.destructure(x)

	case *ns.ExprStmt:
		b.expr(x.X)

	case *ns.If:
		b.ifStmt(x)

	case *ns.For:
		if x.DoWhile {
			b.doWhile(x)
		} else {
			b.forLoop(x)
		}

	case *ns.Break:
		if len(b.loops) > 0 {
			b.jump(b.loops[len(b.loops)-1].brk)
		}

	case *ns.Continue:
		if len(b.loops) > 0 {
			b.jump(b.loops[len(b.loops)-1].cont)
		}

	case *ns.Return:
		b.returnStmt(x)

	case *ns.Require:
		cond := b.expr(x.Cond)
		reason := x.Reason
		b.check(cond, "require", func() Terminator {
			if reason == nil {
				return &AssertFailure{}
			}
			return b.errorPayload(b.expr(reason))
		})

	case *ns.Assert:
		b.check(b.expr(x.Cond), "assert", func() Terminator {
			return b.panicPayload(abi.PanicAssert)
		})

	case *ns.Revert:
		b.revert(x)

	case *ns.Emit:
		b.emitEvent(x)

	case *ns.Assembly:
		b.yulBlock(x.Body)

	case *ns.Invalid:
		b.unreachable()

	default:
		log.Warningf("unhandled statement %T", s)
		b.unreachable()
	}
}

func (b *builder) varDecl(x *ns.VarDecl) {
	v := x.Var
	var val *Value
	switch {
	case x.Init == nil:
		val = b.zeroValue(v.Type, ns.IsStoragePointer(v))
	case ns.IsStoragePointer(v):
		val = b.storageSlot(x.Init)
	default:
		val = b.convert(b.expr(x.Init), v.Type)
	}
	b.write(v, val)
}

// zeroValue is the default of an uninitialized local. Memory aggregates
// get zeroed storage of their size.
func (b *builder) zeroValue(t ns.Type, storage bool) *Value {
	if storage || ns.IsValueType(t) {
		return b.zero(t)
	}
	res := b.value(t)
	b.emit(&Alloc{Result: res, Size: b.word(uint64(ns.MemorySize(t, b.target)))})
	return res
}

func (b *builder) destructure(x *ns.Destructure) {
	locs := make([]*location, len(x.Targets))
	for i, t := range x.Targets {
		if t != nil {
			locs[i] = b.lvalue(t)
		}
	}
	vals := b.exprs(x.Value, len(x.Targets))
	for i, loc := range locs {
		if loc != nil {
			b.store(loc, b.convert(vals[i], loc.ty))
		}
	}
}

func (b *builder) ifStmt(x *ns.If) {
	then := b.newBlock("then")
	endif := b.newBlock("endif")
	els := endif
	if x.Else != nil {
		els = b.newBlock("else")
	}

	b.test(x.Cond, then, els)

	b.enter(then)
	b.stmt(x.Then)
	b.jump(endif)

	if x.Else != nil {
		b.enter(els)
		b.stmt(x.Else)
		b.jump(endif)
	}
	b.enter(endif)
}

func (b *builder) forLoop(x *ns.For) {
	if x.Init != nil {
		b.stmt(x.Init)
	}
	cond := b.newBlock("cond")
	body := b.newBlock("body")
	end := b.newBlock("endfor")
	cont := cond
	var next *Block
	if x.Next != nil {
		next = b.newBlock("next")
		cont = next
	}

	b.jump(cond)
	b.switchTo(cond)
	if x.Cond != nil {
		b.test(x.Cond, body, end)
	} else {
		b.jump(body)
	}

	b.enter(body)
	b.loops = append(b.loops, loop{brk: end, cont: cont})
	b.stmt(x.Body)
	b.loops = b.loops[:len(b.loops)-1]

	if next != nil {
		b.jump(next)
		b.enter(next)
		b.expr(x.Next)
	}
	b.jump(cond)
	b.seal(cond)
	b.enter(end)
}

func (b *builder) doWhile(x *ns.For) {
	body := b.newBlock("body")
	cond := b.newBlock("cond")
	end := b.newBlock("enddo")

	b.jump(body)
	b.switchTo(body)
	b.loops = append(b.loops, loop{brk: end, cont: cond})
	b.stmt(x.Body)
	b.loops = b.loops[:len(b.loops)-1]

	b.jump(cond)
	b.enter(cond)
	b.test(x.Cond, body, end)
	b.seal(body)
	b.enter(end)
}

func (b *builder) returnStmt(x *ns.Return) {
	if len(x.Values) == 0 {
		b.terminate(&Return{Values: b.returnValues()})
		return
	}
	want := len(b.source.Returns)
	var vals []*Value
	if len(x.Values) == 1 && want > 1 {
		vals = b.exprs(x.Values[0], want)
	} else {
		for _, e := range x.Values {
			vals = append(vals, b.expr(e))
		}
	}
	for i := range vals {
		if i < want {
			vals[i] = b.convert(vals[i], b.source.Returns[i].Type)
		}
	}
	b.terminate(&Return{Values: vals})
}

func (b *builder) revert(x *ns.Revert) {
	switch {
	case x.Error != nil:
		args := make([]*Value, len(x.Args))
		for i, a := range x.Args {
			args[i] = b.convert(b.expr(a), x.Error.Fields[i].Type)
		}
		b.terminate(&AssertFailure{Selector: x.Error.Selector, Args: args})
	case x.Reason != nil:
		b.terminate(b.errorPayload(b.expr(x.Reason)))
	default:
		b.terminate(&AssertFailure{})
	}
}

func (b *builder) emitEvent(x *ns.Emit) {
	if x.Event == nil || len(x.Args) != len(x.Event.Fields) {
		b.unreachable()
		return
	}
	ev := &Emit{Event: x.Event}
	if !x.Event.Anonymous {
		ev.Topics = append(ev.Topics, b.konst(ns.FixedBytesType{N: 32}, new(uint256.Int).SetBytes(x.Event.Topic)))
	}
	for i, a := range x.Args {
		field := x.Event.Fields[i]
		val := b.convert(b.expr(a), field.Type)
		if field.Indexed {
			ev.Topics = append(ev.Topics, val)
		} else {
			ev.Data = append(ev.Data, val)
		}
	}
	b.emit(ev)
}

// check continues in a pass block when cond holds and ends in the
// terminator built by fail otherwise. The failure payload is only lowered
// on the failing path.
func (b *builder) check(cond *Value, name string, fail func() Terminator) {
	if cond.IsConst() && !cond.Const.IsZero() {
		return
	}
	pass := b.newBlock(name + "_pass")
	failed := b.newBlock(name + "_fail")
	b.branch(cond, pass, failed)
	b.enter(failed)
	if b.cur != nil {
		b.terminate(fail())
	}
	b.enter(pass)
}
