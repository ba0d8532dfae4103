package cfg

import (
	"polyc/internal/builtins"
	"polyc/internal/ns"
)

// Assembly is lowered into the same blocks as the enclosing body. Every
// assembly value is one word; typed variables are extended on the way in
// and truncated on the way out.

var yulBinary = map[string]ns.BinOp{
	"add": ns.OpAdd,
	"sub": ns.OpSub,
	"mul": ns.OpMul,
	"div": ns.OpDiv,
	"mod": ns.OpMod,
	"exp": ns.OpExp,
	"and": ns.OpAnd,
	"or":  ns.OpOr,
	"xor": ns.OpXor,
}

var yulCompare = map[string]struct {
	op     ns.CmpOp
	signed bool
}{
	"eq":  {ns.CmpEq, false},
	"lt":  {ns.CmpLt, false},
	"gt":  {ns.CmpGt, false},
	"slt": {ns.CmpLt, true},
	"sgt": {ns.CmpGt, true},
}

func (b *builder) yulBlock(blk *ns.YulBlock) {
	if blk == nil {
		return
	}
	for _, s := range blk.Stmts {
		if b.cur == nil {
			return
		}
		b.yulStmt(s)
	}
}

func (b *builder) yulStmt(s ns.YulStmt) {
	switch x := s.(type) {
	case *ns.YulBlock:
		b.yulBlock(x)

	case *ns.YulLet:
		if x.Value == nil {
			for _, v := range x.Vars {
				b.write(v, b.word(0))
			}
			return
		}
		vals := b.yulExpr(x.Value)
		for i, v := range x.Vars {
			if i < len(vals) {
				b.write(v, vals[i])
			}
		}

	case *ns.YulAssign:
		vals := b.yulExpr(x.Value)
		for i, v := range x.Targets {
			if i < len(vals) {
				b.yulWrite(v, vals[i])
			}
		}

	case *ns.YulExprStmt:
		b.yulExpr(x.X)

	case *ns.YulIf:
		cond := b.isTrue(b.yulValue(x.Cond))
		then := b.newBlock("then")
		end := b.newBlock("endif")
		b.branch(cond, then, end)
		b.enter(then)
		b.yulBlock(x.Body)
		b.jump(end)
		b.enter(end)

	case *ns.YulSwitch:
		b.yulSwitch(x)

	case *ns.YulFor:
		b.yulFor(x)

	case *ns.YulBreak:
		if len(b.loops) > 0 {
			b.jump(b.loops[len(b.loops)-1].brk)
		}

	case *ns.YulContinue:
		if len(b.loops) > 0 {
			b.jump(b.loops[len(b.loops)-1].cont)
		}

	case *ns.YulLeave:
		b.terminate(&Return{Values: b.returnValues()})

	default:
		log.Warningf("unhandled assembly statement %T", s)
		b.unreachable()
	}
}

// yulWrite assigns a word to an assembly local or a typed source variable
func (b *builder) yulWrite(v *ns.Variable, val *Value) {
	if v.Kind == ns.VarAsm || ns.IsStoragePointer(v) {
		b.write(v, val)
		return
	}
	b.write(v, b.convert(val, v.Type))
}

func (b *builder) isTrue(v *Value) *Value {
	return b.compare(ns.CmpNe, false, v, b.word(0))
}

func (b *builder) yulSwitch(x *ns.YulSwitch) {
	v := b.yulValue(x.Cond)
	end := b.newBlock("endswitch")
	sw := &Switch{Value: v, Default: end}
	bodies := make([]*Block, len(x.Cases))
	for i, c := range x.Cases {
		bodies[i] = b.newBlock("case")
		sw.Cases = append(sw.Cases, SwitchCase{Value: c.Value, Target: bodies[i]})
	}
	if x.Default != nil {
		sw.Default = b.newBlock("default")
	}
	b.terminate(sw)

	for i, c := range x.Cases {
		b.enter(bodies[i])
		b.yulBlock(c.Body)
		b.jump(end)
	}
	if x.Default != nil {
		b.enter(sw.Default)
		b.yulBlock(x.Default)
		b.jump(end)
	}
	b.enter(end)
}

func (b *builder) yulFor(x *ns.YulFor) {
	b.yulBlock(x.Init)
	cond := b.newBlock("cond")
	body := b.newBlock("body")
	post := b.newBlock("post")
	end := b.newBlock("endfor")

	b.jump(cond)
	b.switchTo(cond)
	b.branch(b.isTrue(b.yulValue(x.Cond)), body, end)

	b.enter(body)
	b.loops = append(b.loops, loop{brk: end, cont: post})
	b.yulBlock(x.Body)
	b.loops = b.loops[:len(b.loops)-1]
	b.jump(post)

	b.enter(post)
	b.yulBlock(x.Post)
	b.jump(cond)
	b.seal(cond)
	b.enter(end)
}

// yulValue lowers an expression producing exactly one word
func (b *builder) yulValue(e ns.YulExpr) *Value {
	vals := b.yulExpr(e)
	if len(vals) == 0 {
		return b.word(0)
	}
	return vals[0]
}

func (b *builder) yulExpr(e ns.YulExpr) []*Value {
	switch x := e.(type) {
	case *ns.YulNumber:
		return []*Value{b.konst(b.wordType(), x.Value)}

	case *ns.YulVarRef:
		v := x.Var
		switch {
		case v.Kind == ns.VarAsm || ns.IsStoragePointer(v):
			return []*Value{b.read(v)}
		case v.Kind == ns.VarConstant && v.Value != nil:
			return []*Value{b.konst(b.wordType(), v.Value)}
		}
		return []*Value{b.convert(b.read(v), b.wordType())}

	case *ns.YulSlot:
		return []*Value{b.word(b.slotOf(x.Var))}

	case *ns.YulBuiltin:
		return b.yulBuiltin(x)

	case *ns.YulCall:
		args := make([]*Value, len(x.Args))
		for i, a := range x.Args {
			args[i] = b.yulValue(a)
		}
		c := &Call{Fn: x.Fn, Args: args, Rets: b.results(x.Fn.ReturnTypes())}
		b.emit(c)
		return c.Rets
	}
	b.unreachable()
	return []*Value{b.word(0)}
}

func (b *builder) yulBuiltin(x *ns.YulBuiltin) []*Value {
	args := make([]*Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = b.yulValue(a)
	}
	w := b.wordType()
	one := func(v *Value) []*Value { return []*Value{v} }

	if op, ok := yulBinary[x.Name]; ok {
		return one(b.binary(op, w, false, false, args[0], args[1]))
	}
	if c, ok := yulCompare[x.Name]; ok {
		return one(b.convert(b.compare(c.op, c.signed, args[0], args[1]), w))
	}
	switch x.Name {
	case "sdiv":
		return one(b.binary(ns.OpDiv, w, true, false, args[0], args[1]))
	case "smod":
		return one(b.binary(ns.OpMod, w, true, false, args[0], args[1]))
	// shifts take the amount first
	case "shl":
		return one(b.binary(ns.OpShl, w, false, false, args[1], args[0]))
	case "shr":
		return one(b.binary(ns.OpShr, w, false, false, args[1], args[0]))
	case "sar":
		return one(b.binary(ns.OpShr, w, true, false, args[1], args[0]))
	case "not":
		res := b.value(w)
		b.emit(&Unary{Result: res, Op: UnaryCompl, X: args[0]})
		return one(res)
	case "iszero":
		return one(b.convert(b.compare(ns.CmpEq, false, args[0], b.word(0)), w))
	case "mload":
		res := b.value(w)
		b.emit(&MemoryLoad{Result: res, Addr: args[0]})
		return one(res)
	case "mstore":
		b.emit(&MemoryStore{Addr: args[0], Value: args[1]})
		return nil
	case "sload":
		res := b.value(w)
		b.emit(&StorageLoad{Result: res, Slot: args[0]})
		return one(res)
	case "sstore":
		b.emit(&StorageStore{Slot: args[0], Value: args[1]})
		return nil
	case "pop":
		return nil
	case "return":
		b.terminate(&Return{Data: args})
		return nil
	case "revert":
		b.terminate(&AssertFailure{Data: args})
		return nil
	case "stop":
		b.terminate(&Return{})
		return nil
	case "invalid":
		b.terminate(&AssertFailure{})
		return nil
	}

	def := builtins.Asm[x.Name]
	var rets []*Value
	for i := 0; i < x.Rets; i++ {
		rets = append(rets, b.value(w))
	}
	if def.Hook {
		name := builtins.AsmPrefix + x.Name
		op, _ := b.target.BuiltinOp(name)
		b.emit(&BuiltinCall{Rets: rets, Name: name, Op: op, Args: args, Access: def.Access})
		return rets
	}
	b.emit(&Native{Rets: rets, Name: x.Name, Args: args})
	return rets
}
