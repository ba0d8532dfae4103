package sema

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"polyc/internal/ast"
	"polyc/internal/builtins"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// assembly resolves an inline assembly block of a source function
func (r *resolver) assembly(ctx *context, b *ast.YulBlock) *ns.YulBlock {
	saved := ctx.yulLoops
	ctx.yulLoops = 0
	out := r.yulBlock(ctx, b)
	ctx.yulLoops = saved
	return out
}

func (r *resolver) word() ns.Type {
	return ns.Uint(r.target.WordBits())
}

func (r *resolver) asmError(span ast.Span, format string, args ...interface{}) {
	r.errorf(errors.ErrorAssembly, span, format, args...)
}

// yulBlock resolves b in a fresh scope. Functions declared in the block are
// registered first so that they may be called before their declaration.
func (r *resolver) yulBlock(ctx *context, b *ast.YulBlock) *ns.YulBlock {
	ctx.push()
	defer ctx.pop()
	ctx.scope.asm = true
	return r.yulStatements(ctx, b)
}

// yulStatements resolves the statements of b into the current scope
func (r *resolver) yulStatements(ctx *context, b *ast.YulBlock) *ns.YulBlock {
	out := &ns.YulBlock{YulBase: ns.YulBase{Loc: ast.SpanOf(b)}}
	decls := r.hoist(ctx, b)
	for _, s := range b.Stmts {
		if fd, ok := s.(*ast.YulFunction); ok {
			if f := decls[fd]; f != nil {
				r.yulFunction(ctx, fd, f)
				out.Functions = append(out.Functions, f)
			}
			continue
		}
		out.Stmts = append(out.Stmts, r.yulStmt(ctx, s))
	}
	return out
}

// hoist registers the signatures of the functions declared directly in b
func (r *resolver) hoist(ctx *context, b *ast.YulBlock) map[*ast.YulFunction]*ns.Function {
	decls := make(map[*ast.YulFunction]*ns.Function)
	for _, s := range b.Stmts {
		fd, ok := s.(*ast.YulFunction)
		if !ok {
			continue
		}
		name := fd.Name.Name
		span := identSpan(fd.Name)
		if _, isBuiltin := builtins.Asm[name]; isBuiltin {
			r.asmError(span, "cannot use builtin function name '%s' as identifier", name)
			continue
		}
		if ctx.scope.functions == nil {
			ctx.scope.functions = make(map[string]*ns.Function)
		}
		if prev, dup := ctx.scope.functions[name]; dup {
			r.diag(errors.AlreadyDefined(name, span, prev.Span))
			continue
		}

		f := &ns.Function{
			Name:       r.asmFunctionName(ctx, name),
			Contract:   ctx.contract,
			Kind:       ast.FuncRegular,
			Span:       span,
			Visibility: ast.VisInternal,
			Mutability: ast.MutNonPayable,
			HasBody:    true,
			Asm:        &ns.YulFunction{},
		}
		word := r.word()
		for _, list := range []struct {
			ids  []*ast.Ident
			dst  *[]*ns.Param
			vars *[]*ns.Variable
		}{
			{fd.Params, &f.Params, &f.Asm.Params},
			{fd.Returns, &f.Returns, &f.Asm.Returns},
		} {
			for _, id := range list.ids {
				v := r.ns.NewVariable(id.Name, word, ns.VarAsm, identSpan(id))
				v.Contract = ctx.contract
				*list.dst = append(*list.dst, &ns.Param{Name: id.Name, Type: word, Span: v.Span, Var: v})
				*list.vars = append(*list.vars, v)
			}
		}
		ctx.scope.functions[name] = f
		r.ns.AddFunction(f)
		r.ns.DefineFunction(qualify(ctx.contract, f.Name), f)
		decls[fd] = f
	}
	return decls
}

// asmFunctionName synthesizes "<function>.asm.<name>", numbered when the
// same name is declared in several blocks of one function
func (r *resolver) asmFunctionName(ctx *context, name string) string {
	owner := "constant"
	switch {
	case ctx.yulFn != nil:
		owner = ctx.yulFn.Name
	case ctx.fn != nil:
		owner = ctx.fn.Name
		if owner == "" {
			owner = kindName(ctx.fn.Kind)
		}
	}
	base := owner + ".asm." + name
	synth := base
	for i := 1; r.ns.Lookup(qualify(ctx.contract, synth)) != nil; i++ {
		synth = fmt.Sprintf("%s.%d", base, i)
	}
	return synth
}

// yulFunction resolves the body of a hoisted assembly function. The body
// sees its own parameters and returns but no enclosing variables.
func (r *resolver) yulFunction(ctx *context, fd *ast.YulFunction, f *ns.Function) {
	ctx.push()
	ctx.scope.asm = true
	ctx.scope.fence = true
	for _, v := range append(append([]*ns.Variable{}, f.Asm.Params...), f.Asm.Returns...) {
		r.declare(ctx, v)
	}
	savedFn, savedLoops := ctx.yulFn, ctx.yulLoops
	ctx.yulFn, ctx.yulLoops = f, 0
	f.Asm.Body = r.yulBlock(ctx, fd.Body)
	ctx.yulFn, ctx.yulLoops = savedFn, savedLoops
	ctx.pop()
	log.Debugf("resolved assembly function %s", f.QualifiedName())
}

func (r *resolver) yulStmt(ctx *context, s ast.YulStmt) ns.YulStmt {
	span := ast.SpanOf(s)
	base := ns.YulBase{Loc: span}
	switch x := s.(type) {
	case *ast.YulBlock:
		return r.yulBlock(ctx, x)

	case *ast.YulLet:
		out := &ns.YulLet{YulBase: base}
		if x.Value != nil {
			out.Value = r.yulExpr(ctx, x.Value)
			if n := out.Value.Returns(); n != len(x.Names) {
				r.asmError(span, "variable count mismatch: %s declared, expression produces %s", plural(len(x.Names), "variable"), plural(n, "value"))
			}
		}
		for _, id := range x.Names {
			v := r.ns.NewVariable(id.Name, r.word(), ns.VarAsm, identSpan(id))
			v.Contract = ctx.contract
			r.declare(ctx, v)
			out.Vars = append(out.Vars, v)
		}
		return out

	case *ast.YulAssign:
		out := &ns.YulAssign{YulBase: base}
		for _, id := range x.Names {
			if v := r.yulTarget(ctx, id); v != nil {
				out.Targets = append(out.Targets, v)
			}
		}
		out.Value = r.yulExpr(ctx, x.Value)
		if len(out.Targets) != len(x.Names) {
			return &ns.YulError{YulBase: base}
		}
		if n := out.Value.Returns(); n != len(x.Names) {
			r.asmError(span, "variable count mismatch: %s assigned, expression produces %s", plural(len(x.Names), "variable"), plural(n, "value"))
		}
		return out

	case *ast.YulExprStmt:
		e := r.yulCall(ctx, x.Call)
		if n := e.Returns(); n != 0 {
			r.asmError(span, "top level expression returns %s, use 'pop()' to discard them", plural(n, "value"))
		}
		return &ns.YulExprStmt{YulBase: base, X: e}

	case *ast.YulIf:
		return &ns.YulIf{YulBase: base, Cond: r.yulValue(ctx, x.Cond), Body: r.yulBlock(ctx, x.Body)}

	case *ast.YulSwitch:
		return r.yulSwitch(ctx, x)

	case *ast.YulFor:
		// the init block's scope extends over the whole loop
		ctx.push()
		defer ctx.pop()
		ctx.scope.asm = true
		out := &ns.YulFor{YulBase: base}
		out.Init = r.yulStatements(ctx, x.Init)
		out.Cond = r.yulValue(ctx, x.Cond)
		out.Post = r.yulBlock(ctx, x.Post)
		ctx.yulLoops++
		out.Body = r.yulBlock(ctx, x.Body)
		ctx.yulLoops--
		return out

	case *ast.YulBreak:
		if ctx.yulLoops == 0 {
			r.asmError(span, "'break' outside of a for loop")
		}
		return &ns.YulBreak{YulBase: base}

	case *ast.YulContinue:
		if ctx.yulLoops == 0 {
			r.asmError(span, "'continue' outside of a for loop")
		}
		return &ns.YulContinue{YulBase: base}

	case *ast.YulLeave:
		if ctx.yulFn == nil {
			r.asmError(span, "'leave' outside of an assembly function")
		}
		return &ns.YulLeave{YulBase: base}

	case *ast.YulFunction:
		r.asmError(span, "function '%s' cannot be declared here", x.Name.Name)
	}
	return &ns.YulError{YulBase: base}
}

func (r *resolver) yulSwitch(ctx *context, x *ast.YulSwitch) ns.YulStmt {
	span := ast.SpanOf(x)
	out := &ns.YulSwitch{YulBase: ns.YulBase{Loc: span}, Cond: r.yulValue(ctx, x.Cond)}
	seen := make(map[uint256.Int]ast.Span)
	for _, c := range x.Cases {
		cspan := ast.SpanOf(c)
		if c.Value == nil {
			if out.Default != nil {
				r.asmError(cspan, "only one default case is allowed")
				continue
			}
			out.Default = r.yulBlock(ctx, c.Body)
			continue
		}
		v, ok := r.yulLiteral(c.Value)
		if !ok {
			continue
		}
		if prev, dup := seen[*v]; dup {
			r.diag(errors.NewError(errors.ErrorAssembly, "duplicate case value "+v.ToBig().String(), ast.SpanOf(c.Value)).
				WithNote(prev, "previous case here").
				Build())
			continue
		}
		seen[*v] = ast.SpanOf(c.Value)
		out.Cases = append(out.Cases, &ns.YulCase{Value: v, Loc: cspan, Body: r.yulBlock(ctx, c.Body)})
	}
	if len(x.Cases) == 0 {
		r.asmError(span, "switch statement without any cases")
	}
	return out
}

// yulTarget resolves the left side of an assembly assignment
func (r *resolver) yulTarget(ctx *context, id *ast.YulIdent) *ns.Variable {
	span := ast.SpanOf(id)
	if id.Suffix != "" {
		r.asmError(span, "cannot assign to '%s.%s'", id.Name, id.Suffix)
		return nil
	}
	v := ctx.scope.lookup(id.Name)
	if v == nil {
		if sym := r.lookupSymbol(ctx, id.Name); sym != nil && sym.Kind == ns.SymVariable {
			r.asmError(span, "state variable '%s' cannot be assigned in assembly, use 'sstore(%s.slot, ...)'", id.Name, id.Name)
			return nil
		}
		r.diag(errors.UndefinedName(id.Name, span, ctx.scope.names()))
		return nil
	}
	return v
}

// yulValue resolves an expression that must produce exactly one value
func (r *resolver) yulValue(ctx *context, e ast.YulExpr) ns.YulExpr {
	out := r.yulExpr(ctx, e)
	if n := out.Returns(); n != 1 {
		r.asmError(ast.SpanOf(e), "expression must produce one value, produces %d", n)
		return &ns.YulError{YulBase: ns.YulBase{Loc: ast.SpanOf(e)}}
	}
	return out
}

func (r *resolver) yulExpr(ctx *context, e ast.YulExpr) ns.YulExpr {
	span := ast.SpanOf(e)
	base := ns.YulBase{Loc: span}
	switch x := e.(type) {
	case *ast.YulLiteral:
		v, ok := r.yulLiteral(x)
		if !ok {
			return &ns.YulError{YulBase: base}
		}
		return &ns.YulNumber{YulBase: base, Value: v}
	case *ast.YulIdent:
		return r.yulIdent(ctx, x)
	case *ast.YulCall:
		return r.yulCall(ctx, x)
	}
	return &ns.YulError{YulBase: base}
}

// yulLiteral converts an assembly literal to a word. Strings and hex
// literals are left aligned in the word.
func (r *resolver) yulLiteral(x *ast.YulLiteral) (*uint256.Int, bool) {
	span := ast.SpanOf(x)
	switch x.Kind {
	case ast.YulBool:
		if x.Value == "true" {
			return uint256.NewInt(1), true
		}
		return uint256.NewInt(0), true
	case ast.YulNumber:
		b, ok := parseNumber(x.Value)
		if !ok || b.BitLen() > r.target.WordBits() {
			r.asmError(span, "number literal '%s' does not fit in a word", x.Value)
			return nil, false
		}
		v, _ := uint256.FromBig(b)
		return v, true
	}

	data := []byte(x.Value)
	if x.Kind == ast.YulHex {
		var err error
		if data, err = hex.DecodeString(strings.ReplaceAll(x.Value, "_", "")); err != nil {
			r.asmError(span, "invalid hex literal")
			return nil, false
		}
	}
	size := r.target.WordBits() / 8
	if len(data) > size {
		r.asmError(span, "literal of %d bytes does not fit in a word", len(data))
		return nil, false
	}
	word := make([]byte, size)
	copy(word, data)
	v, _ := uint256.FromBig(new(big.Int).SetBytes(word))
	return v, true
}

func (r *resolver) yulIdent(ctx *context, x *ast.YulIdent) ns.YulExpr {
	span := ast.SpanOf(x)
	base := ns.YulBase{Loc: span}
	if v := ctx.scope.lookup(x.Name); v != nil {
		v.Used = true
		switch x.Suffix {
		case "":
			return &ns.YulVarRef{YulBase: base, Var: v}
		case "slot", "offset":
			if ns.IsStoragePointer(v) {
				if x.Suffix == "offset" {
					return &ns.YulNumber{YulBase: base, Value: uint256.NewInt(0)}
				}
				return &ns.YulVarRef{YulBase: base, Var: v}
			}
		}
		r.asmError(span, "suffix '.%s' is not valid for variable '%s'", x.Suffix, x.Name)
		return &ns.YulError{YulBase: base}
	}

	sym := r.lookupSymbol(ctx, x.Name)
	if sym == nil || sym.Kind != ns.SymVariable {
		if sym != nil {
			r.asmError(span, "%s '%s' cannot be used in assembly", sym.Kind, x.Name)
		} else {
			r.diag(errors.UndefinedName(x.Name, span, ctx.scope.names()))
		}
		return &ns.YulError{YulBase: base}
	}
	v := sym.Variable
	v.Used = true
	if v.Kind == ns.VarConstant {
		r.ensureConstant(v)
		if v.Value == nil || x.Suffix != "" {
			r.asmError(span, "only value constants can be used in assembly")
			return &ns.YulError{YulBase: base}
		}
		return &ns.YulNumber{YulBase: base, Value: v.Value}
	}
	switch x.Suffix {
	case "slot":
		return &ns.YulSlot{YulBase: base, Var: v}
	case "offset":
		return &ns.YulNumber{YulBase: base, Value: uint256.NewInt(0)}
	case "":
		r.asmError(span, "state variable '%s' must be accessed with '%s.slot'", x.Name, x.Name)
	default:
		r.asmError(span, "suffix '.%s' is not valid for state variable '%s'", x.Suffix, x.Name)
	}
	return &ns.YulError{YulBase: base}
}

func (r *resolver) yulCall(ctx *context, x *ast.YulCall) ns.YulExpr {
	span := ast.SpanOf(x)
	base := ns.YulBase{Loc: span}
	name := x.Name.Name
	args := make([]ns.YulExpr, len(x.Args))
	for i, a := range x.Args {
		args[i] = r.yulValue(ctx, a)
	}

	if f := ctx.scope.lookupFunction(name); f != nil {
		if len(args) != len(f.Params) {
			r.diag(errors.NewError(errors.ErrorAssembly,
				fmt.Sprintf("function '%s' expects %s, %d provided", name, plural(len(f.Params), "argument"), len(args)), span).
				WithNote(f.Span, "declared here").
				Build())
			return &ns.YulError{YulBase: base}
		}
		return &ns.YulCall{YulBase: base, Fn: f, Args: args}
	}

	b, ok := builtins.Asm[name]
	if !ok {
		if v := ctx.scope.lookup(name); v != nil {
			r.asmError(span, "'%s' is a variable, not a function", name)
		} else {
			r.asmError(span, "function '%s' is not found", name)
		}
		return &ns.YulError{YulBase: base}
	}
	if len(args) != b.Args {
		r.asmError(span, "builtin '%s' expects %s, %d provided", name, plural(b.Args, "argument"), len(args))
		return &ns.YulError{YulBase: base}
	}
	if b.Hook && !r.target.HasBuiltin(builtins.AsmPrefix+name) {
		r.errorf(errors.ErrorUnsupportedBuiltin, span, "builtin '%s' is not available on target '%s'", name, r.target.Name())
		return &ns.YulError{YulBase: base}
	}
	switch b.Access {
	case builtins.Read:
		r.readState(ctx, span)
	case builtins.Write:
		r.writeState(ctx, span)
	}
	return &ns.YulBuiltin{YulBase: base, Name: name, Args: args, Rets: b.Returns, Hook: b.Hook}
}
