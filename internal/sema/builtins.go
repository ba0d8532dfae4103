package sema

import (
	"polyc/internal/ast"
	"polyc/internal/builtins"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// memberBuiltins gives the type of every msg, block and tx member
var memberBuiltins = map[string]func(ns.Target) ns.Type{
	"msg.sender":      func(t ns.Target) ns.Type { return ns.AddressType{Bits: t.AddressBits()} },
	"msg.value":       func(t ns.Target) ns.Type { return ns.Uint(t.ValueBits()) },
	"msg.data":        func(ns.Target) ns.Type { return ns.Bytes },
	"block.number":    func(ns.Target) ns.Type { return ns.Uint(64) },
	"block.timestamp": func(ns.Target) ns.Type { return ns.Uint(64) },
	"tx.origin":       func(t ns.Target) ns.Type { return ns.AddressType{Bits: t.AddressBits()} },
}

// funcBuiltins are the builtins called by bare name
var funcBuiltins = map[string]bool{
	"require":   true,
	"assert":    true,
	"revert":    true,
	"keccak256": true,
	"gasleft":   true,
}

// builtinCall builds a call to a source builtin, checking that the target
// provides it when its lowering is target specific
func (r *resolver) builtinCall(ctx *context, name string, span ast.Span, args []ns.Expr, t ns.Type) ns.Expr {
	b := builtins.Source[name]
	if b.Hook && !r.target.HasBuiltin(name) {
		r.errorf(errors.ErrorUnsupportedBuiltin, span, "builtin '%s' is not available on target '%s'", name, r.target.Name())
		return ns.NewError(span)
	}
	switch b.Access {
	case builtins.Read:
		r.readState(ctx, span)
	case builtins.Write:
		r.writeState(ctx, span)
	}
	return &ns.BuiltinCall{Base: ns.Base{Loc: span, Ty: t}, Name: name, Args: args, Hook: b.Hook}
}

// builtinFunction resolves keccak256(...) and gasleft(). require, assert and
// revert are statements and are rejected in expression position.
func (r *resolver) builtinFunction(ctx *context, x *ast.CallExpr, name string) ns.Expr {
	span := ast.SpanOf(x)
	args, _ := r.args(ctx, x, span)
	switch name {
	case "require", "assert", "revert":
		r.errorf(errors.ErrorInvalidStatement, span, "'%s' must be used as a statement", name)
		return ns.NewError(span)
	}
	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "'%s' is not allowed in constant expressions", name)
		return ns.NewError(span)
	}
	if args.named || args.unresolved {
		if args.named {
			r.errorf(errors.ErrorInvalidArguments, span, "'%s' does not take named arguments", name)
		}
		return ns.NewError(span)
	}
	want := builtins.Source[name].Args
	if args.len() != want {
		r.errorf(errors.ErrorInvalidArguments, span, "'%s' expects %s, %d provided", name, plural(want, "argument"), args.len())
		return ns.NewError(span)
	}
	switch name {
	case "keccak256":
		data := r.coerce(ctx, args.exprs[0], ns.Bytes)
		return r.builtinCall(ctx, name, span, []ns.Expr{data}, ns.FixedBytesType{N: 32})
	default:
		return r.builtinCall(ctx, name, span, nil, ns.Uint(64))
	}
}

// abiEncode resolves abi.encode(...), abi.encodePacked(...) and
// abi.encodeWithSelector(selector, ...). The encoding follows the target ABI
// and is lowered by the target.
func (r *resolver) abiEncode(ctx *context, x *ast.CallExpr, member string) ns.Expr {
	span := ast.SpanOf(x)
	name := "abi." + member
	args, _ := r.args(ctx, x, span)
	if _, ok := builtins.Source[name]; !ok {
		r.errorf(errors.ErrorUndefinedFunction, span, "'abi' has no member '%s'", member)
		return ns.NewError(span)
	}
	if ctx.constant {
		r.errorf(errors.ErrorNotConstant, span, "'%s' is not allowed in constant expressions", name)
		return ns.NewError(span)
	}
	if args.named || args.unresolved {
		if args.named {
			r.errorf(errors.ErrorInvalidArguments, span, "'%s' does not take named arguments", name)
		}
		return ns.NewError(span)
	}
	withSelector := member == "encodeWithSelector"
	if withSelector && args.len() == 0 {
		r.errorf(errors.ErrorInvalidArguments, span, "'%s' expects a selector as first argument", name)
		return ns.NewError(span)
	}

	out := make([]ns.Expr, 0, args.len())
	for i, e := range args.exprs {
		if !r.single(e) {
			return ns.NewError(span)
		}
		if withSelector && i == 0 {
			e = r.coerce(ctx, e, ns.FixedBytesType{N: r.target.SelectorBytes()})
		} else if lit, ok := isLiteral(e); ok {
			e = convert(lit, lit.Type())
		}
		if ns.IsUnresolved(e.Type()) {
			return ns.NewError(span)
		}
		if _, ok := e.Type().(ns.MappingType); ok {
			r.errorf(errors.ErrorInvalidArguments, e.Span(), "mappings cannot be encoded")
			return ns.NewError(span)
		}
		out = append(out, e)
	}
	return r.builtinCall(ctx, name, span, out, ns.Bytes)
}
