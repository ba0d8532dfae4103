package sema

import (
	"fmt"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// collect registers every file-level and contract-level name. Types of
// members are resolved by later passes, so declarations may appear in any order.
func (r *resolver) collect() {
	for _, item := range r.unit.Items {
		switch d := item.(type) {
		case *ast.ContractDecl:
			r.collectContract(d)
		default:
			r.collectMember(nil, item)
		}
	}
}

func (r *resolver) collectContract(d *ast.ContractDecl) {
	c := &ns.Contract{
		Name: d.Name.Name,
		Kind: d.Kind,
		Span: identSpan(d.Name),
		Decl: d,
	}
	if prev, ok := r.ns.Define(c.Name, &ns.Symbol{Kind: ns.SymContract, Span: c.Span, Contract: c}); !ok {
		r.diag(errors.AlreadyDefined(c.Name, c.Span, prev.Span))
		return
	}
	r.ns.Contracts = append(r.ns.Contracts, c)
	for _, part := range d.Parts {
		r.collectMember(c, part)
	}
}

// collectMember registers one declaration, inside c or at file level when c is nil
func (r *resolver) collectMember(c *ns.Contract, item ast.Decl) {
	switch d := item.(type) {
	case *ast.StructDecl:
		s := &ns.Struct{Name: d.Name.Name, Contract: c, Span: identSpan(d.Name), Decl: d}
		if r.define(c, s.Name, &ns.Symbol{Kind: ns.SymStruct, Span: s.Span, Struct: s}) {
			r.ns.Structs = append(r.ns.Structs, s)
			if c != nil {
				c.Structs = append(c.Structs, s)
			}
		}

	case *ast.EnumDecl:
		e := r.enumDecl(c, d)
		if r.define(c, e.Name, &ns.Symbol{Kind: ns.SymEnum, Span: e.Span, Enum: e}) {
			r.ns.Enums = append(r.ns.Enums, e)
			if c != nil {
				c.Enums = append(c.Enums, e)
			}
		}

	case *ast.EventDecl:
		ev := &ns.Event{Name: d.Name.Name, Contract: c, Span: identSpan(d.Name), Anonymous: d.Anonymous}
		if prev, ok := r.ns.DefineEvent(qualify(c, ev.Name), ev); !ok {
			r.diag(errors.AlreadyDefined(ev.Name, ev.Span, prev.Span))
			return
		}
		r.eventDecls[ev] = d
		r.ns.Events = append(r.ns.Events, ev)
		if c != nil {
			c.Events = append(c.Events, ev)
		}

	case *ast.ErrorDecl:
		ue := &ns.UserError{Name: d.Name.Name, Contract: c, Span: identSpan(d.Name)}
		if r.define(c, ue.Name, &ns.Symbol{Kind: ns.SymError, Span: ue.Span, Error: ue}) {
			r.errorDecls[ue] = d
			r.ns.Errors = append(r.ns.Errors, ue)
			if c != nil {
				c.Errors = append(c.Errors, ue)
			}
		}

	case *ast.FunctionDecl:
		r.collectFunction(c, d)

	case *ast.VarDecl:
		r.collectVariable(c, d)

	case *ast.ContractDecl:
		r.errorf(errors.ErrorGenericSemantic, identSpan(d.Name), "contracts cannot be nested")

	case *ast.Import:
		if c != nil {
			r.errorf(errors.ErrorGenericSemantic, ast.SpanOf(d), "import must be at file level")
		}

	case *ast.BadDecl:
		// reported by the parser
	}
}

func (r *resolver) define(c *ns.Contract, name string, sym *ns.Symbol) bool {
	if prev, ok := r.ns.Define(qualify(c, name), sym); !ok {
		r.diag(errors.AlreadyDefined(name, sym.Span, prev.Span))
		return false
	}
	return true
}

func (r *resolver) enumDecl(c *ns.Contract, d *ast.EnumDecl) *ns.Enum {
	e := &ns.Enum{Name: d.Name.Name, Contract: c, Span: identSpan(d.Name)}
	seen := make(map[string]ast.Span)
	for _, v := range d.Values {
		span := identSpan(v)
		if prev, ok := seen[v.Name]; ok {
			r.diag(errors.AlreadyDefined(v.Name, span, prev))
			continue
		}
		seen[v.Name] = span
		e.Values = append(e.Values, v.Name)
		e.Spans = append(e.Spans, span)
	}
	switch {
	case len(e.Values) == 0:
		r.errorf(errors.ErrorInvalidType, e.Span, "enum '%s' has no values", e.Name)
	case len(e.Values) > 256:
		r.errorf(errors.ErrorInvalidType, e.Span, "enum '%s' has %d values, at most 256 are allowed", e.Name, len(e.Values))
	}
	return e
}

func (r *resolver) collectFunction(c *ns.Contract, d *ast.FunctionDecl) {
	f := &ns.Function{
		Contract:   c,
		Kind:       d.Kind,
		Span:       ast.SpanOf(d),
		Decl:       d,
		Visibility: d.Visibility,
		Mutability: d.Mutability,
		Virtual:    d.Virtual,
		HasBody:    d.Body != nil,
	}
	if d.Name != nil {
		f.Name = d.Name.Name
		f.Span = identSpan(d.Name)
	}

	if c == nil {
		if d.Kind != ast.FuncRegular {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "%s must be declared inside a contract", kindName(d.Kind))
			return
		}
		if d.Visibility != ast.VisDefault {
			r.errorf(errors.ErrorGenericSemantic, f.Span, "free function '%s' cannot have visibility '%s'", f.Name, d.Visibility)
		}
		if d.Virtual || d.Override != nil {
			r.errorf(errors.ErrorOverride, f.Span, "free function '%s' cannot be virtual or override", f.Name)
		}
		if !f.HasBody {
			r.errorf(errors.ErrorMissingImplementation, f.Span, "free function '%s' must have a body", f.Name)
		}
		f.Visibility = ast.VisInternal
		f.Virtual, f.Override = false, nil
	} else if f.Visibility == ast.VisDefault {
		f.Visibility = ast.VisPublic
	}

	switch d.Kind {
	case ast.FuncRegular:
		if _, ok := r.ns.DefineFunction(qualify(c, f.Name), f); !ok {
			prev := r.ns.Lookup(qualify(c, f.Name))
			r.diag(errors.AlreadyDefined(f.Name, f.Span, prev.Span))
			return
		}
	default:
		f.Name = kindName(d.Kind)
		for _, other := range c.Functions {
			if other.Kind == d.Kind {
				r.diag(errors.NewError(errors.ErrorInvalidConstructor,
					fmt.Sprintf("contract '%s' already has a %s", c.Name, f.Name), f.Span).
					WithNote(other.Span, fmt.Sprintf("previous %s", f.Name)).
					Build())
				return
			}
		}
	}

	r.ns.AddFunction(f)
	if c != nil {
		c.Functions = append(c.Functions, f)
	}
}

func kindName(k ast.FunctionKind) string {
	switch k {
	case ast.FuncConstructor:
		return "constructor"
	case ast.FuncFallback:
		return "fallback"
	case ast.FuncReceive:
		return "receive"
	default:
		return "function"
	}
}

func (r *resolver) collectVariable(c *ns.Contract, d *ast.VarDecl) {
	kind := ns.VarState
	if d.Constant {
		kind = ns.VarConstant
	}
	v := r.ns.NewVariable(d.Name.Name, ns.Unresolved, kind, identSpan(d.Name))
	v.Contract = c
	v.Visibility = d.Visibility
	v.Immutable = d.Immutable

	if c == nil && !d.Constant {
		r.errorf(errors.ErrorGenericSemantic, v.Span, "global variable '%s' must be constant", v.Name)
		return
	}
	if !r.define(c, v.Name, &ns.Symbol{Kind: ns.SymVariable, Span: v.Span, Variable: v}) {
		return
	}
	r.varDecls[v] = d
	if d.Constant {
		r.ns.Constants = append(r.ns.Constants, v)
		if d.Init == nil {
			r.errorf(errors.ErrorNotConstant, v.Span, "constant '%s' must be initialized", v.Name)
		}
	}
	if c != nil {
		c.Variables = append(c.Variables, v)
	}
}

// resolveTypeDecls resolves struct fields, event fields and error fields
func (r *resolver) resolveTypeDecls() {
	for _, s := range r.ns.Structs {
		if s.Contract != nil && s.Contract.Fatal {
			continue
		}
		seen := make(map[string]ast.Span)
		for _, p := range s.Decl.Fields {
			t := r.resolveType(p.Type, s.Contract)
			name, span := "", ast.SpanOf(p)
			if p.Name != nil {
				name, span = p.Name.Name, identSpan(p.Name)
			}
			if prev, ok := seen[name]; ok {
				r.diag(errors.AlreadyDefined(name, span, prev))
				continue
			}
			seen[name] = span
			s.Fields = append(s.Fields, &ns.Field{Name: name, Type: t, Span: span})
		}
		if len(s.Fields) == 0 {
			r.errorf(errors.ErrorInvalidType, s.Span, "struct '%s' has no fields", s.Name)
		}
	}
	for _, s := range r.ns.Structs {
		r.checkRecursiveStruct(s)
	}

	for _, ev := range r.ns.Events {
		d := r.eventDecls[ev]
		if ev.Contract != nil && ev.Contract.Fatal {
			continue
		}
		ev.Fields = r.resolveFields(ev.Contract, d.Fields, true)
		indexed := 0
		for _, f := range ev.Fields {
			if f.Indexed {
				indexed++
			}
		}
		limit := 3
		if ev.Anonymous {
			limit = 4
		}
		if indexed > limit {
			r.errorf(errors.ErrorInvalidType, ev.Span, "event '%s' has %d indexed fields, at most %d are allowed", ev.Name, indexed, limit)
		}
		ev.Signature = signature(ev.Name, fieldTypes(ev.Fields))
		ev.Topic = topic(ev.Signature)
	}
	for _, ue := range r.ns.Errors {
		d := r.errorDecls[ue]
		if ue.Contract != nil && ue.Contract.Fatal {
			continue
		}
		ue.Fields = r.resolveFields(ue.Contract, d.Fields, false)
		ue.Signature = signature(ue.Name, fieldTypes(ue.Fields))
		ue.Selector = r.selector(ue.Signature)
	}
}

func (r *resolver) resolveFields(c *ns.Contract, params []*ast.Param, allowIndexed bool) []*ns.Param {
	out := make([]*ns.Param, 0, len(params))
	for _, p := range params {
		np := &ns.Param{Type: r.resolveType(p.Type, c), Span: ast.SpanOf(p), Indexed: p.Indexed && allowIndexed}
		if p.Name != nil {
			np.Name = p.Name.Name
		}
		out = append(out, np)
	}
	return out
}

func fieldTypes(ps []*ns.Param) []ns.Type {
	ts := make([]ns.Type, len(ps))
	for i, p := range ps {
		ts[i] = p.Type
	}
	return ts
}

// checkRecursiveStruct rejects structs that contain themselves without a
// dynamic array or mapping in between. Every field closing a cycle is
// marked unresolved so that sizes and layouts stay finite.
func (r *resolver) checkRecursiveStruct(s *ns.Struct) {
	reported := false
	var visit func(cur *ns.Struct, path []*ns.Struct)
	visit = func(cur *ns.Struct, path []*ns.Struct) {
		for _, f := range cur.Fields {
			inner := directStruct(f.Type)
			if inner == nil {
				continue
			}
			if inner == s {
				if !reported {
					r.diag(errors.NewError(errors.ErrorInvalidType,
						fmt.Sprintf("struct '%s' has infinite size", s.Name), s.Span).
						WithNote(f.Span, fmt.Sprintf("recursive field '%s'", f.Name)).
						Build())
					reported = true
				}
				f.Type = ns.Unresolved
				continue
			}
			seen := false
			for _, p := range path {
				if p == inner {
					seen = true
				}
			}
			if !seen {
				visit(inner, append(path, inner))
			}
		}
	}
	visit(s, []*ns.Struct{s})
}

// directStruct returns the struct embedded by value in t, if any
func directStruct(t ns.Type) *ns.Struct {
	switch x := t.(type) {
	case ns.StructType:
		return x.Def
	case ns.ArrayType:
		if x.Len >= 0 {
			return directStruct(x.Elem)
		}
	}
	return nil
}
