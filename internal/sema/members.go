package sema

import (
	"fmt"

	"polyc/internal/abi"
	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

func signature(name string, types []ns.Type) string {
	return abi.Signature(name, types)
}

func topic(sig string) []byte {
	return abi.Topic(sig)
}

func (r *resolver) selector(sig string) []byte {
	return abi.Selector(sig, r.target.SelectorBytes())
}

// resolveStateVariables resolves the types of state variables and lays out
// storage. Initializers are resolved with the function bodies.
func (r *resolver) resolveStateVariables() {
	for _, c := range r.contracts() {
		for _, v := range c.Variables {
			if v.Kind != ns.VarState {
				continue
			}
			d := r.varDecls[v]
			v.Type = r.resolveType(d.Type, c)
			switch {
			case c.IsInterface():
				r.errorf(errors.ErrorGenericSemantic, v.Span, "interface '%s' cannot declare variable '%s'", c.Name, v.Name)
			case c.IsLibrary():
				r.errorf(errors.ErrorGenericSemantic, v.Span, "library '%s' cannot declare variable '%s', only constants are allowed", c.Name, v.Name)
			}
			if v.Immutable && !ns.IsValueType(v.Type) && !ns.IsUnresolved(v.Type) {
				r.errorf(errors.ErrorInvalidType, v.Span, "immutable variable '%s' must have a value type", v.Name)
			}
			if v.Visibility == ast.VisExternal {
				r.errorf(errors.ErrorGenericSemantic, v.Span, "variable '%s' cannot be 'external'", v.Name)
			}
			if v.Visibility == ast.VisDefault {
				v.Visibility = ast.VisInternal
			}
		}
	}

	for _, c := range r.contracts() {
		var next uint64
		for i := len(c.Linear) - 1; i >= 0; i-- {
			base := c.Linear[i]
			for _, v := range base.Variables {
				if v.Kind != ns.VarState {
					continue
				}
				c.Layout = append(c.Layout, ns.StorageSlot{Var: v, Slot: next})
				if base == c {
					v.Slot = next
				}
				next += ns.StorageSlots(v.Type)
			}
		}
		log.Debugf("contract %s uses %d storage slots", c.Name, next)
	}
}

// resolveSignatures resolves parameters and returns of every declared
// function and checks the rules that depend only on the declaration
func (r *resolver) resolveSignatures() {
	for _, f := range r.ns.Functions {
		if f.Decl == nil || (f.Contract != nil && f.Contract.Fatal) {
			continue
		}
		r.resolveSignature(f)
	}
	for _, f := range r.ns.Functions {
		if f.Decl == nil || f.Kind != ast.FuncRegular || (f.Contract != nil && f.Contract.Fatal) {
			continue
		}
		r.checkDuplicateSignature(f)
	}
}

func (r *resolver) resolveSignature(f *ns.Function) {
	d := f.Decl
	c := f.Contract
	library := c != nil && c.IsLibrary()
	internal := f.Visibility == ast.VisInternal || f.Visibility == ast.VisPrivate || library

	for _, p := range d.Params {
		f.Params = append(f.Params, r.param(f, p, ns.VarParam, "parameter", internal))
	}
	for _, p := range d.Returns {
		f.Returns = append(f.Returns, r.param(f, p, ns.VarReturn, "return value", internal))
	}

	f.Signature = signature(f.Name, f.ParamTypes())
	if f.Kind == ast.FuncRegular && f.IsExternallyVisible() && !library {
		f.Selector = r.selector(f.Signature)
	}

	if d.Override != nil {
		f.Override = r.overrideSpec(c, d.Override)
	}

	r.checkDeclaration(f)
}

// param resolves one parameter or return value; unnamed ones get no variable
func (r *resolver) param(f *ns.Function, p *ast.Param, kind ns.VarKind, what string, internal bool) *ns.Param {
	t := r.resolveType(p.Type, f.Contract)
	span := ast.SpanOf(p)
	name := ""
	if p.Name != nil {
		name, span = p.Name.Name, identSpan(p.Name)
	}
	out := &ns.Param{Name: name, Type: t, Span: span}
	if !ns.IsUnresolved(t) {
		label := name
		if label == "" {
			label = t.String()
		}
		r.checkLocation(t, p.Storage, span, what, label, internal)
		if _, isMap := t.(ns.MappingType); isMap && !internal {
			r.errorf(errors.ErrorInvalidType, span, "mapping %s '%s' is only allowed in internal or library functions", what, label)
		}
	}
	if name != "" {
		v := r.ns.NewVariable(name, t, kind, span)
		v.Contract = f.Contract
		v.Storage = p.Storage
		out.Var = v
	}
	return out
}

// checkDeclaration enforces the rules on visibility, mutability, virtual
// and bodies of special functions and interface members
func (r *resolver) checkDeclaration(f *ns.Function) {
	c := f.Contract
	d := f.Decl
	if c == nil {
		return
	}

	switch f.Kind {
	case ast.FuncConstructor:
		if d.Visibility != ast.VisDefault && d.Visibility != ast.VisPublic && d.Visibility != ast.VisInternal {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor cannot be '%s'", d.Visibility)
		}
		if f.Mutability == ast.MutPure || f.Mutability == ast.MutView {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor cannot be declared '%s'", f.Mutability)
		}
		if len(f.Returns) > 0 {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor cannot return values")
		}
		if c.IsInterface() || c.IsLibrary() {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor not allowed in %s '%s'", c.Kind, c.Name)
		}
		if f.Virtual || f.Override != nil {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor cannot be virtual or override")
			f.Virtual, f.Override = false, nil
		}
		if !f.HasBody {
			r.errorf(errors.ErrorInvalidConstructor, f.Span, "constructor must have a body")
		}
		return

	case ast.FuncReceive, ast.FuncFallback:
		name := kindName(f.Kind)
		if d.Visibility != ast.VisExternal {
			r.errorf(errors.ErrorGenericSemantic, f.Span, "%s function must be declared 'external'", name)
		}
		f.Visibility = ast.VisExternal
		if f.Kind == ast.FuncReceive && f.Mutability != ast.MutPayable {
			r.errorf(errors.ErrorMutability, f.Span, "receive function must be declared 'payable'")
		}
		if f.Kind == ast.FuncFallback && (f.Mutability == ast.MutPure || f.Mutability == ast.MutView) {
			r.errorf(errors.ErrorMutability, f.Span, "fallback function cannot be declared '%s'", f.Mutability)
		}
		if len(f.Params) > 0 || len(f.Returns) > 0 {
			r.errorf(errors.ErrorInvalidArguments, f.Span, "%s function cannot have parameters or return values", name)
		}
		if c.IsLibrary() {
			r.errorf(errors.ErrorGenericSemantic, f.Span, "library '%s' cannot have a %s function", c.Name, name)
		}
	}

	switch {
	case c.IsInterface():
		if f.HasBody {
			r.errorf(errors.ErrorGenericSemantic, f.Span, "function '%s' in interface cannot have a body", f.Name)
		}
		if f.Visibility != ast.VisExternal {
			r.errorf(errors.ErrorGenericSemantic, f.Span, "function '%s' in interface must be declared 'external'", f.Name)
		}
		f.Virtual = true
	case c.IsLibrary():
		if f.Virtual {
			r.errorf(errors.ErrorOverride, f.Span, "library function '%s' cannot be 'virtual'", f.Name)
		}
		if f.Mutability == ast.MutPayable {
			r.errorf(errors.ErrorMutability, f.Span, "library function '%s' cannot be 'payable'", f.Name)
		}
		if !f.HasBody {
			r.errorf(errors.ErrorMissingImplementation, f.Span, "library function '%s' must have a body", f.Name)
		}
	default:
		if !f.HasBody && !f.Virtual {
			r.errorf(errors.ErrorMissingImplementation, f.Span, "function '%s' without implementation must be marked 'virtual'", f.Name)
		}
	}
	if f.Visibility == ast.VisPrivate && f.Virtual {
		r.errorf(errors.ErrorOverride, f.Span, "private function '%s' cannot be 'virtual'", f.Name)
	}
	if f.Mutability == ast.MutPayable && !f.IsExternallyVisible() {
		r.errorf(errors.ErrorMutability, f.Span, "internal function '%s' cannot be 'payable'", f.Name)
	}
}

// checkDuplicateSignature reports a function whose parameter types repeat an
// earlier overload of the same contract
func (r *resolver) checkDuplicateSignature(f *ns.Function) {
	sym := r.ns.Lookup(qualify(f.Contract, f.Name))
	if sym == nil {
		return
	}
	for _, other := range sym.Functions {
		if other == f {
			return
		}
		if other.Contract == f.Contract && ns.EqualList(other.ParamTypes(), f.ParamTypes()) {
			r.diag(errors.NewError(errors.ErrorDuplicateDeclaration,
				fmt.Sprintf("function '%s' with the same parameter types is already defined", f.Name), f.Span).
				WithNote(other.Span, fmt.Sprintf("previous definition of '%s'", f.Name)).
				Build())
			return
		}
	}
}

// overrideSpec resolves the contracts named in "override(A, B)"
func (r *resolver) overrideSpec(c *ns.Contract, spec *ast.OverrideSpec) *ns.OverrideSpec {
	out := &ns.OverrideSpec{Span: ast.SpanOf(spec)}
	for _, id := range spec.Bases {
		span := identSpan(id)
		sym := r.ns.Lookup(id.Name)
		if sym == nil {
			r.diag(errors.UndefinedName(id.Name, span, r.contractNames()))
			continue
		}
		if sym.Kind != ns.SymContract {
			r.errorf(errors.ErrorOverride, span, "'%s' in override list is not a contract", id.Name)
			continue
		}
		base := sym.Contract
		if base == c || !c.IsDerivedFrom(base) {
			r.errorf(errors.ErrorOverride, span, "override list names '%s' which is not a base of '%s'", base.Name, c.Name)
			continue
		}
		if containsContract(out.Bases, base) {
			r.errorf(errors.ErrorOverride, span, "duplicate '%s' in override list", base.Name)
			continue
		}
		out.Bases = append(out.Bases, base)
	}
	return out
}
