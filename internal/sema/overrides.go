package sema

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// checkInheritance checks every override relation and reports functions
// that a concrete contract leaves unimplemented. Bases are processed before
// the contracts deriving from them so that their Overrides are known.
func (r *resolver) checkInheritance() {
	cs := r.contracts()
	sort.SliceStable(cs, func(i, j int) bool { return len(cs[i].Linear) < len(cs[j].Linear) })
	for _, c := range cs {
		for _, f := range c.Functions {
			if f.Kind != ast.FuncRegular || f.Asm != nil {
				continue
			}
			r.checkOverride(c, f, r.overridden(c, f))
		}
		r.checkConflicts(c)
		if c.IsConcrete() {
			r.checkImplemented(c)
		}
	}
}

// sameSignature reports whether g has the name and parameter types of f
func sameSignature(f, g *ns.Function) bool {
	return f.Name == g.Name && g.Kind == ast.FuncRegular && ns.EqualList(f.ParamTypes(), g.ParamTypes())
}

// overridden finds the base functions f overrides: along each direct base's
// linearization, the first function with the same signature
func (r *resolver) overridden(c *ns.Contract, f *ns.Function) []*ns.Function {
	var found []*ns.Function
	for _, b := range c.Bases {
	walk:
		for _, x := range b.Linear {
			for _, g := range x.Functions {
				if sameSignature(f, g) {
					if !containsFunction(found, g) {
						found = append(found, g)
					}
					break walk
				}
			}
		}
	}
	return pruneOverridden(found)
}

// pruneOverridden drops functions that another function of the list
// already overrides
func pruneOverridden(fs []*ns.Function) []*ns.Function {
	out := fs[:0:0]
	for _, g := range fs {
		shadowed := false
		for _, h := range fs {
			if h != g && overrides(h, g) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, g)
		}
	}
	return out
}

// overrides reports whether h overrides g, directly or through a chain
func overrides(h, g *ns.Function) bool {
	for _, o := range h.Overrides {
		if o == g || overrides(o, g) {
			return true
		}
	}
	return false
}

func containsFunction(fs []*ns.Function, f *ns.Function) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// overrideList renders "override(A,B)" for the contracts of fs
func overrideList(fs []*ns.Function) string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Contract.Name)
	}
	sort.Strings(names)
	return "override(" + strings.Join(names, ",") + ")"
}

func setNames(s mapset.Set) string {
	var names []string
	for _, x := range s.ToSlice() {
		names = append(names, x.(*ns.Contract).Name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (r *resolver) checkOverride(c *ns.Contract, f *ns.Function, found []*ns.Function) {
	if len(found) == 0 {
		if f.Override != nil {
			r.errorf(errors.ErrorOverride, f.Override.Span, "'%s' does not override anything", f.Name)
		}
		return
	}
	f.Overrides = found

	var notVirtual []*ns.Function
	for _, g := range found {
		if !g.Virtual {
			notVirtual = append(notVirtual, g)
		}
	}
	if len(notVirtual) > 0 {
		b := errors.NewError(errors.ErrorOverride,
			fmt.Sprintf("function '%s' overrides functions which are not 'virtual'", f.Name), f.Span)
		for _, g := range notVirtual {
			b.WithNote(g.Span, fmt.Sprintf("function '%s' is not specified 'virtual'", g.QualifiedName()))
		}
		r.diag(b.Build())
	}

	switch {
	case f.Override == nil:
		if len(found) == 1 && found[0].Contract.IsInterface() {
			// implementing a single interface function needs no annotation
			break
		}
		b := errors.NewError(errors.ErrorOverride, fmt.Sprintf("function '%s' should specify 'override'", f.Name), f.Span)
		if len(found) > 1 {
			b = errors.NewError(errors.ErrorOverride,
				fmt.Sprintf("function '%s' should specify override list '%s'", f.Name, overrideList(found)), f.Span)
		}
		for _, g := range found {
			b.WithNote(g.Span, fmt.Sprintf("previous definition of function '%s'", g.Name))
		}
		r.diag(b.Build())

	case len(found) > 1 || len(f.Override.Bases) > 0:
		expected := mapset.NewThreadUnsafeSet()
		for _, g := range found {
			expected.Add(g.Contract)
		}
		given := mapset.NewThreadUnsafeSet()
		for _, b := range f.Override.Bases {
			given.Add(b)
		}
		if len(found) == 1 && given.Cardinality() == 0 {
			break
		}
		if missing := expected.Difference(given); missing.Cardinality() > 0 {
			r.overrideListError(f, found, fmt.Sprintf("function '%s' missing overrides '%s', specify '%s'", f.Name, setNames(missing), overrideList(found)))
		}
		if extra := given.Difference(expected); extra.Cardinality() > 0 {
			r.overrideListError(f, found, fmt.Sprintf("function '%s' includes extraneous overrides '%s', specify '%s'", f.Name, setNames(extra), overrideList(found)))
		}
	}

	for _, g := range found {
		if !ns.EqualList(f.ReturnTypes(), g.ReturnTypes()) {
			r.diag(errors.NewError(errors.ErrorOverride,
				fmt.Sprintf("function '%s' overrides function with different return types", f.Name), f.Span).
				WithNote(g.Span, fmt.Sprintf("previous definition of function '%s'", g.Name)).
				Build())
		}
		if f.Visibility != g.Visibility && !(g.Visibility == ast.VisExternal && f.Visibility == ast.VisPublic) {
			r.diag(errors.NewError(errors.ErrorOverride,
				fmt.Sprintf("function '%s' changes visibility from '%s' to '%s'", f.Name, g.Visibility, f.Visibility), f.Span).
				WithNote(g.Span, fmt.Sprintf("previous definition of function '%s'", g.Name)).
				Build())
		}
		if !strictEnough(g.Mutability, f.Mutability) {
			r.diag(errors.NewError(errors.ErrorOverride,
				fmt.Sprintf("function '%s' changes mutability from '%s' to '%s'", f.Name, g.Mutability, f.Mutability), f.Span).
				WithNote(g.Span, fmt.Sprintf("previous definition of function '%s'", g.Name)).
				Build())
		}
	}
	log.Debugf("%s overrides %d base functions", f.QualifiedName(), len(found))
}

func (r *resolver) overrideListError(f *ns.Function, found []*ns.Function, msg string) {
	b := errors.NewError(errors.ErrorOverride, msg, f.Override.Span)
	for _, g := range found {
		b.WithNote(g.Span, fmt.Sprintf("previous definition of function '%s'", g.QualifiedName()))
	}
	r.diag(b.Build())
}

// strictEnough reports whether an override may change mutability from base
// to derived: payable stays payable, otherwise only stricter is allowed
func strictEnough(base, derived ast.Mutability) bool {
	rank := map[ast.Mutability]int{ast.MutNonPayable: 1, ast.MutView: 2, ast.MutPure: 3}
	if base == ast.MutPayable || derived == ast.MutPayable {
		return base == derived
	}
	return rank[derived] >= rank[base]
}

// checkConflicts reports signatures inherited from two or more unrelated
// bases that c does not override itself
func (r *resolver) checkConflicts(c *ns.Contract) {
	type group struct {
		first *ns.Function
		fns   []*ns.Function
	}
	var order []string
	groups := make(map[string]*group)
	for _, x := range c.Linear[1:] {
		for _, g := range x.Functions {
			if g.Kind != ast.FuncRegular || g.Asm != nil {
				continue
			}
			key := g.Name + typeKey(g.ParamTypes())
			gr := groups[key]
			if gr == nil {
				gr = &group{first: g}
				groups[key] = gr
				order = append(order, key)
			}
			gr.fns = append(gr.fns, g)
		}
	}
	for _, key := range order {
		gr := groups[key]
		if ownFunction(c, gr.first) != nil {
			continue
		}
		heads := pruneOverridden(gr.fns)
		if len(heads) < 2 {
			continue
		}
		implemented := 0
		for _, h := range heads {
			if h.HasBody {
				implemented++
			}
		}
		if implemented == 0 && !c.IsConcrete() {
			continue
		}
		b := errors.NewError(errors.ErrorOverride,
			fmt.Sprintf("derived contract '%s' must override function '%s', two or more base contracts define function with same name and parameter types", c.Name, gr.first.Name), c.Span)
		for _, h := range heads {
			b.WithNote(h.Span, fmt.Sprintf("definition of function '%s'", h.QualifiedName()))
		}
		r.diag(b.Build())
	}
}

// ownFunction returns c's own function with the signature of g
func ownFunction(c *ns.Contract, g *ns.Function) *ns.Function {
	for _, f := range c.Functions {
		if sameSignature(g, f) {
			return f
		}
	}
	return nil
}

// checkImplemented reports every function whose most derived definition in
// a concrete contract has no body
func (r *resolver) checkImplemented(c *ns.Contract) {
	seen := make(map[string]bool)
	for _, x := range c.Linear {
		for _, f := range x.Functions {
			if f.Kind != ast.FuncRegular || f.Asm != nil {
				continue
			}
			key := f.Name + typeKey(f.ParamTypes())
			if seen[key] {
				continue
			}
			seen[key] = true
			if !f.HasBody {
				r.diag(errors.NewError(errors.ErrorMissingImplementation,
					fmt.Sprintf("contract '%s' missing implementation for function '%s'", c.Name, f.Name), c.Span).
					WithNote(f.Span, fmt.Sprintf("function '%s' declared here without implementation", f.QualifiedName())).
					Build())
			}
		}
	}
}
