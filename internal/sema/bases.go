package sema

import (
	"fmt"

	mapset "github.com/deckarep/golang-set"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// resolveBases resolves every "is A, B" list to contracts
func (r *resolver) resolveBases() {
	for _, c := range r.ns.Contracts {
		for _, id := range c.Decl.Bases {
			span := identSpan(id)
			if c.IsLibrary() {
				r.errorf(errors.ErrorBaseContract, span, "library '%s' cannot have a base contract", c.Name)
				continue
			}
			sym := r.ns.Lookup(id.Name)
			if sym == nil {
				r.diag(errors.UndefinedName(id.Name, span, r.contractNames()))
				continue
			}
			if sym.Kind != ns.SymContract {
				r.errorf(errors.ErrorBaseContract, span, "'%s' is a %s, not a contract", id.Name, sym.Kind)
				continue
			}
			base := sym.Contract
			switch {
			case base == c:
				r.errorf(errors.ErrorBaseContract, span, "contract '%s' cannot have itself as a base contract", c.Name)
			case containsContract(c.Bases, base):
				r.errorf(errors.ErrorBaseContract, span, "contract '%s' duplicate base '%s'", c.Name, base.Name)
			case c.IsInterface() && !base.IsInterface():
				r.errorf(errors.ErrorBaseContract, span, "interface '%s' cannot have %s '%s' as a base", c.Name, base.Kind, base.Name)
			case base.IsLibrary():
				r.errorf(errors.ErrorBaseContract, span, "library '%s' cannot be used as base contract for %s '%s'", base.Name, c.Kind, c.Name)
			default:
				c.Bases = append(c.Bases, base)
				c.BaseSpans = append(c.BaseSpans, span)
			}
		}
	}
}

func (r *resolver) contractNames() []string {
	var names []string
	for _, name := range r.ns.FileSymbols() {
		if sym := r.ns.Lookup(name); sym.Kind == ns.SymContract {
			names = append(names, name)
		}
	}
	return names
}

func containsContract(list []*ns.Contract, c *ns.Contract) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// baseEdge is one step on the path of the linearization walk
type baseEdge struct {
	contract *ns.Contract
	span     ast.Span
}

// linearizeAll computes the C3 linearization of every contract. A contract
// whose bases are cyclic or cannot be ordered is marked fatal; the other
// contracts of the unit are unaffected.
func (r *resolver) linearizeAll() {
	for _, c := range r.ns.Contracts {
		if c.Linear == nil && !c.Fatal {
			r.c3(c, mapset.NewThreadUnsafeSet(), nil)
		}
	}
}

// c3 linearizes c. Bases listed later are more derived, so
// "contract X is A, B" yields X, B, A, ... as in Solidity.
func (r *resolver) c3(c *ns.Contract, visiting mapset.Set, path []baseEdge) bool {
	if c.Linear != nil {
		return true
	}
	if c.Fatal {
		return false
	}
	visiting.Add(c)
	defer visiting.Remove(c)

	seqs := make([][]*ns.Contract, 0, len(c.Bases)+1)
	direct := make([]*ns.Contract, 0, len(c.Bases))
	for i := len(c.Bases) - 1; i >= 0; i-- {
		base, span := c.Bases[i], c.BaseSpans[i]
		if visiting.Contains(base) {
			r.reportCycle(append(path, baseEdge{c, span}), base)
			return false
		}
		if !r.c3(base, visiting, append(path, baseEdge{c, span})) {
			if !c.Fatal {
				r.fatal(c, errors.NewError(errors.ErrorLinearization,
					fmt.Sprintf("contract '%s' cannot be linearized", c.Name), c.Span).
					WithNote(span, fmt.Sprintf("base '%s' has an invalid inheritance graph", base.Name)).
					Build())
			}
			return false
		}
		seqs = append(seqs, base.Linear)
		direct = append(direct, base)
	}
	seqs = append(seqs, direct)

	merged, ok := c3Merge(seqs)
	if !ok {
		b := errors.NewError(errors.ErrorLinearization,
			fmt.Sprintf("linearization of contract '%s' is impossible", c.Name), c.Span)
		for i, base := range c.Bases {
			b.WithNote(c.BaseSpans[i], fmt.Sprintf("base '%s'", base.Name))
		}
		r.fatal(c, b.Build())
		return false
	}
	c.Linear = append([]*ns.Contract{c}, merged...)
	log.Debugf("linearized %s: %s", c.Name, contractList(c.Linear))
	return true
}

// reportCycle marks every contract on the cycle ending at base as fatal
func (r *resolver) reportCycle(path []baseEdge, base *ns.Contract) {
	start := 0
	for i, e := range path {
		if e.contract == base {
			start = i
		}
	}
	for i := start; i < len(path); i++ {
		e := path[i]
		next := base
		if i+1 < len(path) {
			next = path[i+1].contract
		}
		if !e.contract.Fatal {
			r.fatal(e.contract, errors.NewError(errors.ErrorLinearization,
				fmt.Sprintf("base '%s' from contract '%s' is cyclic", next.Name, e.contract.Name), e.span).Build())
		}
	}
}

func (r *resolver) fatal(c *ns.Contract, d errors.Diagnostic) {
	c.Fatal = true
	r.diag(d)
	log.Infof("contract %s is not resolved further", c.Name)
}

// c3Merge is the C3 merge: repeatedly take the first head that does not
// appear in the tail of any sequence
func c3Merge(seqs [][]*ns.Contract) ([]*ns.Contract, bool) {
	work := make([][]*ns.Contract, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > 0 {
			work = append(work, append([]*ns.Contract(nil), s...))
		}
	}
	var out []*ns.Contract
	for len(work) > 0 {
		var head *ns.Contract
		for _, s := range work {
			if !inAnyTail(work, s[0]) {
				head = s[0]
				break
			}
		}
		if head == nil {
			return nil, false
		}
		out = append(out, head)
		next := work[:0]
		for _, s := range work {
			if s[0] == head {
				s = s[1:]
			}
			if len(s) > 0 {
				next = append(next, s)
			}
		}
		work = next
	}
	return out, true
}

func inAnyTail(seqs [][]*ns.Contract, c *ns.Contract) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

func contractList(cs []*ns.Contract) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ", "
		}
		out += c.Name
	}
	return out
}
