package sema

import (
	"polyc/internal/ns"
)

// scope is one lexical block of local variables
type scope struct {
	vars   map[string]*ns.Variable
	parent *scope
	// asm marks scopes opened by assembly blocks
	asm bool
	// fences stop lookups at an assembly function boundary
	fence bool
	// functions declared in an assembly block, visible to the whole block
	functions map[string]*ns.Function
}

func newScope(parent *scope) *scope {
	return &scope{
		vars:   make(map[string]*ns.Variable),
		parent: parent,
	}
}

func (s *scope) define(v *ns.Variable) {
	s.vars[v.Name] = v
}

func (s *scope) lookup(name string) *ns.Variable {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v
		}
		if cur.fence {
			return nil
		}
	}
	return nil
}

func (s *scope) lookupLocal(name string) *ns.Variable {
	return s.vars[name]
}

// lookupFunction finds an assembly function in this block or an enclosing one
func (s *scope) lookupFunction(name string) *ns.Function {
	for cur := s; cur != nil; cur = cur.parent {
		if f, ok := cur.functions[name]; ok {
			return f
		}
	}
	return nil
}

// names lists every variable visible from s, for suggestions
func (s *scope) names() []string {
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			out = append(out, name)
		}
		if cur.fence {
			break
		}
	}
	return out
}
