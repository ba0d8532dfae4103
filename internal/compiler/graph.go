package compiler

import (
	"path/filepath"
	"strings"

	"polyc/internal/ast"
	"polyc/internal/errors"
)

// link binds every import to the unit it names. An import is looked up
// relative to the importing file first, then as given. Imports naming no
// unit are left to the resolver to report.
func link(units []*Unit) {
	byPath := make(map[string]*Unit, len(units))
	for _, u := range units {
		byPath[u.Path] = u
	}
	for _, u := range units {
		u.targets = make(map[*ast.Import]*Unit)
		u.cyclic = make(map[*ast.Import]bool)
		if u.AST == nil {
			continue
		}
		for _, item := range u.AST.Items {
			imp, ok := item.(*ast.Import)
			if !ok {
				continue
			}
			if dep := lookupImport(byPath, u.Path, imp.Path); dep != nil {
				u.targets[imp] = dep
			}
		}
	}
}

func lookupImport(byPath map[string]*Unit, from, spec string) *Unit {
	for _, p := range []string{filepath.Join(filepath.Dir(from), spec), filepath.Clean(spec)} {
		if u, ok := byPath[p]; ok {
			return u
		}
	}
	return nil
}

// imports lists the non-cyclic imports of u in source order
func (u *Unit) imports() []*ast.Import {
	var out []*ast.Import
	if u.AST == nil {
		return nil
	}
	for _, item := range u.AST.Items {
		if imp, ok := item.(*ast.Import); ok && u.targets[imp] != nil && !u.cyclic[imp] {
			out = append(out, imp)
		}
	}
	return out
}

const (
	unvisited = iota
	visiting
	visited
)

// order assigns every unit its level: 0 without imports, otherwise one above
// its deepest import. An import closing a cycle is reported and dropped.
// Units are visited in input order so the result does not depend on
// scheduling.
func order(units []*Unit) errors.Diagnostics {
	var diags errors.Diagnostics
	state := make(map[*Unit]int, len(units))
	var stack []*Unit

	var visit func(u *Unit)
	visit = func(u *Unit) {
		state[u] = visiting
		stack = append(stack, u)
		if u.AST != nil {
			for _, item := range u.AST.Items {
				imp, ok := item.(*ast.Import)
				if !ok || u.targets[imp] == nil {
					continue
				}
				dep := u.targets[imp]
				switch state[dep] {
				case unvisited:
					visit(dep)
				case visiting:
					u.cyclic[imp] = true
					diags = append(diags, cycleDiagnostic(imp, stack, dep))
					continue
				}
				if dep.level+1 > u.level {
					u.level = dep.level + 1
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[u] = visited
	}

	for _, u := range units {
		if state[u] == unvisited {
			visit(u)
		}
	}
	return diags
}

func cycleDiagnostic(imp *ast.Import, stack []*Unit, dep *Unit) errors.Diagnostic {
	start := 0
	for i, u := range stack {
		if u == dep {
			start = i
			break
		}
	}
	var names []string
	for _, u := range stack[start:] {
		names = append(names, u.Path)
	}
	names = append(names, dep.Path)
	return errors.NewError(errors.ErrorImportCycle,
		"import cycle: "+strings.Join(names, " -> "), ast.SpanOf(imp)).
		WithHelp("move the shared declarations into a unit both files import").
		Build()
}

// byLevel groups units by level, keeping input order within a level
func byLevel(units []*Unit) [][]*Unit {
	var levels [][]*Unit
	for _, u := range units {
		for len(levels) <= u.level {
			levels = append(levels, nil)
		}
		levels[u.level] = append(levels[u.level], u)
	}
	return levels
}
