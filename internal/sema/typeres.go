package sema

import (
	"strconv"
	"strings"

	"polyc/internal/ast"
	"polyc/internal/errors"
	"polyc/internal/ns"
)

// resolveType turns a written type into a resolved type. Names are looked
// up in contract c and its bases first, then at file level.
func (r *resolver) resolveType(t ast.TypeExpr, c *ns.Contract) ns.Type {
	return r.scopedType(t, c, nil)
}

// scopedType resolves t with the locals of fn in view, so that array lengths
// naming a variable are reported as non-constant rather than unknown
func (r *resolver) scopedType(t ast.TypeExpr, c *ns.Contract, fn *context) ns.Type {
	switch x := t.(type) {
	case *ast.ElementaryType:
		et, ok := r.elementaryType(x.Name, x.Payable)
		if !ok {
			r.errorf(errors.ErrorInvalidType, ast.SpanOf(x), "'%s' is not a valid type", x.Name)
			return ns.Unresolved
		}
		return et

	case *ast.UserType:
		return r.userType(x, c)

	case *ast.ArrayType:
		elem := r.scopedType(x.Elem, c, fn)
		if x.Len == nil {
			return ns.ArrayType{Elem: elem, Len: -1}
		}
		ctx := r.constContext(c)
		if fn != nil {
			ctx = &context{contract: fn.contract, fn: fn.fn, scope: fn.scope, constant: true}
		}
		v, ok := r.constInt(ctx, r.expr(ctx, x.Len))
		if !ok {
			return ns.Unresolved
		}
		if v.IsZero() {
			r.errorf(errors.ErrorInvalidType, ast.SpanOf(x.Len), "zero size array")
			return ns.Unresolved
		}
		if v.BitLen() > 32 {
			r.errorf(errors.ErrorInvalidType, ast.SpanOf(x.Len), "array length %s is too large", v.ToBig().String())
			return ns.Unresolved
		}
		return ns.ArrayType{Elem: elem, Len: int64(v.Uint64())}

	case *ast.MappingType:
		key := r.scopedType(x.Key, c, fn)
		value := r.scopedType(x.Value, c, fn)
		switch key.(type) {
		case ns.MappingType, ns.ArrayType, ns.StructType:
			r.errorf(errors.ErrorInvalidType, ast.SpanOf(x.Key), "key of mapping cannot be %s", key)
			return ns.Unresolved
		}
		return ns.MappingType{Key: key, Value: value}

	case *ast.FunctionType:
		ft := ns.FunctionType{External: x.Visibility == ast.VisExternal}
		for _, p := range x.Params {
			ft.Params = append(ft.Params, r.scopedType(p.Type, c, fn))
		}
		for _, p := range x.Returns {
			ft.Returns = append(ft.Returns, r.scopedType(p.Type, c, fn))
		}
		if x.Mutability != ast.MutNonPayable {
			ft.Mutability = x.Mutability.String()
		}
		return ft
	}
	return ns.Unresolved
}

// elementaryType parses builtin type names such as uint64, bytes4 or address
func (r *resolver) elementaryType(name string, payable bool) (ns.Type, bool) {
	switch name {
	case "bool":
		return ns.Bool, true
	case "string":
		return ns.String, true
	case "bytes":
		return ns.Bytes, true
	case "address":
		return ns.AddressType{Bits: r.target.AddressBits(), Payable: payable}, true
	}
	if n, ok := widthSuffix(name, "uint"); ok && n%8 == 0 && n >= 8 && n <= 256 {
		return ns.Uint(n), true
	}
	if n, ok := widthSuffix(name, "int"); ok && n%8 == 0 && n >= 8 && n <= 256 {
		return ns.Int(n), true
	}
	if n, ok := widthSuffix(name, "bytes"); ok && n >= 1 && n <= 32 {
		return ns.FixedBytesType{N: n}, true
	}
	return nil, false
}

func widthSuffix(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix):])
	return n, err == nil
}

func (r *resolver) userType(x *ast.UserType, c *ns.Contract) ns.Type {
	span := ast.SpanOf(x)
	var sym *ns.Symbol
	if len(x.Path) == 1 {
		sym = r.lookupMember(c, x.Path[0].Name)
		if sym == nil {
			sym = r.ns.Lookup(x.Path[0].Name)
		}
	} else {
		names := make([]string, len(x.Path))
		for i, id := range x.Path {
			names[i] = id.Name
		}
		sym = r.ns.Lookup(strings.Join(names, "."))
	}
	if sym == nil {
		name := x.Path[len(x.Path)-1].Name
		r.diag(errors.UndefinedName(name, span, r.typeNames(c)))
		return ns.Unresolved
	}
	switch sym.Kind {
	case ns.SymStruct:
		return ns.StructType{Def: sym.Struct}
	case ns.SymEnum:
		return ns.EnumType{Def: sym.Enum}
	case ns.SymContract:
		return ns.ContractType{Def: sym.Contract}
	}
	r.errorf(errors.ErrorInvalidType, span, "'%s' is a %s, not a type", x.Path[len(x.Path)-1].Name, sym.Kind)
	return ns.Unresolved
}

// lookupMember finds a contract-level name in c or its bases, most derived first
func (r *resolver) lookupMember(c *ns.Contract, name string) *ns.Symbol {
	if c == nil {
		return nil
	}
	linear := c.Linear
	if linear == nil {
		linear = []*ns.Contract{c}
	}
	for _, b := range linear {
		if sym := r.ns.Lookup(b.Name + "." + name); sym != nil {
			return sym
		}
	}
	return nil
}

func (r *resolver) typeNames(c *ns.Contract) []string {
	var names []string
	for _, name := range r.ns.SymbolNames() {
		sym := r.ns.Lookup(name)
		if sym.Kind != ns.SymStruct && sym.Kind != ns.SymEnum && sym.Kind != ns.SymContract {
			continue
		}
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			if c == nil || name[:i] != c.Name {
				continue
			}
			name = name[i+1:]
		}
		names = append(names, name)
	}
	return names
}
