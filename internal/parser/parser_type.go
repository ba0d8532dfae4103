package parser

import (
	"strconv"
	"strings"

	"polyc/internal/ast"
)

// IsElementaryTypeName reports whether name is a builtin type keyword
func IsElementaryTypeName(name string) bool {
	switch name {
	case "bool", "address", "string", "bytes", "uint", "int", "byte":
		return true
	}
	for _, prefix := range []string{"uint", "int"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			bits, err := strconv.Atoi(rest)
			return err == nil && bits >= 8 && bits <= 256 && bits%8 == 0 && rest[0] != '0'
		}
	}
	if rest, ok := strings.CutPrefix(name, "bytes"); ok {
		n, err := strconv.Atoi(rest)
		return err == nil && n >= 1 && n <= 32 && rest[0] != '0'
	}
	return false
}

// parseType parses a type and reports an error when none is present
func (p *Parser) parseType() ast.TypeExpr {
	typ := p.parseTypeOpt()
	if typ == nil {
		p.errorAtCurrent("expected type")
	}
	return typ
}

// tryParseType speculatively parses a type followed by a variable name. On
// failure the parser is rewound and no errors are kept.
func (p *Parser) tryParseType() ast.TypeExpr {
	save, errs := p.current, len(p.errors)
	typ := p.parseTypeOpt()
	if typ != nil {
		if p.check("memory") || p.check("storage") || p.check("calldata") {
			next := p.peekAt(1)
			if next.Type == tokIdent && !reservedWords[next.Value] {
				return typ
			}
		} else if p.isIdentifier() {
			return typ
		}
	}
	p.current = save
	p.errors = p.errors[:errs]
	return nil
}

func (p *Parser) parseTypeOpt() ast.TypeExpr {
	var typ ast.TypeExpr
	tok := p.peek()

	switch {
	case tok.Type == tokIdent && IsElementaryTypeName(tok.Value):
		p.advance()
		et := &ast.ElementaryType{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Name: canonicalTypeName(tok.Value)}
		if et.Name == "address" && p.check("payable") {
			p.advance()
			et.Payable = true
			et.EndPos = p.prevEnd()
		}
		typ = et
	case p.check("mapping"):
		typ = p.parseMappingType()
	case p.check("function") && p.checkAhead(1, "("):
		typ = p.parseFunctionType()
	case p.isIdentifier():
		ut := &ast.UserType{Pos: p.makePos(tok)}
		ut.Path = append(ut.Path, p.makeIdent(p.advance()))
		for p.check(".") && p.peekAt(1).Type == tokIdent {
			p.advance()
			ut.Path = append(ut.Path, p.makeIdent(p.advance()))
		}
		ut.EndPos = p.prevEnd()
		typ = ut
	default:
		return nil
	}

	for p.check("[") {
		p.advance()
		arr := &ast.ArrayType{Pos: typ.NodePos(), Elem: typ}
		if !p.check("]") {
			arr.Len = p.parseExpr()
		}
		if !p.check("]") {
			return nil
		}
		p.advance()
		arr.EndPos = p.prevEnd()
		typ = arr
	}
	return typ
}

func (p *Parser) parseMappingType() ast.TypeExpr {
	start := p.advance()
	mt := &ast.MappingType{Pos: p.makePos(start)}
	p.consume("(", "expected '(' after 'mapping'")
	mt.Key = p.parseType()
	if p.isIdentifier() {
		p.advance()
	}
	p.consume("=>", "expected '=>' in mapping type")
	mt.Value = p.parseType()
	if p.isIdentifier() {
		p.advance()
	}
	p.consume(")", "expected ')' to close mapping type")
	mt.EndPos = p.prevEnd()
	if mt.Key == nil || mt.Value == nil {
		return nil
	}
	return mt
}

func (p *Parser) parseFunctionType() ast.TypeExpr {
	start := p.advance()
	ft := &ast.FunctionType{Pos: p.makePos(start), Visibility: ast.VisInternal}
	ft.Params = p.parseParamList(false)
	for {
		switch {
		case p.check("external"), p.check("internal"):
			ft.Visibility = visibilityOf(p.advance().Value)
			continue
		case p.check("pure"), p.check("view"), p.check("payable"):
			ft.Mutability = mutabilityOf(p.advance().Value)
			continue
		}
		break
	}
	if p.match("returns") {
		ft.Returns = p.parseParamList(false)
	}
	ft.EndPos = p.prevEnd()
	return ft
}

func canonicalTypeName(name string) string {
	switch name {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	case "byte":
		return "bytes1"
	}
	return name
}
