package parser

import (
	"strconv"

	"polyc/internal/ast"
)

func (p *Parser) parseSourceItem() ast.Decl {
	switch {
	case p.check("pragma"):
		for !p.isAtEnd() && !p.check(";") {
			p.advance()
		}
		p.consume(";", "expected ';' after pragma")
		return nil
	case p.check("import"):
		return p.parseImport()
	case p.check("contract"), p.check("interface"), p.check("library"), p.check("abstract"):
		return p.parseContract()
	}
	return p.parseMember(true)
}

func (p *Parser) parseImport() ast.Decl {
	start := p.advance()
	if !p.checkType(tokString) {
		p.errorAtCurrent("expected import path string")
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad import"}
	}
	pathTok := p.advance()
	path, _ := unquote(pathTok.Value)
	p.consume(";", "expected ';' after import")
	return &ast.Import{Pos: p.makePos(start), EndPos: p.prevEnd(), Path: path}
}

func (p *Parser) parseContract() ast.Decl {
	start := p.peek()
	kind := ast.KindContract
	if p.match("abstract") {
		kind = ast.KindAbstract
		p.consume("contract", "expected 'contract' after 'abstract'")
	} else if p.match("interface") {
		kind = ast.KindInterface
	} else if p.match("library") {
		kind = ast.KindLibrary
	} else {
		p.advance()
	}

	name, ok := p.consumeIdent("expected contract name")
	if !ok {
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad contract"}
	}

	decl := &ast.ContractDecl{Pos: p.makePos(start), Kind: kind, Name: name}
	if p.match("is") {
		for {
			base, ok := p.consumeIdent("expected base contract name")
			if !ok {
				break
			}
			decl.Bases = append(decl.Bases, base)
			if !p.match(",") {
				break
			}
		}
	}

	p.consume("{", "expected '{' after contract header")
	for !p.isAtEnd() && !p.check("}") {
		before := p.current
		if part := p.parseMember(false); part != nil {
			decl.Parts = append(decl.Parts, part)
		}
		if p.current == before {
			p.advance()
		}
	}
	p.consume("}", "expected '}' to close contract")
	decl.EndPos = p.prevEnd()
	return decl
}

// parseMember parses anything that may appear inside a contract or at file level
func (p *Parser) parseMember(fileLevel bool) ast.Decl {
	switch {
	case p.check("struct"):
		return p.parseStruct()
	case p.check("enum"):
		return p.parseEnum()
	case p.check("event"):
		return p.parseEvent()
	case p.check("error") && p.peekAt(1).Type == tokIdent:
		return p.parseErrorDecl()
	case p.check("function") && !p.checkAhead(1, "("):
		return p.parseFunction()
	case p.check("constructor"), p.check("fallback"), p.check("receive"):
		return p.parseFunction()
	}

	start := p.peek()
	typ := p.parseType()
	if typ == nil {
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "expected declaration"}
	}
	return p.parseVarDecl(typ, fileLevel)
}

func (p *Parser) parseVarDecl(typ ast.TypeExpr, fileLevel bool) ast.Decl {
	decl := &ast.VarDecl{Pos: typ.NodePos(), Type: typ}
attrs:
	for {
		switch {
		case p.match("public"):
			decl.Visibility = ast.VisPublic
		case p.match("private"):
			decl.Visibility = ast.VisPrivate
		case p.match("internal"):
			decl.Visibility = ast.VisInternal
		case p.match("constant"):
			decl.Constant = true
		case p.match("immutable"):
			decl.Immutable = true
		default:
			break attrs
		}
	}
	ident, ok := p.consumeIdent("expected variable name")
	if !ok {
		p.synchronize()
		return &ast.BadDecl{Pos: decl.Pos, EndPos: p.prevEnd(), Message: "bad variable declaration"}
	}
	decl.Name = ident
	if p.match("=") {
		decl.Init = p.parseExpr()
	}
	p.consume(";", "expected ';' after variable declaration")
	decl.EndPos = p.prevEnd()
	if fileLevel && !decl.Constant {
		p.errors = append(p.errors, ParseError{
			Message:  "only constants may be declared at file level",
			Position: decl.Pos,
			Length:   ast.SpanOf(decl).Len(),
		})
	}
	return decl
}

func (p *Parser) parseStruct() ast.Decl {
	start := p.advance()
	name, ok := p.consumeIdent("expected struct name")
	if !ok {
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad struct"}
	}
	decl := &ast.StructDecl{Pos: p.makePos(start), Name: name}
	p.consume("{", "expected '{' after struct name")
	for !p.isAtEnd() && !p.check("}") {
		before := p.current
		fieldStart := p.peek()
		typ := p.parseType()
		fieldName, ok := p.consumeIdent("expected field name")
		if typ == nil || !ok {
			p.synchronize()
			if p.current == before {
				p.advance()
			}
			continue
		}
		p.consume(";", "expected ';' after struct field")
		decl.Fields = append(decl.Fields, &ast.Param{
			Pos: p.makePos(fieldStart), EndPos: p.prevEnd(), Type: typ, Name: fieldName,
		})
	}
	p.consume("}", "expected '}' to close struct")
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseEnum() ast.Decl {
	start := p.advance()
	name, ok := p.consumeIdent("expected enum name")
	if !ok {
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad enum"}
	}
	decl := &ast.EnumDecl{Pos: p.makePos(start), Name: name}
	p.consume("{", "expected '{' after enum name")
	if !p.check("}") {
		decl.Values = p.parseIdentifierList()
	}
	p.consume("}", "expected '}' to close enum")
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseEvent() ast.Decl {
	start := p.advance()
	name, ok := p.consumeIdent("expected event name")
	if !ok {
		p.synchronize()
		return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad event"}
	}
	decl := &ast.EventDecl{Pos: p.makePos(start), Name: name}
	decl.Fields = p.parseParamList(true)
	decl.Anonymous = p.match("anonymous")
	p.consume(";", "expected ';' after event declaration")
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseErrorDecl() ast.Decl {
	start := p.advance()
	name, _ := p.consumeIdent("expected error name")
	decl := &ast.ErrorDecl{Pos: p.makePos(start), Name: name}
	decl.Fields = p.parseParamList(false)
	p.consume(";", "expected ';' after error declaration")
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseFunction() ast.Decl {
	start := p.advance()
	decl := &ast.FunctionDecl{Pos: p.makePos(start)}
	switch start.Value {
	case "constructor":
		decl.Kind = ast.FuncConstructor
		decl.Name = p.makeIdent(start)
	case "fallback":
		decl.Kind = ast.FuncFallback
		decl.Name = p.makeIdent(start)
	case "receive":
		decl.Kind = ast.FuncReceive
		decl.Name = p.makeIdent(start)
	default:
		name, ok := p.consumeIdent("expected function name")
		if !ok {
			p.synchronize()
			return &ast.BadDecl{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad function"}
		}
		decl.Name = name
	}

	decl.Params = p.parseParamList(false)
	p.parseFunctionAttributes(decl)
	if p.match("returns") {
		decl.Returns = p.parseParamList(false)
		p.parseFunctionAttributes(decl)
	}

	if p.check("{") {
		decl.Body = p.parseBlock()
	} else {
		p.consume(";", "expected '{' or ';' after function header")
	}
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseFunctionAttributes(decl *ast.FunctionDecl) {
	for {
		switch {
		case p.check("public"), p.check("external"), p.check("internal"), p.check("private"):
			decl.Visibility = visibilityOf(p.advance().Value)
		case p.check("pure"), p.check("view"), p.check("payable"):
			decl.Mutability = mutabilityOf(p.advance().Value)
		case p.match("virtual"):
			decl.Virtual = true
		case p.check("override"):
			decl.Override = p.parseOverride()
		default:
			return
		}
	}
}

func (p *Parser) parseOverride() *ast.OverrideSpec {
	start := p.advance()
	spec := &ast.OverrideSpec{Pos: p.makePos(start)}
	if p.match("(") {
		for !p.check(")") && !p.isAtEnd() {
			base, ok := p.consumeIdent("expected base contract name in override list")
			if !ok {
				break
			}
			spec.Bases = append(spec.Bases, base)
			if !p.match(",") {
				break
			}
		}
		p.consume(")", "expected ')' to close override list")
	}
	spec.EndPos = p.prevEnd()
	return spec
}

// parseParamList parses "(type [location] [indexed] [name], ...)"
func (p *Parser) parseParamList(allowIndexed bool) []*ast.Param {
	var params []*ast.Param
	p.consume("(", "expected '('")
	for !p.isAtEnd() && !p.check(")") {
		start := p.peek()
		typ := p.parseType()
		if typ == nil {
			p.errorAtCurrent("expected parameter type")
			for !p.isAtEnd() && !p.check(",") && !p.check(")") {
				p.advance()
			}
		} else {
			param := &ast.Param{Pos: p.makePos(start), Type: typ}
			param.Storage = p.parseStorageLocation()
			if allowIndexed && p.match("indexed") {
				param.Indexed = true
			}
			if p.isIdentifier() {
				param.Name = p.makeIdent(p.advance())
			}
			param.EndPos = p.prevEnd()
			params = append(params, param)
		}
		if !p.match(",") {
			break
		}
	}
	p.consume(")", "expected ')' to close parameter list")
	return params
}

func (p *Parser) parseStorageLocation() ast.StorageLocation {
	switch {
	case p.match("memory"):
		return ast.LocMemory
	case p.match("storage"):
		return ast.LocStorage
	case p.match("calldata"):
		return ast.LocCalldata
	}
	return ast.LocDefault
}

func visibilityOf(word string) ast.Visibility {
	switch word {
	case "public":
		return ast.VisPublic
	case "external":
		return ast.VisExternal
	case "internal":
		return ast.VisInternal
	case "private":
		return ast.VisPrivate
	}
	return ast.VisDefault
}

func mutabilityOf(word string) ast.Mutability {
	switch word {
	case "pure":
		return ast.MutPure
	case "view":
		return ast.MutView
	case "payable":
		return ast.MutPayable
	}
	return ast.MutNonPayable
}

// unquote decodes a single- or double-quoted string literal
func unquote(lit string) (string, bool) {
	if len(lit) < 2 {
		return lit, false
	}
	if lit[0] == '\'' {
		inner := lit[1 : len(lit)-1]
		lit = `"` + stringsReplaceQuotes(inner) + `"`
	}
	s, err := strconv.Unquote(lit)
	if err != nil {
		return lit[1 : len(lit)-1], false
	}
	return s, true
}

func stringsReplaceQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '\'':
			out = append(out, '\'')
			i++
		case s[i] == '"':
			out = append(out, '\\', '"')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
