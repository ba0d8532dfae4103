package parser

import (
	"polyc/internal/ast"
)

func (p *Parser) parseYulBlock() *ast.YulBlock {
	start := p.consume("{", "expected '{' to open assembly block")
	block := &ast.YulBlock{Pos: p.makePos(start)}
	for !p.isAtEnd() && !p.check("}") {
		before := p.current
		if stmt := p.parseYulStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.current == before {
			p.advance()
		}
	}
	p.consume("}", "expected '}' to close assembly block")
	block.EndPos = p.prevEnd()
	return block
}

func (p *Parser) parseYulStatement() ast.YulStmt {
	tok := p.peek()
	switch {
	case p.check("{"):
		return p.parseYulBlock()
	case p.check("let"):
		return p.parseYulLet()
	case p.check("if"):
		p.advance()
		cond := p.parseYulExpr()
		body := p.parseYulBlock()
		return &ast.YulIf{Pos: p.makePos(tok), EndPos: p.prevEnd(), Cond: cond, Body: body}
	case p.check("switch"):
		return p.parseYulSwitch()
	case p.check("for"):
		p.advance()
		init := p.parseYulBlock()
		cond := p.parseYulExpr()
		post := p.parseYulBlock()
		body := p.parseYulBlock()
		return &ast.YulFor{Pos: p.makePos(tok), EndPos: p.prevEnd(), Init: init, Cond: cond, Post: post, Body: body}
	case p.check("break"):
		p.advance()
		return &ast.YulBreak{Pos: p.makePos(tok), EndPos: p.prevEnd()}
	case p.check("continue"):
		p.advance()
		return &ast.YulContinue{Pos: p.makePos(tok), EndPos: p.prevEnd()}
	case p.check("leave"):
		p.advance()
		return &ast.YulLeave{Pos: p.makePos(tok), EndPos: p.prevEnd()}
	case p.check("function"):
		return p.parseYulFunction()
	}

	if tok.Type != tokIdent {
		p.errorAtCurrent("expected assembly statement")
		p.advance()
		return &ast.BadYul{Pos: p.makePos(tok), EndPos: p.prevEnd(), Message: "expected assembly statement"}
	}

	// either a call statement or an assignment "a, b := expr"
	if p.peekAt(1).Type == tokPunct && p.peekAt(1).Value == "(" {
		expr := p.parseYulExpr()
		call, ok := expr.(*ast.YulCall)
		if !ok {
			return &ast.BadYul{Pos: p.makePos(tok), EndPos: p.prevEnd(), Message: "expected call"}
		}
		return &ast.YulExprStmt{Pos: call.Pos, EndPos: call.EndPos, Call: call}
	}

	assign := &ast.YulAssign{Pos: p.makePos(tok)}
	for {
		assign.Names = append(assign.Names, p.parseYulIdent())
		if !p.match(",") {
			break
		}
	}
	if !p.match(":=") {
		p.errorAtCurrent("expected ':=' in assembly assignment")
		return &ast.BadYul{Pos: assign.Pos, EndPos: p.prevEnd(), Message: "bad assignment"}
	}
	assign.Value = p.parseYulExpr()
	assign.EndPos = p.prevEnd()
	return assign
}

func (p *Parser) parseYulLet() ast.YulStmt {
	start := p.advance()
	let := &ast.YulLet{Pos: p.makePos(start)}
	for {
		name, ok := p.consumeYulName("expected variable name after 'let'")
		if !ok {
			break
		}
		let.Names = append(let.Names, name)
		if !p.match(",") {
			break
		}
	}
	if p.match(":=") {
		let.Value = p.parseYulExpr()
	}
	let.EndPos = p.prevEnd()
	return let
}

func (p *Parser) parseYulSwitch() ast.YulStmt {
	start := p.advance()
	sw := &ast.YulSwitch{Pos: p.makePos(start), Cond: p.parseYulExpr()}
	for p.check("case") || p.check("default") {
		caseTok := p.advance()
		arm := &ast.YulCase{Pos: p.makePos(caseTok)}
		if caseTok.Value == "case" {
			lit, ok := p.parseYulExpr().(*ast.YulLiteral)
			if !ok {
				p.errors = append(p.errors, ParseError{
					Message:  "switch case must be a literal",
					Position: p.makePos(caseTok),
					Length:   len(caseTok.Value),
				})
			}
			arm.Value = lit
		}
		arm.Body = p.parseYulBlock()
		arm.EndPos = p.prevEnd()
		sw.Cases = append(sw.Cases, arm)
	}
	if len(sw.Cases) == 0 {
		p.errorAtCurrent("expected 'case' or 'default' after switch expression")
	}
	sw.EndPos = p.prevEnd()
	return sw
}

func (p *Parser) parseYulFunction() ast.YulStmt {
	start := p.advance()
	fn := &ast.YulFunction{Pos: p.makePos(start)}
	fn.Name, _ = p.consumeYulName("expected function name")
	p.consume("(", "expected '(' after function name")
	for !p.check(")") && !p.isAtEnd() {
		name, ok := p.consumeYulName("expected parameter name")
		if !ok {
			break
		}
		fn.Params = append(fn.Params, name)
		if !p.match(",") {
			break
		}
	}
	p.consume(")", "expected ')' after parameters")
	if p.match("->") {
		for {
			name, ok := p.consumeYulName("expected return variable name")
			if !ok {
				break
			}
			fn.Returns = append(fn.Returns, name)
			if !p.match(",") {
				break
			}
		}
	}
	fn.Body = p.parseYulBlock()
	fn.EndPos = p.prevEnd()
	return fn
}

func (p *Parser) parseYulExpr() ast.YulExpr {
	tok := p.peek()
	switch {
	case tok.Type == tokNumber:
		p.advance()
		return &ast.YulLiteral{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.YulNumber, Value: tok.Value}
	case tok.Type == tokString:
		p.advance()
		s, _ := unquote(tok.Value)
		return &ast.YulLiteral{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.YulString, Value: s}
	case tok.Type == tokHexString:
		p.advance()
		return &ast.YulLiteral{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.YulHex, Value: tok.Value[4 : len(tok.Value)-1]}
	case tok.Type == tokIdent && (tok.Value == "true" || tok.Value == "false"):
		p.advance()
		return &ast.YulLiteral{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.YulBool, Value: tok.Value}
	case tok.Type == tokIdent:
		if p.checkAhead(1, "(") {
			name := p.makeIdent(p.advance())
			call := &ast.YulCall{Pos: name.Pos, Name: name}
			p.advance()
			for !p.check(")") && !p.isAtEnd() {
				call.Args = append(call.Args, p.parseYulExpr())
				if !p.match(",") {
					break
				}
			}
			p.consume(")", "expected ')' after assembly call arguments")
			call.EndPos = p.prevEnd()
			return call
		}
		return p.parseYulIdent()
	}
	p.errorAtCurrent("expected assembly expression")
	return &ast.BadYul{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Message: "expected assembly expression"}
}

// parseYulIdent parses "name" or "name.suffix"
func (p *Parser) parseYulIdent() *ast.YulIdent {
	tok := p.peek()
	if tok.Type != tokIdent {
		p.errorAtCurrent("expected identifier")
		return &ast.YulIdent{Pos: p.makePos(tok), EndPos: p.makePos(tok), Name: "<error>"}
	}
	p.advance()
	id := &ast.YulIdent{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Name: tok.Value}
	if p.check(".") && p.peekAt(1).Type == tokIdent {
		p.advance()
		suffix := p.advance()
		id.Suffix = suffix.Value
		id.EndPos = p.makeEndPos(suffix)
	}
	return id
}

// consumeYulName accepts any identifier token, since assembly has its own keyword set
func (p *Parser) consumeYulName(message string) (*ast.Ident, bool) {
	tok := p.peek()
	if tok.Type != tokIdent {
		p.errorAtCurrent(message)
		return &ast.Ident{Pos: p.makePos(tok), EndPos: p.makePos(tok), Name: "<error>"}, false
	}
	return p.makeIdent(p.advance()), true
}
