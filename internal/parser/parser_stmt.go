package parser

import (
	"polyc/internal/ast"
)

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.consume("{", "expected '{'")
	block := &ast.BlockStmt{Pos: p.makePos(start)}
	for !p.isAtEnd() && !p.check("}") {
		before := p.current
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.current == before {
			p.advance()
		}
	}
	p.consume("}", "expected '}' to close block")
	block.EndPos = p.prevEnd()
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	tok := p.peek()
	switch {
	case p.check("{"):
		return p.parseBlock()
	case p.check("unchecked") && p.checkAhead(1, "{"):
		p.advance()
		block := p.parseBlock()
		block.Pos = p.makePos(tok)
		block.Unchecked = true
		return block
	case p.check("if"):
		return p.parseIf()
	case p.check("for"):
		return p.parseFor()
	case p.check("while"):
		return p.parseWhile()
	case p.check("do"):
		return p.parseDoWhile()
	case p.check("break"):
		p.advance()
		p.consume(";", "expected ';' after 'break'")
		return &ast.BreakStmt{Pos: p.makePos(tok), EndPos: p.prevEnd()}
	case p.check("continue"):
		p.advance()
		p.consume(";", "expected ';' after 'continue'")
		return &ast.ContinueStmt{Pos: p.makePos(tok), EndPos: p.prevEnd()}
	case p.check("return"):
		p.advance()
		ret := &ast.ReturnStmt{Pos: p.makePos(tok)}
		if !p.check(";") {
			ret.Value = p.parseExpr()
		}
		p.consume(";", "expected ';' after return")
		ret.EndPos = p.prevEnd()
		return ret
	case p.check("emit"):
		return p.parseEmit()
	case p.check("revert") && p.peekAt(1).Type == tokIdent:
		return p.parseRevert()
	case p.check("assembly"):
		return p.parseAssembly()
	}
	return p.parseSimpleStatement(true)
}

// parseSimpleStatement parses a declaration or expression statement
func (p *Parser) parseSimpleStatement(requireSemi bool) ast.Stmt {
	start := p.peek()
	var stmt ast.Stmt

	if p.check("(") {
		if decl := p.tryParseTupleDecl(); decl != nil {
			stmt = decl
		}
	}
	if stmt == nil {
		if typ := p.tryParseType(); typ != nil {
			stmt = p.parseLocalDecl(typ)
		}
	}
	if stmt == nil {
		x := p.parseExpr()
		if bad, ok := x.(*ast.BadExpr); ok {
			p.synchronize()
			return &ast.BadStmt{Pos: bad.Pos, EndPos: p.prevEnd(), Message: bad.Message}
		}
		stmt = &ast.ExprStmt{Pos: p.makePos(start), EndPos: x.NodeEndPos(), X: x}
	}
	if requireSemi {
		p.consume(";", "expected ';' after statement")
		setEnd(stmt, p.prevEnd())
	}
	return stmt
}

func setEnd(stmt ast.Stmt, end ast.Position) {
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		s.EndPos = end
	case *ast.ExprStmt:
		s.EndPos = end
	}
}

func (p *Parser) parseLocalDecl(typ ast.TypeExpr) ast.Stmt {
	v := &ast.LocalVar{Pos: typ.NodePos(), Type: typ}
	v.Storage = p.parseStorageLocation()
	v.Name, _ = p.consumeIdent("expected variable name")
	v.EndPos = p.prevEnd()
	decl := &ast.VarDeclStmt{Pos: v.Pos, Vars: []*ast.LocalVar{v}}
	if p.match("=") {
		decl.Init = p.parseExpr()
	}
	decl.EndPos = p.prevEnd()
	return decl
}

// tryParseTupleDecl parses "(T a, , T b) = expr" or rewinds
func (p *Parser) tryParseTupleDecl() ast.Stmt {
	save, errs := p.current, len(p.errors)
	start := p.advance()
	decl := &ast.VarDeclStmt{Pos: p.makePos(start), Tuple: true}
	for !p.check(")") && !p.isAtEnd() {
		if p.check(",") {
			decl.Vars = append(decl.Vars, nil)
			p.advance()
			continue
		}
		typ := p.tryParseType()
		if typ == nil {
			p.current = save
			p.errors = p.errors[:errs]
			return nil
		}
		v := &ast.LocalVar{Pos: typ.NodePos(), Type: typ}
		v.Storage = p.parseStorageLocation()
		v.Name = p.makeIdent(p.advance())
		v.EndPos = p.prevEnd()
		decl.Vars = append(decl.Vars, v)
		if !p.match(",") {
			break
		}
		if p.check(")") {
			decl.Vars = append(decl.Vars, nil)
		}
	}
	if !p.match(")") || !p.check("=") {
		p.current = save
		p.errors = p.errors[:errs]
		return nil
	}
	p.advance()
	decl.Init = p.parseExpr()
	decl.EndPos = p.prevEnd()
	return decl
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.advance()
	p.consume("(", "expected '(' after 'if'")
	cond := p.parseExpr()
	p.consume(")", "expected ')' after if condition")
	stmt := &ast.IfStmt{Pos: p.makePos(start), Cond: cond}
	stmt.Then = p.parseStatement()
	if p.match("else") {
		stmt.Else = p.parseStatement()
	}
	stmt.EndPos = p.prevEnd()
	return stmt
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.advance()
	stmt := &ast.ForStmt{Pos: p.makePos(start)}
	p.consume("(", "expected '(' after 'for'")
	if !p.check(";") {
		stmt.Init = p.parseSimpleStatement(false)
	}
	p.consume(";", "expected ';' after for initializer")
	if !p.check(";") {
		stmt.Cond = p.parseExpr()
	}
	p.consume(";", "expected ';' after for condition")
	if !p.check(")") {
		stmt.Post = p.parseExpr()
	}
	p.consume(")", "expected ')' after for clauses")
	stmt.Body = p.parseStatement()
	stmt.EndPos = p.prevEnd()
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.advance()
	p.consume("(", "expected '(' after 'while'")
	cond := p.parseExpr()
	p.consume(")", "expected ')' after while condition")
	body := p.parseStatement()
	return &ast.WhileStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	start := p.advance()
	body := p.parseStatement()
	p.consume("while", "expected 'while' after do body")
	p.consume("(", "expected '(' after 'while'")
	cond := p.parseExpr()
	p.consume(")", "expected ')' after do-while condition")
	p.consume(";", "expected ';' after do-while")
	return &ast.DoWhileStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Body: body, Cond: cond}
}

func (p *Parser) parseEmit() ast.Stmt {
	start := p.advance()
	x := p.parseExpr()
	call, ok := x.(*ast.CallExpr)
	if !ok {
		p.errors = append(p.errors, ParseError{
			Message:  "expected event invocation after 'emit'",
			Position: x.NodePos(),
			Length:   ast.SpanOf(x).Len(),
		})
		p.synchronize()
		return &ast.BadStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad emit"}
	}
	p.consume(";", "expected ';' after emit")
	return &ast.EmitStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Call: call}
}

func (p *Parser) parseRevert() ast.Stmt {
	start := p.advance()
	x := p.parseExpr()
	call, ok := x.(*ast.CallExpr)
	if !ok {
		p.errors = append(p.errors, ParseError{
			Message:  "expected error invocation after 'revert'",
			Position: x.NodePos(),
			Length:   ast.SpanOf(x).Len(),
		})
		p.synchronize()
		return &ast.BadStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Message: "bad revert"}
	}
	p.consume(";", "expected ';' after revert")
	return &ast.RevertStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Call: call}
}

func (p *Parser) parseAssembly() ast.Stmt {
	start := p.advance()
	if p.checkType(tokString) {
		// dialect string, only "evmasm" exists
		p.advance()
	}
	block := p.parseYulBlock()
	return &ast.AssemblyStmt{Pos: p.makePos(start), EndPos: p.prevEnd(), Block: block}
}
