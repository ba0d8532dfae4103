package parser

import (
	"encoding/hex"
	"strings"

	"polyc/internal/ast"
)

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"|":  5,
	"^":  6,
	"&":  7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"|=": true, "&=": true, "^=": true, "<<=": true, ">>=": true,
}

func (p *Parser) parseExpr() ast.Expr {
	lhs := p.parseTernary()
	tok := p.peek()
	if tok.Type == tokPunct && assignOps[tok.Value] {
		p.advance()
		rhs := p.parseExpr()
		return &ast.AssignExpr{
			Pos:    lhs.NodePos(),
			EndPos: rhs.NodeEndPos(),
			Op:     tok.Value,
			LHS:    lhs,
			RHS:    rhs,
		}
	}
	return lhs
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parsePrattExpr(1)
	if !p.match("?") {
		return cond
	}
	then := p.parseExpr()
	p.consume(":", "expected ':' in conditional expression")
	els := p.parseExpr()
	return &ast.TernaryExpr{
		Pos:    cond.NodePos(),
		EndPos: els.NodeEndPos(),
		Cond:   cond,
		Then:   then,
		Else:   els,
	}
}

func (p *Parser) parsePrattExpr(minPrec int) ast.Expr {
	expr := p.parsePrefixExpr()

	for {
		tok := p.peek()
		if tok.Type != tokPunct {
			break
		}
		prec, ok := binaryPrecedence[tok.Value]
		if !ok || prec < minPrec {
			break
		}

		p.advance()
		next := prec + 1
		if tok.Value == "**" {
			// right associative
			next = prec
		}
		right := p.parsePrattExpr(next)

		expr = &ast.BinaryExpr{
			Pos:    expr.NodePos(),
			EndPos: right.NodeEndPos(),
			Op:     tok.Value,
			X:      expr,
			Y:      right,
		}
	}

	return expr
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	if p.check("-") || p.check("!") || p.check("~") || p.check("++") || p.check("--") || p.check("delete") {
		op := p.advance()
		value := p.parsePrefixExpr()
		return &ast.UnaryExpr{
			Pos:    p.makePos(op),
			EndPos: value.NodeEndPos(),
			Op:     op.Value,
			X:      value,
		}
	}

	return p.parsePostfixExpr(p.parsePrimaryExpr())
}

func (p *Parser) parsePostfixExpr(expr ast.Expr) ast.Expr {
	for {
		switch {
		case p.check("."):
			p.advance()
			tok := p.peek()
			if tok.Type != tokIdent {
				p.errorAtCurrent("expected member name after '.'")
				return expr
			}
			p.advance()
			expr = &ast.MemberExpr{
				Pos:    expr.NodePos(),
				EndPos: p.makeEndPos(tok),
				X:      expr,
				Member: p.makeIdent(tok),
			}
		case p.check("("):
			expr = p.parseCallArgs(expr)
		case p.check("["):
			p.advance()
			var index ast.Expr
			if !p.check("]") {
				index = p.parseExpr()
			}
			end := p.consume("]", "expected ']' after index")
			expr = &ast.IndexExpr{
				Pos:    expr.NodePos(),
				EndPos: p.makeEndPos(end),
				X:      expr,
				Index:  index,
			}
		case p.check("++"), p.check("--"):
			op := p.advance()
			expr = &ast.UnaryExpr{
				Pos:     expr.NodePos(),
				EndPos:  p.makeEndPos(op),
				Op:      op.Value,
				X:       expr,
				Postfix: true,
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallArgs(callee ast.Expr) ast.Expr {
	p.advance()
	call := &ast.CallExpr{Pos: callee.NodePos(), Fun: callee}
	if p.check("{") {
		p.advance()
		call.IsNamed = true
		for !p.check("}") && !p.isAtEnd() {
			name, ok := p.consumeIdent("expected argument name")
			if !ok {
				break
			}
			p.consume(":", "expected ':' after argument name")
			value := p.parseExpr()
			call.Named = append(call.Named, &ast.NamedArg{
				Pos: name.Pos, EndPos: value.NodeEndPos(), Name: name, Value: value,
			})
			if !p.match(",") {
				break
			}
		}
		p.consume("}", "expected '}' to close named arguments")
	} else {
		for !p.check(")") && !p.isAtEnd() {
			call.Args = append(call.Args, p.parseExpr())
			if !p.match(",") {
				break
			}
		}
	}
	end := p.consume(")", "expected ')' after arguments")
	call.EndPos = p.makeEndPos(end)
	return call
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	tok := p.peek()

	switch {
	case tok.Type == tokNumber:
		p.advance()
		return &ast.NumberLit{
			Pos:    p.makePos(tok),
			EndPos: p.makeEndPos(tok),
			Value:  strings.ReplaceAll(tok.Value, "_", ""),
		}
	case tok.Type == tokString:
		lit := &ast.StringLit{Pos: p.makePos(tok)}
		// adjacent string literals are concatenated
		for p.checkType(tokString) {
			s, ok := unquote(p.peek().Value)
			if !ok {
				p.errorAtCurrent("invalid escape in string literal")
			}
			lit.Value += s
			p.advance()
		}
		lit.EndPos = p.prevEnd()
		return lit
	case tok.Type == tokHexString:
		p.advance()
		digits := strings.ReplaceAll(tok.Value[4:len(tok.Value)-1], "_", "")
		b, err := hex.DecodeString(digits)
		if err != nil {
			p.errors = append(p.errors, ParseError{
				Message:  "hex string literal must have an even number of digits",
				Position: p.makePos(tok),
				Length:   len(tok.Value),
			})
		}
		return &ast.HexLit{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Value: b}
	case tok.Type == tokIdent && (tok.Value == "true" || tok.Value == "false"):
		p.advance()
		return &ast.BoolLit{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Value: tok.Value == "true"}
	case p.check("("):
		return p.parseTuple()
	case p.check("["):
		return p.parseArrayLit()
	case tok.Type == tokIdent && IsElementaryTypeName(tok.Value):
		typ := p.parseTypeOpt()
		return &ast.TypeNameExpr{Pos: typ.NodePos(), EndPos: typ.NodeEndPos(), Type: typ}
	case p.check("payable") && p.checkAhead(1, "("):
		p.advance()
		return &ast.IdentExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Name: tok.Value}
	case p.isIdentifier():
		p.advance()
		return &ast.IdentExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Name: tok.Value}
	}

	p.errorAtCurrent("expected expression")
	return &ast.BadExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Message: "expected expression"}
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.advance()
	lit := &ast.ArrayLit{Pos: p.makePos(start)}
	if p.check("]") {
		p.errorAtCurrent("array literal needs at least one element")
	}
	for !p.isAtEnd() && !p.check("]") {
		lit.Elems = append(lit.Elems, p.parseExpr())
		if !p.match(",") {
			break
		}
	}
	p.consume("]", "expected ']'")
	lit.EndPos = p.prevEnd()
	return lit
}

func (p *Parser) parseTuple() ast.Expr {
	start := p.advance()
	tuple := &ast.TupleExpr{Pos: p.makePos(start)}
	if p.check(")") {
		p.advance()
		tuple.EndPos = p.prevEnd()
		return tuple
	}
	for !p.isAtEnd() {
		if p.check(",") || p.check(")") {
			tuple.Elems = append(tuple.Elems, nil)
		} else {
			tuple.Elems = append(tuple.Elems, p.parseExpr())
		}
		if !p.match(",") {
			break
		}
	}
	p.consume(")", "expected ')'")
	tuple.EndPos = p.prevEnd()
	if len(tuple.Elems) == 1 && tuple.Elems[0] != nil {
		// plain parentheses
		return tuple.Elems[0]
	}
	return tuple
}
