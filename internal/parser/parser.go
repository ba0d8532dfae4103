package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"polyc/internal/ast"
)

// ParseError is a syntax error with its location
type ParseError struct {
	Message  string
	Position ast.Position
	Length   int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
}

type Parser struct {
	filename string
	tokens   []lexer.Token
	current  int
	errors   []ParseError
}

func NewParser(filename string, tokens []lexer.Token) *Parser {
	return &Parser{filename: filename, tokens: tokens}
}

// ParseSource tokenizes and parses one source file. A non-nil unit is always
// returned; unparseable regions become Bad* nodes.
func ParseSource(path, src string) (*ast.SourceUnit, []ParseError) {
	tokens, err := Tokenize(path, src)
	if err != nil {
		return &ast.SourceUnit{Path: path}, []ParseError{{
			Message:  err.Error(),
			Position: ast.Position{Filename: path, Line: 1, Column: 1},
			Length:   1,
		}}
	}
	p := NewParser(path, tokens)
	unit := p.ParseSourceUnit()
	return unit, p.errors
}

// ParseSourceUnit parses a whole file
func (p *Parser) ParseSourceUnit() *ast.SourceUnit {
	unit := &ast.SourceUnit{Path: p.filename, Pos: p.makePos(p.peek())}
	for !p.isAtEnd() {
		start := p.current
		if decl := p.parseSourceItem(); decl != nil {
			unit.Items = append(unit.Items, decl)
		}
		if p.current == start {
			p.advance()
		}
	}
	unit.EndPos = p.makePos(p.peek())
	return unit
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check reports whether the current token is the punctuation or keyword lit
func (p *Parser) check(lit string) bool {
	tok := p.peek()
	return (tok.Type == tokPunct || tok.Type == tokIdent) && tok.Value == lit
}

func (p *Parser) checkAhead(n int, lit string) bool {
	if p.current+n >= len(p.tokens) {
		return false
	}
	tok := p.tokens[p.current+n]
	return (tok.Type == tokPunct || tok.Type == tokIdent) && tok.Value == lit
}

func (p *Parser) checkType(tt lexer.TokenType) bool {
	return p.peek().Type == tt
}

func (p *Parser) match(lits ...string) bool {
	for _, lit := range lits {
		if p.check(lit) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(lit, message string) lexer.Token {
	if p.check(lit) {
		return p.advance()
	}
	p.errorAtCurrent(message)
	return lexer.Token{Type: tokInvalid, Value: lit, Pos: p.peek().Pos}
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == tokEOF
}

func (p *Parser) errorAtCurrent(message string) {
	tok := p.peek()
	found := tok.Value
	if tok.Type == tokEOF {
		found = "end of file"
	}
	p.errors = append(p.errors, ParseError{
		Message:  fmt.Sprintf("%s, found '%s'", message, found),
		Position: p.makePos(tok),
		Length:   max(1, len(tok.Value)),
	})
}

func (p *Parser) makePos(tok lexer.Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Pos.Offset,
		Line:     tok.Pos.Line,
		Column:   tok.Pos.Column,
	}
}

func (p *Parser) makeEndPos(tok lexer.Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Pos.Offset + len(tok.Value),
		Line:     tok.Pos.Line,
		Column:   tok.Pos.Column + len(tok.Value),
	}
}

// prevEnd is the end position of the last consumed token
func (p *Parser) prevEnd() ast.Position {
	return p.makeEndPos(p.previous())
}

// synchronize skips to the next statement or declaration boundary
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		switch {
		case p.check("{"):
			depth++
		case p.check("}"):
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case p.check(";") && depth == 0:
			p.advance()
			return
		}
		if depth == 0 {
			switch p.peek().Value {
			case "function", "contract", "struct", "enum", "event", "if", "for", "while", "return", "emit":
				if p.peek().Type == tokIdent && p.current > 0 {
					return
				}
			}
		}
		p.advance()
	}
}

func (p *Parser) makeIdent(tok lexer.Token) *ast.Ident {
	return &ast.Ident{
		Pos:    p.makePos(tok),
		EndPos: p.makeEndPos(tok),
		Name:   tok.Value,
	}
}

// isIdentifier reports whether the current token can be used as a name
func (p *Parser) isIdentifier() bool {
	tok := p.peek()
	return tok.Type == tokIdent && !reservedWords[tok.Value]
}

// consumeIdent consumes a non-reserved identifier
func (p *Parser) consumeIdent(message string) (*ast.Ident, bool) {
	if !p.isIdentifier() {
		p.errorAtCurrent(message)
		return &ast.Ident{Pos: p.makePos(p.peek()), EndPos: p.makePos(p.peek()), Name: "<error>"}, false
	}
	return p.makeIdent(p.advance()), true
}

// parseIdentifierList parses a comma-separated list of identifiers
func (p *Parser) parseIdentifierList() []*ast.Ident {
	var idents []*ast.Ident
	for !p.isAtEnd() {
		ident, ok := p.consumeIdent("expected identifier")
		if !ok {
			break
		}
		idents = append(idents, ident)
		if !p.match(",") {
			break
		}
	}
	return idents
}
