package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SourceLexer tokenizes contract sources. Keywords are lexed as Ident and
// recognized by value in the parser.
var SourceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "HexString", Pattern: `hex"[0-9a-fA-F_]*"|hex'[0-9a-fA-F_]*'`},
	{Name: "String", Pattern: `"(\\.|[^"\\\n])*"|'(\\.|[^'\\\n])*'`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+|[0-9][0-9_]*([eE][0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `<<=|>>=|\*\*|:=|->|=>|==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|\*=|/=|%=|\|=|&=|\^=|<<|>>|[-+*/%<>=!&|^~?:;,.(){}\[\]]`},
	{Name: "Invalid", Pattern: `.`},
})

var (
	tokEOF        = lexer.EOF
	tokComment    = SourceLexer.Symbols()["Comment"]
	tokWhitespace = SourceLexer.Symbols()["Whitespace"]
	tokHexString  = SourceLexer.Symbols()["HexString"]
	tokString     = SourceLexer.Symbols()["String"]
	tokNumber     = SourceLexer.Symbols()["Number"]
	tokIdent      = SourceLexer.Symbols()["Ident"]
	tokPunct      = SourceLexer.Symbols()["Punct"]
	tokInvalid    = SourceLexer.Symbols()["Invalid"]
)

// Tokenize lexes src and drops comments and whitespace. Invalid characters
// are returned as tokens so the parser can report them with a position.
func Tokenize(path, src string) ([]lexer.Token, error) {
	lex, err := SourceLexer.LexString(path, src)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	tokens := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		if tok.Type == tokComment || tok.Type == tokWhitespace {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != tokEOF {
		tokens = append(tokens, lexer.Token{Type: tokEOF, Pos: lexer.Position{Filename: path, Offset: len(src)}})
	}
	return tokens, nil
}

var reservedWords = map[string]bool{
	"contract": true, "interface": true, "library": true, "abstract": true,
	"function": true, "constructor": true, "fallback": true, "receive": true,
	"struct": true, "enum": true, "event": true, "error": true, "import": true,
	"is": true, "returns": true, "return": true, "if": true, "else": true,
	"for": true, "while": true, "do": true, "break": true, "continue": true,
	"emit": true, "mapping": true, "assembly": true, "unchecked": true,
	"true": true, "false": true, "memory": true, "storage": true, "calldata": true,
	"public": true, "private": true, "internal": true, "external": true,
	"pure": true, "view": true, "payable": true, "virtual": true, "override": true,
	"constant": true, "immutable": true, "indexed": true, "anonymous": true,
	"pragma": true,
}
