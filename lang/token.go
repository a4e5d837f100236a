package lang

import "fmt"

// TokenKind identifies a lexical token class.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNewline
	TokenInt
	TokenFloat
	TokenString
	TokenShell
	TokenIdent
	TokenConst
	TokenKeyword
	TokenOp
)

// StringSegment is one piece of a double-quoted string literal. Exactly one
// of Literal/Expr is meaningful: interpolation segments carry the raw source
// text between #{ and } in Expr, plain text carries Literal.
type StringSegment struct {
	Literal string
	Expr    string
	Interp  bool
}

// Token is one lexical token.
type Token struct {
	Kind     TokenKind
	Lit      string
	Segments []StringSegment // TokenString only
	Line     int
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "end of input"
	case TokenNewline:
		return "newline"
	default:
		return fmt.Sprintf("%q", t.Lit)
	}
}

// keywords of the language. Capitalized identifiers lex as TokenConst, so
// none of these may start uppercase.
var keywords = map[string]bool{
	"if":      true,
	"elsif":   true,
	"else":    true,
	"end":     true,
	"while":   true,
	"for":     true,
	"in":      true,
	"break":   true,
	"require": true,
	"true":    true,
	"false":   true,
	"nil":     true,
}
