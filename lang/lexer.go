package lang

import (
	"fmt"
	"strings"
)

// SyntaxError reports a lexical or grammatical failure. The validator turns
// it into a syntax-error violation; it never escapes as a panic.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error on line %d: %s", e.Line, e.Msg)
}

func errSyntax(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// next returns the next token. Newlines and semicolons lex as TokenNewline
// since both terminate statements.
func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	if l.eof() {
		return Token{Kind: TokenEOF, Line: l.line}, nil
	}

	c := l.peek()
	switch {
	case c == '\n' || c == ';':
		tok := Token{Kind: TokenNewline, Lit: string(c), Line: l.line}
		if c == '\n' {
			l.line++
		}
		l.pos++
		return tok, nil
	case c == '"':
		return l.lexString()
	case c == '`':
		return l.lexShell()
	case isDigit(c):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexName()
	default:
		return l.lexOperator()
	}
}

func (l *lexer) skipSpaceAndComments() {
	for !l.eof() {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for !l.eof() && l.peek() != '\n' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) lexNumber() (Token, error) {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.pos++
	}
	kind := TokenInt
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		kind = TokenFloat
		l.pos++
		for !l.eof() && isDigit(l.peek()) {
			l.pos++
		}
	}
	return Token{Kind: kind, Lit: l.src[start:l.pos], Line: l.line}, nil
}

func (l *lexer) lexName() (Token, error) {
	start := l.pos
	for !l.eof() && isIdentPart(l.peek()) {
		l.pos++
	}
	// Ruby-style predicate and bang suffixes belong to the name.
	if !l.eof() && (l.peek() == '?' || l.peek() == '!') && l.peekAt(1) != '=' {
		l.pos++
	}
	lit := l.src[start:l.pos]
	kind := TokenIdent
	switch {
	case keywords[lit]:
		kind = TokenKeyword
	case lit[0] >= 'A' && lit[0] <= 'Z':
		kind = TokenConst
	}
	return Token{Kind: kind, Lit: lit, Line: l.line}, nil
}

// lexString scans a double-quoted string, splitting it into literal and
// #{...} interpolation segments. The interpolation body is kept as raw
// source text; the parser sub-parses it with the full grammar so nested
// strings, backticks, and further interpolation all round-trip.
func (l *lexer) lexString() (Token, error) {
	startLine := l.line
	l.pos++ // opening quote
	var segs []StringSegment
	var lit strings.Builder
	for {
		if l.eof() {
			return Token{}, errSyntax(startLine, "unterminated string literal")
		}
		c := l.peek()
		switch {
		case c == '"':
			l.pos++
			if lit.Len() > 0 || len(segs) == 0 {
				segs = append(segs, StringSegment{Literal: lit.String()})
			}
			return Token{Kind: TokenString, Segments: segs, Line: startLine}, nil
		case c == '\\':
			esc, err := l.lexEscape(startLine)
			if err != nil {
				return Token{}, err
			}
			lit.WriteByte(esc)
		case c == '#' && l.peekAt(1) == '{':
			if lit.Len() > 0 {
				segs = append(segs, StringSegment{Literal: lit.String()})
				lit.Reset()
			}
			expr, err := l.lexInterpolation(startLine)
			if err != nil {
				return Token{}, err
			}
			segs = append(segs, StringSegment{Expr: expr, Interp: true})
		default:
			if c == '\n' {
				l.line++
			}
			lit.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) lexEscape(line int) (byte, error) {
	l.pos++ // backslash
	if l.eof() {
		return 0, errSyntax(line, "unterminated string literal")
	}
	c := l.peek()
	l.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case '\\', '"', '#', '`':
		return c, nil
	default:
		return 0, errSyntax(line, "unsupported escape sequence \\%c", c)
	}
}

// lexInterpolation consumes #{...} and returns the raw body. Braces are
// balanced, skipping over nested string and backtick literals so a brace
// inside them does not end the segment early.
func (l *lexer) lexInterpolation(line int) (string, error) {
	l.pos += 2 // consume #{
	start := l.pos
	depth := 1
	for !l.eof() {
		c := l.peek()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := l.src[start:l.pos]
				l.pos++
				return body, nil
			}
		case '"', '`':
			if err := l.skipQuoted(c, line); err != nil {
				return "", err
			}
			continue
		case '\n':
			l.line++
		}
		l.pos++
	}
	return "", errSyntax(line, "unterminated string interpolation")
}

// skipQuoted advances past a quoted literal inside an interpolation body.
func (l *lexer) skipQuoted(quote byte, line int) error {
	l.pos++ // opening quote
	for !l.eof() {
		c := l.peek()
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '\n' {
			l.line++
		}
		l.pos++
		if c == quote {
			return nil
		}
	}
	return errSyntax(line, "unterminated string interpolation")
}

func (l *lexer) lexShell() (Token, error) {
	startLine := l.line
	l.pos++ // opening backtick
	start := l.pos
	for !l.eof() {
		c := l.peek()
		if c == '`' {
			cmd := l.src[start:l.pos]
			l.pos++
			return Token{Kind: TokenShell, Lit: cmd, Line: startLine}, nil
		}
		if c == '\n' {
			l.line++
		}
		l.pos++
	}
	return Token{}, errSyntax(startLine, "unterminated backtick literal")
}

var twoCharOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true,
}

func (l *lexer) lexOperator() (Token, error) {
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		if twoCharOps[two] {
			l.pos += 2
			return Token{Kind: TokenOp, Lit: two, Line: l.line}, nil
		}
	}
	c := l.peek()
	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '=', '!', '(', ')', '[', ']', '{', '}', ',', '.', ':':
		l.pos++
		return Token{Kind: TokenOp, Lit: string(c), Line: l.line}, nil
	}
	return Token{}, errSyntax(l.line, "unexpected character %q", string(c))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
