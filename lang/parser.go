package lang

import "strconv"

// maxParseDepth bounds expression nesting so adversarial input cannot
// exhaust the parser's stack. Deeper input is a syntax error.
const maxParseDepth = 512

// Parse turns source text into a Program. A malformed program returns a
// *SyntaxError; Parse never panics on any input.
func Parse(src string) (*Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseExpr parses a single expression, used for string-interpolation
// bodies.
func ParseExpr(src string) (Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.cur().Kind != TokenEOF {
		return nil, errSyntax(p.cur().Line, "unexpected %s after expression", p.cur())
	}
	return expr, nil
}

type parser struct {
	toks  []Token
	pos   int
	depth int
}

func newParser(src string) (*parser, error) {
	lx := newLexer(src)
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return &parser{toks: toks}, nil
		}
	}
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) atOp(lit string) bool {
	t := p.cur()
	return t.Kind == TokenOp && t.Lit == lit
}

func (p *parser) atKeyword(lit string) bool {
	t := p.cur()
	return t.Kind == TokenKeyword && t.Lit == lit
}

func (p *parser) expectOp(lit string) error {
	if !p.atOp(lit) {
		return errSyntax(p.cur().Line, "expected %q, found %s", lit, p.cur())
	}
	p.advance()
	return nil
}

func (p *parser) skipNewlines() {
	for p.cur().Kind == TokenNewline {
		p.advance()
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxParseDepth {
		return errSyntax(p.cur().Line, "expression nesting too deep")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseProgram() (*Program, error) {
	stmts, err := p.parseStmts(nil)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokenEOF {
		return nil, errSyntax(p.cur().Line, "unexpected %s", p.cur())
	}
	return &Program{Stmts: stmts}, nil
}

// parseStmts parses statements until EOF or one of the stop keywords, which
// is left unconsumed.
func (p *parser) parseStmts(stop []string) ([]Node, error) {
	var stmts []Node
	for {
		p.skipNewlines()
		if p.cur().Kind == TokenEOF || p.atAnyKeyword(stop) {
			return stmts, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.cur().Kind != TokenNewline && p.cur().Kind != TokenEOF && !p.atAnyKeyword(stop) {
			return nil, errSyntax(p.cur().Line, "unexpected %s after statement", p.cur())
		}
	}
}

func (p *parser) atAnyKeyword(names []string) bool {
	for _, n := range names {
		if p.atKeyword(n) {
			return true
		}
	}
	return false
}

func (p *parser) parseStmt() (Node, error) {
	switch {
	case p.atKeyword("require"):
		return p.parseRequire()
	case p.atKeyword("if"):
		p.advance()
		return p.parseIfTail()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("break"):
		p.advance()
		return &Break{}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atOp("=") {
		switch expr.(type) {
		case *Ident, *Index:
		default:
			return nil, errSyntax(p.cur().Line, "cannot assign to this expression")
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Assign{Target: expr, Value: value}, nil
	}
	return expr, nil
}

func (p *parser) parseRequire() (Node, error) {
	line := p.cur().Line
	p.advance()
	tok := p.cur()
	if tok.Kind != TokenString {
		return nil, errSyntax(line, "require expects a string literal")
	}
	p.advance()
	if len(tok.Segments) != 1 || tok.Segments[0].Interp {
		return nil, errSyntax(line, "require does not accept interpolation")
	}
	return &Require{Module: tok.Segments[0].Literal}, nil
}

// parseIfTail parses the remainder of a conditional after its introducing
// keyword (if or elsif) was consumed. An elsif chain nests in Else.
func (p *parser) parseIfTail() (Node, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStmts([]string{"elsif", "else", "end"})
	if err != nil {
		return nil, err
	}
	node := &If{Cond: cond, Then: then}
	switch {
	case p.atKeyword("elsif"):
		p.advance()
		nested, err := p.parseIfTail()
		if err != nil {
			return nil, err
		}
		node.Else = []Node{nested}
		return node, nil
	case p.atKeyword("else"):
		p.advance()
		els, err := p.parseStmts([]string{"end"})
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	if !p.atKeyword("end") {
		return nil, errSyntax(p.cur().Line, "expected \"end\", found %s", p.cur())
	}
	p.advance()
	return node, nil
}

func (p *parser) parseWhile() (Node, error) {
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmts([]string{"end"})
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("end") {
		return nil, errSyntax(p.cur().Line, "expected \"end\", found %s", p.cur())
	}
	p.advance()
	return &While{Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (Node, error) {
	p.advance()
	name := p.cur()
	if name.Kind != TokenIdent {
		return nil, errSyntax(name.Line, "for expects a variable name, found %s", name)
	}
	p.advance()
	if !p.atKeyword("in") {
		return nil, errSyntax(p.cur().Line, "expected \"in\", found %s", p.cur())
	}
	p.advance()
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmts([]string{"end"})
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("end") {
		return nil, errSyntax(p.cur().Line, "expected \"end\", found %s", p.cur())
	}
	p.advance()
	return &For{Var: name.Lit, Iter: iter, Body: body}, nil
}

// Expression grammar, loosest binding first.

func (p *parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseBinary(0)
}

// binaryLevels orders operators from loosest to tightest binding.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseBinary(level int) (Node, error) {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.curBinaryOp(binaryLevels[level])
		if !ok {
			return left, nil
		}
		p.advance()
		p.skipNewlines()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) curBinaryOp(ops []string) (string, bool) {
	t := p.cur()
	if t.Kind != TokenOp {
		return "", false
	}
	for _, op := range ops {
		if t.Lit == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseUnary() (Node, error) {
	if p.atOp("!") || p.atOp("-") {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		op := p.advance().Lit
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("."):
			p.advance()
			name := p.cur()
			if name.Kind != TokenIdent && name.Kind != TokenConst {
				return nil, errSyntax(name.Line, "expected a name after \".\", found %s", name)
			}
			p.advance()
			call := &Call{Receiver: expr, Name: name.Lit}
			if p.atOp("(") {
				if err := p.parseArgs(call); err != nil {
					return nil, err
				}
			}
			expr = call
		case p.atOp("["):
			p.advance()
			p.skipNewlines()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			expr = &Index{Receiver: expr, Key: key}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.cur()
	switch tok.Kind {
	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Lit, 10, 64)
		if err != nil {
			return nil, errSyntax(tok.Line, "integer literal out of range")
		}
		return &IntLit{Value: v}, nil
	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lit, 64)
		if err != nil {
			return nil, errSyntax(tok.Line, "malformed number literal")
		}
		return &FloatLit{Value: v}, nil
	case TokenString:
		p.advance()
		return p.buildString(tok)
	case TokenShell:
		p.advance()
		return &ShellLit{Command: tok.Lit}, nil
	case TokenConst:
		p.advance()
		return &ConstRef{Name: tok.Lit}, nil
	case TokenIdent:
		p.advance()
		if p.atOp("(") {
			call := &Call{Name: tok.Lit}
			if err := p.parseArgs(call); err != nil {
				return nil, err
			}
			return call, nil
		}
		return &Ident{Name: tok.Lit}, nil
	case TokenKeyword:
		switch tok.Lit {
		case "true", "false":
			p.advance()
			return &BoolLit{Value: tok.Lit == "true"}, nil
		case "nil":
			p.advance()
			return &NilLit{}, nil
		}
	case TokenOp:
		switch tok.Lit {
		case "(":
			p.advance()
			p.skipNewlines()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return expr, nil
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseMapLit()
		}
	}
	return nil, errSyntax(tok.Line, "unexpected %s", tok)
}

// buildString converts a lexed string token into a StrLit or StrInterp,
// sub-parsing each interpolation segment with the full expression grammar.
func (p *parser) buildString(tok Token) (Node, error) {
	interp := false
	for _, seg := range tok.Segments {
		if seg.Interp {
			interp = true
			break
		}
	}
	if !interp {
		if len(tok.Segments) == 0 {
			return &StrLit{Value: ""}, nil
		}
		return &StrLit{Value: tok.Segments[0].Literal}, nil
	}
	node := &StrInterp{}
	for _, seg := range tok.Segments {
		if !seg.Interp {
			node.Parts = append(node.Parts, &StrLit{Value: seg.Literal})
			continue
		}
		expr, err := ParseExpr(seg.Expr)
		if err != nil {
			return nil, errSyntax(tok.Line, "in string interpolation: %v", err)
		}
		node.Parts = append(node.Parts, expr)
	}
	return node, nil
}

// parseArgs parses a parenthesized argument list into call. Keyword
// arguments use name: value syntax and may mix with positional ones.
func (p *parser) parseArgs(call *Call) error {
	if err := p.expectOp("("); err != nil {
		return err
	}
	p.skipNewlines()
	for !p.atOp(")") {
		if tok := p.cur(); tok.Kind == TokenIdent && p.peekOp(1, ":") {
			p.advance()
			p.advance()
			p.skipNewlines()
			value, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.KwArgs = append(call.KwArgs, KwArg{Name: tok.Lit, Value: value})
		} else {
			arg, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.Args = append(call.Args, arg)
		}
		p.skipNewlines()
		if p.atOp(",") {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	return p.expectOp(")")
}

func (p *parser) peekOp(off int, lit string) bool {
	if p.pos+off >= len(p.toks) {
		return false
	}
	t := p.toks[p.pos+off]
	return t.Kind == TokenOp && t.Lit == lit
}

func (p *parser) parseArrayLit() (Node, error) {
	p.advance() // [
	p.skipNewlines()
	node := &ArrayLit{}
	for !p.atOp("]") {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Elems = append(node.Elems, elem)
		p.skipNewlines()
		if p.atOp(",") {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	return node, p.expectOp("]")
}

// parseMapLit parses { key: value, ... }. A bare identifier key is sugar for
// its string form.
func (p *parser) parseMapLit() (Node, error) {
	p.advance() // {
	p.skipNewlines()
	node := &MapLit{}
	for !p.atOp("}") {
		var key Node
		if tok := p.cur(); tok.Kind == TokenIdent && p.peekOp(1, ":") {
			p.advance()
			key = &StrLit{Value: tok.Lit}
		} else {
			k, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			key = k
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		p.skipNewlines()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Pairs = append(node.Pairs, MapPair{Key: key, Value: value})
		p.skipNewlines()
		if p.atOp(",") {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	return node, p.expectOp("}")
}
