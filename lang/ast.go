package lang

// Node is the interface all syntax-tree nodes implement. Children returns
// every sub-node in source order so a walker can descend without knowing the
// concrete kind; nodes a consumer does not handle explicitly take the
// generic descend path.
type Node interface {
	Children() []Node
}

// Program is the root node: a sequence of statements.
type Program struct {
	Stmts []Node
}

func (n *Program) Children() []Node { return n.Stmts }

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

func (n *IntLit) Children() []Node { return nil }

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
}

func (n *FloatLit) Children() []Node { return nil }

// StrLit is a plain string literal with no interpolation.
type StrLit struct {
	Value string
}

func (n *StrLit) Children() []Node { return nil }

// StrInterp is a string literal containing #{...} interpolation. Parts
// alternates StrLit segments and arbitrary expression nodes in source order.
type StrInterp struct {
	Parts []Node
}

func (n *StrInterp) Children() []Node { return n.Parts }

// ShellLit is a backtick command literal: raw shell-execution syntax. It is
// never executable; the validator rejects it on sight.
type ShellLit struct {
	Command string
}

func (n *ShellLit) Children() []Node { return nil }

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

func (n *BoolLit) Children() []Node { return nil }

// NilLit is the nil literal.
type NilLit struct{}

func (n *NilLit) Children() []Node { return nil }

// ArrayLit is an array literal.
type ArrayLit struct {
	Elems []Node
}

func (n *ArrayLit) Children() []Node { return n.Elems }

// MapPair is one key/value entry of a map literal.
type MapPair struct {
	Key   Node
	Value Node
}

// MapLit is a map literal.
type MapLit struct {
	Pairs []MapPair
}

func (n *MapLit) Children() []Node {
	out := make([]Node, 0, len(n.Pairs)*2)
	for _, p := range n.Pairs {
		out = append(out, p.Key, p.Value)
	}
	return out
}

// Ident is a bare lowercase name: a variable read or, when followed by
// arguments, an invocation (those parse as Call).
type Ident struct {
	Name string
}

func (n *Ident) Children() []Node { return nil }

// ConstRef is a reference to a capitalized entity (File, Kernel, Net...).
type ConstRef struct {
	Name string
}

func (n *ConstRef) Children() []Node { return nil }

// KwArg is a keyword argument of a Call.
type KwArg struct {
	Name  string
	Value Node
}

// Call is an invocation: a bare call (Receiver nil) or a call with receiver.
// A receiver attribute access without parentheses also parses as a Call with
// no arguments, matching the language's method-call semantics.
type Call struct {
	Receiver Node // nil for bare calls
	Name     string
	Args     []Node
	KwArgs   []KwArg
}

func (n *Call) Children() []Node {
	var out []Node
	if n.Receiver != nil {
		out = append(out, n.Receiver)
	}
	out = append(out, n.Args...)
	for _, kw := range n.KwArgs {
		out = append(out, kw.Value)
	}
	return out
}

// Index is a subscript expression: recv[key].
type Index struct {
	Receiver Node
	Key      Node
}

func (n *Index) Children() []Node { return []Node{n.Receiver, n.Key} }

// Unary is a prefix operator expression.
type Unary struct {
	Op      string
	Operand Node
}

func (n *Unary) Children() []Node { return []Node{n.Operand} }

// Binary is an infix operator expression.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

func (n *Binary) Children() []Node { return []Node{n.Left, n.Right} }

// Assign binds a value to a variable or to a subscript target.
type Assign struct {
	Target Node // *Ident or *Index
	Value  Node
}

func (n *Assign) Children() []Node { return []Node{n.Target, n.Value} }

// Require is a module import statement.
type Require struct {
	Module string
}

func (n *Require) Children() []Node { return nil }

// If is a conditional. An elsif chain parses as a nested If in Else.
type If struct {
	Cond Node
	Then []Node
	Else []Node
}

func (n *If) Children() []Node {
	out := []Node{n.Cond}
	out = append(out, n.Then...)
	out = append(out, n.Else...)
	return out
}

// While is a condition-guarded loop.
type While struct {
	Cond Node
	Body []Node
}

func (n *While) Children() []Node {
	out := []Node{n.Cond}
	return append(out, n.Body...)
}

// For iterates a collection: for x in expr ... end.
type For struct {
	Var  string
	Iter Node
	Body []Node
}

func (n *For) Children() []Node {
	out := []Node{n.Iter}
	return append(out, n.Body...)
}

// Break exits the innermost loop.
type Break struct{}

func (n *Break) Children() []Node { return nil }
