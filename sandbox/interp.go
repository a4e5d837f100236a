package sandbox

import (
	"context"
	"fmt"

	"github.com/BaSui01/codecage/lang"
	"github.com/BaSui01/codecage/types"
)

// finalAnswerSignal unwinds the whole execution when code invokes
// final_answer. It travels the error path but is a control-flow completion
// signal, not a failure; Execute classifies it before anything else.
type finalAnswerSignal struct {
	value Value
}

func (finalAnswerSignal) Error() string { return "final answer signaled" }

// breakSignal unwinds the innermost loop.
type breakSignal struct{}

func (breakSignal) Error() string { return "break outside of a loop" }

// session is the sandbox execution context of a single attempt. It owns the
// output buffer and the local variable bindings, borrows the caller's tools,
// and counts every primitive evaluation step. A session is constructed
// fresh per attempt, used by one goroutine, and discarded.
type session struct {
	ctx    context.Context
	tools  map[string]types.Tool
	vars   Value // read-only aggregate of injected variables
	locals map[string]Value
	out    *limitedBuffer
	ops    int
	maxOps int
}

func newSession(ctx context.Context, opts Options, limits Limits) *session {
	vars := make(map[string]Value, len(opts.Variables))
	for name, value := range opts.Variables {
		vars[name] = FromGo(value)
	}
	return &session{
		ctx:    ctx,
		tools:  opts.Tools,
		vars:   MapValue(vars),
		locals: make(map[string]Value),
		out:    newLimitedBuffer(limits.MaxOutputBytes),
		maxOps: limits.MaxOperations,
	}
}

// step counts one primitive operation and aborts once the ceiling is
// exceeded. It runs on every node evaluation and every loop iteration, so a
// tight infinite loop is caught promptly.
func (s *session) step() error {
	s.ops++
	if s.ops > s.maxOps {
		return types.NewError(types.ErrOperationLimit,
			fmt.Sprintf("operation limit of %d exceeded", s.maxOps))
	}
	return nil
}

// run executes a program and yields the value of its last statement.
func (s *session) run(program *lang.Program) (Value, error) {
	last := NilValue
	for _, stmt := range program.Stmts {
		v, err := s.eval(stmt)
		if err != nil {
			if _, ok := err.(breakSignal); ok {
				return NilValue, types.NewError(types.ErrSyntax, err.Error())
			}
			return NilValue, err
		}
		last = v
	}
	return last, nil
}

func (s *session) eval(n lang.Node) (Value, error) {
	if err := s.step(); err != nil {
		return NilValue, err
	}
	switch node := n.(type) {
	case *lang.IntLit:
		return IntValue(node.Value), nil
	case *lang.FloatLit:
		return FloatValue(node.Value), nil
	case *lang.StrLit:
		return StringValue(node.Value), nil
	case *lang.BoolLit:
		return BoolValue(node.Value), nil
	case *lang.NilLit:
		return NilValue, nil
	case *lang.StrInterp:
		return s.evalInterp(node)
	case *lang.ShellLit:
		return NilValue, types.NewError(types.ErrCodeRejected,
			"shell execution is not available in the sandbox")
	case *lang.ArrayLit:
		return s.evalArrayLit(node)
	case *lang.MapLit:
		return s.evalMapLit(node)
	case *lang.Ident:
		return s.evalIdent(node)
	case *lang.ConstRef:
		return NilValue, s.unknownSymbol(node.Name)
	case *lang.Call:
		return s.evalCall(node)
	case *lang.Index:
		return s.evalIndex(node)
	case *lang.Unary:
		return s.evalUnary(node)
	case *lang.Binary:
		return s.evalBinary(node)
	case *lang.Assign:
		return s.evalAssign(node)
	case *lang.Require:
		// A require that survived validation grants nothing at runtime.
		return NilValue, nil
	case *lang.If:
		return s.evalIf(node)
	case *lang.While:
		return s.evalWhile(node)
	case *lang.For:
		return s.evalFor(node)
	case *lang.Break:
		return NilValue, breakSignal{}
	default:
		return NilValue, types.NewError(types.ErrInternal,
			fmt.Sprintf("unsupported syntax node %T", n))
	}
}

func (s *session) evalInterp(node *lang.StrInterp) (Value, error) {
	var out string
	for _, part := range node.Parts {
		v, err := s.eval(part)
		if err != nil {
			return NilValue, err
		}
		out += v.String()
	}
	return StringValue(out), nil
}

func (s *session) evalArrayLit(node *lang.ArrayLit) (Value, error) {
	xs := make([]Value, 0, len(node.Elems))
	for _, e := range node.Elems {
		v, err := s.eval(e)
		if err != nil {
			return NilValue, err
		}
		xs = append(xs, v)
	}
	return ArrayValue(xs), nil
}

func (s *session) evalMapLit(node *lang.MapLit) (Value, error) {
	m := make(map[string]Value, len(node.Pairs))
	for _, pair := range node.Pairs {
		k, err := s.eval(pair.Key)
		if err != nil {
			return NilValue, err
		}
		if k.Kind != KindString {
			return NilValue, types.NewError(types.ErrSyntax, "map keys must be strings")
		}
		v, err := s.eval(pair.Value)
		if err != nil {
			return NilValue, err
		}
		m[k.asString()] = v
	}
	return MapValue(m), nil
}

func (s *session) evalIdent(node *lang.Ident) (Value, error) {
	if v, ok := s.locals[node.Name]; ok {
		return v, nil
	}
	if node.Name == varsName {
		return s.vars, nil
	}
	return NilValue, s.unknownSymbol(node.Name)
}

func (s *session) evalCall(node *lang.Call) (Value, error) {
	if node.Receiver != nil {
		return s.evalMethodCall(node)
	}

	args, kwargs, err := s.evalArgs(node)
	if err != nil {
		return NilValue, err
	}
	if v, handled, err := s.callBuiltin(node.Name, args, kwargs); handled {
		return v, err
	}
	if tool, ok := s.tools[node.Name]; ok {
		return s.callTool(tool, args, kwargs)
	}
	return NilValue, s.unknownSymbol(node.Name)
}

func (s *session) evalMethodCall(node *lang.Call) (Value, error) {
	recv, err := s.eval(node.Receiver)
	if err != nil {
		return NilValue, err
	}
	args, _, err := s.evalArgs(node)
	if err != nil {
		return NilValue, err
	}
	return s.callMethod(recv, node.Name, args)
}

func (s *session) evalArgs(node *lang.Call) ([]Value, map[string]Value, error) {
	var args []Value
	for _, a := range node.Args {
		v, err := s.eval(a)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, v)
	}
	var kwargs map[string]Value
	for _, kw := range node.KwArgs {
		v, err := s.eval(kw.Value)
		if err != nil {
			return nil, nil, err
		}
		if kwargs == nil {
			kwargs = make(map[string]Value, len(node.KwArgs))
		}
		kwargs[kw.Name] = v
	}
	return args, kwargs, nil
}

// callTool invokes an injected tool. A tool error or panic is caught here
// and surfaced as a classified sandbox failure; nothing a tool does may
// crash the host process.
func (s *session) callTool(tool types.Tool, args []Value, kwargs map[string]Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = NilValue
			err = types.NewError(types.ErrToolFailed,
				fmt.Sprintf("tool %q panicked: %v", tool.Name(), r))
		}
	}()

	toolArgs := types.ToolArgs{}
	for _, a := range args {
		toolArgs.Positional = append(toolArgs.Positional, a.ToGo())
	}
	if len(kwargs) > 0 {
		toolArgs.Named = make(map[string]any, len(kwargs))
		for k, a := range kwargs {
			toolArgs.Named[k] = a.ToGo()
		}
	}

	result, callErr := tool.Call(s.ctx, toolArgs)
	if callErr != nil {
		return NilValue, types.WrapError(types.ErrToolFailed,
			fmt.Sprintf("tool %q failed", tool.Name()), callErr)
	}
	return FromGo(result), nil
}

func (s *session) evalIndex(node *lang.Index) (Value, error) {
	recv, err := s.eval(node.Receiver)
	if err != nil {
		return NilValue, err
	}
	key, err := s.eval(node.Key)
	if err != nil {
		return NilValue, err
	}
	return indexValue(recv, key)
}

func indexValue(recv, key Value) (Value, error) {
	switch recv.Kind {
	case KindArray:
		if key.Kind != KindInt {
			return NilValue, types.NewError(types.ErrSyntax, "array index must be an integer")
		}
		xs := recv.asArray()
		i := normalizeIndex(key.asInt(), len(xs))
		if i < 0 {
			return NilValue, nil
		}
		return xs[i], nil
	case KindString:
		if key.Kind != KindInt {
			return NilValue, types.NewError(types.ErrSyntax, "string index must be an integer")
		}
		str := recv.asString()
		i := normalizeIndex(key.asInt(), len(str))
		if i < 0 {
			return NilValue, nil
		}
		return StringValue(string(str[i])), nil
	case KindMap:
		if key.Kind != KindString {
			return NilValue, types.NewError(types.ErrSyntax, "map key must be a string")
		}
		if v, ok := recv.asMap()[key.asString()]; ok {
			return v, nil
		}
		return NilValue, nil
	default:
		return NilValue, types.NewError(types.ErrSyntax,
			fmt.Sprintf("cannot index a %s value", kindName(recv.Kind)))
	}
}

// normalizeIndex resolves negative (from-the-end) indexes; -1 is the last
// element. Out-of-range resolves to -1, which reads as nil.
func normalizeIndex(i int64, length int) int {
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return -1
	}
	return int(i)
}

func (s *session) evalAssign(node *lang.Assign) (Value, error) {
	value, err := s.eval(node.Value)
	if err != nil {
		return NilValue, err
	}
	switch target := node.Target.(type) {
	case *lang.Ident:
		if target.Name == varsName {
			return NilValue, types.NewError(types.ErrSyntax, "vars is read-only")
		}
		s.locals[target.Name] = value
		return value, nil
	case *lang.Index:
		return s.evalIndexAssign(target, value)
	default:
		return NilValue, types.NewError(types.ErrSyntax, "cannot assign to this expression")
	}
}

func (s *session) evalIndexAssign(target *lang.Index, value Value) (Value, error) {
	recv, err := s.eval(target.Receiver)
	if err != nil {
		return NilValue, err
	}
	key, err := s.eval(target.Key)
	if err != nil {
		return NilValue, err
	}
	switch recv.Kind {
	case KindMap:
		if key.Kind != KindString {
			return NilValue, types.NewError(types.ErrSyntax, "map key must be a string")
		}
		if recv.Data.(map[string]Value) == nil {
			return NilValue, types.NewError(types.ErrSyntax, "cannot assign into nil map")
		}
		recv.asMap()[key.asString()] = value
		return value, nil
	case KindArray:
		if key.Kind != KindInt {
			return NilValue, types.NewError(types.ErrSyntax, "array index must be an integer")
		}
		xs := recv.asArray()
		i := normalizeIndex(key.asInt(), len(xs))
		if i < 0 {
			return NilValue, types.NewError(types.ErrSyntax, "array index out of range")
		}
		xs[i] = value
		return value, nil
	default:
		return NilValue, types.NewError(types.ErrSyntax,
			fmt.Sprintf("cannot assign into a %s value", kindName(recv.Kind)))
	}
}

func (s *session) evalUnary(node *lang.Unary) (Value, error) {
	operand, err := s.eval(node.Operand)
	if err != nil {
		return NilValue, err
	}
	switch node.Op {
	case "!":
		return BoolValue(!operand.Truthy()), nil
	case "-":
		switch operand.Kind {
		case KindInt:
			return IntValue(-operand.asInt()), nil
		case KindFloat:
			return FloatValue(-operand.asFloat()), nil
		}
		return NilValue, types.NewError(types.ErrSyntax,
			fmt.Sprintf("cannot negate a %s value", kindName(operand.Kind)))
	default:
		return NilValue, types.NewError(types.ErrInternal,
			fmt.Sprintf("unsupported unary operator %q", node.Op))
	}
}

func (s *session) evalBinary(node *lang.Binary) (Value, error) {
	// Logical operators short-circuit.
	if node.Op == "&&" || node.Op == "||" {
		left, err := s.eval(node.Left)
		if err != nil {
			return NilValue, err
		}
		if node.Op == "&&" && !left.Truthy() {
			return left, nil
		}
		if node.Op == "||" && left.Truthy() {
			return left, nil
		}
		return s.eval(node.Right)
	}

	left, err := s.eval(node.Left)
	if err != nil {
		return NilValue, err
	}
	right, err := s.eval(node.Right)
	if err != nil {
		return NilValue, err
	}
	return applyBinary(node.Op, left, right)
}

func applyBinary(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return BoolValue(left.Equal(right)), nil
	case "!=":
		return BoolValue(!left.Equal(right)), nil
	}

	if op == "+" {
		switch {
		case left.Kind == KindString && right.Kind == KindString:
			return StringValue(left.asString() + right.asString()), nil
		case left.Kind == KindArray && right.Kind == KindArray:
			xs := append(append([]Value{}, left.asArray()...), right.asArray()...)
			return ArrayValue(xs), nil
		}
	}

	if isNumeric(left) && isNumeric(right) {
		return applyNumeric(op, left, right)
	}
	if left.Kind == KindString && right.Kind == KindString {
		switch op {
		case "<":
			return BoolValue(left.asString() < right.asString()), nil
		case "<=":
			return BoolValue(left.asString() <= right.asString()), nil
		case ">":
			return BoolValue(left.asString() > right.asString()), nil
		case ">=":
			return BoolValue(left.asString() >= right.asString()), nil
		}
	}
	return NilValue, types.NewError(types.ErrSyntax,
		fmt.Sprintf("operator %q is not defined for %s and %s",
			op, kindName(left.Kind), kindName(right.Kind)))
}

func applyNumeric(op string, left, right Value) (Value, error) {
	if left.Kind == KindInt && right.Kind == KindInt {
		a, b := left.asInt(), right.asInt()
		switch op {
		case "+":
			return IntValue(a + b), nil
		case "-":
			return IntValue(a - b), nil
		case "*":
			return IntValue(a * b), nil
		case "/":
			if b == 0 {
				return NilValue, types.NewError(types.ErrSyntax, "division by zero")
			}
			return IntValue(a / b), nil
		case "%":
			if b == 0 {
				return NilValue, types.NewError(types.ErrSyntax, "division by zero")
			}
			return IntValue(a % b), nil
		case "<":
			return BoolValue(a < b), nil
		case "<=":
			return BoolValue(a <= b), nil
		case ">":
			return BoolValue(a > b), nil
		case ">=":
			return BoolValue(a >= b), nil
		}
	}

	a, b := numFloat(left), numFloat(right)
	switch op {
	case "+":
		return FloatValue(a + b), nil
	case "-":
		return FloatValue(a - b), nil
	case "*":
		return FloatValue(a * b), nil
	case "/":
		if b == 0 {
			return NilValue, types.NewError(types.ErrSyntax, "division by zero")
		}
		return FloatValue(a / b), nil
	case "<":
		return BoolValue(a < b), nil
	case "<=":
		return BoolValue(a <= b), nil
	case ">":
		return BoolValue(a > b), nil
	case ">=":
		return BoolValue(a >= b), nil
	}
	return NilValue, types.NewError(types.ErrInternal,
		fmt.Sprintf("unsupported numeric operator %q", op))
}

func (s *session) evalIf(node *lang.If) (Value, error) {
	cond, err := s.eval(node.Cond)
	if err != nil {
		return NilValue, err
	}
	branch := node.Then
	if !cond.Truthy() {
		branch = node.Else
	}
	return s.evalBlock(branch)
}

func (s *session) evalWhile(node *lang.While) (Value, error) {
	for {
		if err := s.step(); err != nil {
			return NilValue, err
		}
		cond, err := s.eval(node.Cond)
		if err != nil {
			return NilValue, err
		}
		if !cond.Truthy() {
			return NilValue, nil
		}
		if _, err := s.evalBlock(node.Body); err != nil {
			if _, ok := err.(breakSignal); ok {
				return NilValue, nil
			}
			return NilValue, err
		}
	}
}

func (s *session) evalFor(node *lang.For) (Value, error) {
	if node.Var == varsName {
		return NilValue, types.NewError(types.ErrSyntax, "vars is read-only")
	}
	iter, err := s.eval(node.Iter)
	if err != nil {
		return NilValue, err
	}
	var items []Value
	switch iter.Kind {
	case KindArray:
		items = iter.asArray()
	case KindMap:
		// Deterministic iteration order.
		for _, k := range sortedKeys(iter.asMap()) {
			items = append(items, StringValue(k))
		}
	case KindString:
		for _, r := range iter.asString() {
			items = append(items, StringValue(string(r)))
		}
	default:
		return NilValue, types.NewError(types.ErrSyntax,
			fmt.Sprintf("cannot iterate a %s value", kindName(iter.Kind)))
	}

	for _, item := range items {
		if err := s.step(); err != nil {
			return NilValue, err
		}
		s.locals[node.Var] = item
		if _, err := s.evalBlock(node.Body); err != nil {
			if _, ok := err.(breakSignal); ok {
				return NilValue, nil
			}
			return NilValue, err
		}
	}
	return NilValue, nil
}

func (s *session) evalBlock(stmts []lang.Node) (Value, error) {
	last := NilValue
	for _, stmt := range stmts {
		v, err := s.eval(stmt)
		if err != nil {
			return NilValue, err
		}
		last = v
	}
	return last, nil
}

// unknownSymbol builds the distinguishing "unknown in sandbox" error. The
// message names the discovery helpers because the agent is usually guessing
// at an unfamiliar surface.
func (s *session) unknownSymbol(name string) error {
	return types.NewError(types.ErrUnknownSymbol, fmt.Sprintf(
		"%q is unknown in the sandbox; call list_tools() to see available tools and list_vars() to see injected variables",
		name))
}

func kindName(k Kind) string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}
