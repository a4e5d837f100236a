package sandbox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/codecage/types"
)

// Names of the fixed builtin surface. varsName is the single read-only
// aggregate the injected variables are reachable through.
const (
	varsName = "vars"

	// FinalAnswerName is the designated completion signal. When a tool of
	// the same name is injected it is invoked first and its result becomes
	// the answer.
	FinalAnswerName = "final_answer"
)

// callBuiltin dispatches the fixed builtin surface. The boolean result
// reports whether the name is a builtin at all; an unhandled name falls
// through to tool lookup in the caller.
func (s *session) callBuiltin(name string, args []Value, kwargs map[string]Value) (Value, bool, error) {
	switch name {
	case "puts":
		v, err := s.builtinPuts(args, true)
		return v, true, err
	case "print":
		v, err := s.builtinPuts(args, false)
		return v, true, err
	case "range":
		v, err := s.builtinRange(args)
		return v, true, err
	case "list_tools":
		return StringValue(s.describeTools()), true, nil
	case "list_vars":
		return StringValue(s.describeVars()), true, nil
	case "budget":
		return StringValue(s.describeBudget()), true, nil
	case FinalAnswerName:
		v, err := s.builtinFinalAnswer(args, kwargs)
		return v, true, err
	default:
		return NilValue, false, nil
	}
}

func (s *session) builtinPuts(args []Value, newline bool) (Value, error) {
	for i, a := range args {
		if !newline && i > 0 {
			s.out.WriteString(" ")
		}
		s.out.WriteString(a.String())
		if newline {
			s.out.WriteString("\n")
		}
	}
	if newline && len(args) == 0 {
		s.out.WriteString("\n")
	}
	return NilValue, nil
}

// builtinRange materializes a half-open integer range. Each element charges
// one operation, so a huge range hits the ceiling instead of allocating
// unbounded memory.
func (s *session) builtinRange(args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return NilValue, types.NewError(types.ErrSyntax, "range expects one or two integer arguments")
	}
	for _, a := range args {
		if a.Kind != KindInt {
			return NilValue, types.NewError(types.ErrSyntax, "range expects one or two integer arguments")
		}
	}
	var lo, hi int64
	if len(args) == 1 {
		hi = args[0].asInt()
	} else {
		lo, hi = args[0].asInt(), args[1].asInt()
	}
	if hi < lo {
		return ArrayValue(nil), nil
	}
	capHint := hi - lo
	if capHint > 4096 {
		capHint = 4096
	}
	xs := make([]Value, 0, capHint)
	for i := lo; i < hi; i++ {
		if err := s.step(); err != nil {
			return NilValue, err
		}
		xs = append(xs, IntValue(i))
	}
	return ArrayValue(xs), nil
}

// builtinFinalAnswer converts the designated completion call into the
// control signal that unwinds the whole execution. When a tool of the same
// name is injected, the tool runs first and its result becomes the answer.
func (s *session) builtinFinalAnswer(args []Value, kwargs map[string]Value) (Value, error) {
	answer := NilValue
	if len(args) > 0 {
		answer = args[0]
	}
	if tool, ok := s.tools[FinalAnswerName]; ok {
		result, err := s.callTool(tool, args, kwargs)
		if err != nil {
			return NilValue, err
		}
		answer = result
	}
	return NilValue, finalAnswerSignal{value: answer}
}

func (s *session) describeTools() string {
	if len(s.tools) == 0 {
		return "no tools available"
	}
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, s.tools[name].Description())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *session) describeVars() string {
	m := s.vars.asMap()
	if len(m) == 0 {
		return "no variables injected"
	}
	keys := sortedKeys(m)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, m[k].Inspect())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *session) describeBudget() string {
	return fmt.Sprintf("operations used %d of %d; output %d of %d bytes",
		s.ops, s.maxOps, s.out.Len(), s.out.max)
}

// introspectionAnswer is the fixed reply to every identity/class query, so
// executed code cannot fingerprint the sandbox implementation.
const introspectionAnswer = "Object"

// callMethod dispatches the closed per-value method surface. Anything not
// listed here does not exist inside the sandbox.
func (s *session) callMethod(recv Value, name string, args []Value) (Value, error) {
	// Identity and universal methods first.
	switch name {
	case "class", "type":
		return StringValue(introspectionAnswer), nil
	case "is_a?", "instance_of?", "kind_of?", "respond_to?":
		return BoolValue(false), nil
	case "nil?":
		return BoolValue(recv.Kind == KindNil), nil
	case "to_s":
		return StringValue(recv.String()), nil
	case "inspect":
		return StringValue(recv.Inspect()), nil
	}

	switch recv.Kind {
	case KindString:
		return stringMethod(recv.asString(), name, args)
	case KindArray:
		return arrayMethod(recv.asArray(), name, args)
	case KindMap:
		return mapMethod(recv.asMap(), name, args)
	case KindInt, KindFloat:
		return numberMethod(recv, name, args)
	}
	return NilValue, unknownMethod(name, recv)
}

func unknownMethod(name string, recv Value) error {
	return types.NewError(types.ErrUnknownSymbol, fmt.Sprintf(
		"method %q is unknown in the sandbox for this %s value", name, kindName(recv.Kind)))
}

func stringMethod(str, name string, args []Value) (Value, error) {
	switch name {
	case "length", "size":
		return IntValue(int64(len(str))), nil
	case "empty?":
		return BoolValue(len(str) == 0), nil
	case "upcase":
		return StringValue(strings.ToUpper(str)), nil
	case "downcase":
		return StringValue(strings.ToLower(str)), nil
	case "strip":
		return StringValue(strings.TrimSpace(str)), nil
	case "reverse":
		runes := []rune(str)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return StringValue(string(runes)), nil
	case "include?":
		if err := wantArgs(name, args, 1); err != nil {
			return NilValue, err
		}
		return BoolValue(strings.Contains(str, args[0].String())), nil
	case "start_with?":
		if err := wantArgs(name, args, 1); err != nil {
			return NilValue, err
		}
		return BoolValue(strings.HasPrefix(str, args[0].String())), nil
	case "end_with?":
		if err := wantArgs(name, args, 1); err != nil {
			return NilValue, err
		}
		return BoolValue(strings.HasSuffix(str, args[0].String())), nil
	case "split":
		sep := " "
		if len(args) > 0 {
			sep = args[0].String()
		}
		parts := strings.Split(str, sep)
		xs := make([]Value, len(parts))
		for i, p := range parts {
			xs[i] = StringValue(p)
		}
		return ArrayValue(xs), nil
	case "to_i":
		n, _ := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
		return IntValue(n), nil
	case "to_f":
		f, _ := strconv.ParseFloat(strings.TrimSpace(str), 64)
		return FloatValue(f), nil
	}
	return NilValue, unknownMethod(name, StringValue(str))
}

func arrayMethod(xs []Value, name string, args []Value) (Value, error) {
	switch name {
	case "length", "size":
		return IntValue(int64(len(xs))), nil
	case "empty?":
		return BoolValue(len(xs) == 0), nil
	case "first":
		if len(xs) == 0 {
			return NilValue, nil
		}
		return xs[0], nil
	case "last":
		if len(xs) == 0 {
			return NilValue, nil
		}
		return xs[len(xs)-1], nil
	case "push":
		// Values are immutable aggregates here: push yields the extended
		// array, assigned back by the caller.
		out := append(append([]Value{}, xs...), args...)
		return ArrayValue(out), nil
	case "include?":
		if err := wantArgs(name, args, 1); err != nil {
			return NilValue, err
		}
		for _, e := range xs {
			if e.Equal(args[0]) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	case "join":
		sep := ""
		if len(args) > 0 {
			sep = args[0].String()
		}
		parts := make([]string, len(xs))
		for i, e := range xs {
			parts[i] = e.String()
		}
		return StringValue(strings.Join(parts, sep)), nil
	case "reverse":
		out := make([]Value, len(xs))
		for i, e := range xs {
			out[len(xs)-1-i] = e
		}
		return ArrayValue(out), nil
	case "sort":
		out := append([]Value{}, xs...)
		sort.SliceStable(out, func(i, j int) bool {
			if isNumeric(out[i]) && isNumeric(out[j]) {
				return numFloat(out[i]) < numFloat(out[j])
			}
			return out[i].String() < out[j].String()
		})
		return ArrayValue(out), nil
	case "sum":
		var total float64
		intOnly := true
		for _, e := range xs {
			if !isNumeric(e) {
				return NilValue, types.NewError(types.ErrSyntax, "sum requires numeric elements")
			}
			if e.Kind == KindFloat {
				intOnly = false
			}
			total += numFloat(e)
		}
		if intOnly {
			return IntValue(int64(total)), nil
		}
		return FloatValue(total), nil
	case "min", "max":
		if len(xs) == 0 {
			return NilValue, nil
		}
		best := xs[0]
		for _, e := range xs[1:] {
			less, err := applyBinary("<", e, best)
			if err != nil {
				return NilValue, err
			}
			if less.Truthy() == (name == "min") {
				best = e
			}
		}
		return best, nil
	}
	return NilValue, unknownMethod(name, ArrayValue(xs))
}

func mapMethod(m map[string]Value, name string, args []Value) (Value, error) {
	switch name {
	case "length", "size":
		return IntValue(int64(len(m))), nil
	case "empty?":
		return BoolValue(len(m) == 0), nil
	case "keys":
		keys := sortedKeys(m)
		xs := make([]Value, len(keys))
		for i, k := range keys {
			xs[i] = StringValue(k)
		}
		return ArrayValue(xs), nil
	case "values":
		keys := sortedKeys(m)
		xs := make([]Value, len(keys))
		for i, k := range keys {
			xs[i] = m[k]
		}
		return ArrayValue(xs), nil
	case "has_key?", "include?":
		if err := wantArgs(name, args, 1); err != nil {
			return NilValue, err
		}
		if args[0].Kind != KindString {
			return BoolValue(false), nil
		}
		_, ok := m[args[0].asString()]
		return BoolValue(ok), nil
	case "fetch":
		if len(args) == 0 || args[0].Kind != KindString {
			return NilValue, types.NewError(types.ErrSyntax, "fetch expects a string key")
		}
		if v, ok := m[args[0].asString()]; ok {
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return NilValue, nil
	}
	return NilValue, unknownMethod(name, MapValue(m))
}

func numberMethod(recv Value, name string, args []Value) (Value, error) {
	switch name {
	case "abs":
		if recv.Kind == KindInt {
			if n := recv.asInt(); n < 0 {
				return IntValue(-n), nil
			}
			return recv, nil
		}
		if f := recv.asFloat(); f < 0 {
			return FloatValue(-f), nil
		}
		return recv, nil
	case "zero?":
		return BoolValue(numFloat(recv) == 0), nil
	case "to_i":
		if recv.Kind == KindInt {
			return recv, nil
		}
		return IntValue(int64(recv.asFloat())), nil
	case "to_f":
		return FloatValue(numFloat(recv)), nil
	}
	return NilValue, unknownMethod(name, recv)
}

func wantArgs(name string, args []Value, n int) error {
	if len(args) != n {
		return types.NewError(types.ErrSyntax,
			fmt.Sprintf("%s expects %d argument(s), got %d", name, n, len(args)))
	}
	return nil
}
