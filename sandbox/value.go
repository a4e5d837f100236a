package sandbox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the runtime type of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
)

// Value is the tagged runtime value model of the sandbox interpreter.
type Value struct {
	Kind Kind
	Data any
}

// NilValue is the nil value.
var NilValue = Value{}

func BoolValue(b bool) Value            { return Value{Kind: KindBool, Data: b} }
func IntValue(n int64) Value            { return Value{Kind: KindInt, Data: n} }
func FloatValue(f float64) Value        { return Value{Kind: KindFloat, Data: f} }
func StringValue(s string) Value        { return Value{Kind: KindString, Data: s} }
func ArrayValue(xs []Value) Value       { return Value{Kind: KindArray, Data: xs} }
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, Data: m} }

func (v Value) asBool() bool      { return v.Data.(bool) }
func (v Value) asInt() int64      { return v.Data.(int64) }
func (v Value) asFloat() float64  { return v.Data.(float64) }
func (v Value) asString() string  { return v.Data.(string) }
func (v Value) asArray() []Value  { return v.Data.([]Value) }
func (v Value) asMap() map[string]Value {
	return v.Data.(map[string]Value)
}

// Truthy reports the conditional interpretation: nil and false are falsy,
// everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.asBool()
	default:
		return true
	}
}

// String renders the display form used by puts and string interpolation.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return ""
	case KindBool:
		return strconv.FormatBool(v.asBool())
	case KindInt:
		return strconv.FormatInt(v.asInt(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.asFloat(), 'g', -1, 64)
	case KindString:
		return v.asString()
	case KindArray:
		parts := make([]string, len(v.asArray()))
		for i, e := range v.asArray() {
			parts[i] = e.Inspect()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		m := v.asMap()
		keys := sortedKeys(m)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, m[k].Inspect())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// Inspect renders the source-like form: strings quoted, nil spelled out.
func (v Value) Inspect() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindString:
		return strconv.Quote(v.asString())
	default:
		return v.String()
	}
}

// Equal is deep structural equality.
func (v Value) Equal(o Value) bool {
	// Numeric comparison crosses the int/float divide.
	if isNumeric(v) && isNumeric(o) {
		return numFloat(v) == numFloat(o)
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.asBool() == o.asBool()
	case KindString:
		return v.asString() == o.asString()
	case KindArray:
		a, b := v.asArray(), o.asArray()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindMap:
		a, b := v.asMap(), o.asMap()
		if len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }

func numFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.asInt())
	}
	return v.asFloat()
}

// FromGo converts a caller-supplied Go value (injected variable or tool
// result) into a sandbox value. Unrecognized types degrade to their string
// form rather than leaking a Go type into the sandbox.
func FromGo(x any) Value {
	switch t := x.(type) {
	case nil:
		return NilValue
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case string:
		return StringValue(t)
	case []string:
		xs := make([]Value, len(t))
		for i, e := range t {
			xs[i] = StringValue(e)
		}
		return ArrayValue(xs)
	case []any:
		xs := make([]Value, len(t))
		for i, e := range t {
			xs[i] = FromGo(e)
		}
		return ArrayValue(xs)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromGo(e)
		}
		return MapValue(m)
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = StringValue(e)
		}
		return MapValue(m)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// ToGo converts a sandbox value back to a plain Go value for tool arguments
// and result reporting.
func (v Value) ToGo() any {
	switch v.Kind {
	case KindNil:
		return nil
	case KindBool:
		return v.asBool()
	case KindInt:
		return v.asInt()
	case KindFloat:
		return v.asFloat()
	case KindString:
		return v.asString()
	case KindArray:
		xs := make([]any, len(v.asArray()))
		for i, e := range v.asArray() {
			xs[i] = e.ToGo()
		}
		return xs
	case KindMap:
		m := make(map[string]any, len(v.asMap()))
		for k, e := range v.asMap() {
			m[k] = e.ToGo()
		}
		return m
	default:
		return nil
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
