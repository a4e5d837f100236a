package types

import (
	"context"
	"fmt"
)

// Tool is the capability interface every injected tool implements. The
// sandbox exposes a tool to executed code strictly by its Name; nothing
// about the concrete implementation is reachable from inside.
//
// Call receives the host context plus the arguments the executed code
// supplied. A failing tool returns an error; the sandbox converts it into a
// classified failure outcome and never lets it unwind past the sandbox
// boundary.
//
// Tools shared across concurrently running sandboxes must be safe for
// concurrent use; the sandbox adds no synchronization of its own.
type Tool interface {
	// Name returns the identifier executed code invokes the tool by.
	Name() string
	// Description returns a human-readable summary surfaced to the agent
	// through the sandbox's list_tools() helper.
	Description() string
	// Call invokes the tool with positional and/or named arguments.
	Call(ctx context.Context, args ToolArgs) (any, error)
}

// ToolArgs carries the arguments of a single tool invocation.
type ToolArgs struct {
	Positional []any          `json:"positional,omitempty"`
	Named      map[string]any `json:"named,omitempty"`
}

// Arg returns the i-th positional argument, or nil if absent.
func (a ToolArgs) Arg(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// NamedArg returns the named argument, or nil if absent.
func (a ToolArgs) NamedArg(name string) any {
	return a.Named[name]
}

// StringArg returns the i-th positional argument rendered as a string.
// Falls back to the named argument of the given name when the positional
// slot is empty, so tools accept both call styles.
func (a ToolArgs) StringArg(i int, name string) string {
	v := a.Arg(i)
	if v == nil && name != "" {
		v = a.NamedArg(name)
	}
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Len returns the total number of arguments supplied.
func (a ToolArgs) Len() int {
	return len(a.Positional) + len(a.Named)
}

// ToolFunc adapts a plain function into a Tool.
type ToolFunc struct {
	name        string
	description string
	fn          func(ctx context.Context, args ToolArgs) (any, error)
}

// NewToolFunc creates a function-backed tool.
func NewToolFunc(name, description string, fn func(ctx context.Context, args ToolArgs) (any, error)) *ToolFunc {
	return &ToolFunc{name: name, description: description, fn: fn}
}

// Name returns the tool name.
func (t *ToolFunc) Name() string { return t.name }

// Description returns the tool description.
func (t *ToolFunc) Description() string { return t.description }

// Call invokes the wrapped function.
func (t *ToolFunc) Call(ctx context.Context, args ToolArgs) (any, error) {
	return t.fn(ctx, args)
}
