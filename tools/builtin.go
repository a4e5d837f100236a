// Package tools provides a small collection of safe, side-effect-free tools
// for injecting into sandboxed executions: demos, tests, and smoke checks.
// Real deployments register their own domain tools instead.
package tools

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/codecage/types"
)

// Builtin returns the built-in tool collection keyed by name. The map is
// freshly allocated on every call so callers may add and remove entries.
func Builtin() map[string]types.Tool {
	set := []types.Tool{
		Echo(),
		Clock(),
		NewID(),
	}
	out := make(map[string]types.Tool, len(set))
	for _, tool := range set {
		out[tool.Name()] = tool
	}
	return out
}

// Echo returns a tool that joins its arguments into one string. Useful for
// exercising the argument-passing path end to end.
func Echo() types.Tool {
	return types.NewToolFunc("echo", "joins its arguments into a single string",
		func(_ context.Context, args types.ToolArgs) (any, error) {
			parts := make([]string, 0, len(args.Positional))
			for i := range args.Positional {
				parts = append(parts, args.StringArg(i, ""))
			}
			return strings.Join(parts, " "), nil
		})
}

// Clock returns a tool reporting the current UTC time in RFC 3339 form.
func Clock() types.Tool {
	return types.NewToolFunc("clock", "returns the current UTC time",
		func(_ context.Context, _ types.ToolArgs) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		})
}

// NewID returns a tool generating a fresh random identifier per call.
func NewID() types.Tool {
	return types.NewToolFunc("new_id", "returns a fresh random identifier",
		func(_ context.Context, _ types.ToolArgs) (any, error) {
			return uuid.NewString(), nil
		})
}
