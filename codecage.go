// Package codecage provides a top-level convenience entry point for the
// agent code-execution security core.
//
// Usage:
//
//	import "github.com/BaSui01/codecage"
//
//	verdict := codecage.Validate(code)
//	result := codecage.Run(ctx, code, tools, variables)
//
// This is a thin wrapper over the validator and sandbox packages; both
// produce identical results when used directly. Use this package when you
// prefer the shorter import path and the default configuration.
package codecage

import (
	"context"

	"github.com/BaSui01/codecage/sandbox"
	"github.com/BaSui01/codecage/types"
	"github.com/BaSui01/codecage/validator"
)

// Version is the library version.
const Version = "0.1.0"

// Validate statically checks agent code with the default ruleset.
func Validate(code string) *validator.Result {
	return validator.Default().Validate(code)
}

// Run validates code with the default ruleset and, when it passes, executes
// it in a fresh sandbox with the default limits.
func Run(ctx context.Context, code string, tools map[string]types.Tool, variables map[string]any) *sandbox.Result {
	runner := sandbox.NewRunner(nil, sandbox.DefaultLimits(), nil)
	return runner.Run(ctx, code, tools, variables)
}
