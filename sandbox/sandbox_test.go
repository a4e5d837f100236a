package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/codecage/types"
)

func echoTool(t *testing.T) types.Tool {
	t.Helper()
	return types.NewToolFunc("echo", "returns its first argument", func(_ context.Context, args types.ToolArgs) (any, error) {
		return args.Arg(0), nil
	})
}

func run(t *testing.T, code string, opts Options) *Result {
	t.Helper()
	return Execute(context.Background(), code, opts)
}

func TestExecuteArithmetic(t *testing.T) {
	result := run(t, "x = 2\ny = 3\nx * y + 1", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(7), result.Value)
	assert.Empty(t, result.Output)
}

func TestExecuteStringsAndInterpolation(t *testing.T) {
	result := run(t, "name = \"world\"\n\"hello #{name.upcase}\"", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "hello WORLD", result.Value)
}

func TestExecuteCollections(t *testing.T) {
	result := run(t, `[3, 1, 2].sort().join("-")`, Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "1-2-3", result.Value)

	result = run(t, "m = {count: 3, label: \"x\"}\nm.keys()", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, []any{"count", "label"}, result.Value)

	result = run(t, "m = {}\nm[\"a\"] = 1\nm.fetch(\"a\")", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(1), result.Value)
}

func TestExecuteNegativeIndex(t *testing.T) {
	result := run(t, "[1, 2, 3][-1]", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(3), result.Value)

	result = run(t, "[1, 2, 3][9]", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Nil(t, result.Value)
}

func TestExecuteControlFlow(t *testing.T) {
	code := "total = 0\n" +
		"for n in range(1, 6)\n" +
		"  if n % 2 == 0\n" +
		"    total = total + n\n" +
		"  end\n" +
		"end\n" +
		"total"
	result := run(t, code, Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(6), result.Value)
}

func TestExecuteCapturesOutput(t *testing.T) {
	result := run(t, "puts(\"a\")\nputs(\"b\")", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "a\nb\n", result.Output)
	assert.False(t, result.Truncated)
}

func TestExecuteToolCallWithKeywordArgs(t *testing.T) {
	var got types.ToolArgs
	tool := types.NewToolFunc("search", "searches", func(_ context.Context, args types.ToolArgs) (any, error) {
		got = args
		return "three results", nil
	})
	result := run(t, `search("tides", limit: 3)`, Options{
		Tools: map[string]types.Tool{"search": tool},
	})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "three results", result.Value)
	assert.Equal(t, "tides", got.Arg(0))
	assert.Equal(t, int64(3), got.NamedArg("limit"))
}

func TestExecuteToolErrorBecomesClassifiedFailure(t *testing.T) {
	tool := types.NewToolFunc("flaky", "always fails", func(_ context.Context, _ types.ToolArgs) (any, error) {
		return nil, errors.New("upstream unavailable")
	})
	result := run(t, "flaky()", Options{Tools: map[string]types.Tool{"flaky": tool}})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrToolFailed, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "flaky")
	assert.Contains(t, result.ErrorMessage, "upstream unavailable")
}

func TestExecuteToolPanicIsContained(t *testing.T) {
	tool := types.NewToolFunc("bomb", "panics", func(_ context.Context, _ types.ToolArgs) (any, error) {
		panic("boom")
	})
	result := run(t, "bomb()", Options{Tools: map[string]types.Tool{"bomb": tool}})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrToolFailed, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "bomb")
	assert.Contains(t, result.ErrorMessage, "boom")
}

// Completing normally and signaling a final answer are distinct outcomes,
// even when they carry the same value.
func TestExecuteFinalAnswerIsDistinctFromSuccess(t *testing.T) {
	plain := run(t, "42", Options{})
	require.Equal(t, OutcomeSuccess, plain.Outcome)
	assert.Equal(t, int64(42), plain.Value)

	final := run(t, "final_answer(42)", Options{})
	require.Equal(t, OutcomeFinalAnswer, final.Outcome)
	assert.Equal(t, int64(42), final.Value)
	assert.Empty(t, final.ErrorMessage)
}

func TestExecuteFinalAnswerKeepsEarlierOutput(t *testing.T) {
	result := run(t, "puts(\"working\")\nfinal_answer(\"done\")\nputs(\"never\")", Options{})
	require.Equal(t, OutcomeFinalAnswer, result.Outcome)
	assert.Equal(t, "done", result.Value)
	assert.Equal(t, "working\n", result.Output)
}

// An injected final_answer tool runs first and its result becomes the
// answer, while the outcome classification is unchanged.
func TestExecuteFinalAnswerToolOverride(t *testing.T) {
	tool := types.NewToolFunc(FinalAnswerName, "formats the answer", func(_ context.Context, args types.ToolArgs) (any, error) {
		return "final: " + args.StringArg(0, "answer"), nil
	})
	result := run(t, `final_answer("42")`, Options{
		Tools: map[string]types.Tool{FinalAnswerName: tool},
	})
	require.Equal(t, OutcomeFinalAnswer, result.Outcome)
	assert.Equal(t, "final: 42", result.Value)
}

func TestExecuteOperationLimit(t *testing.T) {
	result := run(t, "while true\nx = 1\nend", Options{
		Limits: Limits{MaxOperations: 100},
	})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrOperationLimit, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "operation limit of 100 exceeded")
}

func TestExecuteWithinOperationLimitSucceeds(t *testing.T) {
	result := run(t, "1 + 1", Options{Limits: Limits{MaxOperations: 100}})
	assert.Equal(t, OutcomeSuccess, result.Outcome)
}

func TestExecuteOutputTruncation(t *testing.T) {
	result := run(t, `print("`+strings.Repeat("a", 50)+`")`, Options{
		Limits: Limits{MaxOutputBytes: 10},
	})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.True(t, result.Truncated)
	assert.Equal(t, strings.Repeat("a", 10), result.Output)
	assert.Len(t, result.Output, 10)
}

func TestExecuteUnknownSymbolNamesDiscoveryHelpers(t *testing.T) {
	result := run(t, "frobnicate()", Options{})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrUnknownSymbol, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, `"frobnicate" is unknown in the sandbox`)
	assert.Contains(t, result.ErrorMessage, "list_tools()")
	assert.Contains(t, result.ErrorMessage, "list_vars()")
}

// Identity queries get the fixed blinded reply so executed code cannot
// fingerprint the host implementation.
func TestExecuteIntrospectionIsBlinded(t *testing.T) {
	result := run(t, "5.class()", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "Object", result.Value)

	result = run(t, `"x".is_a?("String")`, Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, false, result.Value)

	result = run(t, "[1].respond_to?(\"push\")", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, false, result.Value)
}

func TestExecuteInjectedVariables(t *testing.T) {
	opts := Options{Variables: map[string]any{
		"user":  "ada",
		"limit": 3,
	}}

	result := run(t, `vars["user"]`, opts)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "ada", result.Value)

	result = run(t, "vars = 1", opts)
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Contains(t, result.ErrorMessage, "vars is read-only")

	result = run(t, "for vars in [1, 2]\nend", opts)
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Contains(t, result.ErrorMessage, "vars is read-only")
}

func TestExecuteListToolsAndVars(t *testing.T) {
	opts := Options{
		Tools:     map[string]types.Tool{"echo": echoTool(t)},
		Variables: map[string]any{"city": "oslo"},
	}

	result := run(t, "list_tools()", opts)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Contains(t, result.Value, "echo: returns its first argument")

	result = run(t, "list_vars()", opts)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Contains(t, result.Value, `city = "oslo"`)

	empty := run(t, "list_tools()", Options{})
	assert.Equal(t, "no tools available", empty.Value)
}

// Locals do not survive across attempts: every Execute starts from a fresh
// execution context.
func TestExecuteStateIsolationBetweenAttempts(t *testing.T) {
	first := run(t, "counter = 41\ncounter + 1", Options{})
	require.Equal(t, OutcomeSuccess, first.Outcome)
	assert.Equal(t, int64(42), first.Value)

	second := run(t, "counter", Options{})
	require.Equal(t, OutcomeFailure, second.Outcome)
	assert.Equal(t, types.ErrUnknownSymbol, second.ErrorCode)
}

func TestExecuteSyntaxErrorIsClassified(t *testing.T) {
	result := run(t, "if x\n", Options{})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrSyntax, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "syntax error")
}

func TestExecuteShellLiteralRejectedAtRuntime(t *testing.T) {
	result := run(t, "`ls`", Options{})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrCodeRejected, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "shell execution is not available")
}

func TestExecuteDivisionByZero(t *testing.T) {
	result := run(t, "1 / 0", Options{})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Contains(t, result.ErrorMessage, "division by zero")
}

func TestExecuteRangeBuiltin(t *testing.T) {
	result := run(t, "range(3)", Options{})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, result.Value)

	// A huge range burns through the operation ceiling instead of
	// allocating without bound.
	result = run(t, "range(100000000)", Options{Limits: Limits{MaxOperations: 500}})
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrOperationLimit, result.ErrorCode)
}

func TestExecuteBudgetBuiltin(t *testing.T) {
	result := run(t, "budget()", Options{Limits: Limits{MaxOperations: 50}})
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Contains(t, result.Value, "of 50")
}
