package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/codecage/types"
	"github.com/BaSui01/codecage/validator"
)

func TestRunnerRejectsBeforeExecuting(t *testing.T) {
	called := false
	tool := types.NewToolFunc("probe", "records invocation", func(_ context.Context, _ types.ToolArgs) (any, error) {
		called = true
		return nil, nil
	})
	r := NewRunner(nil, Limits{}, zap.NewNop())

	result := r.Run(context.Background(), "probe()\neval(\"1\")", map[string]types.Tool{"probe": tool}, nil)
	require.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ErrCodeRejected, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "code rejected by validator")
	assert.Contains(t, result.ErrorMessage, "forbidden_call: eval")
	assert.False(t, called, "rejected code must never reach execution")
}

func TestRunnerExecutesCleanCode(t *testing.T) {
	r := NewRunner(validator.Default(), DefaultLimits(), zap.NewNop())
	result := r.Run(context.Background(), "1 + 2", nil, nil)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(3), result.Value)
}

func TestRunnerStats(t *testing.T) {
	r := NewRunner(nil, Limits{MaxOperations: 50}, nil)
	ctx := context.Background()

	r.Run(ctx, "1 + 1", nil, nil)                  // success
	r.Run(ctx, "final_answer(1)", nil, nil)        // final answer
	r.Run(ctx, "eval(\"1\")", nil, nil)            // rejected
	r.Run(ctx, "missing()", nil, nil)              // runtime failure
	r.Run(ctx, "while true\nx = 1\nend", nil, nil) // limit hit

	stats := r.Stats()
	assert.Equal(t, int64(5), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.FinalAnswers)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(1), stats.LimitHits)
}

func TestRunnerAppliesConfiguredLimits(t *testing.T) {
	r := NewRunner(nil, Limits{MaxOutputBytes: 5}, nil)
	result := r.Run(context.Background(), `print("0123456789")`, nil, nil)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.True(t, result.Truncated)
	assert.Equal(t, "01234", result.Output)
}
