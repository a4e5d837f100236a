package sandbox

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/codecage/types"
	"github.com/BaSui01/codecage/validator"
)

// Runner is the validate-then-execute front door: every piece of code is
// statically checked before a fresh execution context is constructed for
// it. A Runner is safe for concurrent use; each Run gets its own context.
type Runner struct {
	validator *validator.Validator
	limits    Limits
	logger    *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// Stats tracks aggregate execution statistics of one Runner.
type Stats struct {
	TotalRuns    int64 `json:"total_runs"`
	Rejected     int64 `json:"rejected"`
	Succeeded    int64 `json:"succeeded"`
	FinalAnswers int64 `json:"final_answers"`
	Failed       int64 `json:"failed"`
	LimitHits    int64 `json:"limit_hits"`
}

// NewRunner creates a Runner. A nil validator gets the default ruleset,
// zero limits get the defaults, and a nil logger is replaced with a no-op.
func NewRunner(v *validator.Validator, limits Limits, logger *zap.Logger) *Runner {
	if v == nil {
		v = validator.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		validator: v,
		limits:    limits.withDefaults(),
		logger:    logger,
	}
}

// Run validates code and, when it passes, executes it in a fresh sandbox
// context seeded with the given tools and variables. A validation rejection
// comes back as a failure outcome carrying every violation, so the
// reasoning loop sees all problems at once.
func (r *Runner) Run(ctx context.Context, code string, tools map[string]types.Tool, variables map[string]any) *Result {
	id := uuid.NewString()
	r.logger.Debug("validating agent code",
		zap.String("execution_id", id),
		zap.Int("code_length", len(code)))

	verdict := r.validator.Validate(code)
	if !verdict.OK {
		r.logger.Warn("agent code rejected",
			zap.String("execution_id", id),
			zap.Int("violations", len(verdict.Violations)),
			zap.String("summary", verdict.Summary()))
		r.record(func(s *Stats) {
			s.TotalRuns++
			s.Rejected++
		})
		return &Result{
			Outcome:      OutcomeFailure,
			ErrorMessage: "code rejected by validator: " + verdict.Summary(),
			ErrorCode:    types.ErrCodeRejected,
		}
	}

	result := Execute(ctx, code, Options{
		Tools:     tools,
		Variables: variables,
		Limits:    r.limits,
	})

	r.logger.Debug("agent code executed",
		zap.String("execution_id", id),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("output_bytes", len(result.Output)),
		zap.Bool("truncated", result.Truncated))

	r.record(func(s *Stats) {
		s.TotalRuns++
		switch result.Outcome {
		case OutcomeSuccess:
			s.Succeeded++
		case OutcomeFinalAnswer:
			s.FinalAnswers++
		case OutcomeFailure:
			s.Failed++
			if result.ErrorCode == types.ErrOperationLimit {
				s.LimitHits++
			}
		}
	})
	return result
}

// Stats returns a snapshot of the runner's counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Runner) record(update func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.stats)
}
