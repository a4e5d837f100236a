package sandbox

import (
	"context"
	"errors"

	"github.com/BaSui01/codecage/lang"
	"github.com/BaSui01/codecage/types"
)

// Outcome classifies how an execution attempt ended. Exactly one applies.
type Outcome string

const (
	// OutcomeSuccess means the code ran to completion; Value carries the
	// last expression's value.
	OutcomeSuccess Outcome = "success"
	// OutcomeFinalAnswer means the code invoked the final-answer signal;
	// Value carries the supplied answer.
	OutcomeFinalAnswer Outcome = "final_answer"
	// OutcomeFailure means the code was rejected, errored, or hit a limit;
	// ErrorMessage describes what went wrong.
	OutcomeFailure Outcome = "failure"
)

// Limits bounds a single execution attempt.
type Limits struct {
	// MaxOperations is the operation ceiling: the maximum number of
	// primitive evaluation steps before forced abort.
	MaxOperations int `json:"max_operations"`
	// MaxOutputBytes caps captured output. Exceeding it truncates the
	// output to exactly this many bytes and flags the result.
	MaxOutputBytes int `json:"max_output_bytes"`
}

// DefaultLimits returns conservative defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxOperations:  10_000,
		MaxOutputBytes: 64 * 1024,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxOperations <= 0 {
		l.MaxOperations = d.MaxOperations
	}
	if l.MaxOutputBytes <= 0 {
		l.MaxOutputBytes = d.MaxOutputBytes
	}
	return l
}

// Options configures one execution attempt. Tools are borrowed from the
// caller for the duration of the attempt; variables are copied in at
// construction and discarded afterwards.
type Options struct {
	Tools     map[string]types.Tool
	Variables map[string]any
	Limits    Limits
}

// Result reports one execution attempt. Output captured before the
// terminating event is always present, truncated at the byte ceiling.
type Result struct {
	Outcome      Outcome         `json:"outcome"`
	Value        any             `json:"value,omitempty"`
	Output       string          `json:"output"`
	Truncated    bool            `json:"truncated,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	ErrorCode    types.ErrorCode `json:"error_code,omitempty"`
}

// Execute runs code inside a freshly constructed execution context. The
// call is synchronous: it returns when the code completes, signals a final
// answer, errors, or exceeds a limit. Nothing escapes as a panic; every
// outcome is classified data.
//
// Execute does not validate the code first — that is the validator's job,
// wired together by [Runner]. A parse failure here still comes back as a
// classified failure, never a crash.
func Execute(ctx context.Context, code string, opts Options) *Result {
	limits := opts.Limits.withDefaults()

	program, err := lang.Parse(code)
	if err != nil {
		return &Result{
			Outcome:      OutcomeFailure,
			ErrorMessage: err.Error(),
			ErrorCode:    types.ErrSyntax,
		}
	}

	s := newSession(ctx, opts, limits)
	value, err := s.run(program)

	result := &Result{
		Output:    s.out.String(),
		Truncated: s.out.Truncated(),
	}
	switch {
	case err == nil:
		result.Outcome = OutcomeSuccess
		result.Value = value.ToGo()
	case isFinalAnswer(err):
		sig := err.(finalAnswerSignal)
		result.Outcome = OutcomeFinalAnswer
		result.Value = sig.value.ToGo()
	default:
		result.Outcome = OutcomeFailure
		result.ErrorMessage = failureMessage(err)
		result.ErrorCode = types.GetErrorCode(err)
	}
	return result
}

func isFinalAnswer(err error) bool {
	_, ok := err.(finalAnswerSignal)
	return ok
}

// failureMessage renders a human-readable error for the reasoning loop to
// feed back to the model, without the internal code prefix.
func failureMessage(err error) string {
	var typed *types.Error
	if errors.As(err, &typed) {
		if typed.Cause != nil {
			return typed.Message + ": " + typed.Cause.Error()
		}
		return typed.Message
	}
	return err.Error()
}

// limitedBuffer captures output up to a byte ceiling. Overflow truncates to
// exactly the ceiling and records that truncation happened, so the caller
// observes the loss instead of silently missing bytes.
type limitedBuffer struct {
	buf       []byte
	max       int
	truncated bool
}

func newLimitedBuffer(max int) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) WriteString(s string) {
	remaining := b.max - len(b.buf)
	if remaining <= 0 {
		if len(s) > 0 {
			b.truncated = true
		}
		return
	}
	if len(s) > remaining {
		s = s[:remaining]
		b.truncated = true
	}
	b.buf = append(b.buf, s...)
}

func (b *limitedBuffer) Len() int        { return len(b.buf) }
func (b *limitedBuffer) String() string  { return string(b.buf) }
func (b *limitedBuffer) Truncated() bool { return b.truncated }
