package validator

import "fmt"

// ViolationKind classifies one reason code failed validation.
type ViolationKind string

const (
	KindForbiddenCall      ViolationKind = "forbidden_call"
	KindForbiddenReference ViolationKind = "forbidden_reference"
	KindShellEscape        ViolationKind = "shell_escape"
	KindForbiddenPattern   ViolationKind = "forbidden_pattern"
	KindForbiddenImport    ViolationKind = "forbidden_import"
	KindSyntaxError        ViolationKind = "syntax_error"
	KindDepthExceeded      ViolationKind = "depth_exceeded"
)

// ViolationContext tags where a violation was found.
type ViolationContext string

const (
	// ContextNone means the violation was found in ordinary code.
	ContextNone ViolationContext = ""
	// ContextStringInterpolation means the violation was found inside a
	// #{...} interpolation segment, a known obfuscation channel.
	ContextStringInterpolation ViolationContext = "string_interpolation"
)

// Violation is one immutable fact about why code was rejected. It carries no
// behavior and no source position: the validator reports that a violation
// exists and what it is.
type Violation struct {
	Kind    ViolationKind    `json:"kind"`
	Detail  string           `json:"detail"`
	Context ViolationContext `json:"context,omitempty"`
}

func (v Violation) String() string {
	if v.Context != ContextNone {
		return fmt.Sprintf("%s: %s (in %s)", v.Kind, v.Detail, v.Context)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// Result is the verdict of one validation call. OK is true exactly when
// Violations is empty.
type Result struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// Summary renders all violations on one line for logs and failure outcomes.
func (r *Result) Summary() string {
	if r.OK {
		return "ok"
	}
	s := ""
	for i, v := range r.Violations {
		if i > 0 {
			s += "; "
		}
		s += v.String()
	}
	return s
}

// walkContext is threaded through the tree walk. It is passed by value:
// descend and enterInterpolation return copies, never mutate the caller's.
type walkContext struct {
	insideInterpolation bool
	depth               int
}

func (c walkContext) descend() walkContext {
	c.depth++
	return c
}

func (c walkContext) enterInterpolation() walkContext {
	c.insideInterpolation = true
	return c
}

func (c walkContext) violationContext() ViolationContext {
	if c.insideInterpolation {
		return ContextStringInterpolation
	}
	return ContextNone
}
