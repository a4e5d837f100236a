package spawn

import "fmt"

// ViolationKind classifies one reason a spawn request was denied.
type ViolationKind string

const (
	KindDepthExceeded    ViolationKind = "depth_exceeded"
	KindUnauthorizedTool ViolationKind = "unauthorized_tool"
	KindStepsExceeded    ViolationKind = "steps_exceeded"
)

// Violation is one immutable fact about a denied spawn request. Only the
// fields of the given kind are meaningful.
type Violation struct {
	Kind ViolationKind `json:"kind"`

	// depth_exceeded
	CurrentDepth int `json:"current_depth,omitempty"`
	MaxDepth     int `json:"max_depth,omitempty"`

	// unauthorized_tool
	Tool string `json:"tool,omitempty"`

	// steps_exceeded
	RequestedSteps   int `json:"requested_steps,omitempty"`
	MaxStepsPerAgent int `json:"max_steps_per_agent,omitempty"`
	RemainingSteps   int `json:"remaining_steps,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case KindDepthExceeded:
		return fmt.Sprintf("depth_exceeded: at depth %d with max depth %d", v.CurrentDepth, v.MaxDepth)
	case KindUnauthorizedTool:
		return fmt.Sprintf("unauthorized_tool: %s", v.Tool)
	case KindStepsExceeded:
		return fmt.Sprintf("steps_exceeded: requested %d with per-agent max %d and %d remaining",
			v.RequestedSteps, v.MaxStepsPerAgent, v.RemainingSteps)
	default:
		return string(v.Kind)
	}
}

// Validation is the verdict on one spawn request. Allowed is true exactly
// when Violations is empty.
type Validation struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations,omitempty"`
}

// Summary renders all violations on one line.
func (v *Validation) Summary() string {
	if v.Allowed {
		return "allowed"
	}
	s := ""
	for i, violation := range v.Violations {
		if i > 0 {
			s += "; "
		}
		s += violation.String()
	}
	return s
}
