package spawn

import (
	"fmt"

	"github.com/BaSui01/codecage/types"
)

// Policy is the immutable configuration governing sub-agent delegation. A
// nil allowed-tool set is the "any tool" sentinel; an empty set allows no
// tools at all.
type Policy struct {
	maxDepth            int
	allowedTools        ToolSet // nil means any tool
	maxStepsPerAgent    int
	inheritRestrictions bool
}

// PolicyConfig is the plain value configuration a Policy is built from.
type PolicyConfig struct {
	// MaxDepth is the delegation depth ceiling; 0 refuses all spawning.
	MaxDepth int `json:"max_depth"`
	// AllowedTools is the tool allowlist. Ignored when AllowAnyTool is set.
	AllowedTools []string `json:"allowed_tools,omitempty"`
	// AllowAnyTool disables the allowlist entirely.
	AllowAnyTool bool `json:"allow_any_tool,omitempty"`
	// MaxStepsPerAgent is the per-child step budget ceiling.
	MaxStepsPerAgent int `json:"max_steps_per_agent"`
	// InheritRestrictions makes child policies the intersection of this
	// policy and the parent's actual capabilities. Disabling it is an
	// explicit, auditable opt-out, not a silent default.
	InheritRestrictions bool `json:"inherit_restrictions"`
	// KnownTools, when non-empty, is the universe of recognized tool
	// identifiers; allowlist members outside it fail construction.
	KnownTools []string `json:"-"`
}

// NewPolicy builds a Policy, rejecting configurations that indicate a bug
// in the embedding application: negative ceilings, or allowlist members
// that are not recognized tools.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	if cfg.MaxDepth < 0 {
		return nil, types.NewError(types.ErrInvalidPolicy,
			fmt.Sprintf("max depth must be >= 0, got %d", cfg.MaxDepth))
	}
	if cfg.MaxStepsPerAgent < 0 {
		return nil, types.NewError(types.ErrInvalidPolicy,
			fmt.Sprintf("max steps per agent must be >= 0, got %d", cfg.MaxStepsPerAgent))
	}
	var allowed ToolSet
	if !cfg.AllowAnyTool {
		allowed = NewToolSet(cfg.AllowedTools...)
		if len(cfg.KnownTools) > 0 {
			known := NewToolSet(cfg.KnownTools...)
			for _, tool := range allowed.Names() {
				if !known.Contains(tool) {
					return nil, types.NewError(types.ErrInvalidPolicy,
						fmt.Sprintf("allowed tool %q is not a recognized tool", tool))
				}
			}
		}
	}
	return &Policy{
		maxDepth:            cfg.MaxDepth,
		allowedTools:        allowed,
		maxStepsPerAgent:    cfg.MaxStepsPerAgent,
		inheritRestrictions: cfg.InheritRestrictions,
	}, nil
}

// Canonical presets. They are pure data; none carries special code paths.

// DisabledPolicy categorically refuses spawning.
func DisabledPolicy() *Policy {
	return &Policy{maxDepth: 0, allowedTools: NewToolSet(), inheritRestrictions: true}
}

// DefaultPolicy allows shallow delegation with a minimal tool allowlist and
// a modest step budget, inheritance on.
func DefaultPolicy() *Policy {
	return &Policy{
		maxDepth:            2,
		allowedTools:        NewToolSet("search", "final_answer"),
		maxStepsPerAgent:    5,
		inheritRestrictions: true,
	}
}

// PermissivePolicy allows deep delegation with any tool and a large budget,
// inheritance off.
func PermissivePolicy() *Policy {
	return &Policy{
		maxDepth:            5,
		allowedTools:        nil, // any
		maxStepsPerAgent:    25,
		inheritRestrictions: false,
	}
}

// MaxDepth returns the delegation depth ceiling.
func (p *Policy) MaxDepth() int { return p.maxDepth }

// AllowsAnyTool reports whether the allowlist is the "any" sentinel.
func (p *Policy) AllowsAnyTool() bool { return p.allowedTools == nil }

// AllowedTools returns a copy of the allowlist, nil for "any".
func (p *Policy) AllowedTools() ToolSet { return p.allowedTools.Clone() }

// MaxStepsPerAgent returns the per-child step ceiling.
func (p *Policy) MaxStepsPerAgent() int { return p.maxStepsPerAgent }

// InheritsRestrictions reports whether child policies are derived by
// intersection.
func (p *Policy) InheritsRestrictions() bool { return p.inheritRestrictions }

// Validate checks a requested child configuration against the caller's
// context. It is a pure function: every check runs, findings accumulate,
// and nothing is mutated.
func (p *Policy) Validate(ctx Context, requestedTools []string, requestedSteps int) *Validation {
	var violations []Violation

	if ctx.Depth() >= p.maxDepth {
		violations = append(violations, Violation{
			Kind:         KindDepthExceeded,
			CurrentDepth: ctx.Depth(),
			MaxDepth:     p.maxDepth,
		})
	}

	// One violation per offending tool: the caller needs to know exactly
	// which tools to drop.
	grantable := p.grantable(ctx.parentTools)
	for _, tool := range requestedTools {
		if !grantable.Contains(tool) {
			violations = append(violations, Violation{
				Kind: KindUnauthorizedTool,
				Tool: tool,
			})
		}
	}

	if requestedSteps > ctx.RemainingSteps() || requestedSteps > p.maxStepsPerAgent {
		violations = append(violations, Violation{
			Kind:             KindStepsExceeded,
			RequestedSteps:   requestedSteps,
			MaxStepsPerAgent: p.maxStepsPerAgent,
			RemainingSteps:   ctx.RemainingSteps(),
		})
	}

	return &Validation{Allowed: len(violations) == 0, Violations: violations}
}

// grantable computes the tools a child may actually receive: the allowlist
// intersected with what the parent really holds, or the parent's tools
// unchanged under the "any" sentinel. A tool the parent lacks is never
// grantable — that is the non-escalation invariant.
func (p *Policy) grantable(parentTools ToolSet) ToolSet {
	if p.allowedTools == nil {
		return parentTools
	}
	return p.allowedTools.Intersect(parentTools)
}

// ChildPolicy computes the policy a spawned child operates under. With
// inheritance on, the child's allowlist is the intersection of this
// policy's allowlist and the parent's actual tools, and its step ceiling is
// the minimum of this policy's ceiling and the parent's remaining budget.
// With inheritance off, the policy is returned unchanged.
func (p *Policy) ChildPolicy(parentTools ToolSet, remainingSteps int) *Policy {
	if !p.inheritRestrictions {
		return p
	}
	steps := p.maxStepsPerAgent
	if remainingSteps < steps {
		steps = remainingSteps
	}
	var allowed ToolSet
	if p.allowedTools == nil {
		allowed = parentTools.Clone()
	} else {
		allowed = p.allowedTools.Intersect(parentTools)
	}
	return &Policy{
		maxDepth:            p.maxDepth,
		allowedTools:        allowed,
		maxStepsPerAgent:    steps,
		inheritRestrictions: true,
	}
}
