package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/codecage/types"
)

func findViolations(v *Validation, kind ViolationKind) []Violation {
	var out []Violation
	for _, violation := range v.Violations {
		if violation.Kind == kind {
			out = append(out, violation)
		}
	}
	return out
}

// An intermediate agent holding three tools asks to delegate with one
// unauthorized tool in the request: exactly that tool is reported, once.
func TestValidateUnauthorizedToolReportedOnce(t *testing.T) {
	policy, err := NewPolicy(PolicyConfig{
		MaxDepth:            2,
		AllowedTools:        []string{"search", "final_answer"},
		MaxStepsPerAgent:    5,
		InheritRestrictions: true,
	})
	require.NoError(t, err)

	parent := NewRootContext(20, NewToolSet("search", "final_answer", "browse"), "root").
		Descend(10, NewToolSet("search", "final_answer", "browse"), "middle")
	require.Equal(t, 1, parent.Depth())

	verdict := policy.Validate(parent, []string{"search", "browse"}, 3)
	require.False(t, verdict.Allowed)
	unauthorized := findViolations(verdict, KindUnauthorizedTool)
	require.Len(t, unauthorized, 1)
	assert.Equal(t, "browse", unauthorized[0].Tool)
	assert.Empty(t, findViolations(verdict, KindDepthExceeded))
	assert.Empty(t, findViolations(verdict, KindStepsExceeded))

	// Dropping the offending tool makes the same request pass.
	verdict = policy.Validate(parent, []string{"search"}, 3)
	assert.True(t, verdict.Allowed)
	assert.Empty(t, verdict.Violations)
}

func TestValidateDepthCeiling(t *testing.T) {
	policy := DefaultPolicy()

	atLimit := NewRootContext(20, NewToolSet("search"), "root").
		Descend(10, NewToolSet("search"), "a").
		Descend(5, NewToolSet("search"), "b")
	require.Equal(t, 2, atLimit.Depth())

	verdict := policy.Validate(atLimit, []string{"search"}, 1)
	require.False(t, verdict.Allowed)
	depth := findViolations(verdict, KindDepthExceeded)
	require.Len(t, depth, 1)
	assert.Equal(t, 2, depth[0].CurrentDepth)
	assert.Equal(t, 2, depth[0].MaxDepth)
}

func TestValidateStepBudget(t *testing.T) {
	policy := DefaultPolicy()
	ctx := NewRootContext(4, NewToolSet("search"), "root")

	// More than the parent has left.
	verdict := policy.Validate(ctx, []string{"search"}, 5)
	require.False(t, verdict.Allowed)
	steps := findViolations(verdict, KindStepsExceeded)
	require.Len(t, steps, 1)
	assert.Equal(t, 5, steps[0].RequestedSteps)
	assert.Equal(t, 4, steps[0].RemainingSteps)

	// More than the per-agent ceiling, even with budget to spare.
	rich := NewRootContext(100, NewToolSet("search"), "root")
	verdict = policy.Validate(rich, []string{"search"}, 6)
	require.False(t, verdict.Allowed)
	require.Len(t, findViolations(verdict, KindStepsExceeded), 1)
}

// Every check runs; a hopeless request reports all of its problems at once.
func TestValidateAccumulatesViolations(t *testing.T) {
	policy := DefaultPolicy()
	deep := NewRootContext(2, NewToolSet("search"), "root").
		Descend(1, NewToolSet("search"), "a").
		Descend(1, NewToolSet("search"), "b")

	verdict := policy.Validate(deep, []string{"browse", "shell"}, 99)
	require.False(t, verdict.Allowed)
	assert.Len(t, findViolations(verdict, KindDepthExceeded), 1)
	assert.Len(t, findViolations(verdict, KindUnauthorizedTool), 2)
	assert.Len(t, findViolations(verdict, KindStepsExceeded), 1)
	assert.Contains(t, verdict.Summary(), "unauthorized_tool: browse")
}

// A tool on the allowlist that the parent does not actually hold is never
// grantable.
func TestValidateParentToolsBoundTheAllowlist(t *testing.T) {
	policy := DefaultPolicy() // allows search, final_answer
	ctx := NewRootContext(10, NewToolSet("final_answer"), "root")

	verdict := policy.Validate(ctx, []string{"search"}, 1)
	require.False(t, verdict.Allowed)
	unauthorized := findViolations(verdict, KindUnauthorizedTool)
	require.Len(t, unauthorized, 1)
	assert.Equal(t, "search", unauthorized[0].Tool)
}

func TestDisabledPolicyRefusesAllSpawning(t *testing.T) {
	policy := DisabledPolicy()
	root := NewRootContext(100, NewToolSet("search"), "root")

	verdict := policy.Validate(root, nil, 0)
	require.False(t, verdict.Allowed)
	require.Len(t, findViolations(verdict, KindDepthExceeded), 1)
}

func TestPermissivePolicyAllowsAnyParentTool(t *testing.T) {
	policy := PermissivePolicy()
	assert.True(t, policy.AllowsAnyTool())

	ctx := NewRootContext(50, NewToolSet("anything", "whatsoever"), "root")
	verdict := policy.Validate(ctx, []string{"anything", "whatsoever"}, 25)
	assert.True(t, verdict.Allowed, verdict.Summary())

	// "Any" still means any of the parent's tools, nothing more.
	verdict = policy.Validate(ctx, []string{"conjured"}, 1)
	require.False(t, verdict.Allowed)
	assert.Len(t, findViolations(verdict, KindUnauthorizedTool), 1)
}

func TestNewPolicyRejectsBadConfig(t *testing.T) {
	_, err := NewPolicy(PolicyConfig{MaxDepth: -1})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidPolicy))

	_, err = NewPolicy(PolicyConfig{MaxDepth: 1, MaxStepsPerAgent: -5})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidPolicy))

	_, err = NewPolicy(PolicyConfig{
		MaxDepth:     1,
		AllowedTools: []string{"search", "nonexistent"},
		KnownTools:   []string{"search", "browse"},
	})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidPolicy))
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestChildPolicyInheritance(t *testing.T) {
	policy, err := NewPolicy(PolicyConfig{
		MaxDepth:            3,
		AllowedTools:        []string{"search", "browse", "final_answer"},
		MaxStepsPerAgent:    10,
		InheritRestrictions: true,
	})
	require.NoError(t, err)

	child := policy.ChildPolicy(NewToolSet("search", "final_answer"), 4)
	assert.ElementsMatch(t, []string{"final_answer", "search"}, child.AllowedTools().Names())
	assert.Equal(t, 4, child.MaxStepsPerAgent())
	assert.True(t, child.InheritsRestrictions())

	// With more budget remaining than the ceiling, the ceiling wins.
	child = policy.ChildPolicy(NewToolSet("search"), 100)
	assert.Equal(t, 10, child.MaxStepsPerAgent())
}

func TestChildPolicyWithoutInheritance(t *testing.T) {
	policy := PermissivePolicy()
	child := policy.ChildPolicy(NewToolSet("search"), 3)
	assert.Same(t, policy, child)
}

func TestContextImmutability(t *testing.T) {
	tools := NewToolSet("search")
	root := NewRootContext(10, tools, "root")

	child := root.Descend(5, NewToolSet("search"), "child")
	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, 10, root.RemainingSteps())
	assert.Equal(t, []string{"root"}, root.Path())
	assert.Equal(t, 1, child.Depth())
	assert.Equal(t, []string{"root", "child"}, child.Path())

	// Mutating the source set after construction does not leak in.
	tools["injected"] = struct{}{}
	assert.False(t, root.ParentTools().Contains("injected"))

	// Mutating an accessor's return value does not leak back.
	got := child.Path()
	got[0] = "mangled"
	assert.Equal(t, []string{"root", "child"}, child.Path())
}

func TestToolSetOperations(t *testing.T) {
	a := NewToolSet("x", "y")
	b := NewToolSet("y", "z")

	assert.Equal(t, []string{"y"}, a.Intersect(b).Names())
	assert.True(t, NewToolSet("y").Subset(a))
	assert.False(t, a.Subset(b))
	assert.Nil(t, ToolSet(nil).Clone())
	assert.Equal(t, 2, a.Len())
}
