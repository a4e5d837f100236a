package spawn

// Context is the immutable position of one agent in the delegation tree.
// A root context has depth 0; Descend produces the child's context one
// level deeper and never mutates its receiver.
type Context struct {
	depth          int
	remainingSteps int
	parentTools    ToolSet
	path           []string
}

// NewRootContext creates the context of a top-level agent.
func NewRootContext(totalSteps int, tools ToolSet, agentName string) Context {
	return Context{
		depth:          0,
		remainingSteps: totalSteps,
		parentTools:    tools.Clone(),
		path:           []string{agentName},
	}
}

// Depth returns the nesting depth, 0 for a root agent.
func (c Context) Depth() int { return c.depth }

// RemainingSteps returns the step budget left at this position.
func (c Context) RemainingSteps() int { return c.remainingSteps }

// ParentTools returns a copy of the tools the agent at this position holds.
func (c Context) ParentTools() ToolSet { return c.parentTools.Clone() }

// Path returns the provenance chain from the root agent to this one.
func (c Context) Path() []string {
	out := make([]string, len(c.path))
	copy(out, c.path)
	return out
}

// Descend produces the context of a child agent: one level deeper, holding
// the allocated steps and the granted tools, with the child's name appended
// to the provenance path. The receiver is unchanged.
func (c Context) Descend(stepsAllocated int, childTools ToolSet, agentName string) Context {
	path := make([]string, 0, len(c.path)+1)
	path = append(path, c.path...)
	path = append(path, agentName)
	return Context{
		depth:          c.depth + 1,
		remainingSteps: stepsAllocated,
		parentTools:    childTools.Clone(),
		path:           path,
	}
}
