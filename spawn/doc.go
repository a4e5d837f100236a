// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package spawn governs sub-agent delegation: whether an agent may create a
child agent, and exactly what capabilities that child inherits.

A [Policy] is immutable configuration (depth ceiling, tool allowlist, step
budget, inheritance flag); a [Context] is the immutable position of one
agent in the delegation tree (depth, remaining steps, parent tools,
provenance path). Policy.Validate checks a requested child configuration
against a context and returns structured [Violation] data — never an error,
never a panic. Every check runs, so the caller learns all problems at once.

The core guarantee is the non-escalation invariant: a child's effective
tool set is always a subset of its parent's, and a child's step budget
never exceeds what the parent has left. Policy.ChildPolicy computes the
inherited policy by intersection and min, or returns the policy unchanged
when inheritance is explicitly disabled.

Both types are pure values: safe to share across goroutines, safe to call
concurrently.
*/
package spawn
