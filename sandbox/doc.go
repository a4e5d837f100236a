// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package sandbox executes validated agent code inside a restricted runtime.

Each execution attempt gets a freshly constructed, exclusively owned
execution context: an output buffer with a byte ceiling, a copy of the
injected variables, references to the caller's tools, and an operation
counter with a hard ceiling. Nothing survives an attempt, so no state can
leak between turns.

Executed code sees a closed, enumerated surface and nothing else:

  - puts / print write to the captured output (never readable back)
  - vars is the single read-only aggregate of injected variables
  - any injected tool is callable by name with positional and keyword args
  - list_tools(), list_vars(), and budget() orient the agent
  - final_answer(value) unwinds the whole execution as a completion signal
  - a small closed method set on values; class and identity queries always
    answer a fixed, non-revealing string

Execution is synchronous and single-threaded; the operation counter is the
only defense against unbounded work, checked on every evaluation step and
every loop iteration. [Execute] classifies every attempt into exactly one
of success, final-answer, or failure — tool errors, limit violations, and
runtime faults all surface as structured failure outcomes and never unwind
past the sandbox boundary.

[Runner] is the validate-then-execute front door with structured logging
and per-runner statistics.
*/
package sandbox
