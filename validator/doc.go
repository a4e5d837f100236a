// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package validator statically analyzes agent-generated code before anything
executes.

Validation is deliberately conservative: it rejects on sight of a
known-dangerous name or pattern rather than trying to prove code safe, so
it may over-reject unusual-but-safe code and never under-rejects a
known-dangerous primitive. Four passes run on
every input and their findings are unioned, so a caller sees every problem
at once:

 1. a raw-text pattern pre-pass (backtick and %x shell-escape syntax)
 2. a raw-text import pre-pass (forbidden require targets)
 3. a parse attempt (failure becomes a syntax-error violation, not a panic)
 4. a bounded tree walk flagging forbidden calls, forbidden named-entity
    references, and shell-execution nodes, with string-interpolation
    context tracked so an attack hidden inside #{...} is still reported

Violations are pure data ([Violation], [Result]); the validator holds no
mutable state and is safe for concurrent use from many goroutines.

Rule tables ship as a [Ruleset] value and are fully overridable by the
embedding application.
*/
package validator
