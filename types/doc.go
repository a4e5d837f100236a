// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the CodeCage security
core.

types is the lowest-level package of the module and depends on nothing
internal. It defines:

  - Tool       — the capability interface injected tools must implement
  - ToolArgs   — positional plus named arguments passed to a tool call
  - ToolFunc   — a function-backed Tool for lightweight tool definitions
  - Error      — structured error with code, message, and wrapped cause
  - ErrorCode  — the unified error-code vocabulary of the core

Every other package (validator, sandbox, spawn) builds on these contracts to
avoid circular dependencies.
*/
package types
