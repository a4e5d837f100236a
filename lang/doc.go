// Copyright (c) CodeCage Authors.
// Licensed under the MIT License.

/*
Package lang implements the small scripting language an agent writes its
code in: a lexer, a recursive-descent parser, and a tagged-variant syntax
tree.

The language is deliberately tiny. It has literals (numbers, strings with
#{...} interpolation, arrays, maps), variables, arithmetic and comparison
operators, if/elsif/else, while and for-in loops, calls with positional and
keyword arguments, and require statements. There are no user-defined
functions, no blocks, and no exceptions: loops plus tool calls are enough
for agent tasks while keeping the reachable surface enumerable.

Backtick strings lex into a dedicated ShellLit node. They are never
executable; the node exists so the static validator can reject them with a
precise verdict even when buried inside string interpolation.

Every node implements Children, so a walker can descend generically without
enumerating node kinds. The validator in package validator and the
interpreter in package sandbox are the two consumers of this tree.
*/
package lang
