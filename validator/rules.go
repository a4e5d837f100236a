package validator

// Ruleset is the immutable rule configuration of a Validator. All tables are
// deny-lists: membership is a violation. The zero value of any field falls
// back to the shipped default, so embedders can override one table without
// restating the rest.
type Ruleset struct {
	// ForbiddenCalls are invocation names rejected wherever they appear,
	// with or without a receiver.
	ForbiddenCalls []string
	// ForbiddenReferences are capitalized entity names rejected on sight.
	// Matching is prefix-based: a dotted path is rejected when the table
	// contains the path itself or any leading prefix of it, so listing a
	// root such as "Net" also rejects "Net.HTTP.get".
	ForbiddenReferences []string
	// ForbiddenPatterns are raw-text fragments scanned before parsing, so
	// shell-escape syntax is caught even in code that does not parse.
	ForbiddenPatterns []string
	// ForbiddenImports are module names rejected in require statements.
	ForbiddenImports []string
	// MaxTraversalDepth bounds the tree walk against adversarially nested
	// input. Exceeding it reports one violation per branch and stops
	// descending.
	MaxTraversalDepth int
}

// DefaultMaxTraversalDepth is the shipped tree-walk bound.
const DefaultMaxTraversalDepth = 100

// DefaultRuleset returns the shipped rule tables.
func DefaultRuleset() Ruleset {
	return Ruleset{
		ForbiddenCalls:      defaultForbiddenCalls(),
		ForbiddenReferences: defaultForbiddenReferences(),
		ForbiddenPatterns:   defaultForbiddenPatterns(),
		ForbiddenImports:    defaultForbiddenImports(),
		MaxTraversalDepth:   DefaultMaxTraversalDepth,
	}
}

// Merge returns a copy of r with the other ruleset's entries appended and
// its depth bound applied when set. Used by the config layer to extend the
// defaults without replacing them.
func (r Ruleset) Merge(other Ruleset) Ruleset {
	out := r
	out.ForbiddenCalls = appendCopy(r.ForbiddenCalls, other.ForbiddenCalls)
	out.ForbiddenReferences = appendCopy(r.ForbiddenReferences, other.ForbiddenReferences)
	out.ForbiddenPatterns = appendCopy(r.ForbiddenPatterns, other.ForbiddenPatterns)
	out.ForbiddenImports = appendCopy(r.ForbiddenImports, other.ForbiddenImports)
	if other.MaxTraversalDepth > 0 {
		out.MaxTraversalDepth = other.MaxTraversalDepth
	}
	return out
}

func appendCopy(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Escape hatches into the host runtime: evaluation, process control,
// reflection, and unbounded blocking.
func defaultForbiddenCalls() []string {
	return []string{
		"eval",
		"exec",
		"system",
		"spawn",
		"fork",
		"syscall",
		"open",
		"load",
		"require_relative",
		"send",
		"public_send",
		"instance_eval",
		"instance_exec",
		"class_eval",
		"module_eval",
		"define_method",
		"method",
		"binding",
		"exit",
		"exit!",
		"abort",
		"at_exit",
		"trap",
		"gets",
		"readline",
		"sleep",
	}
}

// Named entities that reach the filesystem, network, processes, or the
// runtime itself.
func defaultForbiddenReferences() []string {
	return []string{
		"File",
		"IO",
		"Dir",
		"Kernel",
		"Process",
		"ObjectSpace",
		"GC",
		"Marshal",
		"Net",
		"Socket",
		"TCPSocket",
		"UDPSocket",
		"Thread",
		"Fiber",
		"Mutex",
		"Signal",
		"FileUtils",
		"Open3",
		"Pathname",
		"ENV",
		"ARGV",
	}
}

// Shell-escape syntax caught on raw text, before parsing. The backtick
// entry overlaps the tree walk's ShellLit check on purpose: the pre-pass
// still fires when the surrounding code does not parse.
func defaultForbiddenPatterns() []string {
	return []string{
		"`",
		"%x{",
		"%x(",
		"%x[",
		"%x<",
	}
}

// Modules whose import grants filesystem, network, or process access.
func defaultForbiddenImports() []string {
	return []string{
		"socket",
		"net/http",
		"net/ftp",
		"open-uri",
		"open3",
		"fileutils",
		"pathname",
		"io/console",
		"fiddle",
		"ffi",
		"etc",
		"pty",
	}
}
