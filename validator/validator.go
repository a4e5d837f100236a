package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BaSui01/codecage/lang"
	"github.com/BaSui01/codecage/types"
)

// requireRe matches require statements on raw text, so a forbidden import
// is caught even when the surrounding code does not parse.
var requireRe = regexp.MustCompile(`(?m)\brequire\s*\(?\s*["']([A-Za-z0-9_\-./]+)["']`)

// Validator inspects source text and its syntax tree for disallowed
// operations. It holds no mutable state after construction and is safe for
// concurrent use.
type Validator struct {
	rules         Ruleset
	forbiddenCall map[string]bool
	forbiddenRef  map[string]bool
	forbiddenPath []string // dotted forbidden-reference entries
	forbiddenImp  map[string]bool
	maxWalkDepth  int
}

// New creates a Validator from the given ruleset. Zero-valued ruleset
// fields fall back to the shipped defaults.
func New(rules Ruleset) *Validator {
	defaults := DefaultRuleset()
	if rules.ForbiddenCalls == nil {
		rules.ForbiddenCalls = defaults.ForbiddenCalls
	}
	if rules.ForbiddenReferences == nil {
		rules.ForbiddenReferences = defaults.ForbiddenReferences
	}
	if rules.ForbiddenPatterns == nil {
		rules.ForbiddenPatterns = defaults.ForbiddenPatterns
	}
	if rules.ForbiddenImports == nil {
		rules.ForbiddenImports = defaults.ForbiddenImports
	}
	if rules.MaxTraversalDepth <= 0 {
		rules.MaxTraversalDepth = defaults.MaxTraversalDepth
	}

	v := &Validator{
		rules:         rules,
		forbiddenCall: make(map[string]bool, len(rules.ForbiddenCalls)),
		forbiddenRef:  make(map[string]bool, len(rules.ForbiddenReferences)),
		forbiddenImp:  make(map[string]bool, len(rules.ForbiddenImports)),
		maxWalkDepth:  rules.MaxTraversalDepth,
	}
	for _, name := range rules.ForbiddenCalls {
		v.forbiddenCall[name] = true
	}
	for _, name := range rules.ForbiddenReferences {
		if strings.Contains(name, ".") {
			v.forbiddenPath = append(v.forbiddenPath, name)
		} else {
			v.forbiddenRef[name] = true
		}
	}
	for _, name := range rules.ForbiddenImports {
		v.forbiddenImp[name] = true
	}
	return v
}

// Default creates a Validator with the shipped rule tables.
func Default() *Validator {
	return New(DefaultRuleset())
}

// Rules returns the effective ruleset.
func (v *Validator) Rules() Ruleset {
	return v.rules
}

// Validate runs every pass over the source and returns the union of their
// findings. It never returns an error and never panics: a parse failure is
// itself a syntax-error violation inside a normal result.
func (v *Validator) Validate(source string) *Result {
	var violations []Violation

	violations = append(violations, v.scanPatterns(source)...)
	violations = append(violations, v.scanImports(source)...)

	program, err := lang.Parse(source)
	if err != nil {
		violations = append(violations, Violation{
			Kind:   KindSyntaxError,
			Detail: err.Error(),
		})
	} else {
		v.walk(program, walkContext{}, &violations)
	}

	return &Result{OK: len(violations) == 0, Violations: violations}
}

// ValidateStrict is the fail-fast variant: it returns the same result plus
// a typed error when the code is rejected.
func (v *Validator) ValidateStrict(source string) (*Result, error) {
	result := v.Validate(source)
	if result.OK {
		return result, nil
	}
	return result, types.NewError(types.ErrCodeRejected, result.Summary())
}

// scanPatterns is the raw-text pre-pass for shell-escape syntax. It catches
// constructs that may not even parse as valid expressions.
func (v *Validator) scanPatterns(source string) []Violation {
	var out []Violation
	for _, pattern := range v.rules.ForbiddenPatterns {
		if strings.Contains(source, pattern) {
			out = append(out, Violation{Kind: KindForbiddenPattern, Detail: pattern})
		}
	}
	return out
}

// scanImports is the raw-text pre-pass for forbidden require targets.
func (v *Validator) scanImports(source string) []Violation {
	var out []Violation
	for _, m := range requireRe.FindAllStringSubmatch(source, -1) {
		if v.forbiddenImp[m[1]] {
			out = append(out, Violation{Kind: KindForbiddenImport, Detail: m[1]})
		}
	}
	return out
}

// walk visits one node. Dangerous node kinds are checked explicitly; every
// other kind takes the generic descend path, so an unhandled construct can
// hide nothing below it.
func (v *Validator) walk(n lang.Node, wc walkContext, out *[]Violation) {
	switch node := n.(type) {
	case *lang.ShellLit:
		*out = append(*out, Violation{
			Kind:    KindShellEscape,
			Detail:  node.Command,
			Context: wc.violationContext(),
		})
	case *lang.StrInterp:
		v.descendChildren(node, wc.enterInterpolation(), out)
	case *lang.Call:
		if v.forbiddenCall[node.Name] {
			*out = append(*out, Violation{
				Kind:    KindForbiddenCall,
				Detail:  node.Name,
				Context: wc.violationContext(),
			})
		}
		if path, ok := constPath(node); ok {
			for _, entry := range v.forbiddenPath {
				if path == entry {
					*out = append(*out, Violation{
						Kind:    KindForbiddenReference,
						Detail:  path,
						Context: wc.violationContext(),
					})
				}
			}
		}
		// A forbidden call can sit inside the receiver or an argument of
		// another expression, so descent never stops here.
		v.descendChildren(node, wc, out)
	case *lang.ConstRef:
		if v.forbiddenRef[node.Name] {
			*out = append(*out, Violation{
				Kind:    KindForbiddenReference,
				Detail:  node.Name,
				Context: wc.violationContext(),
			})
		}
	case *lang.Require:
		// Imports are reported by the raw-text pre-pass; re-reporting here
		// would duplicate every finding.
	default:
		v.descendChildren(n, wc, out)
	}
}

// descendChildren visits every child one level deeper. When the child depth
// exceeds the bound it emits a single violation for the branch and stops
// descending, so adversarially nested input cannot exhaust the stack.
func (v *Validator) descendChildren(n lang.Node, wc walkContext, out *[]Violation) {
	child := wc.descend()
	if child.depth > v.maxWalkDepth {
		*out = append(*out, Violation{
			Kind:    KindDepthExceeded,
			Detail:  fmt.Sprintf("syntax tree deeper than %d levels", v.maxWalkDepth),
			Context: wc.violationContext(),
		})
		return
	}
	for _, c := range n.Children() {
		v.walk(c, child, out)
	}
}
