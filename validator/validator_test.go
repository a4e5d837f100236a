package validator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/codecage/types"
)

func findKind(violations []Violation, kind ViolationKind) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// Every name in the forbidden-call table must reject a minimal program
// invoking it directly.
func TestForbiddenCallTableIsSound(t *testing.T) {
	v := Default()
	for _, name := range DefaultRuleset().ForbiddenCalls {
		t.Run(name, func(t *testing.T) {
			result := v.Validate(fmt.Sprintf("%s()", name))
			require.False(t, result.OK)
			found := findKind(result.Violations, KindForbiddenCall)
			require.NotEmpty(t, found)
			assert.Equal(t, name, found[0].Detail)
		})
	}
}

func TestForbiddenReferenceTableIsSound(t *testing.T) {
	v := Default()
	for _, name := range DefaultRuleset().ForbiddenReferences {
		t.Run(name, func(t *testing.T) {
			result := v.Validate(name)
			require.False(t, result.OK)
			found := findKind(result.Violations, KindForbiddenReference)
			require.NotEmpty(t, found)
			assert.Equal(t, name, found[0].Detail)
		})
	}
}

func TestForbiddenImportTableIsSound(t *testing.T) {
	v := Default()
	for _, name := range DefaultRuleset().ForbiddenImports {
		t.Run(name, func(t *testing.T) {
			result := v.Validate(fmt.Sprintf("require %q", name))
			require.False(t, result.OK)
			found := findKind(result.Violations, KindForbiddenImport)
			require.NotEmpty(t, found)
			assert.Equal(t, name, found[0].Detail)
		})
	}
}

func TestForbiddenCallWithReceiverAndAsArgument(t *testing.T) {
	v := Default()

	// A forbidden call with a receiver is still a forbidden call.
	result := v.Validate(`Kernel.exec("ls")`)
	require.False(t, result.OK)
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenCall))
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenReference))

	// A forbidden call buried in an argument list is found by descent.
	result = v.Validate(`puts(1 + eval("2"))`)
	require.False(t, result.OK)
	found := findKind(result.Violations, KindForbiddenCall)
	require.Len(t, found, 1)
	assert.Equal(t, "eval", found[0].Detail)
}

func TestShellEscapeDetection(t *testing.T) {
	v := Default()
	result := v.Validate("`rm -rf /`")
	require.False(t, result.OK)
	found := findKind(result.Violations, KindShellEscape)
	require.Len(t, found, 1)
	assert.Equal(t, "rm -rf /", found[0].Detail)
	assert.Equal(t, ContextNone, found[0].Context)
}

// A forbidden construct hidden inside #{...} must still be detected and
// carry the interpolation context tag.
func TestInterpolationBypassResistance(t *testing.T) {
	v := Default()

	result := v.Validate("\"#{`rm -rf /`}\"")
	require.False(t, result.OK)
	found := findKind(result.Violations, KindShellEscape)
	require.Len(t, found, 1)
	assert.Equal(t, "rm -rf /", found[0].Detail)
	assert.Equal(t, ContextStringInterpolation, found[0].Context)

	result = v.Validate(`"result: #{eval("1+1")}"`)
	require.False(t, result.OK)
	calls := findKind(result.Violations, KindForbiddenCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "eval", calls[0].Detail)
	assert.Equal(t, ContextStringInterpolation, calls[0].Context)
}

func TestShellEscapePatternPrePassCatchesUnparseableCode(t *testing.T) {
	v := Default()
	// Does not parse, but the %x escape is still caught by the pre-pass.
	result := v.Validate("if if %x(ls)")
	require.False(t, result.OK)
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenPattern))
	assert.NotEmpty(t, findKind(result.Violations, KindSyntaxError))
}

func TestSyntaxErrorIsAViolationNotAPanic(t *testing.T) {
	v := Default()
	result := v.Validate("while")
	require.False(t, result.OK)
	found := findKind(result.Violations, KindSyntaxError)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Detail, "syntax error")
}

func TestNoFalsePositivesOnSafeCode(t *testing.T) {
	v := Default()
	safe := []string{
		"x = 1 + 2 * 3",
		`name = "world"` + "\n" + `puts("hello #{name.upcase}")`,
		"total = 0\nfor n in [1, 2, 3]\n  total = total + n\nend",
		`search(query: "tides", limit: 3)`,
		`m = {count: 3}` + "\n" + `m["count"]`,
		"puts(list_tools())",
	}
	for _, src := range safe {
		result := v.Validate(src)
		assert.True(t, result.OK, "expected ok for %q, got %s", src, result.Summary())
		assert.Empty(t, result.Violations)
	}
}

func TestAllPassesAccumulate(t *testing.T) {
	v := Default()
	src := "require \"socket\"\nopen(\"/etc/passwd\")\nFile"
	result := v.Validate(src)
	require.False(t, result.OK)
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenImport))
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenCall))
	assert.NotEmpty(t, findKind(result.Violations, KindForbiddenReference))
}

func TestDepthBoundStopsDescent(t *testing.T) {
	v := New(Ruleset{MaxTraversalDepth: 10})
	deep := strings.Repeat("[", 30) + "1" + strings.Repeat("]", 30)
	result := v.Validate(deep)
	require.False(t, result.OK)
	found := findKind(result.Violations, KindDepthExceeded)
	require.Len(t, found, 1)
}

func TestCustomRulesetExtendsDefaults(t *testing.T) {
	rules := DefaultRuleset().Merge(Ruleset{ForbiddenCalls: []string{"launch_missiles"}})
	v := New(rules)

	result := v.Validate("launch_missiles()")
	require.False(t, result.OK)

	// Defaults still apply.
	result = v.Validate("eval(\"1\")")
	require.False(t, result.OK)
}

func TestDottedForbiddenReference(t *testing.T) {
	v := New(Ruleset{
		ForbiddenCalls:      []string{},
		ForbiddenReferences: []string{"Math.dangerous"},
		ForbiddenPatterns:   []string{},
		ForbiddenImports:    []string{},
	})
	result := v.Validate("Math.dangerous(1)")
	require.False(t, result.OK)
	found := findKind(result.Violations, KindForbiddenReference)
	require.Len(t, found, 1)
	assert.Equal(t, "Math.dangerous", found[0].Detail)

	// The bare root alone is fine when only the dotted path is forbidden.
	result = v.Validate("Math.sqrt(4)")
	assert.True(t, result.OK, result.Summary())
}

func TestValidateStrict(t *testing.T) {
	v := Default()

	result, err := v.ValidateStrict("x = 1")
	require.NoError(t, err)
	assert.True(t, result.OK)

	result, err = v.ValidateStrict("eval(\"1\")")
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.True(t, types.IsErrorCode(err, types.ErrCodeRejected))
}

// The scenario from the design discussion: a shell command hidden inside
// string interpolation is rejected with the interpolation context tag.
func TestScenarioShellInsideInterpolation(t *testing.T) {
	v := Default()
	result := v.Validate("\"#{`rm -rf /`}\"")
	require.False(t, result.OK)
	shell := findKind(result.Violations, KindShellEscape)
	require.Len(t, shell, 1)
	assert.Equal(t, ContextStringInterpolation, shell[0].Context)
}
