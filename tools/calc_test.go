package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_RejectsDisallowedCharacters(t *testing.T) {
	for _, expr := range []string{
		"import os",
		"__builtins__",
		"2 + x",
		"os.system('rm')",
		"",
	} {
		result := calculate(expr)
		assert.True(t, result.Failed(), "expr %q", expr)
		assert.Contains(t, result.Observation(), "Invalid calculation expression", "expr %q", expr)
	}
}

func TestCalculate_Arithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"5 * 2.5", "12.5"},
		{"(10 + 5) * 2 / 3", "10"},
		{"2 + 2", "4"},
		{"100 / 8", "12.5"},
	}

	for _, tc := range cases {
		result := calculate(tc.expr)
		assert.False(t, result.Failed(), "expr %q: %s", tc.expr, result.Reason())
		assert.Contains(t, result.Text(), tc.want, "expr %q", tc.expr)
	}
}

func TestCalculate_MalformedButAllowed(t *testing.T) {
	// Characters pass the allow-list; the evaluator's own failure is
	// reported as a calculation error.
	for _, expr := range []string{
		"(5 + 2",
		"3 ++* 4",
		"()",
	} {
		result := calculate(expr)
		assert.True(t, result.Failed(), "expr %q", expr)
		assert.Contains(t, result.Observation(), "Calculation error", "expr %q", expr)
	}
}

func TestFloatLiterals(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"5 * 2.5", "5.0 * 2.5"},
		{"(10 + 5) * 2 / 3", "(10.0 + 5.0) * 2.0 / 3.0"},
		{"2.5", "2.5"},
		{"10", "10.0"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, floatLiterals(tc.in), "in %q", tc.in)
	}
}
