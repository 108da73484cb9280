package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/verdantlabs/gardener/core"
)

// allowedCalcChars is the sole safety gate before evaluation: a narrow
// character allow-list, not an expression-grammar validator. Expressions
// that pass but are malformed (unbalanced parentheses, operator runs)
// are caught by the evaluator and reported as calculation errors.
const allowedCalcChars = "0123456789+-*/(). "

// calculate validates and evaluates an arithmetic expression.
func calculate(expression string) core.Result {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return core.SoftFailure("Invalid calculation expression. Use only numbers and +, -, *, /, (, )")
	}

	for _, c := range expression {
		if !strings.ContainsRune(allowedCalcChars, c) {
			return core.SoftFailure("Invalid calculation expression. Use only numbers and +, -, *, /, (, )")
		}
	}

	value, err := evalArithmetic(expression)
	if err != nil {
		return core.SoftFailure(fmt.Sprintf("Calculation error: %v", err))
	}

	return core.Success("Result: " + strconv.FormatFloat(value, 'g', -1, 64))
}

// evalArithmetic compiles the expression with CEL and evaluates it.
// Integer literals are rewritten as doubles first: CEL has no implicit
// numeric coercion, so "5 * 2.5" would otherwise fail to type-check.
func evalArithmetic(expression string) (float64, error) {
	env, err := cel.NewEnv()
	if err != nil {
		return 0, err
	}

	ast, issues := env.Compile(floatLiterals(expression))
	if issues != nil && issues.Err() != nil {
		return 0, issues.Err()
	}

	prg, err := env.Program(ast)
	if err != nil {
		return 0, err
	}

	out, _, err := prg.Eval(map[string]any{})
	if err != nil {
		return 0, err
	}

	value, ok := out.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("expression did not evaluate to a number")
	}
	return value, nil
}

// floatLiterals appends ".0" to every bare integer literal in the
// expression.
func floatLiterals(expression string) string {
	var b strings.Builder
	b.Grow(len(expression) + 8)

	i := 0
	for i < len(expression) {
		c := expression[i]
		startsNumber := (c >= '0' && c <= '9') ||
			(c == '.' && i+1 < len(expression) && expression[i+1] >= '0' && expression[i+1] <= '9')
		if !startsNumber {
			b.WriteByte(c)
			i++
			continue
		}

		// Consume a number run of digits and dots.
		start := i
		hasDot := false
		for i < len(expression) && (expression[i] == '.' || (expression[i] >= '0' && expression[i] <= '9')) {
			if expression[i] == '.' {
				hasDot = true
			}
			i++
		}
		b.WriteString(expression[start:i])
		if !hasDot {
			b.WriteString(".0")
		}
	}
	return b.String()
}
