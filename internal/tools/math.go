package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

// MathTool evaluates arithmetic expressions.
type MathTool struct{}

func (MathTool) Name() string { return "math_eval" }

// Invoke evaluates the "expr" field of the arguments object.
func (MathTool) Invoke(ctx context.Context, argsJSON string) string {
	var args struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return fmt.Sprintf("%s invalid arguments: %v", ErrorPrefix, err)
	}
	if strings.TrimSpace(args.Expr) == "" {
		return fmt.Sprintf("%s empty expression", ErrorPrefix)
	}

	out, err := expr.Eval(args.Expr, nil)
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}
	return fmt.Sprint(out)
}

var (
	exprRunPattern = regexp.MustCompile(`[0-9+\-*/%^().\s]+`)
	numberPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	operatorSet    = "+-*/%^"
)

// ExtractExpression scans free text for an arithmetic expression worth
// evaluating directly, skipping the model round trip. A candidate must hold
// at least two numeric literals, balanced parentheses, no empty parenthesis
// pair, and at least one operator or parenthesis pair. The longest valid
// candidate wins.
func ExtractExpression(text string) (string, bool) {
	var best string
	for _, raw := range exprRunPattern.FindAllString(text, -1) {
		cand := trimCandidate(raw)
		if validExpression(cand) && len(cand) > len(best) {
			best = cand
		}
	}
	return best, best != ""
}

// trimCandidate strips whitespace and dangling punctuation a sentence leaves
// around the expression, like the period in "compute 2+2.".
func trimCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+-*/%^,. \t")
	s = strings.TrimLeft(s, "+*/%^,. \t")
	return s
}

func validExpression(s string) bool {
	if len(numberPattern.FindAllString(s, -1)) < 2 {
		return false
	}
	if strings.Contains(strings.ReplaceAll(s, " ", ""), "()") {
		return false
	}

	depth, pairs := 0, 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
			pairs++
		}
	}
	if depth != 0 {
		return false
	}

	return pairs > 0 || strings.ContainsAny(s, operatorSet)
}
