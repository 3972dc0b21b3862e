// Package screening evaluates CEL rules against normalized credit reports.
package screening

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/liamcoop/creditreports/report"
)

// costLimit bounds the work a single expression may do.
const costLimit = 1_000_000

// CompileError reports an expression that failed to parse or type-check.
type CompileError struct {
	Expression string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of evaluating one rule.
type Result struct {
	Rule    string `json:"rule"`
	Matched bool   `json:"matched"`
	Error   string `json:"error,omitempty"`
}

type compiledRule struct {
	rule Rule
	prog cel.Program
}

// Engine holds a CEL environment and a fixed set of compiled rules.
// Rules are compiled once in NewEngine; the engine is safe for concurrent use.
type Engine struct {
	env   *cel.Env
	rules []compiledRule
}

// NewEnv creates the CEL environment exposing the three report sections.
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("basicDetails", cel.DynType),
		cel.Variable("reportSummary", cel.DynType),
		cel.Variable("creditAccounts", cel.ListType(cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine validates and compiles rules. Any invalid rule fails construction.
func NewEngine(rules []Rule) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	en := &Engine{env: env}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		prog, err := en.compile(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, err)
		}
		en.rules = append(en.rules, compiledRule{rule: r, prog: prog})
	}

	return en, nil
}

// Rules returns the configured rules in evaluation order.
func (en *Engine) Rules() []Rule {
	out := make([]Rule, len(en.rules))
	for i, cr := range en.rules {
		out[i] = cr.rule
	}
	return out
}

func (en *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, &CompileError{Expression: expression, Err: issues.Err()}
	}

	prog, err := en.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, &CompileError{Expression: expression, Err: err}
	}
	return prog, nil
}

// EvaluateAll runs every configured rule against rpt.
// A failing rule is reported in its Result and does not stop the others.
func (en *Engine) EvaluateAll(rpt *report.Report) []Result {
	facts := rpt.Facts()

	results := make([]Result, 0, len(en.rules))
	for _, cr := range en.rules {
		results = append(results, evaluate(cr.rule.Name, cr.prog, facts))
	}
	return results
}

// EvaluateExpression compiles and runs an ad-hoc expression against rpt.
// Compilation problems are returned as *CompileError.
func (en *Engine) EvaluateExpression(expression string, rpt *report.Report) (Result, error) {
	prog, err := en.compile(expression)
	if err != nil {
		return Result{}, err
	}
	return evaluate(expression, prog, rpt.Facts()), nil
}

// evaluate treats non-boolean output as no match.
func evaluate(name string, prog cel.Program, facts map[string]any) Result {
	out, _, err := prog.Eval(facts)
	if err != nil {
		return Result{Rule: name, Error: err.Error()}
	}

	matched, _ := out.Value().(bool)
	return Result{Rule: name, Matched: matched}
}

// IsCompileError reports whether err came from compiling an expression.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
