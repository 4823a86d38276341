// Package goformula is a small, sandboxed formula language for
// user-authored calculations such as cost estimates.
//
// A formula is an arithmetic or logical expression over numbers, named
// variables and a fixed set of built-in functions:
//
//	ceil(width * height / coverage) * unitCost
//
// Formulas are tokenized, parsed into an AST and evaluated against a table
// of variable bindings. Every failure is a *types.Error carrying a code, a
// kind and, where it applies, the byte offset of the offending text.
//
// # Quick Start
//
//	// Simple evaluation
//	v, err := goformula.Eval("max(a, b) * 2", types.Bindings{"a": 3, "b": 7})
//
//	// Compile once, evaluate many times
//	expr, err := goformula.Compile("price * qty")
//	v1, _ := goformula.EvalExpression(ctx, expr, bindings1)
//	v2, _ := goformula.EvalExpression(ctx, expr, bindings2)
//
//	// Editor-style validation with preview
//	res := goformula.Validate("ceil(area / 3)", types.Bindings{"area": 10})
//
// # Safety
//
// Evaluation cannot reach the file system, the network or any Go code other
// than the built-ins in package functions. Unknown names are errors, never
// silently zero.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/goformula/pkg/parser
//   - Evaluator: github.com/sandrolain/goformula/pkg/evaluator
//   - Functions: github.com/sandrolain/goformula/pkg/functions
//   - Validator: github.com/sandrolain/goformula/pkg/validator
//   - Types: github.com/sandrolain/goformula/pkg/types
package goformula

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandrolain/goformula/pkg/evaluator"
	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
	"github.com/sandrolain/goformula/pkg/validator"
)

// Version returns the current version of goformula.
func Version() string {
	return "v0.1.0-dev"
}

var (
	defaultOnce      sync.Once
	defaultEvaluator *evaluator.Evaluator
	defaultService   *validator.Service
)

func defaults() (*evaluator.Evaluator, *validator.Service) {
	defaultOnce.Do(func() {
		defaultEvaluator = evaluator.New()
		defaultService = validator.New()
	})
	return defaultEvaluator, defaultService
}

// Compile tokenizes and parses a formula for repeated evaluation.
//
// The compiled expression is immutable and safe for concurrent use.
//
// Example:
//
//	expr, err := goformula.Compile("ceil(width * height / coverage)")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(formula string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(formula, opts...)
}

// MustCompile is like Compile but panics if the formula cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(formula string) *types.Expression {
	expr, err := Compile(formula)
	if err != nil {
		panic(fmt.Sprintf("goformula: Compile(%q): %v", formula, err))
	}
	return expr
}

// Eval compiles and evaluates a formula in a single call.
//
// For repeated evaluations of the same formula, use Compile and
// EvalExpression instead.
//
// Example:
//
//	v, err := goformula.Eval("2 + 3 * 4", nil) // 14
func Eval(formula string, bindings types.Bindings) (types.Value, error) {
	return EvalWithContext(context.Background(), formula, bindings)
}

// EvalWithContext is Eval with a caller-supplied context.
func EvalWithContext(ctx context.Context, formula string, bindings types.Bindings) (types.Value, error) {
	expr, err := Compile(formula)
	if err != nil {
		return types.Value{}, err
	}
	return EvalExpression(ctx, expr, bindings)
}

// EvalExpression evaluates a compiled expression with the shared evaluator.
func EvalExpression(ctx context.Context, expr *types.Expression, bindings types.Bindings) (types.Value, error) {
	ev, _ := defaults()
	return ev.Eval(ctx, expr, bindings)
}

// Validate runs the full pipeline on formula with a shared, cached
// validator.Service. See validator.Service.Validate.
func Validate(formula string, bindings types.Bindings) validator.Result {
	_, svc := defaults()
	return svc.Validate(context.Background(), formula, bindings)
}
