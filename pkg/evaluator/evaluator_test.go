package evaluator_test

import (
	"context"
	"errors"
	"maps"
	"math"
	"strings"
	"testing"

	"github.com/sandrolain/goformula/pkg/evaluator"
	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func eval(t *testing.T, formula string, bindings types.Bindings) types.Value {
	t.Helper()
	expr, err := parser.Parse(formula)
	if err != nil {
		t.Fatalf("parse %q: %v", formula, err)
	}
	v, err := evaluator.New().Eval(context.Background(), expr, bindings)
	if err != nil {
		t.Fatalf("eval %q: %v", formula, err)
	}
	return v
}

func evalExpectError(t *testing.T, formula string, bindings types.Bindings) *types.Error {
	t.Helper()
	expr, err := parser.Parse(formula)
	if err != nil {
		t.Fatalf("parse %q: %v", formula, err)
	}
	v, err := evaluator.New().Eval(context.Background(), expr, bindings)
	if err == nil {
		t.Fatalf("eval %q: expected error, got %v", formula, v)
	}
	fe, ok := types.AsError(err)
	if !ok {
		t.Fatalf("eval %q: expected *types.Error, got %T: %v", formula, err, err)
	}
	return fe
}

var room = types.Bindings{
	"width":    4,
	"height":   2.5,
	"coverage": 3,
	"unitCost": 12.5,
}

// ── values ───────────────────────────────────────────────────────────────────

func TestEvalNumbers(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"8 / 4 / 2", 1},
		{"7 / 2", 3.5},
		{"-2 * 3", -6},
		{"- -2", 2},
		{"2 - -2", 4},
		{".5 + .25", 0.75},
		{"ceil(4.1)", 5},
		{"ceil(-4.1)", -4},
		{"floor(-4.1)", -5},
		{"round(2.5)", 3},
		{"round(-2.5)", -3},
		{"sqrt(16)", 4},
		{"abs(-3)", 3},
		{"min(2, 3)", 2},
		{"max(2, 3)", 3},
		{"max(min(1, 5), abs(-4))", 4},
		{"ceil(width * height / coverage) * unitCost", 50},
		{"width * height", 10},
		{"ceil(-0.5)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			v := eval(t, tt.formula, room)
			if !v.IsNumber() {
				t.Fatalf("expected number, got %s", v.Kind())
			}
			if v.Float() != tt.want {
				t.Errorf("got %v, want %v", v.Float(), tt.want)
			}
		})
	}
}

func TestEvalBooleans(t *testing.T) {
	tests := []struct {
		formula string
		want    bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"3 >= 4", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"true == true", true},
		{"true != false", true},
		{"!true", false},
		{"!!true", true},
		{"true && false", false},
		{"false || true", true},
		{"!(1 > 2)", true},
		{"1 + 1 == 2 && 3 > 2", true},
		{"width > height || coverage == 0", true},
		{"(1 < 2) == (3 < 4)", true},
		// IEEE 754 doubles.
		{"0.1 + 0.2 == 0.3", false},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			v := eval(t, tt.formula, room)
			if !v.IsBool() {
				t.Fatalf("expected boolean, got %s", v.Kind())
			}
			if v.Truth() != tt.want {
				t.Errorf("got %v, want %v", v.Truth(), tt.want)
			}
		})
	}
}

// ── errors ───────────────────────────────────────────────────────────────────

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		bindings types.Bindings
		code     types.ErrorCode
		position int
		contains string
	}{
		{"unknown variable", "x + 1", nil, types.ErrUndefinedVariable, 0, "unknown variable 'x'"},
		{"unknown variable on the right", "1 + y", nil, types.ErrUndefinedVariable, 4, "'y'"},
		{"names are case-sensitive", "Width", room, types.ErrUndefinedVariable, 0, "'Width'"},
		{"unknown function", "foo(1)", nil, types.ErrUndefinedFunction, 0, "unknown function 'foo'"},
		{"too many arguments", "ceil(1, 2)", nil, types.ErrArgumentCountMismatch, 0, "ceil expects 1 argument but got 2"},
		{"too few arguments", "min(1)", nil, types.ErrArgumentCountMismatch, 0, "min expects 2 arguments but got 1"},
		{"no arguments", "ceil()", nil, types.ErrArgumentCountMismatch, 0, "got 0"},
		{"division by zero", "1 / 0", nil, types.ErrDivisionByZero, 2, "division by zero"},
		{"division by computed zero", "1 / (a - a)", types.Bindings{"a": 3}, types.ErrDivisionByZero, 2, "division by zero"},
		{"zero by zero", "0 / 0", nil, types.ErrDivisionByZero, 2, "division by zero"},
		{"sqrt of negative", "sqrt(-1)", nil, types.ErrOutOfDomain, 0, "sqrt of negative number -1"},
		{"sqrt of computed negative", "2 * sqrt(0 - 4)", nil, types.ErrOutOfDomain, 4, "-4"},
		{"number plus boolean", "1 + true", nil, types.ErrTypeMismatch, 2, "expects numbers"},
		{"not of number", "!1", nil, types.ErrTypeMismatch, 0, "expects a boolean"},
		{"negate boolean", "-true", nil, types.ErrTypeMismatch, 0, "expects a number"},
		{"and of number", "1 && true", nil, types.ErrTypeMismatch, 2, "expects booleans"},
		{"compare number to boolean", "1 == true", nil, types.ErrTypeMismatch, 2, "can not compare number with boolean"},
		{"relational chain", "1 < 2 < 3", nil, types.ErrTypeMismatch, 6, "got boolean and number"},
		{"boolean argument", "ceil(true)", nil, types.ErrTypeMismatch, 5, "argument 1 of ceil must be a number"},
		{"second boolean argument", "max(1, 2 > 1)", nil, types.ErrTypeMismatch, 9, "argument 2 of max"},
		{"infinite binding", "x * 2", types.Bindings{"x": math.Inf(1)}, types.ErrNumberTooLarge, 0, "not a finite number"},
		{"NaN binding", "x", types.Bindings{"x": math.NaN()}, types.ErrNumberTooLarge, 0, "not a finite number"},
		{"overflow", "a * a", types.Bindings{"a": 1e200}, types.ErrNumberTooLarge, 2, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := evalExpectError(t, tt.formula, tt.bindings)
			if fe.Code != tt.code {
				t.Errorf("code: got %s (%s), want %s", fe.Code, fe.Message, tt.code)
			}
			if fe.Position != tt.position {
				t.Errorf("position: got %d, want %d", fe.Position, tt.position)
			}
			if !strings.Contains(fe.Message, tt.contains) {
				t.Errorf("message %q does not contain %q", fe.Message, tt.contains)
			}
		})
	}
}

func TestEvalErrorDetails(t *testing.T) {
	fe := evalExpectError(t, "2 * total", nil)
	if fe.Name != "total" || fe.Kind() != types.KindUnknownVariable {
		t.Errorf("unknown variable: got name %q kind %s", fe.Name, fe.Kind())
	}

	fe = evalExpectError(t, "max(1, 2, 3)", nil)
	if fe.Name != "max" || fe.Expected != 2 || fe.Got != 3 {
		t.Errorf("arity: got name %q expected %d got %d", fe.Name, fe.Expected, fe.Got)
	}

	fe = evalExpectError(t, "sqrt(-9)", nil)
	if fe.Name != "sqrt" {
		t.Errorf("domain: got name %q", fe.Name)
	}
}

func TestEvalErrorOrder(t *testing.T) {
	tests := []struct {
		formula string
		code    types.ErrorCode
		name    string
	}{
		// The function is resolved before its arguments.
		{"foo(x)", types.ErrUndefinedFunction, "foo"},
		// Arity is checked before arguments are evaluated.
		{"ceil(x, y)", types.ErrArgumentCountMismatch, "ceil"},
		// Operands are evaluated left to right.
		{"x + y", types.ErrUndefinedVariable, "x"},
		{"min(a, b)", types.ErrUndefinedVariable, "a"},
		// No short-circuit: the right operand is always evaluated.
		{"false && x", types.ErrUndefinedVariable, "x"},
		{"true || z", types.ErrUndefinedVariable, "z"},
	}
	for _, tt := range tests {
		fe := evalExpectError(t, tt.formula, nil)
		if fe.Code != tt.code || fe.Name != tt.name {
			t.Errorf("%q: got %s for %q, want %s for %q", tt.formula, fe.Code, fe.Name, tt.code, tt.name)
		}
	}

	if fe := evalExpectError(t, "true || 1 / 0", nil); fe.Code != types.ErrDivisionByZero {
		t.Errorf("expected division by zero to surface, got %s", fe.Code)
	}
}

// ── engine properties ────────────────────────────────────────────────────────

func TestEvalDoesNotMutateBindings(t *testing.T) {
	bindings := types.Bindings{"a": 1, "b": 2}
	before := maps.Clone(bindings)
	eval(t, "a + b * max(a, b)", bindings)
	evalExpectError(t, "a + c", bindings)
	if !maps.Equal(before, bindings) {
		t.Fatalf("bindings changed: %v -> %v", before, bindings)
	}
}

func TestEvalDeterministic(t *testing.T) {
	expr, err := parser.Parse("ceil(width * height / coverage) * unitCost + sqrt(width)")
	if err != nil {
		t.Fatal(err)
	}
	ev := evaluator.New()
	first, err := ev.Eval(context.Background(), expr, room)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		v, err := ev.Eval(context.Background(), expr, room)
		if err != nil || !v.Equal(first) {
			t.Fatalf("run %d: got %v, %v; want %v", i, v, err, first)
		}
	}
}

func TestEvalContextCancelled(t *testing.T) {
	expr, err := parser.Parse("1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = evaluator.New().Eval(ctx, expr, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvalNilExpression(t *testing.T) {
	ev := evaluator.New()
	_, err := ev.Eval(context.Background(), nil, nil)
	fe, ok := types.AsError(err)
	if !ok || fe.Code != types.ErrInternal || fe.Position != -1 {
		t.Fatalf("Eval(nil): expected X0001 without position, got %v", err)
	}
	if _, err := ev.EvalAST(context.Background(), nil, nil); !types.IsCode(err, types.ErrInternal) {
		t.Fatalf("EvalAST(nil): expected X0001, got %v", err)
	}
}

func TestEvalAST(t *testing.T) {
	tokens, err := parser.Tokenize("max(a, 2) * 3")
	if err != nil {
		t.Fatal(err)
	}
	ast, err := parser.ParseTokens(tokens)
	if err != nil {
		t.Fatal(err)
	}
	v, err := evaluator.New().EvalAST(context.Background(), ast, types.Bindings{"a": 5})
	if err != nil {
		t.Fatal(err)
	}
	if v.Float() != 15 {
		t.Fatalf("got %v, want 15", v)
	}
}
