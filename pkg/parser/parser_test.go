package parser_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

// sexpr renders an AST in prefix notation so tests can state tree shapes
// compactly: "1 + 2 * 3" is "(+ 1 (* 2 3))".
func sexpr(n *types.ASTNode) string {
	switch n.Type {
	case types.NodeNumber:
		return strconv.FormatFloat(n.NumValue, 'f', -1, 64)
	case types.NodeBoolean:
		return strconv.FormatBool(n.BoolValue)
	case types.NodeName:
		return n.Name
	case types.NodeUnary:
		return "(" + n.Operator + " " + sexpr(n.LHS) + ")"
	case types.NodeBinary:
		return "(" + n.Operator + " " + sexpr(n.LHS) + " " + sexpr(n.RHS) + ")"
	case types.NodeFunction:
		parts := []string{n.Name}
		for _, a := range n.Arguments {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return "?" + string(n.Type)
	}
}

func mustParse(t *testing.T, formula string) *types.Expression {
	t.Helper()
	expr, err := parser.Parse(formula)
	if err != nil {
		t.Fatalf("Parse(%q): %v", formula, err)
	}
	return expr
}

func TestParserTreeShape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Precedence
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 * 2 + 3", "(+ (* 1 2) 3)"},
		{"a + b > c * d", "(> (+ a b) (* c d))"},
		{"a < b == c > d", "(== (< a b) (> c d))"},
		{"a == b && c != d", "(&& (== a b) (!= c d))"},
		{"a || b && c", "(|| a (&& b c))"},
		{"a && b || c && d", "(|| (&& a b) (&& c d))"},

		// Left associativity
		{"10 - 4 - 3", "(- (- 10 4) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"a - b + c", "(+ (- a b) c)"},
		{"1 < 2 < 3", "(< (< 1 2) 3)"},
		{"a || b || c", "(|| (|| a b) c)"},

		// Unary operators bind tightest
		{"-2 * 3", "(* (- 2) 3)"},
		{"--2", "(- (- 2))"},
		{"a - -b", "(- a (- b))"},
		{"!a && b", "(&& (! a) b)"},
		{"!(a && b)", "(! (&& a b))"},
		{"-ceil(x)", "(- (ceil x))"},

		// Literals and names
		{"true && false", "(&& true false)"},
		{"  x  ", "x"},
		{".5", "0.5"},

		// Function calls
		{"ceil(x)", "(ceil x)"},
		{"ceil (x)", "(ceil x)"},
		{"max(a, min(b, 2))", "(max a (min b 2))"},
		{"f()", "(f)"},
		{"ceil(width * height / coverage) * unitCost", "(* (ceil (/ (* width height) coverage)) unitCost)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := mustParse(t, tt.input)
			if got := sexpr(expr.AST()); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParserPositions(t *testing.T) {
	expr := mustParse(t, "a + ceil(b)")
	root := expr.AST()
	if root.Position != 2 {
		t.Errorf("binary node position: got %d, want 2", root.Position)
	}
	if root.LHS.Position != 0 {
		t.Errorf("name node position: got %d, want 0", root.LHS.Position)
	}
	if root.RHS.Position != 4 {
		t.Errorf("call node position: got %d, want 4", root.RHS.Position)
	}
	if root.RHS.Arguments[0].Position != 9 {
		t.Errorf("argument position: got %d, want 9", root.RHS.Arguments[0].Position)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     types.ErrorCode
		position int
		contains string
	}{
		{"empty", "", types.ErrSyntaxError, 0, "empty formula"},
		{"whitespace only", "   ", types.ErrSyntaxError, 3, "empty formula"},
		{"dangling operator", "1 +", types.ErrUnexpectedEnd, 3, "end of formula"},
		{"unclosed paren", "(1 + 2", types.ErrUnexpectedEnd, 6, "expected ')'"},
		{"unclosed call", "min(a, b", types.ErrUnexpectedEnd, 8, "call to min"},
		{"unmatched close", "1 + 2)", types.ErrSyntaxError, 5, "without matching '('"},
		{"juxtaposed values", "1 2", types.ErrSyntaxError, 2, "after complete expression"},
		{"implicit multiplication", "2x", types.ErrSyntaxError, 1, "name 'x'"},
		{"empty parens", "()", types.ErrSyntaxError, 1, "inside '()'"},
		{"leading operator", "* 2", types.ErrSyntaxError, 0, "expected an expression"},
		{"double operator", "1 + * 2", types.ErrSyntaxError, 4, "'*'"},
		{"missing comma", "max(1 2)", types.ErrExpectedToken, 6, "expected ')'"},
		{"empty middle argument", "min(1,,2)", types.ErrEmptyArgument, 6, "empty argument in call to min"},
		{"empty trailing argument", "min(1,)", types.ErrEmptyArgument, 6, "empty argument"},
		{"empty leading argument", "min(,1)", types.ErrEmptyArgument, 4, "empty argument"},
		{"keyword is not callable", "true(1)", types.ErrSyntaxError, 4, "'('"},
		{"comma outside call", "1, 2", types.ErrSyntaxError, 1, "','"},
		{"lexical error wins", "1 + @", types.ErrUnrecognizedChar, 4, "unrecognized"},
		{"lexical error after expression", "1 @", types.ErrUnrecognizedChar, 2, "unrecognized"},
		{"first error in source order", "(1 + $", types.ErrUnrecognizedChar, 5, "unrecognized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			fe, ok := types.AsError(err)
			if !ok {
				t.Fatalf("Parse(%q): expected *types.Error, got %v", tt.input, err)
			}
			if fe.Code != tt.code {
				t.Errorf("code: got %s (%s), want %s", fe.Code, fe.Message, tt.code)
			}
			if fe.Position != tt.position {
				t.Errorf("position: got %d, want %d (%s)", fe.Position, tt.position, fe.Message)
			}
			if !strings.Contains(fe.Message, tt.contains) {
				t.Errorf("message %q does not contain %q", fe.Message, tt.contains)
			}
		})
	}
}

func TestParserErrorKinds(t *testing.T) {
	for _, input := range []string{"", "1 +", "(1", "min(,1)", "1 2"} {
		_, err := parser.Parse(input)
		fe, ok := types.AsError(err)
		if !ok || fe.Kind() != types.KindParse {
			t.Errorf("Parse(%q): expected ParseError, got %v", input, err)
		}
	}
}

func TestParserMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)
	if _, err := parser.Parse(deep); !types.IsCode(err, types.ErrNestingTooDeep) {
		t.Fatalf("expected S0205 for deep nesting, got %v", err)
	}

	negations := strings.Repeat("-", 300) + "1"
	if _, err := parser.Parse(negations); !types.IsCode(err, types.ErrNestingTooDeep) {
		t.Fatalf("expected S0205 for deep unary chain, got %v", err)
	}

	if _, err := parser.Compile("((1))", parser.WithMaxDepth(5)); err != nil {
		t.Fatalf("shallow formula rejected: %v", err)
	}
	if _, err := parser.Compile("((((((1))))))", parser.WithMaxDepth(5)); !types.IsCode(err, types.ErrNestingTooDeep) {
		t.Fatalf("expected S0205 with WithMaxDepth(5), got %v", err)
	}

	// Long flat chains are not nesting.
	flat := "1" + strings.Repeat(" + 1", 2000)
	if _, err := parser.Parse(flat); err != nil {
		t.Fatalf("flat chain rejected: %v", err)
	}
}

func TestParserMaxHeight(t *testing.T) {
	// Evaluation recurses along the left spine of a chain, so chains are
	// bounded even though they do not nest.
	long := "1" + strings.Repeat("+1", 100_000)
	_, err := parser.Parse(long)
	fe, ok := types.AsError(err)
	if !ok || fe.Code != types.ErrNestingTooDeep {
		t.Fatalf("expected S0205 for a long chain, got %v", err)
	}
	if fe.Position <= 0 || fe.Position >= 2*parser.DefaultMaxHeight {
		t.Errorf("error should point into the chain near the limit, got position %d", fe.Position)
	}

	tests := []struct {
		input string
		ok    bool
	}{
		{"1+1+1+1", true},
		{"1+1+1+1+1", false},
		{"(1+2)*3", true},
		{"min(1, 2+2+2+2)", false},
		{"-(1+1)", true},
	}
	for _, tt := range tests {
		_, err := parser.Compile(tt.input, parser.WithMaxHeight(5))
		if tt.ok && err != nil {
			t.Errorf("Compile(%q): unexpected error %v", tt.input, err)
		}
		if !tt.ok && !types.IsCode(err, types.ErrNestingTooDeep) {
			t.Errorf("Compile(%q): expected S0205, got %v", tt.input, err)
		}
	}

	// Zero disables the limit.
	if _, err := parser.Compile(long, parser.WithMaxHeight(0)); err != nil {
		t.Fatalf("unbounded compile failed: %v", err)
	}
}

func TestParserConsumesWholeInput(t *testing.T) {
	for _, input := range []string{
		"1",
		"  a + b  ",
		"ceil(x)\n",
		"max(a, b) * (c - d)\t",
	} {
		expr := mustParse(t, input)
		rest := input[expr.Consumed():]
		tokens, err := parser.Tokenize(rest)
		if err != nil {
			t.Errorf("Parse(%q): remainder %q does not tokenize: %v", input, rest, err)
			continue
		}
		if len(tokens) != 1 || tokens[0].Type != parser.TokenEOF {
			t.Errorf("Parse(%q): remainder %q tokenizes to %v, want only end", input, rest, tokens)
		}
	}

	expr := mustParse(t, "  a + b  ")
	if expr.Consumed() != 7 {
		t.Errorf("Consumed: got %d, want 7", expr.Consumed())
	}
	if expr.Source() != "  a + b  " {
		t.Errorf("Source: got %q", expr.Source())
	}
}

func TestParseTokens(t *testing.T) {
	const input = "a * (b + c)"
	tokens, err := parser.Tokenize(input)
	if err != nil {
		t.Fatal(err)
	}
	ast, err := parser.ParseTokens(tokens)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sexpr(ast), sexpr(mustParse(t, input).AST()); got != want {
		t.Fatalf("ParseTokens: got %s, want %s", got, want)
	}

	// A missing trailing EOF is implied.
	ast, err = parser.ParseTokens(tokens[:len(tokens)-1])
	if err != nil {
		t.Fatalf("ParseTokens without EOF: %v", err)
	}
	if got := sexpr(ast); got != "(* a (+ b c))" {
		t.Fatalf("ParseTokens without EOF: got %s", got)
	}

	_, err = parser.ParseTokens(tokens[:3]) // "a * ("
	if !types.IsCode(err, types.ErrUnexpectedEnd) {
		t.Fatalf("expected S0203 for truncated tokens, got %v", err)
	}
}

func TestExpressionNames(t *testing.T) {
	expr := mustParse(t, "ceil(w * h / c) * w + max(a, 1) + ceil(b)")
	if got := strings.Join(expr.Identifiers(), ","); got != "a,b,c,h,w" {
		t.Errorf("Identifiers: got %s", got)
	}
	if got := strings.Join(expr.Functions(), ","); got != "ceil,max" {
		t.Errorf("Functions: got %s", got)
	}

	if ids := mustParse(t, "1 + 2").Identifiers(); len(ids) != 0 {
		t.Errorf("expected no identifiers, got %v", ids)
	}
}
