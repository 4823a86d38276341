package parser

// Package parser implements the formula tokenizer and parser.
//
// The parser uses a hand-written precedence-climbing (Pratt) approach and
// reports the first syntax error with its source position. Formulas are
// arithmetic and logical expressions over numbers, named variables and a
// fixed set of built-in functions:
//
//	ceil(width * height / coverage) * unitCost
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: Tokenizes the input lazily into a stream of tokens
//   - Parser: Builds an Abstract Syntax Tree (AST) from tokens
//
// # Example
//
//	expr, err := parser.Parse("min(a, b) * 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()

import (
	"github.com/sandrolain/goformula/pkg/types"
)

// DefaultMaxDepth is the default nesting limit for parentheses and unary
// operators.
const DefaultMaxDepth = 256

// DefaultMaxHeight is the default limit on the height of the expression
// tree. Operator chains such as 1 + 1 + ... + 1 grow the tree without
// nesting, and evaluation recurses once per level.
const DefaultMaxHeight = 4096

// Parse parses a formula and returns the compiled Expression.
//
// The function tokenizes the input, builds an AST, and validates the syntax.
// If parsing fails, it returns a *types.Error with position information.
//
// Example:
//
//	expr, err := parser.Parse("2 + (3 * 4")
//	if fe, ok := types.AsError(err); ok {
//	    fmt.Printf("%s at position %d\n", fe.Message, fe.Position)
//	}
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile is Parse with options, provided for API consistency.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// ParseTokens builds an AST from an already tokenized formula, such as the
// output of Tokenize. A missing trailing TokenEOF is implied.
func ParseTokens(tokens []Token, opts ...CompileOption) (*types.ASTNode, error) {
	p := newParser(&sliceSource{tokens: tokens}, "", opts...)
	expr, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return expr.AST(), nil
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting depth to prevent stack exhaustion.
	MaxDepth int
	// MaxHeight limits the height of the expression tree, counting every
	// operator in a chain as well as every nesting level.
	MaxHeight int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithMaxHeight sets the maximum height of the expression tree.
func WithMaxHeight(height int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxHeight = height
	}
}

// tokenSource is the stream the parser consumes.
type tokenSource interface {
	Next() Token
	Error() error
}

// sliceSource replays a token slice.
type sliceSource struct {
	tokens []Token
	pos    int
}

func (s *sliceSource) Next() Token {
	if s.pos < len(s.tokens) {
		t := s.tokens[s.pos]
		s.pos++
		return t
	}
	end := 0
	if n := len(s.tokens); n > 0 {
		end = s.tokens[n-1].End
	}
	return Token{Type: TokenEOF, Position: end, End: end}
}

func (s *sliceSource) Error() error {
	return nil
}
