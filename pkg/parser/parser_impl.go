package parser

import (
	"fmt"

	"github.com/sandrolain/goformula/pkg/types"
)

// Parser implements a recursive descent parser for formulas.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	src     tokenSource
	input   string
	current Token
	prev    Token
	depth   int
	height  int // upper bound on the height of the tree being built
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	return newParser(NewLexer(input), input, opts...)
}

func newParser(src tokenSource, input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth:  DefaultMaxDepth,
		MaxHeight: DefaultMaxHeight,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		src:   src,
		input: input,
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "empty formula")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenEOF:
	case TokenParenClose:
		return nil, p.error(types.ErrSyntaxError, "unexpected ')' without matching '('")
	default:
		return nil, p.error(types.ErrSyntaxError,
			fmt.Sprintf("unexpected %s after complete expression", p.current.describe()))
	}

	return types.NewExpression(node, p.input, p.prev.End), nil
}

// Binding powers. Higher values bind more tightly.
const (
	precOr       = 10 // ||
	precAnd      = 20 // &&
	precEquality = 30 // == !=
	precRelation = 40 // < > <= >=
	precAdditive = 50 // + -
	precMultiply = 60 // * /
	precUnary    = 70 // prefix - !
)

// precedence maps binary operator tokens to their binding power.
var precedence = map[TokenType]int{
	TokenOr:           precOr,
	TokenAnd:          precAnd,
	TokenEqual:        precEquality,
	TokenNotEqual:     precEquality,
	TokenLess:         precRelation,
	TokenLessEqual:    precRelation,
	TokenGreater:      precRelation,
	TokenGreaterEqual: precRelation,
	TokenPlus:         precAdditive,
	TokenMinus:        precAdditive,
	TokenMult:         precMultiply,
	TokenDiv:          precMultiply,
}

// getPrecedence returns the binary precedence of a token type, 0 if the
// token can not continue an expression.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.src.Next()
}

// error creates a parser error at the current token.
// A pending lexical error takes precedence: it is the reason the parser
// could not continue.
func (p *Parser) error(code types.ErrorCode, message string) error {
	if p.current.Type == TokenError {
		if err := p.src.Error(); err != nil {
			return err
		}
	}
	if p.current.Type == TokenEOF && code == types.ErrExpectedToken {
		code = types.ErrUnexpectedEnd
	}
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// expect checks that the current token closes the construct opened by
// opener and advances past it.
func (p *Parser) expect(tt TokenType, opener Token, what string) error {
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken,
			fmt.Sprintf("expected '%s' to close %s at position %d but found %s",
				tt, what, opener.Position, p.current.describe()))
	}
	p.advance()
	return nil
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	height := p.height
	p.depth++
	defer func() {
		p.depth--
		p.height = height
	}()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrNestingTooDeep,
			fmt.Sprintf("formula is nested more than %d levels deep", p.opts.MaxDepth))
	}
	if err := p.grow(); err != nil {
		return nil, err
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		// Each operator in a chain adds a level to the left spine.
		if err := p.grow(); err != nil {
			return nil, err
		}
		left, err = p.parseBinaryOp(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// grow adds one level to the tree height and enforces MaxHeight.
func (p *Parser) grow() error {
	p.height++
	if p.opts.MaxHeight > 0 && p.height > p.opts.MaxHeight {
		return p.error(types.ErrNestingTooDeep,
			fmt.Sprintf("formula is too long: expression tree exceeds %d levels", p.opts.MaxHeight))
	}
	return nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenName:
		return p.parseName()
	case TokenMinus, TokenNot:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "expected an expression but reached end of formula")
	default:
		return nil, p.error(types.ErrSyntaxError,
			fmt.Sprintf("expected an expression but found %s", token.describe()))
	}
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeNumber, p.current.Position)
	node.NumValue = p.current.Number
	p.advance()
	return node, nil
}

// parseName parses a boolean keyword, a variable reference, or a function
// call when the name is followed by '('.
func (p *Parser) parseName() (*types.ASTNode, error) {
	token := p.current

	if b, ok := lookupKeyword(token.Value); ok {
		node := types.NewASTNode(types.NodeBoolean, token.Position)
		node.BoolValue = b
		p.advance()
		return node, nil
	}

	p.advance()
	if p.current.Type == TokenParenOpen {
		return p.parseFunctionCall(token)
	}

	node := types.NewASTNode(types.NodeName, token.Position)
	node.Name = token.Value
	return node, nil
}

// parseUnary parses a prefix '-' or '!' operator.
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	op := p.current
	p.advance()

	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeUnary, op.Position)
	node.Operator = op.Type.String()
	node.LHS = operand
	return node, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	open := p.current
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		return nil, p.error(types.ErrSyntaxError, "expected an expression inside '()'")
	}

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose, open, "'('"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseBinaryOp parses the right operand of a binary operator.
// Operands of equal precedence associate to the left.
func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	// Parse the right-hand side with appropriate precedence
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeBinary, op.Position)
	node.Operator = op.Type.String()
	node.LHS = left
	node.RHS = right

	return node, nil
}

// parseFunctionCall parses the argument list of a call to name.
// The current token is the opening parenthesis. Arity is checked at
// evaluation time, not here.
func (p *Parser) parseFunctionCall(name Token) (*types.ASTNode, error) {
	open := p.current
	p.advance() // Skip '('

	node := types.NewASTNode(types.NodeFunction, name.Position)
	node.Name = name.Value
	node.Arguments = []*types.ASTNode{}

	what := fmt.Sprintf("call to %s", name.Value)

	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}

	for {
		if p.current.Type == TokenComma || p.current.Type == TokenParenClose {
			return nil, p.error(types.ErrEmptyArgument,
				fmt.Sprintf("empty argument in %s", what))
		}

		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)

		if p.current.Type != TokenComma {
			break
		}
		p.advance() // Skip ','
	}

	if err := p.expect(TokenParenClose, open, what); err != nil {
		return nil, err
	}

	return node, nil
}
