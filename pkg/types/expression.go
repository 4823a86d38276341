// Package types defines the core type system for goformula.
//
// This package contains type definitions for:
//   - Expression: Compiled formulas
//   - ASTNode: Abstract Syntax Tree nodes
//   - Value: Runtime values (number or boolean)
//   - Bindings: Variable values supplied per evaluation
//   - Error types: Structured errors with codes
package types

import "sort"

// Expression represents a compiled formula.
//
// An Expression can be evaluated multiple times against different bindings
// by passing it to [evaluator.Evaluator.Eval]. It is safe for concurrent use
// by multiple goroutines.
type Expression struct {
	ast      *ASTNode
	source   string
	consumed int
}

// NewExpression creates a new Expression from an AST.
// consumed is the byte offset just past the last token of the expression.
func NewExpression(ast *ASTNode, source string, consumed int) *Expression {
	return &Expression{
		ast:      ast,
		source:   source,
		consumed: consumed,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source text of the formula.
func (e *Expression) Source() string {
	return e.source
}

// Consumed returns the byte offset just past the last token that belongs to
// the expression. Only whitespace may follow it in Source.
func (e *Expression) Consumed() int {
	return e.consumed
}

// Identifiers returns the distinct variable names referenced by the formula,
// sorted.
func (e *Expression) Identifiers() []string {
	return e.collect(NodeName)
}

// Functions returns the distinct function names called by the formula, sorted.
func (e *Expression) Functions() []string {
	return e.collect(NodeFunction)
}

func (e *Expression) collect(nodeType NodeType) []string {
	seen := make(map[string]struct{})
	Walk(e.ast, func(n *ASTNode) bool {
		if n.Type == nodeType {
			seen[n.Name] = struct{}{}
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
