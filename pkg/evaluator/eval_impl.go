package evaluator

import (
	"fmt"
	"math"

	"github.com/sandrolain/goformula/pkg/types"
)

// evalNode dispatches on the node type.
func (e *Evaluator) evalNode(node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	switch node.Type {
	case types.NodeNumber:
		return types.Number(node.NumValue), nil
	case types.NodeBoolean:
		return types.Bool(node.BoolValue), nil
	case types.NodeName:
		return e.evalName(node, bindings)
	case types.NodeUnary:
		return e.evalUnary(node, bindings)
	case types.NodeBinary:
		return e.evalBinary(node, bindings)
	case types.NodeFunction:
		return e.evalFunction(node, bindings)
	default:
		return types.Value{}, types.NewError(types.ErrInternal,
			fmt.Sprintf("unknown node type %q", node.Type), node.Position)
	}
}

// evalName resolves a variable against the bindings.
func (e *Evaluator) evalName(node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	f, ok := bindings.Lookup(node.Name)
	if !ok {
		return types.Value{}, types.NewError(types.ErrUndefinedVariable,
			fmt.Sprintf("unknown variable '%s'", node.Name), node.Position).
			WithName(node.Name).WithToken(node.Name)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.Value{}, types.NewError(types.ErrNumberTooLarge,
			fmt.Sprintf("variable '%s' is not a finite number", node.Name), node.Position).
			WithName(node.Name).WithToken(node.Name)
	}
	return types.Number(f), nil
}

// finite rejects NaN and infinite arithmetic results.
func finite(r float64, node *types.ASTNode) (types.Value, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return types.Value{}, types.NewError(types.ErrNumberTooLarge, "number out of range", node.Position)
	}
	return types.Number(r), nil
}

// typeMismatch builds a T1003 error for node.
func typeMismatch(node *types.ASTNode, format string, args ...interface{}) error {
	return types.NewError(types.ErrTypeMismatch, fmt.Sprintf(format, args...), node.Position)
}
