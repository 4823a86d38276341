package evaluator

import (
	"fmt"

	"github.com/sandrolain/goformula/pkg/types"
)

func (e *Evaluator) evalUnary(node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	operand, err := e.evalNode(node.LHS, bindings)
	if err != nil {
		return types.Value{}, err
	}

	switch node.Operator {
	case "-":
		if !operand.IsNumber() {
			return types.Value{}, typeMismatch(node, "operator '-' expects a number but got %s", operand.Kind())
		}
		return types.Number(-operand.Float()), nil
	case "!":
		if !operand.IsBool() {
			return types.Value{}, typeMismatch(node, "operator '!' expects a boolean but got %s", operand.Kind())
		}
		return types.Bool(!operand.Truth()), nil
	default:
		return types.Value{}, types.NewError(types.ErrInternal,
			fmt.Sprintf("unknown unary operator %q", node.Operator), node.Position)
	}
}

// evalBinary evaluates both operands, left first, then applies the operator.
// Logical operators do not short-circuit: an error in either operand is
// always reported, whatever the value of the other.
func (e *Evaluator) evalBinary(node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	left, err := e.evalNode(node.LHS, bindings)
	if err != nil {
		return types.Value{}, err
	}

	right, err := e.evalNode(node.RHS, bindings)
	if err != nil {
		return types.Value{}, err
	}

	op := node.Operator
	switch op {
	case "+", "-", "*", "/", "<", "<=", ">", ">=":
		if !left.IsNumber() || !right.IsNumber() {
			return types.Value{}, typeMismatch(node, "operator '%s' expects numbers but got %s and %s",
				op, left.Kind(), right.Kind())
		}
		return arithmetic(node, left.Float(), right.Float())
	case "==", "!=":
		if left.Kind() != right.Kind() {
			return types.Value{}, typeMismatch(node, "operator '%s' can not compare %s with %s",
				op, left.Kind(), right.Kind())
		}
		eq := left.Equal(right)
		if op == "!=" {
			eq = !eq
		}
		return types.Bool(eq), nil
	case "&&", "||":
		if !left.IsBool() || !right.IsBool() {
			return types.Value{}, typeMismatch(node, "operator '%s' expects booleans but got %s and %s",
				op, left.Kind(), right.Kind())
		}
		if op == "&&" {
			return types.Bool(left.Truth() && right.Truth()), nil
		}
		return types.Bool(left.Truth() || right.Truth()), nil
	default:
		return types.Value{}, types.NewError(types.ErrInternal,
			fmt.Sprintf("unknown binary operator %q", op), node.Position)
	}
}

// arithmetic applies a numeric operator. Division by zero is an error, never
// an infinity.
func arithmetic(node *types.ASTNode, lf, rf float64) (types.Value, error) {
	switch node.Operator {
	case "+":
		return finite(lf+rf, node)
	case "-":
		return finite(lf-rf, node)
	case "*":
		return finite(lf*rf, node)
	case "/":
		if rf == 0 {
			return types.Value{}, types.NewError(types.ErrDivisionByZero, "division by zero", node.Position).WithToken("/")
		}
		return finite(lf/rf, node)
	case "<":
		return types.Bool(lf < rf), nil
	case "<=":
		return types.Bool(lf <= rf), nil
	case ">":
		return types.Bool(lf > rf), nil
	default: // ">="
		return types.Bool(lf >= rf), nil
	}
}
