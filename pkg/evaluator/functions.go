package evaluator

import (
	"fmt"

	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
)

// evalFunction calls a built-in. The name is resolved first, then the
// argument count is checked, then arguments are evaluated left to right.
func (e *Evaluator) evalFunction(node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	fn, ok := functions.Lookup(node.Name)
	if !ok {
		return types.Value{}, types.NewError(types.ErrUndefinedFunction,
			fmt.Sprintf("unknown function '%s'", node.Name), node.Position).
			WithName(node.Name).WithToken(node.Name)
	}

	if got := len(node.Arguments); got != fn.Arity {
		err := types.NewError(types.ErrArgumentCountMismatch,
			fmt.Sprintf("%s expects %d %s but got %d", fn.Name, fn.Arity, plural(fn.Arity, "argument"), got),
			node.Position).WithName(fn.Name).WithToken(fn.Name)
		err.Expected = fn.Arity
		err.Got = got
		return types.Value{}, err
	}

	args := make([]float64, len(node.Arguments))
	for i, argNode := range node.Arguments {
		v, err := e.evalNode(argNode, bindings)
		if err != nil {
			return types.Value{}, err
		}
		if !v.IsNumber() {
			return types.Value{}, typeMismatch(argNode, "argument %d of %s must be a number but got %s",
				i+1, fn.Name, v.Kind())
		}
		args[i] = v.Float()
	}

	r, err := fn.Impl(args)
	if err != nil {
		if fe, ok := types.AsError(err); ok {
			if fe.Position < 0 {
				fe.Position = node.Position
			}
			if fe.Name == "" {
				fe.Name = fn.Name
			}
			return types.Value{}, fe
		}
		return types.Value{}, types.NewError(types.ErrInternal, err.Error(), node.Position).WithCause(err)
	}
	return finite(r, node)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
