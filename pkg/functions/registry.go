// Package functions holds the fixed registry of built-in formula functions
// and the operator palette derived from it.
//
// The registry is the single source of truth for what a formula may call.
// It is built once per process and never changes afterwards; there is no way
// to register functions at runtime.
//
// # Example
//
//	fn, ok := functions.Lookup("ceil")
//	if ok && fn.Arity == 1 {
//	    v, err := fn.Impl([]float64{4.3}) // 5
//	}
package functions

import (
	"sync"

	"github.com/sandrolain/goformula/pkg/types"
)

// Impl is the implementation of a built-in function. It receives exactly
// Arity arguments and must be pure.
type Impl func(args []float64) (float64, error)

// Builtin describes one built-in function.
type Builtin struct {
	// Name is the identifier used to call the function.
	Name string
	// Arity is the exact number of arguments.
	Arity int
	// Impl is the implementation.
	Impl Impl
	// Description is a one-line summary shown in palettes and help output.
	Description string
}

// declared lists the built-ins in palette order.
var declared = []Builtin{
	{Name: "ceil", Arity: 1, Impl: fnCeil, Description: "Round toward positive infinity"},
	{Name: "floor", Arity: 1, Impl: fnFloor, Description: "Round toward negative infinity"},
	{Name: "round", Arity: 1, Impl: fnRound, Description: "Round half away from zero"},
	{Name: "sqrt", Arity: 1, Impl: fnSqrt, Description: "Square root of a non-negative number"},
	{Name: "abs", Arity: 1, Impl: fnAbs, Description: "Absolute value"},
	{Name: "min", Arity: 2, Impl: fnMin, Description: "Lesser of two values"},
	{Name: "max", Arity: 2, Impl: fnMax, Description: "Greater of two values"},
}

var (
	builtins     map[string]Builtin
	builtinsOnce sync.Once
)

// initBuiltins initializes the lookup index.
func initBuiltins() {
	builtinsOnce.Do(func() {
		builtins = make(map[string]Builtin, len(declared))
		for _, b := range declared {
			builtins[b.Name] = b
		}
	})
}

// Lookup retrieves a built-in function by name. Names are case-sensitive.
func Lookup(name string) (Builtin, bool) {
	initBuiltins()
	fn, ok := builtins[name]
	return fn, ok
}

// Builtins returns all built-in functions in palette order.
// The returned slice is a copy; the registry itself can not be modified.
func Builtins() []Builtin {
	out := make([]Builtin, len(declared))
	copy(out, declared)
	return out
}

// Names returns the names of all built-in functions in palette order.
func Names() []string {
	names := make([]string, len(declared))
	for i, b := range declared {
		names[i] = b.Name
	}
	return names
}

// domainError reports an argument outside a function's domain. The evaluator
// fills in the position of the call.
func domainError(message string) error {
	return types.NewError(types.ErrOutOfDomain, message, -1)
}
