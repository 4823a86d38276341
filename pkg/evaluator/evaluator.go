package evaluator

// Package evaluator implements the formula evaluation engine.
//
// The evaluator receives a parsed Abstract Syntax Tree (AST) from the parser
// and evaluates it against a table of variable bindings. It supports:
//   - Arithmetic, comparison and logical operators over typed values
//   - Calls to the fixed built-in function registry
//   - Structured errors carrying the offset of the failing node
//
// Evaluation is sandboxed: the only inputs are the AST and the bindings,
// and the only callable code is the registry in package functions.
//
// # Example
//
//	ev := evaluator.New()
//	v, err := ev.Eval(ctx, expr, types.Bindings{"width": 4, "height": 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator holds no mutable state and may be shared by any number of
// goroutines.

import (
	"context"
	"log/slog"

	"github.com/sandrolain/goformula/pkg/types"
)

// Evaluator evaluates compiled formulas against bindings.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Debug enables debug logging of evaluation failures.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	var options EvalOptions
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Evaluator{
		opts:   options,
		logger: options.Logger,
	}
}

// Eval evaluates an expression against bindings.
//
// bindings is only read. Evaluating the same expression with the same
// bindings always yields the same value or the same error.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, bindings types.Bindings) (types.Value, error) {
	if expr == nil || expr.AST() == nil {
		return types.Value{}, types.NewError(types.ErrInternal, "invalid expression", -1)
	}
	return e.EvalAST(ctx, expr.AST(), bindings)
}

// EvalAST evaluates a bare AST, such as the result of parser.ParseTokens.
func (e *Evaluator) EvalAST(ctx context.Context, node *types.ASTNode, bindings types.Bindings) (types.Value, error) {
	if node == nil {
		return types.Value{}, types.NewError(types.ErrInternal, "invalid expression", -1)
	}
	if err := ctx.Err(); err != nil {
		return types.Value{}, err
	}

	v, err := e.evalNode(node, bindings)
	if err != nil {
		if e.opts.Debug {
			if fe, ok := types.AsError(err); ok {
				e.logger.DebugContext(ctx, "formula evaluation failed",
					slog.String("code", string(fe.Code)),
					slog.Int("position", fe.Position),
					slog.String("message", fe.Message))
			}
		}
		return types.Value{}, err
	}
	return v, nil
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}
