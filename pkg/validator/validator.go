// Package validator runs the full formula pipeline for a formula editor.
//
// Validate tokenizes, parses and evaluates a formula against bindings and
// folds the outcome into a Result: a valid flag, at most one problem with an
// optional source offset, and the computed preview value. An empty formula is
// reported as untouched rather than broken, so an editor can tell the two
// apart.
//
// # Example
//
//	svc := validator.New()
//	res := svc.Validate(ctx, "ceil(width * height / coverage) * unitCost", types.Bindings{
//	    "width": 4, "height": 2.5, "coverage": 3, "unitCost": 12.5,
//	})
//	if res.Valid {
//	    fmt.Println(res.Preview) // 50
//	}
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandrolain/goformula/pkg/cache"
	"github.com/sandrolain/goformula/pkg/evaluator"
	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

// Problem describes why a formula is not valid.
type Problem struct {
	Code    types.ErrorCode `json:"code"`
	Kind    types.Kind      `json:"kind"`
	Message string          `json:"message"`
	// Offset is the byte offset in the formula the problem points at, when
	// there is one.
	Offset *int `json:"offset,omitempty"`
}

// Result is the outcome of one validation.
type Result struct {
	Valid   bool         `json:"valid"`
	Error   *Problem     `json:"error,omitempty"`
	Preview *types.Value `json:"preview,omitempty"`
}

// Empty reports whether the result is the "no formula entered yet" state.
func (r Result) Empty() bool {
	return !r.Valid && r.Error == nil
}

// Service validates formulas. It is safe for concurrent use.
type Service struct {
	opts   Options
	cache  *cache.Cache
	eval   *evaluator.Evaluator
	logger *slog.Logger
}

// Options configures a Service.
type Options struct {
	// CacheSize bounds the compiled-formula cache. Zero selects
	// cache.DefaultCapacity; a negative value disables caching.
	CacheSize int
	// MaxDepth is passed to the parser. Zero selects parser.DefaultMaxDepth.
	MaxDepth int
	// MaxHeight bounds the expression tree height, operator chains
	// included. Zero selects parser.DefaultMaxHeight.
	MaxHeight int
	// Logger for structured logging.
	Logger *slog.Logger
	// Debug enables debug logging of cache activity and failures.
	Debug bool
}

// Option configures a Service.
type Option func(*Options)

// WithCacheSize sets the compiled-formula cache capacity. A negative size
// disables caching.
func WithCacheSize(size int) Option {
	return func(o *Options) {
		o.CacheSize = size
	}
}

// WithMaxDepth sets the parser nesting limit.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithMaxHeight sets the parser limit on expression tree height.
func WithMaxHeight(height int) Option {
	return func(o *Options) {
		o.MaxHeight = height
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) Option {
	return func(o *Options) {
		o.Debug = enabled
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = parser.DefaultMaxDepth
	}
	if options.MaxHeight <= 0 {
		options.MaxHeight = parser.DefaultMaxHeight
	}

	var c *cache.Cache
	if options.CacheSize >= 0 {
		c = cache.New(options.CacheSize)
	}

	return &Service{
		opts:  options,
		cache: c,
		eval: evaluator.New(
			evaluator.WithLogger(options.Logger),
			evaluator.WithDebug(options.Debug),
		),
		logger: options.Logger,
	}
}

// Cache returns the compiled-formula cache, or nil if caching is disabled.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Compile tokenizes and parses formula, using the cache when enabled.
func (s *Service) Compile(formula string) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		return parser.Compile(formula,
			parser.WithMaxDepth(s.opts.MaxDepth),
			parser.WithMaxHeight(s.opts.MaxHeight))
	}
	if s.cache == nil {
		return compile()
	}
	expr, hit, err := s.cache.GetOrCompile(formula, compile)
	if s.opts.Debug {
		s.logger.Debug("formula compile", slog.Bool("cache_hit", hit), slog.Bool("ok", err == nil))
	}
	return expr, err
}

// Validate runs tokenize, parse and evaluate on formula and reports the
// first failure, or the computed preview.
//
// An empty or whitespace-only formula yields a Result with Valid false and
// neither Error nor Preview set.
func (s *Service) Validate(ctx context.Context, formula string, bindings types.Bindings) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "formula validation panicked", slog.Any("panic", r))
			res = Result{Error: &Problem{
				Code:    types.ErrInternal,
				Kind:    types.ErrInternal.Kind(),
				Message: fmt.Sprintf("internal error: %v", r),
			}}
		}
	}()

	if strings.TrimSpace(formula) == "" {
		return Result{}
	}

	expr, err := s.Compile(formula)
	if err != nil {
		return failed(err)
	}

	v, err := s.eval.Eval(ctx, expr, bindings)
	if err != nil {
		return failed(err)
	}
	return Result{Valid: true, Preview: &v}
}

// failed converts an error from any stage into a Result.
func failed(err error) Result {
	return Result{Error: ProblemFrom(err)}
}

// ProblemFrom converts an error into a Problem. Errors that are not
// *types.Error, such as a cancelled context, become internal problems
// without an offset.
func ProblemFrom(err error) *Problem {
	fe, ok := types.AsError(err)
	if !ok {
		return &Problem{
			Code:    types.ErrInternal,
			Kind:    types.ErrInternal.Kind(),
			Message: err.Error(),
		}
	}
	p := &Problem{
		Code:    fe.Code,
		Kind:    fe.Kind(),
		Message: fe.Message,
	}
	if fe.Position >= 0 {
		offset := fe.Position
		p.Offset = &offset
	}
	return p
}
