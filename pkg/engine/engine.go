package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/config"
	"github.com/DrSkyle/graphwalk/pkg/expr"
	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/metrics"
	"github.com/DrSkyle/graphwalk/pkg/telemetry"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"github.com/DrSkyle/graphwalk/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInternal is returned when a query panics.
var ErrInternal = errors.New("internal error")

// Engine runs traversal statements against one store.
type Engine struct {
	Store   graph.Store
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *metrics.Metrics

	env      *expr.Env
	config   config.Config
	shutdown telemetry.Shutdown
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, store graph.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("engine needs a store")
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	e := &Engine{
		Store:  store,
		Logger: slog.New(handler),
		Tracer: otel.Tracer("graphwalk/engine"),
		config: config.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	env, err := expr.NewEnv()
	if err != nil {
		return nil, err
	}
	e.env = env

	if e.Metrics == nil {
		e.Metrics = metrics.New(e.config.Metrics.Namespace)
	}

	if e.config.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.Telemetry.Endpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdown = shutdown
			e.Tracer = telemetry.Tracer("graphwalk/engine")
		}
	}

	return e, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithConfig sets raw config.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithMetrics shares a metrics registry between engines.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.Metrics = m
	}
}

// WithOptimizer toggles filter pushdown for all queries.
func WithOptimizer(on bool) Option {
	return func(e *Engine) {
		e.config.Traversal.Optimizer = on
	}
}

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	err := e.shutdown(ctx)
	e.shutdown = nil
	return err
}

// Traverse starts a traversal with explicit options. The caller owns the
// returned enumerator and must Close it.
func (e *Engine) Traverse(ctx context.Context, opts traversal.Options) (*traversal.Enumerator, error) {
	if opts.CacheSize == 0 {
		opts.CacheSize = e.config.Traversal.CacheSize
	}
	return traversal.New(ctx, e.Store, opts, traversal.WithLogger(e.Logger))
}

// ShortestPath finds the shortest path between two vertices.
func (e *Engine) ShortestPath(ctx context.Context, req traversal.ShortestPathOptions) (res *traversal.ShortestPathResult, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.ShortestPath")
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	t := newTimer()
	if req.CacheSize == 0 {
		req.CacheSize = e.config.Traversal.CacheSize
	}
	res, err = traversal.ShortestPath(ctx, e.Store, req, e.Logger)
	var stats traversal.Stats
	if res != nil {
		stats = res.Stats
		span.SetAttributes(
			attribute.Bool("path.found", res.Path != nil),
			attribute.Float64("path.weight", res.Weight),
		)
	}
	e.observe(span, "shortest", stats, t, err)
	return res, err
}

func (e *Engine) observe(span trace.Span, kind string, stats traversal.Stats, t timer, err error) {
	e.Metrics.ObserveTraversal(kind, stats.ScannedIndex, stats.Filtered, t.seconds(), err)
	span.SetAttributes(
		attribute.Int64("stats.scanned_index", stats.ScannedIndex),
		attribute.Int64("stats.filtered", stats.Filtered),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// recoverPanic turns a panic into ErrInternal.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		if err != nil {
			*err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"password": true, "access_key": true, "token": true,
		"secret": true, "api_key": true, "session_token": true,
		"secret_access_key": true, "credential": true,
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
