package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DrSkyle/graphwalk/pkg/expr"
	"github.com/DrSkyle/graphwalk/pkg/query"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QueryOptions tune one query.
type QueryOptions struct {
	// DisableOptimizer keeps every FILTER as a post filter.
	DisableOptimizer bool
}

type timer struct{ start time.Time }

func newTimer() timer { return timer{start: time.Now()} }

func (t timer) seconds() float64 { return time.Since(t.start).Seconds() }

// compiled is a statement with its expressions compiled and its filters
// planned.
type compiled struct {
	stmt   *query.Statement
	opts   traversal.Options
	params map[string]any
	plan   *expr.Plan
	prune  *expr.Expr
	sort   []*expr.Expr
	ret    *expr.Expr
}

func (e *Engine) compile(text string, bind map[string]any, qo QueryOptions) (*compiled, error) {
	stmt, err := query.Parse(text)
	if err != nil {
		return nil, err
	}
	opts, err := stmt.TraversalOptions(bind)
	if err != nil {
		return nil, err
	}
	opts.CacheSize = e.config.Traversal.CacheSize

	c := &compiled{stmt: stmt, opts: opts, params: valueParams(bind)}

	filters := make([]*expr.Expr, 0, len(stmt.Filters))
	for _, src := range stmt.Filters {
		x, err := e.env.Compile(src)
		if err != nil {
			return nil, err
		}
		filters = append(filters, x)
	}
	if stmt.Prune != "" {
		if c.prune, err = e.env.Compile(stmt.Prune); err != nil {
			return nil, err
		}
	}
	for _, k := range stmt.Sort {
		x, err := e.env.Compile(k.Expr)
		if err != nil {
			return nil, err
		}
		c.sort = append(c.sort, x)
	}
	if c.ret, err = e.env.Compile(stmt.Return); err != nil {
		return nil, err
	}

	optimize := e.config.Traversal.Optimizer && !qo.DisableOptimizer
	c.plan = e.env.Plan(filters, c.params, optimize)
	c.opts.Pruning = c.plan.Pruning
	if c.prune != nil {
		prune, params := c.prune, c.params
		c.opts.PruneFunc = func(r *traversal.Result) bool {
			ok, err := prune.Match(expr.ForResult(r, params))
			return err == nil && ok
		}
	}
	return c, nil
}

// valueParams drops the collection parameters, whose keys start with @.
func valueParams(bind map[string]any) map[string]any {
	out := make(map[string]any, len(bind))
	for k, v := range bind {
		if !strings.HasPrefix(k, "@") {
			out[k] = v
		}
	}
	return out
}

// Query parses and starts a statement. Results are pulled from the cursor,
// which must be closed.
func (e *Engine) Query(ctx context.Context, text string, bind map[string]any, qo QueryOptions) (cur *Cursor, err error) {
	t := newTimer()
	ctx, span := e.Tracer.Start(ctx, "Engine.Query")
	defer func() {
		if err != nil {
			e.observe(span, "query", traversal.Stats{}, t, err)
			span.End()
		}
	}()
	defer e.recoverPanic(ctx, &err)

	c, err := e.compile(text, bind, qo)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("query.depth", c.opts.Depth.String()),
		attribute.Bool("query.bfs", c.opts.BFS),
		attribute.Int("query.pushed", c.plan.Pushed()),
		attribute.Int("query.post_filters", len(c.plan.Post)),
	)
	e.Logger.Debug("query planned",
		"depth", c.opts.Depth.String(),
		"pushed", c.plan.Pushed(),
		"post", len(c.plan.Post),
		"params", len(c.params),
	)

	enum, err := e.Traverse(ctx, c.opts)
	if err != nil {
		return nil, err
	}
	e.Metrics.Pushed.Add(float64(c.plan.Pushed()))

	cur = &Cursor{
		engine: e,
		enum:   enum,
		c:      c,
		span:   span,
		timer:  t,
		kind:   "dfs",
		limit:  -1,
	}
	if c.opts.BFS {
		cur.kind = "bfs"
	}
	if l := c.stmt.Limit; l != nil {
		cur.limit = l.Count
		cur.offset = l.Offset
	}
	if len(c.sort) == 0 && len(c.plan.Post) == 0 && cur.offset > 0 {
		if _, err := enum.Skip(ctx, cur.offset); err != nil {
			enum.Close()
			return nil, err
		}
		cur.offset = 0
	}
	return cur, nil
}

// Cursor streams the results of one query. It is not safe for concurrent
// use.
type Cursor struct {
	engine *Engine
	enum   *traversal.Enumerator
	c      *compiled
	span   trace.Span
	timer  timer
	kind   string

	offset  int
	limit   int // -1 means unlimited
	emitted int

	sorted   []any
	isSorted bool

	filtered int64
	closed   bool
	err      error
}

// Next returns the next projected result. ok is false once the cursor is
// exhausted, after which the cursor is closed.
func (c *Cursor) Next(ctx context.Context) (any, bool, error) {
	if c.closed {
		return nil, false, c.err
	}
	if len(c.c.sort) > 0 {
		return c.nextSorted(ctx)
	}
	for c.limit < 0 || c.emitted < c.limit {
		r, err := c.enum.Next(ctx)
		if err != nil {
			c.fail(err)
			return nil, false, err
		}
		if r == nil {
			break
		}
		if !c.pass(r) {
			continue
		}
		if c.offset > 0 {
			c.offset--
			continue
		}
		c.emitted++
		return c.project(r), true, nil
	}
	c.Close()
	return nil, false, nil
}

func (c *Cursor) nextSorted(ctx context.Context) (any, bool, error) {
	if !c.isSorted {
		if err := c.sortAll(ctx); err != nil {
			c.fail(err)
			return nil, false, err
		}
	}
	if len(c.sorted) == 0 {
		c.Close()
		return nil, false, nil
	}
	v := c.sorted[0]
	c.sorted = c.sorted[1:]
	c.emitted++
	return v, true, nil
}

type sortRow struct {
	keys  []any
	value any
}

func (c *Cursor) sortAll(ctx context.Context) error {
	var rows []sortRow
	for {
		r, err := c.enum.Next(ctx)
		if err != nil {
			return err
		}
		if r == nil {
			break
		}
		if !c.pass(r) {
			continue
		}
		a := expr.ForResult(r, c.c.params)
		keys := make([]any, len(c.c.sort))
		for i, x := range c.c.sort {
			keys[i] = evalOrNull(x, a)
		}
		rows = append(rows, sortRow{keys: keys, value: c.project(r)})
	}

	order := c.c.stmt.Sort
	sort.SliceStable(rows, func(i, j int) bool {
		for k := range order {
			cmp := Compare(rows[i].keys[k], rows[j].keys[k])
			if cmp == 0 {
				continue
			}
			if order[k].Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	if c.offset >= len(rows) {
		rows = nil
	} else {
		rows = rows[c.offset:]
	}
	if c.limit >= 0 && c.limit < len(rows) {
		rows = rows[:c.limit]
	}
	c.sorted = make([]any, len(rows))
	for i, row := range rows {
		c.sorted[i] = row.value
	}
	c.isSorted = true
	return nil
}

// pass applies the post filters. Evaluation errors reject the result.
func (c *Cursor) pass(r *traversal.Result) bool {
	if len(c.c.plan.Post) == 0 {
		return true
	}
	a := expr.ForResult(r, c.c.params)
	for _, f := range c.c.plan.Post {
		ok, err := f.Match(a)
		if err != nil || !ok {
			c.filtered++
			return false
		}
	}
	return true
}

func (c *Cursor) project(r *traversal.Result) any {
	return evalOrNull(c.c.ret, expr.ForResult(r, c.c.params))
}

// evalOrNull yields null where an expression reads a missing attribute or
// fails otherwise.
func evalOrNull(x *expr.Expr, a expr.Activation) any {
	v, err := x.Eval(a)
	if err != nil {
		return nil
	}
	return v
}

// All drains the cursor.
func (c *Cursor) All(ctx context.Context) ([]any, error) {
	out := []any{}
	for {
		v, ok, err := c.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Stats returns the traversal counters plus rejections by post filters.
func (c *Cursor) Stats() traversal.Stats {
	s := c.enum.Stats()
	s.Filtered += c.filtered
	return s
}

// Warnings returns the warnings raised so far.
func (c *Cursor) Warnings() []traversal.Warning { return c.enum.Warnings() }

func (c *Cursor) fail(err error) {
	c.err = err
	c.Close()
}

// Close releases the traversal. It is safe to call twice.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.enum.Close()
	c.span.SetAttributes(attribute.Int("query.results", c.emitted))
	c.engine.observe(c.span, c.kind, c.Stats(), c.timer, c.err)
	c.span.End()
	if err != nil {
		return fmt.Errorf("failed to close traversal: %w", err)
	}
	return nil
}
