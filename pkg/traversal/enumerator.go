package traversal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// State is the enumerator's position in its state machine.
type State uint8

const (
	AtStart State = iota
	Descending
	Backtracking
	Done
)

func (s State) String() string {
	return [...]string{"AtStart", "Descending", "Backtracking", "Done"}[s]
}

const (
	maxFetchWarnings = 10
	// pathHint caps the initial path buffer; deeper paths grow it.
	pathHint = 16
)

// frame is one level of the depth-first stack: the cursor over the
// candidates leaving the path tip at that depth.
type frame struct {
	cursor EdgeCursor
	pruned bool
	// rejected frames failed a pruning predicate but are still descended
	// because global uniqueness must see the same visits either way.
	rejected bool
}

// Enumerator produces traversal results one at a time. It is not safe for
// concurrent use; independent enumerators share nothing.
type Enumerator struct {
	opts    Options
	snap    graph.Snapshot
	adapter *Adapter
	logger  *slog.Logger

	// hops holds the specs per entry of Options.Directions.
	hops [][]graph.EdgeCollectionSpec

	predicates    map[int][]PruningPredicate
	requiredDepth int
	// pruneOnReject is false under global uniqueness, where skipping a
	// subtree would change which vertices get recorded.
	pruneOnReject bool

	unique *uniquenessTracker
	path   *pathState
	stack  []*frame
	bfs    *bfsState
	last   interface{ markPruned() }

	state    State
	start    string
	stats    Stats
	warnings []Warning
	fetchErr int
	closed   bool
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enumerator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New validates opts, opens a snapshot and resolves the edge collections
// for every hop. Graph definition errors are returned here; problems with
// the start vertex become warnings.
func New(ctx context.Context, store graph.Store, opts Options, options ...Option) (*Enumerator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Enumerator{
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
		unique: newUniquenessTracker(),
		path:   newPathState(min(opts.Depth.Max, pathHint)),
	}
	for _, o := range options {
		o(e)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	e.snap = snap
	e.adapter = NewAdapter(store, snap, opts.CacheSize, &e.stats, e.logger)
	e.adapter.onFetchError = e.fetchFailed

	if err := e.resolveHops(); err != nil {
		snap.Close()
		return nil, err
	}

	e.predicates, e.requiredDepth = groupByDepth(opts.Pruning)
	e.pruneOnReject = !opts.usesGlobal()

	e.logger.Debug("traversal prepared",
		"depth", opts.Depth.String(),
		"bfs", opts.BFS,
		"uniqueVertices", opts.UniqueVertices.String(),
		"uniqueEdges", opts.UniqueEdges.String(),
		"pruning", len(opts.Pruning),
	)

	e.setStart(ctx, opts.Start)
	return e, nil
}

func (e *Enumerator) resolveHops() error {
	byDir := make(map[graph.Direction][]graph.EdgeCollectionSpec)
	e.hops = make([][]graph.EdgeCollectionSpec, len(e.opts.Directions))
	for i, dir := range e.opts.Directions {
		specs, ok := byDir[dir]
		if !ok {
			var err error
			specs, err = e.adapter.ResolveCollections(e.opts.Source, dir)
			if err != nil {
				return err
			}
			byDir[dir] = specs
		}
		e.hops[i] = specs
	}
	return nil
}

// hopSpecs returns the specs followed from depth d-1 to depth d.
func (e *Enumerator) hopSpecs(d int) []graph.EdgeCollectionSpec {
	if len(e.hops) == 1 {
		return e.hops[0]
	}
	return e.hops[d-1]
}

func (e *Enumerator) setStart(ctx context.Context, value any) {
	e.state = Done
	id, warn := NormalizeStart(value)
	if warn != nil {
		e.warn(*warn)
		return
	}
	if id == "" {
		return
	}
	col, _, _ := graph.ParseID(id)
	if _, ok := e.adapter.store.CollectionType(col); !ok {
		e.warn(Warning{Code: WarnStartNotFound, Message: fmt.Sprintf("collection %s of start vertex %s not found", col, id)})
		return
	}
	if e.adapter.FetchVertex(ctx, id) == nil {
		e.warn(Warning{Code: WarnStartNotFound, Message: fmt.Sprintf("start vertex %s not found", id)})
		return
	}
	e.start = id
	e.state = AtStart
}

func (e *Enumerator) warn(w Warning) {
	e.logger.Warn("traversal warning", "code", w.Code, "message", w.Message)
	e.warnings = append(e.warnings, w)
}

func (e *Enumerator) fetchFailed(id string, err error) {
	e.fetchErr++
	if e.fetchErr <= maxFetchWarnings {
		e.warnings = append(e.warnings, Warning{Code: WarnFetchFailed, Message: fmt.Sprintf("reading %s: %v", id, err)})
	}
}

// Next returns the next result, or nil when the traversal is exhausted.
// A non-nil error is a context error; the enumerator is closed then.
func (e *Enumerator) Next(ctx context.Context) (*Result, error) {
	if e.closed {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		e.Close()
		return nil, err
	}
	var (
		r   *Result
		err error
	)
	if e.opts.BFS {
		r, err = e.nextBFS(ctx)
	} else {
		r, err = e.nextDFS(ctx)
	}
	if err != nil {
		e.Close()
		return nil, err
	}
	return r, nil
}

func (e *Enumerator) nextDFS(ctx context.Context) (*Result, error) {
	for {
		switch e.state {
		case Done:
			return nil, nil

		case AtStart:
			e.state = Descending
			e.path.reset(e.start)
			e.unique.recordVertex(e.start, e.opts.UniqueVertices)
			root := &frame{}
			e.stack = append(e.stack[:0], root)
			if !e.accept(ctx, 0) {
				if e.pruneOnReject {
					e.stats.Filtered++
					e.state = Backtracking
					continue
				}
				root.rejected = true
			}
			if r := e.visit(ctx, &root.pruned, root.rejected); r != nil {
				e.last = root
				return r, nil
			}

		case Descending:
			top := e.stack[len(e.stack)-1]
			d := len(e.stack)
			if top.pruned || d > e.opts.Depth.Max {
				e.state = Backtracking
				continue
			}
			if top.cursor == nil {
				top.cursor = e.adapter.hopCursor(e.hopSpecs(d), e.path.tip())
			}
			cand, ok, err := top.cursor.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				e.state = Backtracking
				continue
			}
			if r := e.descend(ctx, top, cand); r != nil {
				return r, nil
			}

		case Backtracking:
			e.pop()
			if len(e.stack) == 0 {
				e.state = Done
			} else {
				e.state = Descending
			}
		}
	}
}

// descend tries to extend the path by cand. It returns a result if the new
// path is to be produced.
func (e *Enumerator) descend(ctx context.Context, parent *frame, cand Candidate) *Result {
	if !e.unique.checkAndRecordHop(cand.Edge.ID(), cand.Neighbor, e.opts.UniqueEdges, e.opts.UniqueVertices) {
		return nil
	}
	e.path.push(cand.Edge, cand.Neighbor)

	f := &frame{rejected: parent.rejected}
	e.stack = append(e.stack, f)

	if !f.rejected && !e.accept(ctx, e.path.depth()) {
		if e.pruneOnReject {
			e.stats.Filtered++
			e.pop()
			return nil
		}
		f.rejected = true
	}
	if r := e.visit(ctx, &f.pruned, f.rejected); r != nil {
		e.last = f
		return r
	}
	return nil
}

// visit runs the prune hook on the current path and decides whether the
// path is produced.
func (e *Enumerator) visit(ctx context.Context, pruned *bool, rejected bool) *Result {
	d := e.path.depth()
	inRange := d >= e.opts.Depth.Min && d <= e.opts.Depth.Max

	var r *Result
	if e.opts.PruneFunc != nil && d < e.opts.Depth.Max {
		r = e.path.materialize(ctx, e.adapter)
		if e.opts.PruneFunc(r) {
			*pruned = true
		}
	}
	if !inRange {
		return nil
	}
	if rejected || d < e.requiredDepth {
		e.stats.Filtered++
		return nil
	}
	if r == nil {
		r = e.path.materialize(ctx, e.adapter)
	}
	return r
}

// accept evaluates the pruning predicates that become evaluable at depth d.
// Evaluation errors count as rejection.
func (e *Enumerator) accept(ctx context.Context, d int) bool {
	for _, pred := range e.predicates[d] {
		ok, err := pred.Eval(e.path.partial(ctx, pred.Needs, e.adapter))
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (e *Enumerator) pop() {
	n := len(e.stack) - 1
	f := e.stack[n]
	if f.cursor != nil {
		f.cursor.Close()
		f.cursor = nil
	}
	e.stack[n] = nil
	e.stack = e.stack[:n]
	if n == 0 {
		return
	}
	e.unique.releaseVertex(e.path.tip(), e.opts.UniqueVertices)
	e.unique.releaseEdge(e.path.edgeAt(e.path.depth()-1).ID(), e.opts.UniqueEdges)
	e.path.pop()
}

func (f *frame) markPruned() { f.pruned = true }

// Prune stops the traversal from descending below the most recently
// produced path.
func (e *Enumerator) Prune() {
	if e.last != nil {
		e.last.markPruned()
	}
}

// Skip advances past up to n results and reports how many were skipped.
func (e *Enumerator) Skip(ctx context.Context, n int) (int, error) {
	skipped := 0
	for skipped < n {
		r, err := e.Next(ctx)
		if err != nil {
			return skipped, err
		}
		if r == nil {
			break
		}
		skipped++
	}
	return skipped, nil
}

// HasMore reports whether Next may still produce results.
func (e *Enumerator) HasMore() bool {
	return !e.closed && e.state != Done
}

// State returns the current state.
func (e *Enumerator) State() State { return e.state }

// Reset restarts the traversal from another start vertex, reusing the
// snapshot and resolved collections. Warnings start over; global
// uniqueness state is kept only when Options.KeepGlobalOnReset is set.
func (e *Enumerator) Reset(ctx context.Context, start any) error {
	if e.closed {
		return graph.ErrSnapshotClosed
	}
	e.closeCursors()
	e.stack = e.stack[:0]
	e.bfs = nil
	e.last = nil
	e.warnings = nil
	e.fetchErr = 0
	e.unique.resetPath()
	if !e.opts.KeepGlobalOnReset {
		e.unique.resetGlobal()
	}
	e.setStart(ctx, start)
	return nil
}

// Stats returns the counters so far.
func (e *Enumerator) Stats() Stats { return e.stats }

// DrainStats returns the counters and resets them to zero.
func (e *Enumerator) DrainStats() Stats {
	s := e.stats
	e.stats = Stats{}
	return s
}

// Warnings returns the warnings raised so far.
func (e *Enumerator) Warnings() []Warning { return e.warnings }

// Close releases all cursors and the snapshot. It is safe to call twice.
func (e *Enumerator) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.state = Done
	e.closeCursors()
	e.stack = nil
	return e.snap.Close()
}

func (e *Enumerator) closeCursors() {
	for _, f := range e.stack {
		if f != nil && f.cursor != nil {
			f.cursor.Close()
			f.cursor = nil
		}
	}
	if e.bfs != nil && e.bfs.cursor != nil {
		e.bfs.cursor.Close()
		e.bfs.cursor = nil
	}
}
