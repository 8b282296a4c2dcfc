package traversal

import (
	"context"
	"errors"
	"testing"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/graph/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s->a->b->c->a, a->d
func cyclicGraph(t *testing.T) graph.MutableStore {
	return buildGraph(t, "s a b c d", "s->a", "a->b", "b->c", "c->a", "a->d")
}

func TestDepthZeroYieldsStart(t *testing.T) {
	s := buildGraph(t, "A B", "A->B")
	ctx := context.Background()

	for _, bfs := range []bool{false, true} {
		o := opts("v/A", 0, 0)
		o.BFS = bfs
		e, err := New(ctx, s, o)
		require.NoError(t, err)

		r, err := e.Next(ctx)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "v/A", r.Vertex.ID())
		assert.Nil(t, r.Edge)
		assert.Len(t, r.Path.Vertices, 1)
		assert.Empty(t, r.Path.Edges)

		r, err = e.Next(ctx)
		require.NoError(t, err)
		assert.Nil(t, r)
		require.NoError(t, e.Close())
	}
}

func TestExactDepth(t *testing.T) {
	s := buildGraph(t, "A B C D", "A->B", "B->C", "C->D", "A->D")

	keys, _ := run(t, s, opts("v/A", 2, 2))
	assert.Equal(t, []string{"C"}, keys)

	keys, _ = run(t, s, opts("v/A", 1, 3))
	assert.Equal(t, []string{"B", "C", "D", "D"}, keys)
}

func TestUniquenessPolicies(t *testing.T) {
	s := cyclicGraph(t)

	tests := []struct {
		name     string
		vertices Uniqueness
		edges    Uniqueness
		want     []string
	}{
		{name: "edges path", vertices: UniqueNone, edges: UniquePath, want: []string{"a", "b", "c", "a", "d", "d"}},
		{name: "edges global", vertices: UniqueNone, edges: UniqueGlobal, want: []string{"a", "b", "c", "a", "d"}},
		{name: "edges none", vertices: UniqueNone, edges: UniqueNone, want: []string{"a", "b", "c", "a", "b", "c", "a", "b", "c", "a", "d", "d", "d"}},
		{name: "vertices path", vertices: UniquePath, edges: UniquePath, want: []string{"a", "b", "c", "d"}},
		{name: "vertices global", vertices: UniqueGlobal, edges: UniquePath, want: []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts("v/s", 1, 10)
			o.UniqueVertices = tt.vertices
			o.UniqueEdges = tt.edges
			keys, _ := run(t, s, o)
			assert.ElementsMatch(t, tt.want, keys)
			assert.Len(t, keys, len(tt.want))
		})
	}
}

func TestUniquenessOrder(t *testing.T) {
	s := cyclicGraph(t)
	ctx := context.Background()

	e, err := New(ctx, s, opts("v/s", 1, 10))
	require.NoError(t, err)
	defer e.Close()

	var paths []string
	for {
		r, err := e.Next(ctx)
		require.NoError(t, err)
		if r == nil {
			break
		}
		paths = append(paths, pathKeys(r.Path))
	}
	assert.Equal(t, []string{
		"s,a",
		"s,a,b",
		"s,a,b,c",
		"s,a,b,c,a",
		"s,a,b,c,a,d",
		"s,a,d",
	}, paths)
}

func TestUniquenessSubsets(t *testing.T) {
	s := cyclicGraph(t)
	set := func(keys []string) map[string]bool {
		m := make(map[string]bool)
		for _, k := range keys {
			m[k] = true
		}
		return m
	}

	for _, bfs := range []bool{false, true} {
		var sets []map[string]bool
		for _, u := range []Uniqueness{UniqueGlobal, UniquePath, UniqueNone} {
			o := opts("v/s", 0, 6)
			o.BFS = bfs
			o.UniqueVertices = u
			o.UniqueEdges = u
			keys, _ := run(t, s, o)
			sets = append(sets, set(keys))
		}
		for i := 0; i+1 < len(sets); i++ {
			for k := range sets[i] {
				assert.True(t, sets[i+1][k], "bfs=%v: %s missing from wider policy", bfs, k)
			}
		}
	}
}

func TestEdgeNeverRepeatsInPath(t *testing.T) {
	s := cyclicGraph(t)
	ctx := context.Background()
	e, err := New(ctx, s, opts("v/s", 1, 10))
	require.NoError(t, err)
	defer e.Close()

	for {
		r, err := e.Next(ctx)
		require.NoError(t, err)
		if r == nil {
			break
		}
		seen := map[string]bool{}
		for _, edge := range r.Path.Edges {
			assert.False(t, seen[edge.ID()], "edge %s repeated", edge.ID())
			seen[edge.ID()] = true
		}
	}
}

func TestDanglingEdge(t *testing.T) {
	s := buildGraph(t, "A C", "A->X", "X->C")

	keys, _ := run(t, s, opts("v/A", 1, 1))
	assert.Equal(t, []string{"null"}, keys)

	// the missing vertex is passed through by id
	keys, _ = run(t, s, opts("v/A", 2, 2))
	assert.Equal(t, []string{"C"}, keys)

	s = buildGraph(t, "A", "A->X")
	keys, _ = run(t, s, opts("v/A", 2, 2))
	assert.Empty(t, keys)
}

func TestMultipleCollectionsAndOverrides(t *testing.T) {
	s := buildGraph(t, "A B C D", "A->B")
	require.NoError(t, s.CreateCollection("e2", graph.EdgeCollection))
	addEdges(t, s, "e2", "C->A", "A->D")

	o := opts("v/A", 1, 1)
	o.Source.Collections = []CollectionRef{{Name: "e"}, {Name: "e2", Direction: graph.Inbound}}
	keys, _ := run(t, s, o)
	assert.Equal(t, []string{"B", "C"}, keys)

	o.Source.Collections = []CollectionRef{{Name: "e2"}, {Name: "e"}}
	keys, _ = run(t, s, o)
	assert.Equal(t, []string{"D", "B"}, keys)

	// same collection twice with the same effective direction is merged
	o.Source.Collections = []CollectionRef{{Name: "e"}, {Name: "e", Direction: graph.Outbound}}
	keys, _ = run(t, s, o)
	assert.Equal(t, []string{"B"}, keys)
}

func TestAnyDirection(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "C->A", "A->A")

	o := opts("v/A", 1, 1)
	o.Directions = []graph.Direction{graph.Any}
	keys, _ := run(t, s, o)
	assert.Equal(t, []string{"B", "A", "C"}, keys)
}

func TestPerHopDirections(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "C->B")

	o := opts("v/A", 1, 2)
	o.Directions = []graph.Direction{graph.Outbound, graph.Inbound}
	keys, _ := run(t, s, o)
	assert.Equal(t, []string{"B", "C"}, keys)

	o.Directions = []graph.Direction{graph.Outbound, graph.Inbound, graph.Any}
	_, err := New(context.Background(), s, o)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestSetupErrors(t *testing.T) {
	s := buildGraph(t, "A", "A->A")
	require.NoError(t, s.DefineGraph(graph.GraphDefinition{Name: "empty"}))
	ctx := context.Background()

	tests := []struct {
		name string
		src  CollectionSource
		want error
	}{
		{name: "unknown graph", src: CollectionSource{Graph: "nope"}, want: graph.ErrGraphNotFound},
		{name: "empty graph", src: CollectionSource{Graph: "empty"}, want: graph.ErrEmptyGraph},
		{name: "document collection", src: CollectionSource{Collections: []CollectionRef{{Name: "v"}}}, want: graph.ErrCollectionTypeInvalid},
		{name: "conflicting directions", src: CollectionSource{Collections: []CollectionRef{{Name: "e"}, {Name: "e", Direction: graph.Inbound}}}, want: graph.ErrCollectionTypeInvalid},
		{name: "unknown collection", src: CollectionSource{Collections: []CollectionRef{{Name: "zz"}}}, want: graph.ErrCollectionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, max := range []int{0, 2} {
				o := opts("v/A", 0, max)
				o.Source = tt.src
				_, err := New(ctx, s, o)
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNamedGraph(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "B->C")
	require.NoError(t, s.DefineGraph(graph.GraphDefinition{
		Name:            "g",
		EdgeDefinitions: []graph.EdgeDefinition{{Collection: "e", From: []string{"v"}, To: []string{"v"}}},
	}))

	o := opts("v/A", 1, 2)
	o.Source = CollectionSource{Graph: "g"}
	keys, _ := run(t, s, o)
	assert.Equal(t, []string{"B", "C"}, keys)
}

func TestStartValues(t *testing.T) {
	s := buildGraph(t, "A B", "A->B")

	tests := []struct {
		name     string
		start    any
		want     []string
		warnCode WarningCode
	}{
		{name: "id", start: "v/A", want: []string{"B"}},
		{name: "object with id", start: map[string]any{"_id": "v/A"}, want: []string{"B"}},
		{name: "document", start: graph.Document{"_id": "v/A", "name": "A"}, want: []string{"B"}},
		{name: "object without id", start: map[string]any{"name": "A"}},
		{name: "malformed id", start: "A", warnCode: WarnInvalidStart},
		{name: "null", start: nil, warnCode: WarnInvalidStart},
		{name: "array", start: []any{"v/A"}, warnCode: WarnInvalidStart},
		{name: "number", start: 42, warnCode: WarnInvalidStart},
		{name: "missing document", start: "v/Z", warnCode: WarnStartNotFound},
		{name: "unknown collection", start: "nope/A", warnCode: WarnStartNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts("", 1, 1)
			o.Start = tt.start
			keys, e := run(t, s, o)
			assert.Equal(t, tt.want, keys)
			if tt.warnCode == 0 {
				assert.Empty(t, e.Warnings())
				return
			}
			require.Len(t, e.Warnings(), 1)
			assert.Equal(t, tt.warnCode, e.Warnings()[0].Code)
		})
	}
}

func TestStatsCounters(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "A->C", "B->C")

	_, e := run(t, s, opts("v/A", 1, 2))
	// start fetch, edges AB AC BC, vertices B C (A and C cached)
	assert.Equal(t, Stats{ScannedIndex: 6}, e.Stats())

	o := opts("v/A", 1, 2)
	o.CacheSize = -1
	_, e = run(t, s, o)
	assert.Equal(t, int64(0), e.Stats().ScannedFull)
	// three edges, start fetch, then A B C C read again by the first
	// materialization of each path
	assert.Equal(t, int64(8), e.Stats().ScannedIndex)
}

func namePredicate(kind ElementKind, index int, name string) PruningPredicate {
	return PruningPredicate{
		Kind:  kind,
		Index: index,
		Needs: []int{index},
		Eval: func(p *Path) (bool, error) {
			var doc graph.Document
			if kind == VertexElement {
				doc = p.Vertices[index]
			} else {
				doc = p.Edges[index]
			}
			if doc == nil {
				return false, errors.New("null element")
			}
			return doc["name"] == name || doc.Key() == name, nil
		},
	}
}

func TestPruningMatchesPostFiltering(t *testing.T) {
	s := buildGraph(t, "A B C D E F", "A->B", "A->C", "B->D", "B->E", "C->F", "D->F")

	pushed := opts("v/A", 1, 3)
	pushed.Pruning = []PruningPredicate{namePredicate(VertexElement, 1, "B")}
	got, pe := run(t, s, pushed)

	all, fe := run(t, s, opts("v/A", 1, 3))

	// post filter by hand: keep paths whose second vertex is B
	full, err := New(context.Background(), s, opts("v/A", 1, 3))
	require.NoError(t, err)
	defer full.Close()
	var want []string
	for {
		r, err := full.Next(context.Background())
		require.NoError(t, err)
		if r == nil {
			break
		}
		if r.Path.Vertices[1].Key() == "B" {
			want = append(want, r.Vertex.Key())
		}
	}

	assert.Equal(t, want, got)
	assert.Equal(t, []string{"B", "D", "F", "E"}, got)
	assert.Len(t, all, 6)
	assert.Less(t, pe.Stats().ScannedIndex, fe.Stats().ScannedIndex)
	// C rejected once
	assert.Equal(t, int64(1), pe.Stats().Filtered)
}

func TestPruningEdgePredicate(t *testing.T) {
	s := buildGraph(t, "A B C D", "A->B", "A->C", "C->D")

	o := opts("v/A", 1, 2)
	o.Pruning = []PruningPredicate{namePredicate(EdgeElement, 0, "AC")}
	keys, e := run(t, s, o)
	assert.Equal(t, []string{"C", "D"}, keys)
	assert.Equal(t, int64(1), e.Stats().Filtered)
}

func TestPruningDeeperThanPath(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "B->C")

	o := opts("v/A", 1, 2)
	o.Pruning = []PruningPredicate{namePredicate(VertexElement, 2, "C")}
	keys, e := run(t, s, o)
	assert.Equal(t, []string{"C"}, keys)
	// B is too short to satisfy a predicate on p.vertices[2]
	assert.Equal(t, int64(1), e.Stats().Filtered)
}

func TestPruningUnderGlobalUniqueness(t *testing.T) {
	// B is reachable through X first and through Y second
	s := buildGraph(t, "A B X Y", "A->X", "X->B", "A->Y", "Y->B")

	base := opts("v/A", 2, 2)
	base.UniqueVertices = UniqueGlobal
	want, _ := run(t, s, base)
	require.Equal(t, []string{"B"}, want)

	// Post filtering that single result by p.vertices[1] == "Y" leaves
	// nothing. Pushing the predicate down must not skip X's subtree, or B
	// would be claimed through Y instead.
	pushed := base
	pushed.Pruning = []PruningPredicate{namePredicate(VertexElement, 1, "Y")}
	got, e := run(t, s, pushed)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), e.Stats().Filtered)
}

func TestPruneFunc(t *testing.T) {
	s := buildGraph(t, "A B C D", "A->B", "B->C", "A->D")

	o := opts("v/A", 1, 3)
	o.PruneFunc = func(r *Result) bool { return r.Vertex.Key() == "B" }
	keys, _ := run(t, s, o)
	assert.Equal(t, []string{"B", "D"}, keys)
}

func TestPruneAndSkip(t *testing.T) {
	s := buildGraph(t, "A B C D", "A->B", "B->C", "A->D")
	ctx := context.Background()

	e, err := New(ctx, s, opts("v/A", 1, 3))
	require.NoError(t, err)
	defer e.Close()

	r, err := e.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", r.Vertex.Key())
	e.Prune()

	assert.True(t, e.HasMore())
	r, err = e.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "D", r.Vertex.Key())

	n, err := e.Skip(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, e.HasMore())
	assert.Equal(t, Done, e.State())

	e2, err := New(ctx, s, opts("v/A", 1, 3))
	require.NoError(t, err)
	defer e2.Close()
	n, err = e2.Skip(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	r, err = e2.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "D", r.Vertex.Key())
}

func TestResetAndDrainStats(t *testing.T) {
	s := buildGraph(t, "A B C", "A->B", "C->B")
	ctx := context.Background()

	o := opts("v/A", 1, 1)
	o.UniqueVertices = UniqueGlobal
	e, err := New(ctx, s, o)
	require.NoError(t, err)
	defer e.Close()

	r, err := e.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", r.Vertex.Key())

	first := e.DrainStats()
	assert.Positive(t, first.ScannedIndex)
	assert.Equal(t, Stats{}, e.Stats())

	require.NoError(t, e.Reset(ctx, "v/C"))
	r, err = e.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "B", r.Vertex.Key())

	o.KeepGlobalOnReset = true
	e2, err := New(ctx, s, o)
	require.NoError(t, err)
	defer e2.Close()
	_, err = e2.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, e2.Reset(ctx, "v/C"))
	r, err = e2.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, r, "B was already visited globally")

	require.NoError(t, e2.Reset(ctx, "bogus"))
	assert.Len(t, e2.Warnings(), 1)
	require.NoError(t, e2.Reset(ctx, "v/A"))
	assert.Empty(t, e2.Warnings())
}

func TestHugeMaxDepth(t *testing.T) {
	s := buildGraph(t, "A B", "A->B")

	keys, _ := run(t, s, opts("v/A", 1, 1<<40))
	assert.Equal(t, []string{"B"}, keys)

	o := opts("v/A", 0, 1<<40)
	o.BFS = true
	keys, _ = run(t, s, o)
	assert.Equal(t, []string{"A", "B"}, keys)
}

func TestCancellation(t *testing.T) {
	s := cyclicGraph(t)
	ctx, cancel := context.WithCancel(context.Background())

	o := opts("v/s", 1, 10)
	o.UniqueEdges = UniqueNone
	e, err := New(ctx, s, o)
	require.NoError(t, err)

	r, err := e.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, r)

	cancel()
	_, err = e.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, e.HasMore())

	r, err = e.Next(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, r)
	assert.NoError(t, e.Close())
}

func TestIdempotentRuns(t *testing.T) {
	s := cyclicGraph(t)
	o := opts("v/s", 0, 7)
	o.UniqueEdges = UniqueNone

	first, _ := run(t, s, o)
	second, _ := run(t, s, o)
	assert.Equal(t, first, second)
}

func TestFetchFailuresAreTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	snap := mocks.NewMockSnapshot(ctrl)

	store.EXPECT().Snapshot(gomock.Any()).Return(snap, nil)
	store.EXPECT().CollectionType("e").Return(graph.EdgeCollection, true).AnyTimes()
	store.EXPECT().CollectionType("v").Return(graph.DocumentCollection, true).AnyTimes()
	snap.EXPECT().Document(gomock.Any(), "v/A").Return(graph.Document{"_id": "v/A", "_key": "A"}, nil)
	snap.EXPECT().Edges(gomock.Any(), "e", graph.Outbound, "v/A").Return(
		graph.NewSliceIterator([]graph.Document{{"_id": "e/1", "_from": "v/A", "_to": "v/B"}}), nil)
	snap.EXPECT().Document(gomock.Any(), "v/B").Return(nil, errors.New("disk on fire"))
	snap.EXPECT().Close().Return(nil)

	keys, e := run(t, store, opts("v/A", 1, 1))
	assert.Equal(t, []string{"null"}, keys)
	require.Len(t, e.Warnings(), 1)
	assert.Equal(t, WarnFetchFailed, e.Warnings()[0].Code)
}

func TestEdgeIndexFailureEndsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	snap := mocks.NewMockSnapshot(ctrl)

	store.EXPECT().Snapshot(gomock.Any()).Return(snap, nil)
	store.EXPECT().CollectionType("e").Return(graph.EdgeCollection, true).AnyTimes()
	store.EXPECT().CollectionType("v").Return(graph.DocumentCollection, true).AnyTimes()
	snap.EXPECT().Document(gomock.Any(), "v/A").Return(graph.Document{"_id": "v/A", "_key": "A"}, nil)
	snap.EXPECT().Edges(gomock.Any(), "e", graph.Outbound, "v/A").Return(nil, errors.New("index corrupt"))
	snap.EXPECT().Close().Return(nil)

	keys, e := run(t, store, opts("v/A", 1, 1))
	assert.Empty(t, keys)
	assert.Len(t, e.Warnings(), 1)
}
