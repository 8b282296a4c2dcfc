package query

import (
	"errors"
	"testing"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullStatement(t *testing.T) {
	src := `
		FOR x, y, z IN 1..3 OUTBOUND 'persons/alice' knows, INBOUND @@other
		  OPTIONS {bfs: true, uniqueVertices: "global"}
		  FILTER z.vertices[1].age > @minAge AND x.name != "bob"
		  FILTER y.since IN [2020, 2021] // trailing comment
		  PRUNE x.stop == true
		  SORT x.age DESC, x.name
		  LIMIT 1, 10
		  RETURN {name: x.name, via: z.edges[0]._key}`

	stmt, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, Vars{Vertex: "x", Edge: "y", Path: "z"}, stmt.Vars)
	assert.Equal(t, traversal.DepthRange{Min: 1, Max: 3}, stmt.Depth)
	assert.Equal(t, graph.Outbound, stmt.Direction)
	assert.Equal(t, Value{Literal: "persons/alice"}, stmt.Start)
	assert.Nil(t, stmt.Graph)
	assert.Equal(t, []CollectionClause{
		{Name: "knows"},
		{Param: "other", Direction: graph.Inbound},
	}, stmt.Collections)
	assert.True(t, stmt.Options.BFS)
	assert.Equal(t, traversal.UniqueGlobal, stmt.Options.UniqueVertices)
	assert.Equal(t, traversal.UniquePath, stmt.Options.UniqueEdges)

	assert.Equal(t, []string{
		`p.vertices[1].age > params.minAge && v.name != "bob"`,
		`e.since in [2020, 2021]`,
	}, stmt.Filters)
	assert.Equal(t, `v.stop == true`, stmt.Prune)
	assert.Equal(t, []SortKey{{Expr: "v.age", Desc: true}, {Expr: "v.name"}}, stmt.Sort)
	assert.Equal(t, &Limit{Offset: 1, Count: 10}, stmt.Limit)
	assert.Equal(t, `{"name": v.name, "via": p.edges[0]._key}`, stmt.Return)
	assert.Equal(t, []string{"minAge"}, stmt.Params)
}

func TestParseDefaults(t *testing.T) {
	stmt, err := Parse(`for v in any "v/A" graph "social" return v`)
	require.NoError(t, err)

	assert.Equal(t, traversal.DepthRange{Min: 1, Max: 1}, stmt.Depth)
	assert.Equal(t, graph.Any, stmt.Direction)
	assert.Equal(t, &Value{Literal: "social"}, stmt.Graph)
	assert.False(t, stmt.Options.BFS)
	assert.Equal(t, traversal.UniqueNone, stmt.Options.UniqueVertices)
	assert.Equal(t, traversal.UniquePath, stmt.Options.UniqueEdges)
	assert.Equal(t, "v", stmt.Return)
	assert.Empty(t, stmt.Filters)
	assert.Nil(t, stmt.Limit)
}

func TestParseExactDepthAndObjectStart(t *testing.T) {
	stmt, err := Parse(`FOR v IN 2 OUTBOUND {_id: "v/A", extra: [1, -2.5, null]} e RETURN v._id`)
	require.NoError(t, err)
	assert.Equal(t, traversal.DepthRange{Min: 2, Max: 2}, stmt.Depth)
	assert.Equal(t, map[string]any{"_id": "v/A", "extra": []any{int64(1), -2.5, nil}}, stmt.Start.Literal)

	stmt, err = Parse(`FOR v IN 0..0 OUTBOUND [] e RETURN v`)
	require.NoError(t, err)
	assert.Equal(t, []any{}, stmt.Start.Literal)
}

func TestParsePruneBeforeOptions(t *testing.T) {
	stmt, err := Parse(`FOR v, e, p IN 1..5 OUTBOUND @start GRAPH @g PRUNE v.done OPTIONS {order: "bfs"} RETURN p`)
	require.NoError(t, err)
	assert.Equal(t, "v.done", stmt.Prune)
	assert.True(t, stmt.Options.BFS)
	assert.Equal(t, []string{"g", "start"}, stmt.Params)
}

func TestParseKeywordsAsAttributes(t *testing.T) {
	stmt, err := Parse(`FOR v IN OUTBOUND "v/A" e FILTER v.filter == 'it\'s' RETURN v.return`)
	require.NoError(t, err)
	assert.Equal(t, []string{`v.filter == "it's"`}, stmt.Filters)
	assert.Equal(t, "v.return", stmt.Return)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "float depth", src: `FOR v IN 2.5 OUTBOUND "v/A" e RETURN v`},
		{name: "float max depth", src: `FOR v IN 1..2.5 OUTBOUND "v/A" e RETURN v`},
		{name: "string depth", src: `FOR v IN "invalid" OUTBOUND "v/A" e RETURN v`},
		{name: "subquery depth", src: `FOR v IN (FOR x IN 1..1 OUTBOUND "v/A" e RETURN 1) OUTBOUND "v/A" e RETURN v`},
		{name: "negative depth", src: `FOR v IN -1 OUTBOUND "v/A" e RETURN v`},
		{name: "min above max", src: `FOR v IN 3..1 OUTBOUND "v/A" e RETURN v`},
		{name: "two directions", src: `FOR v IN 1 OUTBOUND ANY "v/A" e RETURN v`},
		{name: "two directions on collection", src: `FOR v IN 1 OUTBOUND "v/A" INBOUND ANY e RETURN v`},
		{name: "no direction", src: `FOR v IN 1 "v/A" e RETURN v`},
		{name: "no collections", src: `FOR v IN 1 OUTBOUND "v/A" RETURN v`},
		{name: "missing start", src: `FOR v IN 1 OUTBOUND GRAPH "g" RETURN v`},
		{name: "identifier start", src: `FOR v IN 1 OUTBOUND start e RETURN v`},
		{name: "null start", src: `FOR v IN 1 OUTBOUND null e RETURN v`},
		{name: "number start", src: `FOR v IN 1 OUTBOUND 42 e RETURN v`},
		{name: "four variables", src: `FOR a, b, c, d IN 1 OUTBOUND "v/A" e RETURN a`},
		{name: "duplicate variable", src: `FOR a, a IN 1 OUTBOUND "v/A" e RETURN a`},
		{name: "missing return", src: `FOR v IN 1 OUTBOUND "v/A" e FILTER v.x`},
		{name: "empty filter", src: `FOR v IN 1 OUTBOUND "v/A" e FILTER RETURN v`},
		{name: "trailing tokens", src: `FOR v IN 1 OUTBOUND "v/A" e RETURN v LIMIT 1`},
		{name: "filter after limit", src: `FOR v IN 1 OUTBOUND "v/A" e LIMIT 1 FILTER v.x RETURN v`},
		{name: "unknown option", src: `FOR v IN 1 OUTBOUND "v/A" e OPTIONS {fast: true} RETURN v`},
		{name: "bad uniqueness", src: `FOR v IN 1 OUTBOUND "v/A" e OPTIONS {uniqueEdges: "sometimes"} RETURN v`},
		{name: "undeclared v", src: `FOR x IN 1 OUTBOUND "v/A" e RETURN v`},
		{name: "collection param in expression", src: `FOR v IN 1 OUTBOUND "v/A" e FILTER v.c == @@col RETURN v`},
		{name: "unterminated string", src: `FOR v IN 1 OUTBOUND "v/A e RETURN v`},
		{name: "unbalanced", src: `FOR v IN 1 OUTBOUND "v/A" e FILTER (v.x RETURN v`},
		{name: "bad character", src: `FOR v IN 1 OUTBOUND "v/A" e RETURN v#`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Positive(t, pe.Line)
			assert.Positive(t, pe.Column)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("FOR v IN\n  2.5 OUTBOUND 'v/A' e RETURN v")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 3, pe.Column)
	assert.Contains(t, pe.Error(), "integer")
}

func TestTraversalOptions(t *testing.T) {
	stmt, err := Parse(`FOR v IN 1..2 OUTBOUND {_id: @id} e, INBOUND @@other FILTER v.x > @min OPTIONS {directions: ["outbound", "any"]} RETURN v`)
	require.Error(t, err, "OPTIONS must come before FILTER")

	stmt, err = Parse(`FOR v IN 1..2 OUTBOUND {_id: @id} e, INBOUND @@other OPTIONS {directions: ["outbound", "any"]} FILTER v.x > @min RETURN v`)
	require.NoError(t, err)

	opts, err := stmt.TraversalOptions(map[string]any{"id": "v/A", "@other": "e2", "min": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_id": "v/A"}, opts.Start)
	assert.Equal(t, traversal.DepthRange{Min: 1, Max: 2}, opts.Depth)
	assert.Equal(t, []graph.Direction{graph.Outbound, graph.Any}, opts.Directions)
	assert.Equal(t, []traversal.CollectionRef{{Name: "e"}, {Name: "e2", Direction: graph.Inbound}}, opts.Source.Collections)
	assert.Equal(t, traversal.UniquePath, opts.UniqueEdges)

	_, err = stmt.TraversalOptions(map[string]any{"id": "v/A", "@other": "e2"})
	assert.ErrorIs(t, err, ErrBindParameter)
	_, err = stmt.TraversalOptions(map[string]any{"id": "v/A", "min": 1})
	assert.ErrorIs(t, err, ErrBindParameter)
	_, err = stmt.TraversalOptions(map[string]any{"id": "v/A", "min": 1, "@other": 7})
	assert.ErrorIs(t, err, ErrBindParameter)
}

func TestTraversalOptionsStartParam(t *testing.T) {
	stmt, err := Parse(`FOR v IN OUTBOUND @start GRAPH @g RETURN v`)
	require.NoError(t, err)

	opts, err := stmt.TraversalOptions(map[string]any{"start": nil, "g": "social"})
	require.NoError(t, err)
	assert.Nil(t, opts.Start)
	assert.Equal(t, "social", opts.Source.Graph)

	_, err = stmt.TraversalOptions(map[string]any{"start": "v/A", "g": 1})
	assert.ErrorIs(t, err, ErrBindParameter)
}
