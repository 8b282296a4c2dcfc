package traversal

import (
	"context"
	"strings"
	"testing"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/graph/memstore"
	"github.com/stretchr/testify/require"
)

// buildGraph creates vertex collection "v" and edge collection "e". Edges
// are written "A->B" and get the key "AB".
func buildGraph(t *testing.T, vertices string, edges ...string) *memstore.Store {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.CreateCollection("v", graph.DocumentCollection))
	require.NoError(t, s.CreateCollection("e", graph.EdgeCollection))
	for _, k := range strings.Fields(vertices) {
		_, err := s.Insert("v", graph.Document{"_key": k, "name": k})
		require.NoError(t, err)
	}
	addEdges(t, s, "e", edges...)
	return s
}

func addEdges(t *testing.T, s *memstore.Store, col string, edges ...string) {
	t.Helper()
	for _, e := range edges {
		from, to, ok := strings.Cut(e, "->")
		require.True(t, ok, e)
		_, err := s.Insert(col, graph.Document{
			"_key":  from + to,
			"_from": "v/" + from,
			"_to":   "v/" + to,
		})
		require.NoError(t, err)
	}
}

func opts(start string, min, max int) Options {
	o := DefaultOptions()
	o.Start = start
	o.Depth = DepthRange{Min: min, Max: max}
	o.Source = CollectionSource{Collections: []CollectionRef{{Name: "e"}}}
	return o
}

// run drains a traversal and returns the keys of the produced vertices.
// Missing vertices show up as "null".
func run(t *testing.T, s graph.Store, o Options) ([]string, *Enumerator) {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, s, o)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	var keys []string
	for {
		r, err := e.Next(ctx)
		require.NoError(t, err)
		if r == nil {
			return keys, e
		}
		require.Equal(t, len(r.Path.Vertices), len(r.Path.Edges)+1)
		if r.Vertex == nil {
			keys = append(keys, "null")
		} else {
			keys = append(keys, r.Vertex.Key())
		}
	}
}

func pathKeys(p *Path) string {
	parts := make([]string, len(p.Vertices))
	for i, v := range p.Vertices {
		if v == nil {
			parts[i] = "null"
		} else {
			parts[i] = v.Key()
		}
	}
	return strings.Join(parts, ",")
}
