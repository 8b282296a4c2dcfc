package traversal

import (
	"context"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// Path is a materialized traversal path. len(Vertices) == len(Edges)+1 and
// Vertices[0] is the start vertex. Missing vertices are nil.
type Path struct {
	Vertices []graph.Document `json:"vertices"`
	Edges    []graph.Document `json:"edges"`
}

// Depth is the number of edges in the path.
func (p *Path) Depth() int { return len(p.Edges) }

// Result is one produced traversal state. Edge is nil at depth 0.
type Result struct {
	Vertex graph.Document `json:"vertex"`
	Edge   graph.Document `json:"edge"`
	Path   *Path          `json:"path"`
}

// pathState is the current path as flat stacks. Vertex documents are only
// fetched when asked for.
type pathState struct {
	ids    []string
	docs   []graph.Document
	loaded []bool
	edges  []graph.Document
}

func newPathState(capacity int) *pathState {
	return &pathState{
		ids:    make([]string, 0, capacity+1),
		docs:   make([]graph.Document, 0, capacity+1),
		loaded: make([]bool, 0, capacity+1),
		edges:  make([]graph.Document, 0, capacity),
	}
}

func (s *pathState) reset(start string) {
	s.ids = append(s.ids[:0], start)
	s.docs = append(s.docs[:0], nil)
	s.loaded = append(s.loaded[:0], false)
	s.edges = s.edges[:0]
}

func (s *pathState) push(edge graph.Document, vertexID string) {
	s.edges = append(s.edges, edge)
	s.ids = append(s.ids, vertexID)
	s.docs = append(s.docs, nil)
	s.loaded = append(s.loaded, false)
}

func (s *pathState) pop() {
	if len(s.edges) == 0 {
		return
	}
	n := len(s.ids) - 1
	s.docs[n] = nil
	s.ids = s.ids[:n]
	s.docs = s.docs[:n]
	s.loaded = s.loaded[:n]
	s.edges[n-1] = nil
	s.edges = s.edges[:n-1]
}

func (s *pathState) depth() int { return len(s.edges) }

func (s *pathState) tip() string { return s.ids[len(s.ids)-1] }

func (s *pathState) edgeAt(i int) graph.Document { return s.edges[i] }

func (s *pathState) vertexAt(ctx context.Context, i int, a *Adapter) graph.Document {
	if !s.loaded[i] {
		s.docs[i] = a.FetchVertex(ctx, s.ids[i])
		s.loaded[i] = true
	}
	return s.docs[i]
}

// partial builds a Path in which only the vertices at needs are fetched.
func (s *pathState) partial(ctx context.Context, needs []int, a *Adapter) *Path {
	p := &Path{
		Vertices: make([]graph.Document, len(s.ids)),
		Edges:    append([]graph.Document(nil), s.edges...),
	}
	for _, i := range needs {
		if i < len(s.ids) {
			p.Vertices[i] = s.vertexAt(ctx, i, a)
		}
	}
	return p
}

// materialize fetches every vertex and copies the path out.
func (s *pathState) materialize(ctx context.Context, a *Adapter) *Result {
	p := &Path{
		Vertices: make([]graph.Document, len(s.ids)),
		Edges:    append([]graph.Document(nil), s.edges...),
	}
	for i := range s.ids {
		p.Vertices[i] = s.vertexAt(ctx, i, a)
	}
	r := &Result{Vertex: p.Vertices[len(p.Vertices)-1], Path: p}
	if n := len(p.Edges); n > 0 {
		r.Edge = p.Edges[n-1]
	}
	return r
}
