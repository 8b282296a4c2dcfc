package traversal

import (
	"fmt"
	"sort"
)

// ElementKind tells whether a predicate's deepest reference is a vertex or
// an edge of the path.
type ElementKind uint8

const (
	VertexElement ElementKind = iota
	EdgeElement
)

// PruningPredicate is a condition on a path prefix. It reads path elements
// up to p.Vertices[Index] or p.Edges[Index] and must give the same answer on
// the prefix as on any extension of it.
type PruningPredicate struct {
	Kind  ElementKind
	Index int
	// Needs lists the vertex positions Eval reads. Only these are fetched.
	Needs []int
	Eval  func(p *Path) (bool, error)
	// Label is a printable form of the condition.
	Label string
}

// Depth is the path depth at which the predicate becomes evaluable.
func (p PruningPredicate) Depth() int {
	if p.Kind == EdgeElement {
		return p.Index + 1
	}
	return p.Index
}

func (p PruningPredicate) String() string {
	kind := "vertices"
	if p.Kind == EdgeElement {
		kind = "edges"
	}
	return fmt.Sprintf("p.%s[%d]: %s", kind, p.Index, p.Label)
}

// groupByDepth buckets predicates by Depth and returns the deepest depth.
func groupByDepth(preds []PruningPredicate) (map[int][]PruningPredicate, int) {
	out := make(map[int][]PruningPredicate)
	deepest := 0
	for _, p := range preds {
		d := p.Depth()
		out[d] = append(out[d], p)
		if d > deepest {
			deepest = d
		}
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	}
	return out, deepest
}
