package traversal

import (
	"context"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// bfsNode is a frontier path, stored as a parent chain so siblings share
// their prefix.
type bfsNode struct {
	parent   *bfsNode
	edge     graph.Document
	edgeID   string
	vertexID string
	depth    int
	pruned   bool
	rejected bool
}

func (n *bfsNode) markPruned() { n.pruned = true }

func (n *bfsNode) onPath(vertexID string) bool {
	for p := n; p != nil; p = p.parent {
		if p.vertexID == vertexID {
			return true
		}
	}
	return false
}

func (n *bfsNode) edgeOnPath(edgeID string) bool {
	for p := n; p != nil && p.parent != nil; p = p.parent {
		if p.edgeID == edgeID {
			return true
		}
	}
	return false
}

// loadInto rebuilds the path state from the chain.
func (n *bfsNode) loadInto(s *pathState) {
	chain := make([]*bfsNode, n.depth+1)
	for p := n; p != nil; p = p.parent {
		chain[p.depth] = p
	}
	s.reset(chain[0].vertexID)
	for _, p := range chain[1:] {
		s.push(p.edge, p.vertexID)
	}
}

type bfsState struct {
	queue   []*bfsNode
	current *bfsNode
	cursor  EdgeCursor
}

func (e *Enumerator) nextBFS(ctx context.Context) (*Result, error) {
	for {
		switch e.state {
		case Done:
			return nil, nil

		case AtStart:
			e.state = Descending
			e.bfs = &bfsState{}
			e.unique.recordVertex(e.start, globalOnly(e.opts.UniqueVertices))
			root := &bfsNode{vertexID: e.start}
			root.loadInto(e.path)
			if !e.accept(ctx, 0) {
				if e.pruneOnReject {
					e.stats.Filtered++
					e.state = Done
					continue
				}
				root.rejected = true
			}
			r := e.visit(ctx, &root.pruned, root.rejected)
			if e.opts.Depth.Max > 0 {
				e.bfs.queue = append(e.bfs.queue, root)
			}
			if r != nil {
				e.last = root
				return r, nil
			}

		case Descending, Backtracking:
			b := e.bfs
			if b.cursor == nil {
				if len(b.queue) == 0 {
					e.state = Done
					continue
				}
				n := b.queue[0]
				b.queue[0] = nil
				b.queue = b.queue[1:]
				if n.pruned {
					continue
				}
				b.current = n
				b.cursor = e.adapter.hopCursor(e.hopSpecs(n.depth+1), n.vertexID)
			}

			cand, ok, err := b.cursor.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				b.cursor.Close()
				b.cursor = nil
				b.current = nil
				continue
			}
			if r := e.expand(ctx, b, cand); r != nil {
				return r, nil
			}
		}
	}
}

func (e *Enumerator) expand(ctx context.Context, b *bfsState, cand Candidate) *Result {
	parent := b.current
	edgeID := cand.Edge.ID()

	if e.opts.UniqueEdges == UniquePath && parent.edgeOnPath(edgeID) {
		return nil
	}
	if e.opts.UniqueVertices == UniquePath && parent.onPath(cand.Neighbor) {
		return nil
	}
	if !e.unique.checkAndRecordHop(edgeID, cand.Neighbor, globalOnly(e.opts.UniqueEdges), globalOnly(e.opts.UniqueVertices)) {
		return nil
	}

	child := &bfsNode{
		parent:   parent,
		edge:     cand.Edge,
		edgeID:   edgeID,
		vertexID: cand.Neighbor,
		depth:    parent.depth + 1,
		rejected: parent.rejected,
	}
	child.loadInto(e.path)

	if !child.rejected && !e.accept(ctx, child.depth) {
		if e.pruneOnReject {
			e.stats.Filtered++
			return nil
		}
		child.rejected = true
	}
	r := e.visit(ctx, &child.pruned, child.rejected)
	if child.depth < e.opts.Depth.Max {
		b.queue = append(b.queue, child)
	}
	if r != nil {
		e.last = child
	}
	return r
}

// globalOnly maps path scope to none; breadth-first checks path scope by
// walking the chain instead of the tracker.
func globalOnly(u Uniqueness) Uniqueness {
	if u == UniqueGlobal {
		return UniqueGlobal
	}
	return UniqueNone
}
