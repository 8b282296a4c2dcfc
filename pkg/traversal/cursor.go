package traversal

import (
	"context"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// Candidate is an edge leaving the current vertex and the vertex id on its
// other end. The neighbor may not exist.
type Candidate struct {
	Edge     graph.Document
	Neighbor string
	Spec     graph.EdgeCollectionSpec
}

// EdgeCursor is a pull iterator over candidates.
type EdgeCursor interface {
	Next(ctx context.Context) (Candidate, bool, error)
	Close() error
}

// indexCursor reads one edge collection through its _from or _to index,
// or both for ANY. Storage errors end the cursor; only context errors are
// returned.
type indexCursor struct {
	adapter *Adapter
	vertex  string
	spec    graph.EdgeCollectionSpec
	dirs    []graph.Direction
	pos     int
	it      graph.EdgeIterator
}

func (c *indexCursor) Next(ctx context.Context) (Candidate, bool, error) {
	for c.pos < len(c.dirs) {
		if err := ctx.Err(); err != nil {
			return Candidate{}, false, err
		}
		dir := c.dirs[c.pos]
		if c.it == nil {
			it, err := c.adapter.snap.Edges(ctx, c.spec.Collection, dir, c.vertex)
			if err != nil {
				if ctx.Err() != nil {
					return Candidate{}, false, ctx.Err()
				}
				c.adapter.fetchFailed(c.vertex, err)
				c.pos++
				continue
			}
			c.it = it
		}

		edge, ok, err := c.it.Next()
		if err != nil || !ok {
			if err != nil {
				if ctx.Err() != nil {
					return Candidate{}, false, ctx.Err()
				}
				c.adapter.fetchFailed(c.vertex, err)
			}
			c.it.Close()
			c.it = nil
			c.pos++
			continue
		}
		c.adapter.stats.ScannedIndex++

		// ANY sees a self-loop through both indexes; keep the outbound one.
		if c.spec.Direction == graph.Any && dir == graph.Inbound && edge.From() == c.vertex {
			continue
		}
		return Candidate{
			Edge:     edge,
			Neighbor: graph.Neighbor(edge, c.vertex, dir),
			Spec:     c.spec,
		}, true, nil
	}
	return Candidate{}, false, nil
}

func (c *indexCursor) Close() error {
	c.pos = len(c.dirs)
	if c.it != nil {
		err := c.it.Close()
		c.it = nil
		return err
	}
	return nil
}

type concatCursor struct {
	cursors []EdgeCursor
	pos     int
}

func (c *concatCursor) Next(ctx context.Context) (Candidate, bool, error) {
	for c.pos < len(c.cursors) {
		cand, ok, err := c.cursors[c.pos].Next(ctx)
		if err != nil {
			return Candidate{}, false, err
		}
		if ok {
			return cand, true, nil
		}
		c.cursors[c.pos].Close()
		c.pos++
	}
	return Candidate{}, false, nil
}

func (c *concatCursor) Close() error {
	var first error
	for ; c.pos < len(c.cursors); c.pos++ {
		if err := c.cursors[c.pos].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
