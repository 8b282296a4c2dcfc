package traversal

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// ShortestPathOptions configures a shortest path search.
type ShortestPathOptions struct {
	From      any
	To        any
	Source    CollectionSource
	Direction graph.Direction

	// WeightAttribute selects an edge attribute as weight. Empty means
	// every edge weighs one and the search is breadth-first.
	WeightAttribute string
	// DefaultWeight applies when the attribute is missing or not numeric.
	DefaultWeight float64

	CacheSize int
}

// ShortestPathResult holds the found path, or a nil Path when To is not
// reachable from From.
type ShortestPathResult struct {
	Path     *Path     `json:"path"`
	Weight   float64   `json:"weight"`
	Stats    Stats     `json:"stats"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type hop struct {
	parent string
	edge   graph.Document
}

// ShortestPath finds a path with the fewest edges, or the lowest total
// weight when a weight attribute is set.
func ShortestPath(ctx context.Context, store graph.Store, opts ShortestPathOptions, logger *slog.Logger) (*ShortestPathResult, error) {
	if opts.Direction == graph.DirectionDefault {
		opts.Direction = graph.Outbound
	}
	if opts.DefaultWeight == 0 {
		opts.DefaultWeight = 1
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snap.Close()

	res := &ShortestPathResult{}
	a := NewAdapter(store, snap, opts.CacheSize, &res.Stats, logger)
	specs, err := a.ResolveCollections(opts.Source, opts.Direction)
	if err != nil {
		return nil, err
	}

	from, to := endpoint(ctx, a, opts.From, res), endpoint(ctx, a, opts.To, res)
	if from == "" || to == "" {
		return res, nil
	}

	var (
		parents map[string]hop
		weight  float64
		found   bool
	)
	if opts.WeightAttribute == "" {
		parents, found, err = bfsShortest(ctx, a, specs, from, to)
	} else {
		parents, weight, found, err = dijkstra(ctx, a, specs, from, to, opts.WeightAttribute, opts.DefaultWeight)
	}
	if err != nil || !found {
		return res, err
	}

	var ids []string
	var edges []graph.Document
	for v := to; v != from; v = parents[v].parent {
		ids = append(ids, v)
		edges = append(edges, parents[v].edge)
	}
	ids = append(ids, from)

	p := &Path{Vertices: make([]graph.Document, len(ids)), Edges: make([]graph.Document, len(edges))}
	for i := range ids {
		p.Vertices[i] = a.FetchVertex(ctx, ids[len(ids)-1-i])
	}
	for i := range edges {
		p.Edges[i] = edges[len(edges)-1-i]
	}
	res.Path = p
	res.Weight = weight
	if opts.WeightAttribute == "" {
		res.Weight = float64(len(edges))
	}
	return res, nil
}

func endpoint(ctx context.Context, a *Adapter, value any, res *ShortestPathResult) string {
	id, warn := NormalizeStart(value)
	if warn != nil {
		res.Warnings = append(res.Warnings, *warn)
		return ""
	}
	if id != "" && a.FetchVertex(ctx, id) == nil {
		res.Warnings = append(res.Warnings, Warning{Code: WarnStartNotFound, Message: fmt.Sprintf("vertex %s not found", id)})
		return ""
	}
	return id
}

func bfsShortest(ctx context.Context, a *Adapter, specs []graph.EdgeCollectionSpec, from, to string) (map[string]hop, bool, error) {
	parents := map[string]hop{from: {}}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			return parents, true, nil
		}

		cursor := a.hopCursor(specs, current)
		for {
			cand, ok, err := cursor.Next(ctx)
			if err != nil {
				cursor.Close()
				return nil, false, err
			}
			if !ok {
				break
			}
			if _, seen := parents[cand.Neighbor]; seen {
				continue
			}
			parents[cand.Neighbor] = hop{parent: current, edge: cand.Edge}
			queue = append(queue, cand.Neighbor)
		}
		cursor.Close()
	}
	return parents, false, nil
}

type distItem struct {
	vertex string
	dist   float64
	index  int
}

type distQueue []*distItem

func (q distQueue) Len() int           { return len(q) }
func (q distQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q distQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *distQueue) Push(x any) {
	item := x.(*distItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *distQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func dijkstra(ctx context.Context, a *Adapter, specs []graph.EdgeCollectionSpec, from, to, attr string, def float64) (map[string]hop, float64, bool, error) {
	parents := map[string]hop{from: {}}
	dist := map[string]float64{from: 0}
	done := make(map[string]bool)
	q := &distQueue{{vertex: from}}

	for q.Len() > 0 {
		item := heap.Pop(q).(*distItem)
		if done[item.vertex] {
			continue
		}
		done[item.vertex] = true
		if item.vertex == to {
			return parents, item.dist, true, nil
		}

		cursor := a.hopCursor(specs, item.vertex)
		for {
			cand, ok, err := cursor.Next(ctx)
			if err != nil {
				cursor.Close()
				return nil, 0, false, err
			}
			if !ok {
				break
			}
			w := edgeWeight(cand.Edge, attr, def)
			if w < 0 {
				cursor.Close()
				return nil, 0, false, fmt.Errorf("%w: negative weight on edge %s", ErrInvalidOptions, cand.Edge.ID())
			}
			nd := item.dist + w
			if old, seen := dist[cand.Neighbor]; seen && old <= nd {
				continue
			}
			dist[cand.Neighbor] = nd
			parents[cand.Neighbor] = hop{parent: item.vertex, edge: cand.Edge}
			heap.Push(q, &distItem{vertex: cand.Neighbor, dist: nd})
		}
		cursor.Close()
	}
	return parents, 0, false, nil
}

func edgeWeight(edge graph.Document, attr string, def float64) float64 {
	switch v := edge[attr].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
