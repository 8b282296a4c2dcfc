package engine

import (
	"context"
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
)

// Explanation describes how a statement would run.
type Explanation struct {
	Depth          string   `json:"depth"`
	Order          string   `json:"order"`
	UniqueVertices string   `json:"uniqueVertices"`
	UniqueEdges    string   `json:"uniqueEdges"`
	Directions     []string `json:"directions"`
	Graph          string   `json:"graph,omitempty"`
	Collections    []string `json:"collections,omitempty"`

	// Pushed are conditions evaluated while paths are built, keyed by the
	// path position that makes them evaluable.
	Pushed []PushedCondition `json:"pushed"`
	// Post are conditions evaluated on finished paths.
	Post   []string `json:"post"`
	Prune  string   `json:"prune,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Limit  string   `json:"limit,omitempty"`
	Return string   `json:"return"`
}

type PushedCondition struct {
	Position  string `json:"position"`
	Depth     int    `json:"depth"`
	Condition string `json:"condition"`
}

// Explain compiles and plans a statement without running it.
func (e *Engine) Explain(ctx context.Context, text string, bind map[string]any, qo QueryOptions) (*Explanation, error) {
	_, span := e.Tracer.Start(ctx, "Engine.Explain")
	defer span.End()

	c, err := e.compile(text, bind, qo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	x := &Explanation{
		Depth:          c.opts.Depth.String(),
		Order:          "dfs",
		UniqueVertices: c.opts.UniqueVertices.String(),
		UniqueEdges:    c.opts.UniqueEdges.String(),
		Graph:          c.opts.Source.Graph,
		Pushed:         []PushedCondition{},
		Post:           []string{},
		Return:         c.ret.String(),
	}
	if c.opts.BFS {
		x.Order = "bfs"
	}
	for _, d := range c.opts.Directions {
		x.Directions = append(x.Directions, d.String())
	}
	for _, col := range c.opts.Source.Collections {
		name := col.Name
		if col.Direction != graph.DirectionDefault {
			name = col.Direction.String() + " " + name
		}
		x.Collections = append(x.Collections, name)
	}
	for _, p := range c.plan.Pruning {
		x.Pushed = append(x.Pushed, PushedCondition{
			Position:  position(p),
			Depth:     p.Depth(),
			Condition: p.Label,
		})
	}
	for _, f := range c.plan.Post {
		x.Post = append(x.Post, f.String())
	}
	if c.prune != nil {
		x.Prune = c.prune.String()
	}
	for i, s := range c.sort {
		key := s.String()
		if c.stmt.Sort[i].Desc {
			key += " DESC"
		}
		x.Sort = append(x.Sort, key)
	}
	if l := c.stmt.Limit; l != nil {
		x.Limit = limitString(l.Offset, l.Count)
	}
	return x, nil
}

func position(p traversal.PruningPredicate) string {
	if p.Kind == traversal.EdgeElement {
		return fmt.Sprintf("p.edges[%d]", p.Index)
	}
	return fmt.Sprintf("p.vertices[%d]", p.Index)
}

func limitString(offset, count int) string {
	if offset == 0 {
		return fmt.Sprintf("%d", count)
	}
	return fmt.Sprintf("%d, %d", offset, count)
}
