// Package query parses traversal statements:
//
//	FOR v[, e[, p]] IN [min[..max]] OUTBOUND|INBOUND|ANY start
//	    GRAPH name | [direction] collection, ...
//	    [OPTIONS {...}]
//	    FILTER cond ... [PRUNE cond] [SORT expr [ASC|DESC], ...]
//	    [LIMIT [offset,] count]
//	    RETURN expr
//
// Conditions and expressions are CEL. The statement's variable names are
// rewritten to v, e and p, AND/OR/NOT/IN to their CEL operators, and @name
// bind parameters to params.name.
package query

import (
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/traversal"
)

// Vars are the names the statement gives to vertex, edge and path. Unused
// positions are empty.
type Vars struct {
	Vertex string
	Edge   string
	Path   string
}

// Value is a literal or a bind parameter reference.
type Value struct {
	Literal any
	Param   string
}

// paramRef is a bind parameter inside an object or array literal.
type paramRef struct{ name string }

// CollectionClause is one entry of the collection list.
type CollectionClause struct {
	Name string
	// Param is set for @@name references.
	Param     string
	Direction graph.Direction
}

// SortKey is one SORT criterion.
type SortKey struct {
	Expr string
	Desc bool
}

// Limit is a LIMIT clause.
type Limit struct {
	Offset int
	Count  int
}

// Options are the values given in OPTIONS.
type Options struct {
	BFS            bool
	UniqueVertices traversal.Uniqueness
	UniqueEdges    traversal.Uniqueness
	// Directions optionally gives one direction per hop.
	Directions []graph.Direction
}

// Statement is a parsed traversal statement.
type Statement struct {
	Vars        Vars
	Depth       traversal.DepthRange
	Direction   graph.Direction
	Start       Value
	Graph       *Value
	Collections []CollectionClause
	Options     Options

	// Filters, Prune, Sort and Return hold CEL source.
	Filters []string
	Prune   string
	Sort    []SortKey
	Limit   *Limit
	Return  string

	// Params lists the value bind parameters the statement references.
	Params []string
}

// TraversalOptions resolves bind parameters and builds the options for
// one execution. Filters and PRUNE are not included.
func (s *Statement) TraversalOptions(bind map[string]any) (traversal.Options, error) {
	for _, name := range s.Params {
		if _, ok := bind[name]; !ok {
			return traversal.Options{}, fmt.Errorf("%w: @%s not given", ErrBindParameter, name)
		}
	}

	opts := traversal.DefaultOptions()
	opts.Depth = s.Depth
	opts.UniqueVertices = s.Options.UniqueVertices
	opts.UniqueEdges = s.Options.UniqueEdges
	opts.BFS = s.Options.BFS
	opts.Directions = []graph.Direction{s.Direction}
	if len(s.Options.Directions) > 0 {
		opts.Directions = s.Options.Directions
	}

	start, err := s.Start.resolve(bind)
	if err != nil {
		return traversal.Options{}, err
	}
	opts.Start = start

	if s.Graph != nil {
		name, err := s.Graph.resolve(bind)
		if err != nil {
			return traversal.Options{}, err
		}
		g, ok := name.(string)
		if !ok {
			return traversal.Options{}, fmt.Errorf("%w: graph name must be a string, got %T", ErrBindParameter, name)
		}
		opts.Source.Graph = g
		return opts, nil
	}

	for _, c := range s.Collections {
		name := c.Name
		if c.Param != "" {
			raw, ok := bind["@"+c.Param]
			if !ok {
				return traversal.Options{}, fmt.Errorf("%w: @@%s not given", ErrBindParameter, c.Param)
			}
			if name, ok = raw.(string); !ok {
				return traversal.Options{}, fmt.Errorf("%w: @@%s must be a collection name, got %T", ErrBindParameter, c.Param, raw)
			}
		}
		opts.Source.Collections = append(opts.Source.Collections, traversal.CollectionRef{Name: name, Direction: c.Direction})
	}
	return opts, nil
}

func (v Value) resolve(bind map[string]any) (any, error) {
	if v.Param != "" {
		val, ok := bind[v.Param]
		if !ok {
			return nil, fmt.Errorf("%w: @%s not given", ErrBindParameter, v.Param)
		}
		return val, nil
	}
	return resolveLiteral(v.Literal, bind)
}

func resolveLiteral(lit any, bind map[string]any) (any, error) {
	switch l := lit.(type) {
	case paramRef:
		val, ok := bind[l.name]
		if !ok {
			return nil, fmt.Errorf("%w: @%s not given", ErrBindParameter, l.name)
		}
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(l))
		for k, v := range l {
			r, err := resolveLiteral(v, bind)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(l))
		for i, v := range l {
			r, err := resolveLiteral(v, bind)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	return lit, nil
}
