// Package traversal enumerates paths through a graph.Store: depth-first or
// breadth-first, with vertex and edge uniqueness and early pruning by
// path-prefix predicates.
package traversal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// DefaultCacheSize is the number of vertex documents cached per traversal.
const DefaultCacheSize = 1024

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid traversal options")

// Uniqueness is the scope in which a vertex or edge may not repeat.
type Uniqueness uint8

const (
	UniqueNone Uniqueness = iota
	UniquePath
	UniqueGlobal
)

func (u Uniqueness) String() string {
	switch u {
	case UniquePath:
		return "path"
	case UniqueGlobal:
		return "global"
	default:
		return "none"
	}
}

// ParseUniqueness accepts "none", "path" and "global".
func ParseUniqueness(s string) (Uniqueness, error) {
	switch strings.ToLower(s) {
	case "none":
		return UniqueNone, nil
	case "path":
		return UniquePath, nil
	case "global":
		return UniqueGlobal, nil
	}
	return UniqueNone, fmt.Errorf("%w: unknown uniqueness %q", ErrInvalidOptions, s)
}

// DepthRange bounds the number of edges in a yielded path.
type DepthRange struct {
	Min int
	Max int
}

func (r DepthRange) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

// CollectionRef names an edge collection, optionally overriding the
// traversal direction for it.
type CollectionRef struct {
	Name      string
	Direction graph.Direction
}

// CollectionSource is either a named graph or an explicit collection list.
type CollectionSource struct {
	Graph       string
	Collections []CollectionRef
}

// Options configures one traversal invocation.
type Options struct {
	// Start is a vertex id, a document carrying _id, or any other value,
	// which yields no results and a warning.
	Start any

	Source CollectionSource

	// Directions holds one direction for all hops or one per hop.
	Directions []graph.Direction

	Depth          DepthRange
	UniqueVertices Uniqueness
	UniqueEdges    Uniqueness
	BFS            bool

	// Pruning predicates are evaluated as soon as the path reaches their
	// depth.
	Pruning []PruningPredicate

	// PruneFunc stops descent below paths for which it returns true. The
	// path itself is still produced.
	PruneFunc func(*Result) bool

	CacheSize int

	// KeepGlobalOnReset carries global uniqueness state across Reset.
	KeepGlobalOnReset bool
}

// DefaultOptions returns a one-hop outbound traversal with path-unique
// edges.
func DefaultOptions() Options {
	return Options{
		Directions:     []graph.Direction{graph.Outbound},
		Depth:          DepthRange{Min: 1, Max: 1},
		UniqueVertices: UniqueNone,
		UniqueEdges:    UniquePath,
		CacheSize:      DefaultCacheSize,
	}
}

// Validate checks structural constraints that do not need the store.
func (o *Options) Validate() error {
	if o.Depth.Min < 0 || o.Depth.Max < 0 {
		return fmt.Errorf("%w: negative depth %s", ErrInvalidOptions, o.Depth)
	}
	if o.Depth.Min > o.Depth.Max {
		return fmt.Errorf("%w: min depth %d greater than max depth %d", ErrInvalidOptions, o.Depth.Min, o.Depth.Max)
	}
	if len(o.Directions) == 0 {
		return fmt.Errorf("%w: no direction", ErrInvalidOptions)
	}
	if len(o.Directions) != 1 && len(o.Directions) != o.Depth.Max {
		return fmt.Errorf("%w: %d directions given for max depth %d", ErrInvalidOptions, len(o.Directions), o.Depth.Max)
	}
	for _, d := range o.Directions {
		if d == graph.DirectionDefault {
			return fmt.Errorf("%w: hop direction must be outbound, inbound or any", ErrInvalidOptions)
		}
	}
	if o.Source.Graph == "" && len(o.Source.Collections) == 0 {
		return fmt.Errorf("%w: no graph or edge collections", ErrInvalidOptions)
	}
	if o.Source.Graph != "" && len(o.Source.Collections) > 0 {
		return fmt.Errorf("%w: graph and edge collections are mutually exclusive", ErrInvalidOptions)
	}
	if o.UniqueVertices > UniqueGlobal || o.UniqueEdges > UniqueGlobal {
		return fmt.Errorf("%w: unknown uniqueness", ErrInvalidOptions)
	}
	return nil
}

func (o *Options) usesGlobal() bool {
	return o.UniqueVertices == UniqueGlobal || o.UniqueEdges == UniqueGlobal
}
