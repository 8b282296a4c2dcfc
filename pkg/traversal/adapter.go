package traversal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/golang/groupcache/lru"
)

// Adapter is the traversal's view of the store for one invocation: it
// resolves collections, fetches vertices through a small LRU cache and
// opens edge cursors. It counts every store read in stats.
type Adapter struct {
	store  graph.Store
	snap   graph.Snapshot
	cache  *lru.Cache
	stats  *Stats
	logger *slog.Logger

	onFetchError func(id string, err error)
}

// NewAdapter wraps an open snapshot. cacheSize <= 0 disables the cache.
func NewAdapter(store graph.Store, snap graph.Snapshot, cacheSize int, stats *Stats, logger *slog.Logger) *Adapter {
	a := &Adapter{
		store:  store,
		snap:   snap,
		stats:  stats,
		logger: logger,
	}
	if cacheSize > 0 {
		a.cache = lru.New(cacheSize)
	}
	if a.stats == nil {
		a.stats = &Stats{}
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// ResolveCollections turns a graph name or a collection list into edge
// collection specs, using dir wherever a collection has no override.
// Collections listed twice with the same effective direction are merged.
func (a *Adapter) ResolveCollections(src CollectionSource, dir graph.Direction) ([]graph.EdgeCollectionSpec, error) {
	refs := src.Collections
	if src.Graph != "" {
		def, err := a.store.Graph(src.Graph)
		if err != nil {
			return nil, err
		}
		if len(def.EdgeDefinitions) == 0 {
			return nil, fmt.Errorf("%w: %s", graph.ErrEmptyGraph, src.Graph)
		}
		refs = make([]CollectionRef, 0, len(def.EdgeDefinitions))
		for _, name := range def.EdgeCollections() {
			refs = append(refs, CollectionRef{Name: name})
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no edge collections", ErrInvalidOptions)
	}

	specs := make([]graph.EdgeCollectionSpec, 0, len(refs))
	seen := make(map[string]graph.Direction, len(refs))
	for _, ref := range refs {
		typ, ok := a.store.CollectionType(ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrCollectionNotFound, ref.Name)
		}
		if typ != graph.EdgeCollection {
			return nil, fmt.Errorf("%w: %s is not an edge collection", graph.ErrCollectionTypeInvalid, ref.Name)
		}
		eff := ref.Direction
		if eff == graph.DirectionDefault {
			eff = dir
		}
		if prev, dup := seen[ref.Name]; dup {
			if prev != eff {
				return nil, fmt.Errorf("%w: %s listed with directions %s and %s", graph.ErrCollectionTypeInvalid, ref.Name, prev, eff)
			}
			continue
		}
		seen[ref.Name] = eff
		specs = append(specs, graph.EdgeCollectionSpec{Collection: ref.Name, Direction: eff})
	}
	return specs, nil
}

// FetchVertex returns the vertex document, or nil when it does not exist or
// cannot be read. It never fails.
func (a *Adapter) FetchVertex(ctx context.Context, id string) graph.Document {
	if a.cache != nil {
		if v, ok := a.cache.Get(id); ok {
			return v.(graph.Document)
		}
	}
	a.stats.ScannedIndex++
	doc, err := a.snap.Document(ctx, id)
	if err != nil {
		a.fetchFailed(id, err)
		doc = nil
	}
	if a.cache != nil && err == nil {
		a.cache.Add(id, doc)
	}
	return doc
}

// EdgesFrom opens a lazy cursor over the edges of vertex for one spec.
func (a *Adapter) EdgesFrom(vertex string, spec graph.EdgeCollectionSpec) EdgeCursor {
	dirs := []graph.Direction{spec.Direction}
	if spec.Direction == graph.Any {
		dirs = []graph.Direction{graph.Outbound, graph.Inbound}
	}
	return &indexCursor{adapter: a, vertex: vertex, spec: spec, dirs: dirs}
}

// hopCursor concatenates the cursors of all specs of one hop in declared
// order.
func (a *Adapter) hopCursor(specs []graph.EdgeCollectionSpec, vertex string) EdgeCursor {
	if len(specs) == 1 {
		return a.EdgesFrom(vertex, specs[0])
	}
	cursors := make([]EdgeCursor, len(specs))
	for i, spec := range specs {
		cursors[i] = a.EdgesFrom(vertex, spec)
	}
	return &concatCursor{cursors: cursors}
}

func (a *Adapter) fetchFailed(id string, err error) {
	a.logger.Warn("document fetch failed", "id", id, "error", err)
	if a.onFetchError != nil {
		a.onFetchError(id, err)
	}
}
