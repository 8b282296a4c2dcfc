// Package memstore is an in-memory graph.Store. Documents and edge indexes
// live in copy-on-write B-trees so snapshots are cheap.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/sys/intern"
	"github.com/google/uuid"
	"github.com/tidwall/btree"
)

type docItem struct {
	key string
	doc graph.Document
}

func docItemLess(a, b docItem) bool { return a.key < b.key }

// edgeItem is an entry of a _from or _to index. seq keeps insertion order
// among the edges of one vertex.
type edgeItem struct {
	vertex uint32
	seq    uint64
	key    string
}

func edgeItemLess(a, b edgeItem) bool {
	if a.vertex != b.vertex {
		return a.vertex < b.vertex
	}
	return a.seq < b.seq
}

type collection struct {
	name string
	typ  graph.CollectionType
	docs *btree.BTreeG[docItem]
	from *btree.BTreeG[edgeItem]
	to   *btree.BTreeG[edgeItem]
}

func newCollection(name string, typ graph.CollectionType) *collection {
	c := &collection{
		name: name,
		typ:  typ,
		docs: btree.NewBTreeG[docItem](docItemLess),
	}
	if typ == graph.EdgeCollection {
		c.from = btree.NewBTreeG[edgeItem](edgeItemLess)
		c.to = btree.NewBTreeG[edgeItem](edgeItemLess)
	}
	return c
}

func (c *collection) copy() *collection {
	out := &collection{name: c.name, typ: c.typ, docs: c.docs.Copy()}
	if c.from != nil {
		out.from = c.from.Copy()
		out.to = c.to.Copy()
	}
	return out
}

// Store is an in-memory document store with edge indexes.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	graphs      map[string]graph.GraphDefinition
	vertices    *intern.Pool
	seq         uint64
}

var _ graph.MutableStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]*collection),
		graphs:      make(map[string]graph.GraphDefinition),
		vertices:    intern.NewPool(1024),
	}
}

// CreateCollection creates a collection. Creating an existing collection
// with the same type is a no-op.
func (s *Store) CreateCollection(name string, typ graph.CollectionType) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.typ != typ {
			return fmt.Errorf("%w: %s already exists as %s collection", graph.ErrCollectionTypeInvalid, name, c.typ)
		}
		return nil
	}
	s.collections[name] = newCollection(name, typ)
	return nil
}

// Insert stores a copy of doc and returns its id. A missing _key is
// generated.
func (s *Store) Insert(name string, doc graph.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", graph.ErrCollectionNotFound, name)
	}

	doc = doc.Clone()
	if doc == nil {
		doc = graph.Document{}
	}
	key := doc.Key()
	if key == "" {
		key = uuid.NewString()
	}
	id := graph.MakeID(name, key)
	doc[graph.AttrKey] = key
	doc[graph.AttrID] = id

	if _, exists := c.docs.Get(docItem{key: key}); exists {
		return "", fmt.Errorf("%w: %s", graph.ErrDocumentExists, id)
	}

	if c.typ == graph.EdgeCollection {
		from, to := doc.From(), doc.To()
		if _, _, err := graph.ParseID(from); err != nil {
			return "", fmt.Errorf("%w: %s: %v", graph.ErrInvalidEdge, id, err)
		}
		if _, _, err := graph.ParseID(to); err != nil {
			return "", fmt.Errorf("%w: %s: %v", graph.ErrInvalidEdge, id, err)
		}
		s.seq++
		c.from.Set(edgeItem{vertex: s.vertices.Intern(from), seq: s.seq, key: key})
		c.to.Set(edgeItem{vertex: s.vertices.Intern(to), seq: s.seq, key: key})
	}

	c.docs.Set(docItem{key: key, doc: doc})
	return id, nil
}

// DefineGraph registers a named graph after validating it.
func (s *Store) DefineGraph(def graph.GraphDefinition) error {
	if err := def.Validate(s.CollectionType); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[def.Name] = def
	return nil
}

// CollectionType implements graph.Store.
func (s *Store) CollectionType(name string) (graph.CollectionType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, false
	}
	return c.typ, true
}

// Graph implements graph.Store.
func (s *Store) Graph(name string) (*graph.GraphDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrGraphNotFound, name)
	}
	return &def, nil
}

// Collections lists collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of documents in a collection.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return c.docs.Len()
	}
	return 0
}

// Snapshot implements graph.Store. Later writes are not visible to it.
func (s *Store) Snapshot(ctx context.Context) (graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := make(map[string]*collection, len(s.collections))
	for name, c := range s.collections {
		cols[name] = c.copy()
	}
	return &snapshot{collections: cols, vertices: s.vertices}, nil
}
