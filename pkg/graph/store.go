package graph

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mocks/mock_graph.go -package=mocks github.com/DrSkyle/graphwalk/pkg/graph Store,Snapshot,EdgeIterator

var (
	ErrGraphNotFound         = errors.New("graph not found")
	ErrEmptyGraph            = errors.New("graph has no edge definitions")
	ErrCollectionNotFound    = errors.New("collection not found")
	ErrCollectionTypeInvalid = errors.New("invalid collection type")
	ErrDocumentExists        = errors.New("unique constraint violated")
	ErrInvalidEdge           = errors.New("edge requires _from and _to")
	ErrSnapshotClosed        = errors.New("snapshot closed")
)

// Store is the read side a traversal needs from the document store.
type Store interface {
	// Snapshot opens a consistent read view. The caller must Close it.
	Snapshot(ctx context.Context) (Snapshot, error)
	// CollectionType reports the type of a collection, if it exists.
	CollectionType(name string) (CollectionType, bool)
	// Graph returns a named graph definition or ErrGraphNotFound.
	Graph(name string) (*GraphDefinition, error)
}

// Snapshot reads documents and edge indexes at one point in time.
type Snapshot interface {
	// Document returns nil, nil when the document does not exist.
	Document(ctx context.Context, id string) (Document, error)
	// Edges iterates the edges of collection attached to vertex, following
	// the _from index for Outbound and the _to index for Inbound. Any is
	// resolved by the caller.
	Edges(ctx context.Context, collection string, dir Direction, vertex string) (EdgeIterator, error)
	Close() error
}

// EdgeIterator yields edges in index order.
type EdgeIterator interface {
	Next() (Document, bool, error)
	Close() error
}

// Writer is implemented by stores that can be populated.
type Writer interface {
	CreateCollection(name string, typ CollectionType) error
	Insert(collection string, doc Document) (string, error)
	DefineGraph(def GraphDefinition) error
}

// MutableStore is a Store that can be loaded.
type MutableStore interface {
	Store
	Writer
}

// SliceIterator iterates a fixed slice of edges.
type SliceIterator struct {
	edges []Document
	pos   int
}

// NewSliceIterator wraps edges.
func NewSliceIterator(edges []Document) *SliceIterator {
	return &SliceIterator{edges: edges}
}

func (it *SliceIterator) Next() (Document, bool, error) {
	if it.pos >= len(it.edges) {
		return nil, false, nil
	}
	doc := it.edges[it.pos]
	it.pos++
	return doc, true, nil
}

func (it *SliceIterator) Close() error {
	it.edges = nil
	return nil
}
