package memstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/sys/intern"
	"github.com/tidwall/btree"
)

type snapshot struct {
	collections map[string]*collection
	vertices    *intern.Pool
	closed      atomic.Bool
}

func (s *snapshot) Document(ctx context.Context, id string) (graph.Document, error) {
	if s.closed.Load() {
		return nil, graph.ErrSnapshotClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, key, err := graph.ParseID(id)
	if err != nil {
		return nil, nil
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	item, ok := c.docs.Get(docItem{key: key})
	if !ok {
		return nil, nil
	}
	return item.doc, nil
}

func (s *snapshot) Edges(ctx context.Context, name string, dir graph.Direction, vertex string) (graph.EdgeIterator, error) {
	if s.closed.Load() {
		return nil, graph.ErrSnapshotClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrCollectionNotFound, name)
	}
	if c.typ != graph.EdgeCollection {
		return nil, fmt.Errorf("%w: %s", graph.ErrCollectionTypeInvalid, name)
	}

	var index *btree.BTreeG[edgeItem]
	switch dir {
	case graph.Outbound:
		index = c.from
	case graph.Inbound:
		index = c.to
	default:
		return nil, fmt.Errorf("edge index lookup needs a concrete direction, got %s", dir)
	}

	vid, ok := s.vertices.Lookup(vertex)
	if !ok {
		return graph.NewSliceIterator(nil), nil
	}
	return &edgeIterator{index: index, docs: c.docs, vertex: vid}, nil
}

func (s *snapshot) Close() error {
	s.closed.Store(true)
	return nil
}

// edgeIterator walks the index entries of one vertex lazily.
type edgeIterator struct {
	index   *btree.BTreeG[edgeItem]
	docs    *btree.BTreeG[docItem]
	vertex  uint32
	iter    btree.IterG[edgeItem]
	started bool
	done    bool
}

func (it *edgeIterator) Next() (graph.Document, bool, error) {
	if it.done {
		return nil, false, nil
	}
	var ok bool
	if !it.started {
		it.started = true
		it.iter = it.index.Iter()
		ok = it.iter.Seek(edgeItem{vertex: it.vertex})
	} else {
		ok = it.iter.Next()
	}
	for ok {
		item := it.iter.Item()
		if item.vertex != it.vertex {
			break
		}
		if d, found := it.docs.Get(docItem{key: item.key}); found {
			return d.doc, true, nil
		}
		ok = it.iter.Next()
	}
	it.Close()
	return nil, false, nil
}

func (it *edgeIterator) Close() error {
	if it.started && !it.done {
		it.iter.Release()
	}
	it.done = true
	return nil
}
