package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	bolt "go.etcd.io/bbolt"
)

type snapshot struct {
	tx *bolt.Tx
}

func (s *snapshot) Document(ctx context.Context, id string) (graph.Document, error) {
	if s.tx == nil {
		return nil, graph.ErrSnapshotClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, key, err := graph.ParseID(id)
	if err != nil {
		return nil, nil
	}
	b := s.tx.Bucket(docBucket(name))
	if b == nil {
		return nil, nil
	}
	return decode(b.Get([]byte(key)))
}

func decode(data []byte) (graph.Document, error) {
	if data == nil {
		return nil, nil
	}
	var doc graph.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	return doc, nil
}

func (s *snapshot) Edges(ctx context.Context, name string, dir graph.Direction, vertex string) (graph.EdgeIterator, error) {
	if s.tx == nil {
		return nil, graph.ErrSnapshotClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := s.tx.Bucket(docBucket(name))
	if docs == nil {
		return nil, fmt.Errorf("%w: %s", graph.ErrCollectionNotFound, name)
	}

	var index *bolt.Bucket
	switch dir {
	case graph.Outbound:
		index = s.tx.Bucket(fromBucket(name))
	case graph.Inbound:
		index = s.tx.Bucket(toBucket(name))
	default:
		return nil, fmt.Errorf("edge index lookup needs a concrete direction, got %s", dir)
	}
	if index == nil {
		return nil, fmt.Errorf("%w: %s", graph.ErrCollectionTypeInvalid, name)
	}
	return &edgeIterator{cursor: index.Cursor(), docs: docs, prefix: indexPrefix(vertex)}, nil
}

func (s *snapshot) Close() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

type edgeIterator struct {
	cursor  *bolt.Cursor
	docs    *bolt.Bucket
	prefix  []byte
	started bool
	done    bool
}

func (it *edgeIterator) Next() (graph.Document, bool, error) {
	if it.done {
		return nil, false, nil
	}
	var k, v []byte
	if !it.started {
		it.started = true
		k, v = it.cursor.Seek(it.prefix)
	} else {
		k, v = it.cursor.Next()
	}
	for k != nil && bytes.HasPrefix(k, it.prefix) {
		doc, err := decode(it.docs.Get(v))
		if err != nil {
			return nil, false, err
		}
		if doc != nil {
			return doc, true, nil
		}
		k, v = it.cursor.Next()
	}
	it.done = true
	return nil, false, nil
}

func (it *edgeIterator) Close() error {
	it.done = true
	return nil
}
