// Package boltstore persists collections, edge indexes and graph definitions
// in a bbolt file.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	metaBucket        = []byte("_meta")
	collectionsBucket = []byte("collections")
	graphsBucket      = []byte("graphs")
)

// ErrBucketNotFound means the file is missing a bucket it should have.
var ErrBucketNotFound = errors.New("bucket not found")

func docBucket(name string) []byte  { return []byte("c:" + name) }
func fromBucket(name string) []byte { return []byte("f:" + name) }
func toBucket(name string) []byte   { return []byte("t:" + name) }

// indexKey is vertex id, a zero byte, then the big-endian sequence.
func indexKey(vertex string, seq uint64) []byte {
	k := make([]byte, len(vertex)+1+8)
	copy(k, vertex)
	binary.BigEndian.PutUint64(k[len(vertex)+1:], seq)
	return k
}

func indexPrefix(vertex string) []byte {
	p := make([]byte, len(vertex)+1)
	copy(p, vertex)
	return p
}

// Store is a graph.MutableStore on top of bbolt.
type Store struct {
	db *bolt.DB

	mu     sync.RWMutex
	types  map[string]graph.CollectionType
	graphs map[string]graph.GraphDefinition
}

var _ graph.MutableStore = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	s := &Store{
		db:     db,
		types:  make(map[string]graph.CollectionType),
		graphs: make(map[string]graph.GraphDefinition),
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		cols, err := meta.CreateBucketIfNotExists(collectionsBucket)
		if err != nil {
			return err
		}
		graphs, err := meta.CreateBucketIfNotExists(graphsBucket)
		if err != nil {
			return err
		}
		if err := cols.ForEach(func(k, v []byte) error {
			s.types[string(k)] = graph.ParseCollectionType(string(v))
			return nil
		}); err != nil {
			return err
		}
		return graphs.ForEach(func(k, v []byte) error {
			var def graph.GraphDefinition
			if err := json.Unmarshal(v, &def); err != nil {
				return fmt.Errorf("corrupt graph definition %s: %w", k, err)
			}
			s.graphs[string(k)] = def
			return nil
		})
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCollection implements graph.Writer.
func (s *Store) CreateCollection(name string, typ graph.CollectionType) error {
	if name == "" {
		return fmt.Errorf("collection name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.types[name]; ok {
		if existing != typ {
			return fmt.Errorf("%w: %s already exists as %s collection", graph.ErrCollectionTypeInvalid, name, existing)
		}
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return ErrBucketNotFound
		}
		if err := meta.Bucket(collectionsBucket).Put([]byte(name), []byte(typ.String())); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(docBucket(name)); err != nil {
			return err
		}
		if typ == graph.EdgeCollection {
			if _, err := tx.CreateBucketIfNotExists(fromBucket(name)); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists(toBucket(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	s.types[name] = typ
	return nil
}

// Insert implements graph.Writer.
func (s *Store) Insert(name string, doc graph.Document) (string, error) {
	typ, ok := s.CollectionType(name)
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

	if typ == graph.EdgeCollection {
		if _, _, err := graph.ParseID(doc.From()); err != nil {
			return "", fmt.Errorf("%w: %s: %v", graph.ErrInvalidEdge, id, err)
		}
		if _, _, err := graph.ParseID(doc.To()); err != nil {
			return "", fmt.Errorf("%w: %s: %v", graph.ErrInvalidEdge, id, err)
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", id, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(docBucket(name))
		if b == nil {
			return ErrBucketNotFound
		}
		if b.Get([]byte(key)) != nil {
			return fmt.Errorf("%w: %s", graph.ErrDocumentExists, id)
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
		if typ != graph.EdgeCollection {
			return nil
		}
		from, to := tx.Bucket(fromBucket(name)), tx.Bucket(toBucket(name))
		if from == nil || to == nil {
			return ErrBucketNotFound
		}
		seq, err := from.NextSequence()
		if err != nil {
			return err
		}
		if err := from.Put(indexKey(doc.From(), seq), []byte(key)); err != nil {
			return err
		}
		return to.Put(indexKey(doc.To(), seq), []byte(key))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DefineGraph implements graph.Writer.
func (s *Store) DefineGraph(def graph.GraphDefinition) error {
	if err := def.Validate(s.CollectionType); err != nil {
		return err
	}
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return ErrBucketNotFound
		}
		return meta.Bucket(graphsBucket).Put([]byte(def.Name), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store graph %s: %w", def.Name, err)
	}
	s.graphs[def.Name] = def
	return nil
}

// CollectionType implements graph.Store.
func (s *Store) CollectionType(name string) (graph.CollectionType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[name]
	return t, ok
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
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot implements graph.Store with a read-only transaction.
func (s *Store) Snapshot(ctx context.Context) (graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read tx: %w", err)
	}
	return &snapshot{tx: tx}, nil
}
