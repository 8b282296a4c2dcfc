package graph

import (
	"errors"
	"fmt"
	"strings"
)

// System attribute names.
const (
	AttrID   = "_id"
	AttrKey  = "_key"
	AttrFrom = "_from"
	AttrTo   = "_to"
)

// ErrInvalidID is returned for ids that are not of the form "collection/key".
var ErrInvalidID = errors.New("invalid document id")

// Document is a stored vertex or edge. A nil Document is the null vertex
// used for dangling references.
type Document map[string]any

// ID returns the collection-qualified id of the document.
func (d Document) ID() string { return d.str(AttrID) }

// Key returns the document key.
func (d Document) Key() string { return d.str(AttrKey) }

// From returns the _from attribute of an edge.
func (d Document) From() string { return d.str(AttrFrom) }

// To returns the _to attribute of an edge.
func (d Document) To() string { return d.str(AttrTo) }

func (d Document) str(attr string) string {
	if d == nil {
		return ""
	}
	s, _ := d[attr].(string)
	return s
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ParseID splits a document id into its collection and key.
func ParseID(id string) (collection, key string, err error) {
	i := strings.IndexByte(id, '/')
	if i <= 0 || i == len(id)-1 || strings.IndexByte(id[i+1:], '/') >= 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return id[:i], id[i+1:], nil
}

// MakeID joins a collection name and a key.
func MakeID(collection, key string) string {
	return collection + "/" + key
}

// Direction is the traversal direction for an edge collection.
type Direction uint8

const (
	// DirectionDefault means "inherit the traversal direction" on overrides.
	DirectionDefault Direction = iota
	Outbound
	Inbound
	Any
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	case Any:
		return "any"
	default:
		return "default"
	}
}

// ParseDirection accepts OUTBOUND, INBOUND or ANY in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "outbound":
		return Outbound, nil
	case "inbound":
		return Inbound, nil
	case "any":
		return Any, nil
	}
	return DirectionDefault, fmt.Errorf("unknown direction %q", s)
}

// EdgeCollectionSpec pairs an edge collection with the direction it is
// followed in.
type EdgeCollectionSpec struct {
	Collection string
	Direction  Direction
}

func (s EdgeCollectionSpec) String() string {
	return fmt.Sprintf("%s %s", strings.ToUpper(s.Direction.String()), s.Collection)
}

// Neighbor returns the vertex on the other side of edge when leaving from
// vertexID in direction dir.
func Neighbor(edge Document, vertexID string, dir Direction) string {
	switch dir {
	case Outbound:
		return edge.To()
	case Inbound:
		return edge.From()
	}
	if edge.From() == vertexID {
		return edge.To()
	}
	return edge.From()
}
