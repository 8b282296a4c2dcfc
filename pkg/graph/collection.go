package graph

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CollectionType distinguishes document and edge collections.
type CollectionType uint8

const (
	DocumentCollection CollectionType = iota + 2
	EdgeCollection
)

func (t CollectionType) String() string {
	if t == EdgeCollection {
		return "edge"
	}
	return "document"
}

// ParseCollectionType maps "edge"/"edges" to EdgeCollection and everything
// else to DocumentCollection.
func ParseCollectionType(s string) CollectionType {
	switch s {
	case "edge", "edges":
		return EdgeCollection
	}
	return DocumentCollection
}

// EdgeDefinition relates an edge collection to the vertex collections its
// edges connect.
type EdgeDefinition struct {
	Collection string   `json:"collection" yaml:"collection"`
	From       []string `json:"from" yaml:"from"`
	To         []string `json:"to" yaml:"to"`
}

// GraphDefinition is a named graph.
type GraphDefinition struct {
	Name              string           `json:"name" yaml:"name"`
	EdgeDefinitions   []EdgeDefinition `json:"edgeDefinitions" yaml:"edgeDefinitions"`
	OrphanCollections []string         `json:"orphanCollections,omitempty" yaml:"orphanCollections,omitempty"`
}

// EdgeCollections lists the edge collections in definition order.
func (g *GraphDefinition) EdgeCollections() []string {
	out := make([]string, 0, len(g.EdgeDefinitions))
	for _, def := range g.EdgeDefinitions {
		out = append(out, def.Collection)
	}
	return out
}

// Validate checks the definition against the collections known to types.
func (g *GraphDefinition) Validate(types func(string) (CollectionType, bool)) error {
	var result *multierror.Error
	if g.Name == "" {
		result = multierror.Append(result, fmt.Errorf("graph name is empty"))
	}
	seen := make(map[string]bool)
	for _, def := range g.EdgeDefinitions {
		if seen[def.Collection] {
			result = multierror.Append(result, fmt.Errorf("graph %s: edge collection %s defined twice", g.Name, def.Collection))
		}
		seen[def.Collection] = true

		if t, ok := types(def.Collection); !ok {
			result = multierror.Append(result, fmt.Errorf("graph %s: %w: %s", g.Name, ErrCollectionNotFound, def.Collection))
		} else if t != EdgeCollection {
			result = multierror.Append(result, fmt.Errorf("graph %s: %w: %s is a document collection", g.Name, ErrCollectionTypeInvalid, def.Collection))
		}

		for _, v := range append(append([]string{}, def.From...), def.To...) {
			if t, ok := types(v); !ok {
				result = multierror.Append(result, fmt.Errorf("graph %s: %w: %s", g.Name, ErrCollectionNotFound, v))
			} else if t != DocumentCollection {
				result = multierror.Append(result, fmt.Errorf("graph %s: %w: %s is an edge collection", g.Name, ErrCollectionTypeInvalid, v))
			}
		}
	}
	return result.ErrorOrNil()
}
