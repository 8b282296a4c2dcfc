// Package dataset reads collections, documents and graph definitions from
// YAML, JSON and HCL files and loads them into a store.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files that are not YAML, JSON or HCL.
var ErrUnknownFormat = errors.New("unknown dataset format")

// Collection is a collection with its documents.
type Collection struct {
	Name      string           `json:"name" yaml:"name"`
	Type      string           `json:"type" yaml:"type"`
	Documents []graph.Document `json:"documents" yaml:"documents"`
}

// Dataset is the content of one or more dataset files.
type Dataset struct {
	Collections []Collection            `json:"collections" yaml:"collections"`
	Graphs      []graph.GraphDefinition `json:"graphs" yaml:"graphs"`
}

// Parse decodes data by the extension of name.
func Parse(name string, data []byte) (*Dataset, error) {
	ds := &Dataset{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, ds); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(ds); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for _, c := range ds.Collections {
			for _, doc := range c.Documents {
				normalizeNumbers(doc)
			}
		}
	case ".hcl":
		graphs, err := ParseGraphs(name, data)
		if err != nil {
			return nil, err
		}
		ds.Graphs = graphs
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return ds, nil
}

// normalizeNumbers turns json.Number into int64 where exact and float64
// otherwise, so JSON and YAML datasets compare alike.
func normalizeNumbers(doc map[string]any) {
	for k, v := range doc {
		doc[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		normalizeNumbers(x)
		return x
	case []any:
		for i := range x {
			x[i] = normalizeValue(x[i])
		}
		return x
	}
	return v
}

// Merge appends o. Collections with the same name are combined.
func (d *Dataset) Merge(o *Dataset) {
	index := make(map[string]int, len(d.Collections))
	for i, c := range d.Collections {
		index[c.Name] = i
	}
	for _, c := range o.Collections {
		if i, ok := index[c.Name]; ok {
			d.Collections[i].Documents = append(d.Collections[i].Documents, c.Documents...)
			continue
		}
		index[c.Name] = len(d.Collections)
		d.Collections = append(d.Collections, c)
	}
	d.Graphs = append(d.Graphs, o.Graphs...)
}

// Stats counts what Load wrote.
type Stats struct {
	Collections int
	Documents   int
	Graphs      int
}

// Load creates the collections, inserts the documents and defines the
// graphs. Edge collections are filled after document collections. Every
// failure is collected; the store keeps what succeeded.
func (d *Dataset) Load(store graph.MutableStore) (Stats, error) {
	var (
		result *multierror.Error
		stats  Stats
	)
	for _, c := range d.Collections {
		if err := store.CreateCollection(c.Name, graph.ParseCollectionType(c.Type)); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		stats.Collections++
	}
	for _, pass := range []graph.CollectionType{graph.DocumentCollection, graph.EdgeCollection} {
		for _, c := range d.Collections {
			if graph.ParseCollectionType(c.Type) != pass {
				continue
			}
			for i, doc := range c.Documents {
				if _, err := store.Insert(c.Name, doc); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s document %d: %w", c.Name, i, err))
					continue
				}
				stats.Documents++
			}
		}
	}
	for _, g := range d.Graphs {
		if err := store.DefineGraph(g); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		stats.Graphs++
	}
	return stats, result.ErrorOrNil()
}
