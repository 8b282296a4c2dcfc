package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/graphwalk/pkg/graph"
	"github.com/DrSkyle/graphwalk/pkg/graph/memstore"
	"github.com/DrSkyle/graphwalk/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormats(t *testing.T) {
	data, err := os.ReadFile("testdata/social.yaml")
	require.NoError(t, err)
	ds, err := Parse("social.yaml", data)
	require.NoError(t, err)
	require.Len(t, ds.Collections, 2)
	assert.Equal(t, "persons", ds.Collections[0].Name)
	assert.Equal(t, 30, ds.Collections[0].Documents[0]["age"])

	data, err = os.ReadFile("testdata/places.json")
	require.NoError(t, err)
	ds, err = Parse("places.json", data)
	require.NoError(t, err)
	assert.Equal(t, 52.52, ds.Collections[0].Documents[0]["lat"])
	assert.Equal(t, int64(2019), ds.Collections[1].Documents[0]["since"])

	_, err = Parse("social.csv", data)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseGraphs(t *testing.T) {
	data, err := os.ReadFile("testdata/graphs.hcl")
	require.NoError(t, err)
	graphs, err := ParseGraphs("graphs.hcl", data)
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, graph.GraphDefinition{
		Name: "social",
		EdgeDefinitions: []graph.EdgeDefinition{
			{Collection: "knows", From: []string{"persons"}, To: []string{"persons"}},
			{Collection: "lives_in", From: []string{"persons"}, To: []string{"places"}},
		},
	}, graphs[0])
}

func TestParseGraphsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `graph "g" {`},
		{"unlabeled graph", `graph { }`},
		{"unknown block", `collection "c" { }`},
		{"from not a list", `graph "g" { edge_definition "e" { from = "v" } }`},
		{"number in list", `graph "g" { edge_definition "e" { from = [1] } }`},
		{"bad nested block", `graph "g" { edge "e" { } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGraphs("test.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestReadAndLoad(t *testing.T) {
	ctx := context.Background()
	r := NewReader(storage.S3Options{}, nil)
	ds, err := r.Read(ctx, "testdata/social.yaml", "testdata/places.json", "testdata/graphs.hcl")
	require.NoError(t, err)
	require.Len(t, ds.Collections, 4)
	assert.Len(t, ds.Collections[0].Documents, 4, "persons from both files")

	s := memstore.New()
	stats, err := ds.Load(s)
	require.NoError(t, err)
	assert.Equal(t, Stats{Collections: 4, Documents: 8, Graphs: 1}, stats)

	def, err := s.Graph("social")
	require.NoError(t, err)
	assert.Equal(t, []string{"knows", "lives_in"}, def.EdgeCollections())
	assert.Equal(t, 4, s.Count("persons"))
}

func TestLoadCollectsErrors(t *testing.T) {
	ds := &Dataset{
		Collections: []Collection{
			{Name: "v", Type: "document", Documents: []graph.Document{{"_key": "a"}, {"_key": "a"}}},
			{Name: "e", Type: "edge", Documents: []graph.Document{{"_from": "v/a"}}},
		},
		Graphs: []graph.GraphDefinition{{Name: "g", EdgeDefinitions: []graph.EdgeDefinition{{Collection: "missing"}}}},
	}
	stats, err := ds.Load(memstore.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrDocumentExists)
	assert.ErrorIs(t, err, graph.ErrInvalidEdge)
	assert.ErrorIs(t, err, graph.ErrCollectionNotFound)
	assert.Equal(t, Stats{Collections: 2, Documents: 1}, stats)
}

type memBlobs map[string][]byte

func (m memBlobs) Put(ctx context.Context, key string, data []byte) error {
	m[key] = data
	return nil
}

func (m memBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if d, ok := m[key]; ok {
		return d, nil
	}
	return nil, storage.ErrNotFound
}

func (m memBlobs) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }

func TestReadFromBucket(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "graphs.hcl"))
	require.NoError(t, err)
	blobs := memBlobs{"defs/graphs.hcl": data}

	r := NewReader(storage.S3Options{Region: "us-east-1"}, nil)
	r.open = func(ctx context.Context, loc storage.Location) (storage.BlobStore, string, error) {
		require.Equal(t, "datasets", loc.Bucket)
		return blobs, loc.Key, nil
	}

	ds, err := r.Read(context.Background(), "s3://datasets/defs/graphs.hcl")
	require.NoError(t, err)
	assert.Len(t, ds.Graphs, 1)

	_, err = r.Read(context.Background(), "s3://datasets/defs/missing.yaml")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
