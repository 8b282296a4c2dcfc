package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndRecordHop(t *testing.T) {
	tests := []struct {
		name     string
		edges    Uniqueness
		vertices Uniqueness
	}{
		{name: "path", edges: UniquePath, vertices: UniquePath},
		{name: "global", edges: UniqueGlobal, vertices: UniqueGlobal},
		{name: "global vertices", edges: UniquePath, vertices: UniqueGlobal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUniquenessTracker()
			assert.True(t, u.checkAndRecordVertex("v/A", tt.vertices))
			assert.True(t, u.checkAndRecordHop("e/1", "v/B", tt.edges, tt.vertices))
			assert.False(t, u.checkAndRecordHop("e/1", "v/C", tt.edges, tt.vertices), "edge already used")

			// rejected neighbor leaves the edge free
			assert.False(t, u.checkAndRecordHop("e/2", "v/A", tt.edges, tt.vertices))
			assert.True(t, u.allowEdge("e/2", tt.edges))
			assert.True(t, u.checkAndRecordHop("e/2", "v/C", tt.edges, tt.vertices))
		})
	}
}

func TestUniquenessNoneRecordsNothing(t *testing.T) {
	u := newUniquenessTracker()
	for range 3 {
		assert.True(t, u.checkAndRecordHop("e/1", "v/A", UniqueNone, UniqueNone))
	}
	assert.Empty(t, u.pathEdges)
	assert.Empty(t, u.globalVertices)
}

func TestReleaseIsMultiset(t *testing.T) {
	u := newUniquenessTracker()
	u.recordVertex("v/A", UniquePath)
	u.recordVertex("v/A", UniquePath)
	u.releaseVertex("v/A", UniquePath)
	assert.False(t, u.allowVertex("v/A", UniquePath))
	u.releaseVertex("v/A", UniquePath)
	assert.True(t, u.allowVertex("v/A", UniquePath))

	u.recordVertex("v/G", UniqueGlobal)
	u.releaseVertex("v/G", UniqueGlobal)
	assert.False(t, u.allowVertex("v/G", UniqueGlobal))
}
