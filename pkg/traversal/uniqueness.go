package traversal

// uniquenessTracker records visited vertex and edge ids. Path scope is a
// multiset released on backtrack; global scope only grows.
type uniquenessTracker struct {
	pathVertices   map[string]int
	pathEdges      map[string]int
	globalVertices map[string]struct{}
	globalEdges    map[string]struct{}
}

func newUniquenessTracker() *uniquenessTracker {
	return &uniquenessTracker{
		pathVertices:   make(map[string]int),
		pathEdges:      make(map[string]int),
		globalVertices: make(map[string]struct{}),
		globalEdges:    make(map[string]struct{}),
	}
}

func allow(id string, policy Uniqueness, path map[string]int, global map[string]struct{}) bool {
	switch policy {
	case UniquePath:
		return path[id] == 0
	case UniqueGlobal:
		_, seen := global[id]
		return !seen
	}
	return true
}

func record(id string, policy Uniqueness, path map[string]int, global map[string]struct{}) {
	switch policy {
	case UniquePath:
		path[id]++
	case UniqueGlobal:
		global[id] = struct{}{}
	}
}

func release(id string, policy Uniqueness, path map[string]int) {
	if policy != UniquePath {
		return
	}
	if n := path[id]; n > 1 {
		path[id] = n - 1
	} else {
		delete(path, id)
	}
}

func (u *uniquenessTracker) allowVertex(id string, policy Uniqueness) bool {
	return allow(id, policy, u.pathVertices, u.globalVertices)
}

func (u *uniquenessTracker) allowEdge(id string, policy Uniqueness) bool {
	return allow(id, policy, u.pathEdges, u.globalEdges)
}

func (u *uniquenessTracker) recordVertex(id string, policy Uniqueness) {
	record(id, policy, u.pathVertices, u.globalVertices)
}

func (u *uniquenessTracker) recordEdge(id string, policy Uniqueness) {
	record(id, policy, u.pathEdges, u.globalEdges)
}

// checkAndRecordVertex returns false if id may not be visited under policy,
// otherwise records it.
func (u *uniquenessTracker) checkAndRecordVertex(id string, policy Uniqueness) bool {
	if !u.allowVertex(id, policy) {
		return false
	}
	u.recordVertex(id, policy)
	return true
}

func (u *uniquenessTracker) checkAndRecordEdge(id string, policy Uniqueness) bool {
	if !u.allowEdge(id, policy) {
		return false
	}
	u.recordEdge(id, policy)
	return true
}

// checkAndRecordHop admits an edge and its neighbor together. The edge is
// recorded only if the neighbor is admitted as well.
func (u *uniquenessTracker) checkAndRecordHop(edgeID, vertexID string, edges, vertices Uniqueness) bool {
	if !u.checkAndRecordEdge(edgeID, edges) {
		return false
	}
	if !u.checkAndRecordVertex(vertexID, vertices) {
		u.forgetEdge(edgeID, edges)
		return false
	}
	return true
}

// forgetEdge undoes a recordEdge made in the same step, global scope
// included.
func (u *uniquenessTracker) forgetEdge(id string, policy Uniqueness) {
	if policy == UniqueGlobal {
		delete(u.globalEdges, id)
		return
	}
	release(id, policy, u.pathEdges)
}

func (u *uniquenessTracker) releaseVertex(id string, policy Uniqueness) {
	release(id, policy, u.pathVertices)
}

func (u *uniquenessTracker) releaseEdge(id string, policy Uniqueness) {
	release(id, policy, u.pathEdges)
}

func (u *uniquenessTracker) resetPath() {
	clear(u.pathVertices)
	clear(u.pathEdges)
}

func (u *uniquenessTracker) resetGlobal() {
	clear(u.globalVertices)
	clear(u.globalEdges)
}
