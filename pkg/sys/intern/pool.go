// Package intern maps strings to dense uint32 handles.
package intern

import "sync"

// InvalidID is never handed out; it stands for the empty string.
const InvalidID uint32 = 0

// Pool interns strings. IDs are 1-based.
type Pool struct {
	mu      sync.RWMutex
	store   map[string]uint32
	reverse []string
}

// NewPool returns an empty pool sized for hint entries.
func NewPool(hint int) *Pool {
	return &Pool{
		store:   make(map[string]uint32, hint),
		reverse: make([]string, 0, hint),
	}
}

// Intern returns the ID for s, allocating one if needed.
func (p *Pool) Intern(s string) uint32 {
	if s == "" {
		return InvalidID
	}

	p.mu.RLock()
	id, ok := p.store[s]
	p.mu.RUnlock()
	if ok {
		return id
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.store[s]; ok {
		return id
	}
	p.reverse = append(p.reverse, s)
	id = uint32(len(p.reverse))
	p.store[s] = id
	return id
}

// Lookup returns the ID for s without allocating.
func (p *Pool) Lookup(s string) (uint32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.store[s]
	return id, ok
}

// String returns the string for id, or "" if unknown.
func (p *Pool) String(id uint32) string {
	if id == InvalidID {
		return ""
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	idx := int(id) - 1
	if idx < 0 || idx >= len(p.reverse) {
		return ""
	}
	return p.reverse[idx]
}

// Len reports the number of interned strings.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.reverse)
}
