package intern

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolIntern(t *testing.T) {
	p := NewPool(4)

	a := p.Intern("persons/alice")
	b := p.Intern("persons/bob")

	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)
	assert.Equal(t, a, p.Intern("persons/alice"))
	assert.Equal(t, "persons/bob", p.String(b))
	assert.Equal(t, InvalidID, p.Intern(""))
	assert.Equal(t, "", p.String(InvalidID))
	assert.Equal(t, "", p.String(99))

	_, ok := p.Lookup("persons/carol")
	assert.False(t, ok)
	assert.Equal(t, 2, p.Len())
}

func TestPoolConcurrent(t *testing.T) {
	p := NewPool(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range []string{"a/1", "a/2", "a/3"} {
				p.Intern(s)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, p.Len())
}
