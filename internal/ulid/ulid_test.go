package ulid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Length(t *testing.T) {
	g := NewGenerator()
	id := g.New()
	assert.Len(t, id, 26)
}

func TestNew_LexicographicallySortable(t *testing.T) {
	g := NewGenerator()
	t0 := time.UnixMilli(1700000000000)
	t1 := t0.Add(time.Millisecond)

	a := g.at(t0)
	b := g.at(t1)
	assert.Less(t, a, b)
}

func TestNew_MonotonicWithinSameMillisecond(t *testing.T) {
	g := NewGenerator()
	t0 := time.UnixMilli(1700000000000)

	a := g.at(t0)
	b := g.at(t0)
	assert.Less(t, a, b, "ids minted in the same millisecond must be strictly increasing")
}

func TestNew_AlphabetOnly(t *testing.T) {
	g := NewGenerator()
	id := g.New()
	for _, c := range id {
		assert.Contains(t, crockford, string(c))
	}
}
