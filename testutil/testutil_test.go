package testutil

import (
	"math"
	"testing"

	"github.com/hupe1980/subclust/core"
	"github.com/stretchr/testify/assert"
)

func TestOrder(t *testing.T) {
	rng := NewRNG(4711)

	ord := rng.Order(100, 8)

	assert.Equal(t, 100, len(ord))
	assert.Equal(t, core.None, ord[0].Predecessor)
	assert.True(t, math.IsInf(ord[0].Reachability, 1))

	for i, e := range ord {
		assert.Equal(t, core.ObjectID(i+1), e.ID)
		assert.Equal(t, 8, e.Preference.Dim())
		if i > 0 {
			assert.Equal(t, ord[i-1].ID, e.Predecessor)
			assert.Less(t, e.Reachability, 1.0)
		}
	}
}

func TestSubspaceOrder(t *testing.T) {
	rng := NewRNG(4711)

	ord := rng.SubspaceOrder(1000, 16, 8)

	assert.Equal(t, 1000, len(ord))

	// All preference vectors come from the planted pool
	keys := make(map[string]struct{})
	for _, e := range ord {
		keys[e.Preference.Key()] = struct{}{}
	}
	assert.LessOrEqual(t, len(keys), 8)
	assert.Greater(t, len(keys), 1, "1000 draws from 8 subspaces should hit more than one")
}

func TestValues(t *testing.T) {
	rng := NewRNG(4711)

	ord := rng.Order(50, 4)
	values := rng.Values(ord, 4)

	assert.Equal(t, 50, len(values))
	for _, e := range ord {
		v, ok := values[e.ID]
		assert.True(t, ok)
		assert.Equal(t, 4, len(v))
		assert.GreaterOrEqual(t, v[0], 0.0)
		assert.Less(t, v[0], 1.0)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	o1 := rng.Order(10, 4)

	rng.Reset()
	o2 := rng.Order(10, 4)

	assert.Equal(t, o1, o2)
}
