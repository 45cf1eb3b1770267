package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/subclust/core"
	"github.com/hupe1980/subclust/order"
	"github.com/hupe1980/subclust/prefvec"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Order generates a cluster order of n entries over a dim-dimensional data
// space with uniformly random preference vectors. Identifiers are dense
// starting at 1, predecessors chain the emission sequence and the first
// entry carries +Inf reachability, the shape a density based scan emits.
func (r *RNG) Order(n, dim int) order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord := make(order.Order, n)
	for i := range n {
		pref := prefvec.New(dim)
		for d := range dim {
			if r.rand.Intn(3) == 0 {
				pref.Set(d)
			}
		}

		ord[i] = order.Entry{
			ID:           core.ObjectID(i + 1),
			Predecessor:  core.ObjectID(i),
			Reachability: r.rand.Float64(),
			Preference:   pref,
		}
	}

	if n > 0 {
		ord[0].Predecessor = core.None
		ord[0].Reachability = math.Inf(1)
	}

	return ord
}

// SubspaceOrder generates a cluster order whose preference vectors are drawn
// from a pool of planted subspace vectors, so at most subspaces distinct
// clusters emerge. Real data concentrates in a few axes-parallel subspaces;
// uniformly random vectors degenerate into one cluster per entry at higher
// dimensionalities.
func (r *RNG) SubspaceOrder(n, dim, subspaces int) order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := make([]*prefvec.Vector, subspaces)
	for i := range pool {
		v := prefvec.New(dim)
		for d := range dim {
			if r.rand.Intn(2) == 0 {
				v.Set(d)
			}
		}
		pool[i] = v
	}

	ord := make(order.Order, n)
	for i := range n {
		ord[i] = order.Entry{
			ID:           core.ObjectID(i + 1),
			Predecessor:  core.ObjectID(i),
			Reachability: r.rand.Float64(),
			Preference:   pool[r.rand.Intn(subspaces)],
		}
	}

	if n > 0 {
		ord[0].Predecessor = core.None
		ord[0].Reachability = math.Inf(1)
	}

	return ord
}

// Values generates one random value per order entry, uniform in [0, 1) per
// attribute. Locks only once per call.
func (r *RNG) Values(o order.Order, dim int) map[core.ObjectID][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make(map[core.ObjectID][]float64, len(o))
	for _, e := range o {
		v := make([]float64, dim)
		for d := range v {
			v[d] = r.rand.Float64()
		}
		values[e.ID] = v
	}

	return values
}
