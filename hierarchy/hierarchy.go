package hierarchy

import (
	"iter"

	"github.com/hupe1980/subclust/prefvec"
)

// Hierarchy is the DAG of subspace clusters derived from one cluster order.
// It is immutable once built.
type Hierarchy struct {
	dim      int
	clusters []*Cluster
	byKey    map[string]int
	root     int
}

// Dimensionality returns the dimensionality of the underlying data space.
func (h *Hierarchy) Dimensionality() int {
	return h.dim
}

// Len returns the number of clusters, the root included.
func (h *Hierarchy) Len() int {
	return len(h.clusters)
}

// Cluster returns the cluster at the given arena index.
func (h *Hierarchy) Cluster(i int) *Cluster {
	return h.clusters[i]
}

// Root returns the root cluster, the cluster of the empty preference vector.
func (h *Hierarchy) Root() *Cluster {
	return h.clusters[h.root]
}

// RootIndex returns the arena index of the root cluster.
func (h *Hierarchy) RootIndex() int {
	return h.root
}

// Lookup returns the cluster carrying the given preference vector.
func (h *Hierarchy) Lookup(v *prefvec.Vector) (*Cluster, bool) {
	i, ok := h.byKey[v.Key()]
	if !ok {
		return nil, false
	}

	return h.clusters[i], true
}

// All returns an iterator over all clusters in arena order, i.e. in
// discovery order with a synthesized root last.
func (h *Hierarchy) All() iter.Seq2[int, *Cluster] {
	return func(yield func(int, *Cluster) bool) {
		for i, c := range h.clusters {
			if !yield(i, c) {
				return
			}
		}
	}
}
