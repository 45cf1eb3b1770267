package hierarchy

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/subclust/order"
	"github.com/hupe1980/subclust/prefvec"
)

// Build derives the hierarchy encoded in a cluster order over a data space
// of the given dimensionality.
//
// Entries sharing a preference vector form one cluster no matter where
// their runs sit in the order; members keep first seen order and duplicate
// object ids collapse. Covering edges link every cluster to its closest
// refinements. The cluster of the empty vector becomes the root; when no
// entry carries the empty vector, a memberless root is synthesized and all
// parentless clusters attach to it.
func Build(dim int, ord order.Order) (*Hierarchy, error) {
	if dim < 1 {
		return nil, &ErrInvalidDimensionality{Dimensionality: dim}
	}
	if len(ord) == 0 {
		return nil, ErrEmptyOrder
	}

	h := &Hierarchy{
		dim:   dim,
		byKey: make(map[string]int),
		root:  -1,
	}

	// Group entries by preference vector, in discovery order. The per
	// cluster bitmaps only back the dedup and are dropped afterwards.
	var seen []*roaring.Bitmap

	for i, e := range ord {
		width := 0
		if e.Preference != nil {
			width = e.Preference.Dim()
		}
		if width != dim {
			return nil, &ErrDimensionMismatch{Index: i, Expected: dim, Actual: width}
		}

		key := e.Preference.Key()
		ci, ok := h.byKey[key]
		if !ok {
			ci = len(h.clusters)
			h.byKey[key] = ci

			vec := e.Preference.Clone()
			h.clusters = append(h.clusters, &Cluster{
				vec:   vec,
				level: vec.Level(),
				id:    clusterID(vec),
			})
			seen = append(seen, roaring.New())
		}

		if c := h.clusters[ci]; !seen[ci].Contains(uint32(e.ID)) {
			seen[ci].Add(uint32(e.ID))
			c.members = append(c.members, e.ID)
		}
	}

	h.linkCovering()
	h.attachRoot()
	h.indexLevels()
	h.sortEdges()

	// Root attachment leaves no cluster besides the root without a parent.
	for i, c := range h.clusters {
		if i != h.root && len(c.parents) == 0 {
			return nil, &ErrUnrelatedVector{Key: c.vec.Key()}
		}
	}

	return h, nil
}

// linkCovering links every cluster to the closest clusters its vector
// strictly refines. Candidates are scanned from the most specific level
// down; a candidate below an already accepted parent is covered by that
// parent and skipped, which leaves exactly the covering edges.
func (h *Hierarchy) linkCovering() {
	byLevel := make([]int, len(h.clusters))
	for i := range byLevel {
		byLevel[i] = i
	}
	sort.SliceStable(byLevel, func(a, b int) bool {
		return h.clusters[byLevel[a]].level > h.clusters[byLevel[b]].level
	})

	for bi, b := range h.clusters {
		for _, ai := range byLevel {
			a := h.clusters[ai]
			if a.level >= b.level || !b.vec.SupersetOf(a.vec) {
				continue
			}

			covered := false
			for _, pi := range b.parents {
				if h.clusters[pi].vec.SupersetOf(a.vec) {
					covered = true
					break
				}
			}
			if covered {
				continue
			}

			b.parents = append(b.parents, ai)
			a.children = append(a.children, bi)
		}
	}
}

// attachRoot roots the hierarchy at the cluster of the empty preference
// vector, synthesizing a memberless one when no entry carried it, and
// attaches every parentless cluster to it.
func (h *Hierarchy) attachRoot() {
	empty := prefvec.New(h.dim)

	ri, ok := h.byKey[empty.Key()]
	if !ok {
		ri = len(h.clusters)
		h.byKey[empty.Key()] = ri
		h.clusters = append(h.clusters, &Cluster{
			vec: empty,
			id:  clusterID(empty),
		})
	}
	h.root = ri

	root := h.clusters[ri]
	for i, c := range h.clusters {
		if i == ri || len(c.parents) > 0 {
			continue
		}
		c.parents = append(c.parents, ri)
		root.children = append(root.children, i)
	}
}

// indexLevels numbers the clusters of each level in discovery order.
func (h *Hierarchy) indexLevels() {
	counts := make(map[int]int)
	for _, c := range h.clusters {
		c.levelIndex = counts[c.level]
		counts[c.level]++
	}
}

// sortEdges orders child and parent lists by level, then preference vector.
func (h *Hierarchy) sortEdges() {
	less := func(x, y int) bool {
		cx, cy := h.clusters[x], h.clusters[y]
		if cx.level != cy.level {
			return cx.level < cy.level
		}
		return cx.vec.Key() < cy.vec.Key()
	}

	for _, c := range h.clusters {
		sort.Slice(c.children, func(i, j int) bool { return less(c.children[i], c.children[j]) })
		sort.Slice(c.parents, func(i, j int) bool { return less(c.parents[i], c.parents[j]) })
	}
}
