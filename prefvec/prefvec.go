// Package prefvec implements fixed-width preference vectors, bit masks over
// the dimensions of a data space that mark the attributes a cluster is
// axes-parallel to.
package prefvec

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Vector is a preference vector of fixed dimensionality.
// It wraps a bitset with one bit per dimension of the data space.
type Vector struct {
	dim  int
	bits *bitset.BitSet
}

// New creates an empty preference vector of the given dimensionality.
// No dimension is marked as relevant.
func New(dim int) *Vector {
	return &Vector{
		dim:  dim,
		bits: bitset.New(uint(dim)),
	}
}

// FromDims creates a preference vector with the given dimensions marked as
// relevant. Out of range dimensions are ignored.
func FromDims(dim int, dims ...int) *Vector {
	v := New(dim)
	for _, d := range dims {
		v.Set(d)
	}
	return v
}

// Dim returns the dimensionality of the data space, i.e. the fixed width of
// the vector.
func (v *Vector) Dim() int {
	return v.dim
}

// Set marks dimension i as relevant. Out of range indices are ignored so the
// width stays fixed.
func (v *Vector) Set(i int) {
	if i < 0 || i >= v.dim {
		return
	}
	v.bits.Set(uint(i))
}

// Test reports whether dimension i is marked as relevant.
func (v *Vector) Test(i int) bool {
	if i < 0 || i >= v.dim {
		return false
	}
	return v.bits.Test(uint(i))
}

// Level returns the number of relevant dimensions, the level of a cluster
// carrying this vector in the hierarchy.
func (v *Vector) Level() int {
	return int(v.bits.Count())
}

// Equal reports whether both vectors mark exactly the same dimensions.
func (v *Vector) Equal(other *Vector) bool {
	return v.dim == other.dim && v.bits.Equal(other.bits)
}

// SupersetOf reports whether v marks every dimension other marks.
func (v *Vector) SupersetOf(other *Vector) bool {
	return v.bits.IsSuperSet(other.bits)
}

// StrictSupersetOf reports whether v marks every dimension other marks plus
// at least one more.
func (v *Vector) StrictSupersetOf(other *Vector) bool {
	return v.bits.IsStrictSuperSet(other.bits)
}

// Dims returns the relevant dimensions in ascending order.
func (v *Vector) Dims() []int {
	dims := make([]int, 0, v.Level())
	for i, ok := v.bits.NextSet(0); ok; i, ok = v.bits.NextSet(i + 1) {
		dims = append(dims, int(i))
	}
	return dims
}

// Key returns the compact bitstring form, e.g. "101" for the vector marking
// dimensions 0 and 2 in a 3-dimensional space. Vectors of the same
// dimensionality have equal keys iff they are equal, so the key can serve as
// a map key.
func (v *Vector) Key() string {
	var sb strings.Builder
	sb.Grow(v.dim)
	for i := 0; i < v.dim; i++ {
		if v.bits.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Format returns the human readable form written to cluster files,
// e.g. "1, 0, 1".
func (v *Vector) Format() string {
	var sb strings.Builder
	sb.Grow(v.dim * 3)
	for i := 0; i < v.dim; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		if v.bits.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Clone returns a deep copy of the vector.
func (v *Vector) Clone() *Vector {
	return &Vector{
		dim:  v.dim,
		bits: v.bits.Clone(),
	}
}

// String implements fmt.Stringer using the compact bitstring form.
func (v *Vector) String() string {
	return v.Key()
}
