package visited

// Set tracks visited arena indices using a bitset and a dirty list for fast
// reset between traversals.
type Set struct {
	bits  []uint64
	dirty []int
}

// New creates a set sized for the given number of clusters. Indices beyond
// the capacity grow the set on demand.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]int, 0, 64),
	}
}

// Visit marks index i as visited.
func (s *Set) Visit(i int) {
	word := i >> 6
	mask := uint64(1) << (uint(i) & 63)

	if word >= len(s.bits) {
		s.grow(word + 1)
	}

	if s.bits[word]&mask == 0 {
		s.bits[word] |= mask
		s.dirty = append(s.dirty, i)
	}
}

// Visited reports whether index i has been visited.
func (s *Set) Visited(i int) bool {
	word := i >> 6
	if word >= len(s.bits) {
		return false
	}
	return s.bits[word]&(uint64(1)<<(uint(i)&63)) != 0
}

// Reset clears every index visited since the last reset.
func (s *Set) Reset() {
	for _, i := range s.dirty {
		s.bits[i>>6] &^= uint64(1) << (uint(i) & 63)
	}
	s.dirty = s.dirty[:0]
}

func (s *Set) grow(newLen int) {
	newCap := len(s.bits) * 2
	if newCap < newLen {
		newCap = newLen
	}

	newBits := make([]uint64, newCap)
	copy(newBits, s.bits)
	s.bits = newBits
}
