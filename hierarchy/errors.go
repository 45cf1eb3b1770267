package hierarchy

import (
	"errors"
	"fmt"
)

// ErrEmptyOrder is returned by Build when the cluster order has no entries.
var ErrEmptyOrder = errors.New("empty cluster order")

// ErrInvalidDimensionality is a named error type for a non-positive data
// space dimensionality.
type ErrInvalidDimensionality struct {
	Dimensionality int
}

func (e *ErrInvalidDimensionality) Error() string {
	return fmt.Sprintf("invalid dimensionality: %d", e.Dimensionality)
}

// ErrDimensionMismatch is a named error type for an order entry whose
// preference vector width does not match the data space. A missing vector
// counts as width 0.
type ErrDimensionMismatch struct {
	Index    int // Position of the entry in the cluster order
	Expected int // Dimensionality of the data space
	Actual   int // Width of the entry's preference vector
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("entry %d: preference vector width %d, want %d", e.Index, e.Actual, e.Expected)
}

// ErrUnrelatedVector is a named error type for a cluster left without a
// parent after root attachment.
type ErrUnrelatedVector struct {
	Key string // Compact bitstring of the orphaned vector
}

func (e *ErrUnrelatedVector) Error() string {
	return fmt.Sprintf("cluster %s has no parent in the hierarchy", e.Key)
}
