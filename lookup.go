package subclust

import (
	"fmt"

	"github.com/hupe1980/subclust/core"
)

// Lookup resolves cluster members to their data representation while a
// hierarchy is written. Value must succeed for every object id occurring in
// the cluster order; Label may report false for unlabeled objects.
type Lookup interface {
	// Value returns the data-space coordinates of the object.
	Value(id core.ObjectID) ([]float64, error)

	// Label returns the external label of the object, if it has one.
	Label(id core.ObjectID) (string, bool)
}

// Restorer undoes a normalization applied before the cluster order was
// computed, so data rows carry original coordinates. It returns an error for
// values it cannot restore; the materializer stops at the first such member.
type Restorer func(value []float64) ([]float64, error)

// MapLookup is a map-backed Lookup for callers holding the database in
// memory. Labels is optional.
type MapLookup struct {
	Values map[core.ObjectID][]float64
	Labels map[core.ObjectID]string
}

// Value implements Lookup.
func (m MapLookup) Value(id core.ObjectID) ([]float64, error) {
	v, ok := m.Values[id]
	if !ok {
		return nil, fmt.Errorf("no value for object %d", id)
	}
	return v, nil
}

// Label implements Lookup.
func (m MapLookup) Label(id core.ObjectID) (string, bool) {
	label, ok := m.Labels[id]
	return label, ok
}
