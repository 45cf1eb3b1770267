package hierarchy

import (
	"strconv"
	"strings"

	"github.com/hupe1980/subclust/core"
	"github.com/hupe1980/subclust/prefvec"
)

// Cluster is one subspace cluster of a hierarchy: a preference vector plus
// the objects assigned to it, linked to its covering parents and children.
type Cluster struct {
	vec        *prefvec.Vector
	members    []core.ObjectID
	children   []int
	parents    []int
	level      int
	levelIndex int
	id         string
}

// ID returns the stable identifier of the cluster, derived from its level
// and relevant dimensions, e.g. "cluster_2_d0d2" for the cluster of
// dimensions 0 and 2. The root cluster is "cluster_0". Identifiers double
// as file names when the hierarchy is persisted.
func (c *Cluster) ID() string { return c.id }

// PreferenceVector returns the preference vector of the cluster.
func (c *Cluster) PreferenceVector() *prefvec.Vector { return c.vec }

// Members returns the object ids assigned to the cluster, in the order they
// first appeared in the cluster order.
func (c *Cluster) Members() []core.ObjectID { return c.members }

// Children returns the arena indices of the covering children, ordered by
// level and preference vector.
func (c *Cluster) Children() []int { return c.children }

// Parents returns the arena indices of the covering parents, ordered by
// level and preference vector.
func (c *Cluster) Parents() []int { return c.parents }

// Level returns the number of relevant dimensions of the cluster.
func (c *Cluster) Level() int { return c.level }

// LevelIndex returns the position of the cluster among the clusters of its
// level, in discovery order.
func (c *Cluster) LevelIndex() int { return c.levelIndex }

// String implements fmt.Stringer.
func (c *Cluster) String() string { return c.id }

func clusterID(v *prefvec.Vector) string {
	level := v.Level()

	var sb strings.Builder
	sb.WriteString("cluster_")
	sb.WriteString(strconv.Itoa(level))
	if level > 0 {
		sb.WriteByte('_')
		for _, d := range v.Dims() {
			sb.WriteByte('d')
			sb.WriteString(strconv.Itoa(d))
		}
	}

	return sb.String()
}
