package subclust

import (
	"context"
	"time"

	"github.com/hupe1980/subclust/codec"
	"github.com/hupe1980/subclust/hierarchy"
	"github.com/hupe1980/subclust/order"
	"github.com/hupe1980/subclust/sink"
)

// Subclust extracts hierarchies of subspace clusters from cluster orders and
// persists them on a sink. Instances are safe for concurrent use; each call
// owns its traversal state.
type Subclust struct {
	sink     sink.Sink
	codec    codec.Codec
	metrics  MetricsCollector
	logger   *Logger
	restorer Restorer
	header   []string
	manifest bool
}

// New creates a Subclust instance.
//
// With no options, hierarchies are written to the local filesystem below the
// working directory, manifests are disabled and logging and metrics are
// noops.
func New(optFns ...Option) *Subclust {
	opts := applyOptions(optFns)

	c := opts.codec
	if c == nil {
		c = codec.Default
	}

	s := opts.sink
	if s == nil {
		s = sink.NewLocal(".")
	}

	return &Subclust{
		sink:     s,
		codec:    c,
		metrics:  opts.metrics,
		logger:   opts.logger,
		restorer: opts.restorer,
		header:   opts.header,
		manifest: opts.manifest,
	}
}

// Extract derives the hierarchy of subspace clusters encoded in a cluster
// order over a data space of dimensionality dim.
//
// Entries sharing a preference vector resolve to one cluster, covering edges
// link each cluster to its closest refinements, and the cluster of the empty
// vector becomes the root, synthesized when no entry carries it. Extracting
// twice from the same order yields identical identifiers, member lists and
// edges.
func (sc *Subclust) Extract(ctx context.Context, dim int, ord order.Order) (*hierarchy.Hierarchy, error) {
	start := time.Now()
	h, err := hierarchy.Build(dim, ord)
	duration := time.Since(start)
	err = translateError(err)

	clusters := 0
	if h != nil {
		clusters = h.Len()
	}

	sc.metrics.RecordExtract(clusters, duration, err)
	sc.logger.LogExtract(ctx, dim, clusters, err)

	return h, err
}

// Run extracts the hierarchy from ord and writes it under dest in one call.
// See Extract and Write for the individual halves.
func (sc *Subclust) Run(ctx context.Context, dim int, ord order.Order, lookup Lookup, dest string) (*hierarchy.Hierarchy, error) {
	h, err := sc.Extract(ctx, dim, ord)
	if err != nil {
		return nil, err
	}

	if err := sc.Write(ctx, h, ord, lookup, dest); err != nil {
		return nil, err
	}

	return h, nil
}
