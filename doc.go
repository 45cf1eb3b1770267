// Package subclust extracts hierarchies of axes-parallel subspace clusters
// from cluster orders and persists them as line-oriented output units.
//
// A cluster order is the linear walk a density based subspace scan emits over
// a database: each object annotated with its predecessor, its reachability
// distance and a preference vector marking the dimensions it clusters in.
// Subclust groups entries by preference vector into clusters, links each
// cluster to its closest refinements (a DAG, since a cluster may refine
// several parents) and writes one output unit per cluster plus a transcript
// of the raw order.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	sc := subclust.New(subclust.WithSink(sink.NewLocal("./out")))
//	hierarchy, _ := sc.Run(ctx, 3, ord, lookup, "run-1")
//
// Cloud mode:
//
//	s3Sink, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("hierarchies/"))
//	sc := subclust.New(subclust.WithSink(s3Sink), subclust.WithManifest(true))
//	hierarchy, _ := sc.Run(ctx, 3, ord, lookup, "run-1")
//
// # Two-Phase Use
//
// Extract and Write are independent halves of Run:
//
//	h, _ := sc.Extract(ctx, 3, ord)      // build the DAG, no IO
//	root := h.Root()                     // inspect it
//	_ = sc.Write(ctx, h, ord, lookup, "run-1")
//
// # Atomic Publication
//
// Writes are best effort: a failure leaves already flushed units in place.
// Callers needing all-or-nothing output stage and promote:
//
//	staged := sink.NewStaged(inner)
//	sc := subclust.New(subclust.WithSink(staged))
//	if _, err := sc.Run(ctx, dim, ord, lookup, "run-1"); err == nil {
//	    _ = staged.Promote(ctx)
//	}
//
// # Key Features
//
//   - Merge by preference-vector identity with first-seen member order
//   - Covering edges only (transitive reduction of the refinement order)
//   - Byte-reproducible units across runs for the same order and header
//   - Pluggable sinks: local filesystem, in-memory, S3, MinIO, plus
//     compression, staging and throttling wrappers
//   - Versioned run manifests with an atomically repointed CURRENT pointer
//   - Structured logging (log/slog) and pluggable metrics, both noop by
//     default
package subclust
