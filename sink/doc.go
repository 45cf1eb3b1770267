// Package sink provides storage abstraction for materialized cluster
// hierarchies.
//
// Sink is the interface for writing and reading line oriented output units.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - Local: local filesystem with atomic Put
//   - Memory: in-memory units for tests
//   - s3.Store: Amazon S3 with streaming uploads
//   - minio.Store: any S3 compatible endpoint
//
// # Wrappers
//
// Wrappers compose over any Sink:
//
//   - Compressed: transparent LZ4 or ZSTD frames per unit
//   - Staged: writes land under a staging prefix, Promote moves them live
//   - Throttled: write throughput bounded by a resource controller
//
// # Custom Implementations
//
// Implement the Sink interface to support other backends:
//
//	type Sink interface {
//	    EnsureDir(ctx, dir) error            // Create a directory
//	    Create(ctx, name) (Unit, error)      // Open a unit for streaming writes
//	    Put(ctx, name, data) error           // Whole unit write
//	    Open(ctx, name) (io.ReadCloser, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package sink
