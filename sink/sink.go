package sink

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an output unit does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Sink is an abstraction for the destination of materialized hierarchies.
// Unit names use "/" as separator regardless of backend.
type Sink interface {
	// EnsureDir creates the directory dir and any missing parents. Sinks
	// without real directories treat it as a no-op.
	EnsureDir(ctx context.Context, dir string) error

	// Create opens a new unit for streaming writes. An existing unit of
	// the same name is replaced.
	Create(ctx context.Context, name string) (Unit, error)

	// Put writes a whole unit in one call, atomically where the backend
	// allows it.
	Put(ctx context.Context, name string, data []byte) error

	// Open opens an existing unit for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes a unit.
	Delete(ctx context.Context, name string) error

	// List returns the names of all units whose name starts with prefix,
	// sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Unit is a writable output unit.
type Unit interface {
	io.WriteCloser

	// Sync flushes written data to stable storage where the backend
	// distinguishes flushing from closing.
	Sync() error
}
