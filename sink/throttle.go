package sink

import (
	"context"
	"io"

	"github.com/hupe1980/subclust/resource"
)

// Throttled wraps a Sink and bounds its throughput through a shared
// resource controller, so materialization cannot saturate the disk or the
// network link of a colocated service.
type Throttled struct {
	inner Sink
	ctrl  *resource.Controller
}

// NewThrottled creates a throttling wrapper around inner. A nil controller
// enforces nothing.
func NewThrottled(inner Sink, ctrl *resource.Controller) *Throttled {
	return &Throttled{inner: inner, ctrl: ctrl}
}

// EnsureDir creates the directory on the wrapped sink.
func (t *Throttled) EnsureDir(ctx context.Context, dir string) error {
	return t.inner.EnsureDir(ctx, dir)
}

// Create opens a unit whose writes count against the IO limit.
func (t *Throttled) Create(ctx context.Context, name string) (Unit, error) {
	u, err := t.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	return &throttledUnit{
		u: u,
		w: resource.NewRateLimitedWriter(ctx, u, t.ctrl),
	}, nil
}

// Put writes a whole unit after acquiring its size from the IO limiter.
func (t *Throttled) Put(ctx context.Context, name string, data []byte) error {
	if err := t.ctrl.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return t.inner.Put(ctx, name, data)
}

// Open opens a unit whose reads count against the IO limit.
func (t *Throttled) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := t.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &throttledReader{
		RateLimitedReader: resource.NewRateLimitedReader(ctx, rc, t.ctrl),
		Closer:            rc,
	}, nil
}

// Delete removes a unit from the wrapped sink.
func (t *Throttled) Delete(ctx context.Context, name string) error {
	return t.inner.Delete(ctx, name)
}

// List returns the wrapped sink's unit names.
func (t *Throttled) List(ctx context.Context, prefix string) ([]string, error) {
	return t.inner.List(ctx, prefix)
}

type throttledUnit struct {
	u Unit
	w *resource.RateLimitedWriter
}

func (tu *throttledUnit) Write(p []byte) (int, error) { return tu.w.Write(p) }
func (tu *throttledUnit) Sync() error                 { return tu.u.Sync() }
func (tu *throttledUnit) Close() error                { return tu.u.Close() }

type throttledReader struct {
	*resource.RateLimitedReader
	io.Closer
}
