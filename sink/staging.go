package sink

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/hupe1980/subclust/resource"
	"golang.org/x/sync/errgroup"
)

const defaultPromoteWorkers = 4

// pointerName is the base name of pointer units (see manifest.CurrentFileName).
const pointerName = "CURRENT"

// renameSink is implemented by sinks that can move units without copying.
type renameSink interface {
	Rename(ctx context.Context, oldname, newname string) error
}

// StagedOptions configures a Staged sink.
type StagedOptions struct {
	// Prefix is the namespace staged units live under.
	Prefix string

	// Controller bounds promotion concurrency and throughput. When nil,
	// NewStaged creates one with defaultPromoteWorkers slots.
	Controller *resource.Controller
}

// DefaultStagedOptions returns default options for a Staged sink.
var DefaultStagedOptions = StagedOptions{
	Prefix: ".staging",
}

// Staged redirects every write under a staging prefix, so a failed
// materialization never touches live units. Promote moves the staged units
// to their final names; until then, readers of the wrapped sink keep
// seeing the previous state.
type Staged struct {
	inner  Sink
	prefix string
	ctrl   *resource.Controller
}

// NewStaged creates a staging wrapper around inner.
func NewStaged(inner Sink, optFns ...func(*StagedOptions)) *Staged {
	opts := DefaultStagedOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Prefix == "" {
		opts.Prefix = DefaultStagedOptions.Prefix
	}
	opts.Prefix = path.Clean(opts.Prefix)

	if opts.Controller == nil {
		opts.Controller = resource.NewController(resource.Config{
			MaxPromoteWorkers: defaultPromoteWorkers,
		})
	}

	return &Staged{
		inner:  inner,
		prefix: opts.Prefix,
		ctrl:   opts.Controller,
	}
}

func (s *Staged) staged(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Staged) final(staged string) string {
	return strings.TrimPrefix(staged, s.prefix+"/")
}

// EnsureDir creates the directory inside the staging namespace.
func (s *Staged) EnsureDir(ctx context.Context, dir string) error {
	return s.inner.EnsureDir(ctx, s.staged(dir))
}

// Create opens a staged unit for streaming writes.
func (s *Staged) Create(ctx context.Context, name string) (Unit, error) {
	return s.inner.Create(ctx, s.staged(name))
}

// Put writes a whole staged unit.
func (s *Staged) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.staged(name), data)
}

// Open opens a staged unit for reading.
func (s *Staged) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.inner.Open(ctx, s.staged(name))
}

// Delete removes a staged unit.
func (s *Staged) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.staged(name))
}

// List returns staged unit names with the staging prefix stripped.
func (s *Staged) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, s.staged(prefix))
	if err != nil {
		return nil, err
	}

	for i, n := range names {
		names[i] = s.final(n)
	}
	return names, nil
}

// Promote moves every staged unit to its final name and removes the staged
// copy. Moves run concurrently, bounded by the controller's promote slots;
// units named CURRENT move last. The emptied staging directories are left
// behind on sinks that have real directories.
func (s *Staged) Promote(ctx context.Context) error {
	names, err := s.inner.List(ctx, s.prefix+"/")
	if err != nil {
		return err
	}

	// Final directories must be in place before units move into them
	dirs := make(map[string]struct{})
	for _, name := range names {
		if dir := path.Dir(s.final(name)); dir != "." {
			dirs[dir] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := s.inner.EnsureDir(ctx, dir); err != nil {
			return err
		}
	}

	// CURRENT units move last, so readers never see a pointer to a
	// unit that has not landed yet
	var pointers []string

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if path.Base(name) == pointerName {
			pointers = append(pointers, name)
			continue
		}
		g.Go(func() error {
			if err := s.ctrl.AcquirePromote(gctx); err != nil {
				return err
			}
			defer s.ctrl.ReleasePromote()

			return s.promote(gctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, name := range pointers {
		if err := s.ctrl.AcquirePromote(ctx); err != nil {
			return err
		}

		err := s.promote(ctx, name)
		s.ctrl.ReleasePromote()

		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Staged) promote(ctx context.Context, staged string) error {
	final := s.final(staged)

	if r, ok := s.inner.(renameSink); ok {
		return r.Rename(ctx, staged, final)
	}

	rc, err := s.inner.Open(ctx, staged)
	if err != nil {
		return err
	}

	u, err := s.inner.Create(ctx, final)
	if err != nil {
		rc.Close()
		return err
	}

	if _, err := io.Copy(u, rc); err != nil {
		rc.Close()
		u.Close()
		return err
	}
	if err := rc.Close(); err != nil {
		u.Close()
		return err
	}
	if err := u.Sync(); err != nil {
		u.Close()
		return err
	}
	if err := u.Close(); err != nil {
		return err
	}

	return s.inner.Delete(ctx, staged)
}
