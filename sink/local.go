package sink

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/subclust/internal/fs"
)

// Local implements Sink on the local file system, rooted at a directory.
//
// Create streams straight into the final file, so an aborted
// materialization leaves partial units behind; wrap the sink in a Staged
// when promotion-on-success is required. Put writes through a temporary
// file and renames, which is atomic on POSIX file systems.
type Local struct {
	root string
	fs   fs.FileSystem
}

// NewLocal creates a new Local sink rooted at the given directory.
func NewLocal(root string) *Local {
	return NewLocalWithFS(root, fs.Default)
}

// NewLocalWithFS creates a new Local sink on an explicit file system,
// usually a fault injecting one in tests.
func NewLocalWithFS(root string, fsys fs.FileSystem) *Local {
	return &Local{root: root, fs: fsys}
}

func (l *Local) path(name string) string {
	return filepath.Join(l.root, filepath.FromSlash(name))
}

// EnsureDir creates the directory and any missing parents.
func (l *Local) EnsureDir(_ context.Context, dir string) error {
	return l.fs.MkdirAll(l.path(dir), 0755)
}

// Create opens a unit for streaming writes, truncating an existing one.
func (l *Local) Create(_ context.Context, name string) (Unit, error) {
	return l.fs.OpenFile(l.path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

// Put writes a whole unit atomically: temp file, sync, rename, sync dir.
func (l *Local) Put(_ context.Context, name string, data []byte) error {
	full := l.path(name)
	tmp := full + ".tmp"

	f, err := l.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		l.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		l.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		l.fs.Remove(tmp)
		return err
	}

	if err := l.fs.Rename(tmp, full); err != nil {
		l.fs.Remove(tmp)
		return err
	}

	return l.syncDir(filepath.Dir(full))
}

// Open opens a unit for reading.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return l.fs.OpenFile(l.path(name), os.O_RDONLY, 0)
}

// Delete removes a unit.
func (l *Local) Delete(_ context.Context, name string) error {
	return l.fs.Remove(l.path(name))
}

// List walks the tree below the directory part of prefix and returns all
// unit names starting with prefix, sorted. A missing directory yields an
// empty list.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	start, _ := path.Split(prefix)
	start = path.Clean(start)

	var names []string

	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := l.fs.ReadDir(filepath.Join(l.root, filepath.FromSlash(rel)))
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		for _, e := range entries {
			child := path.Join(rel, e.Name())
			if e.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			if strings.HasPrefix(child, prefix) {
				names = append(names, child)
			}
		}
		return nil
	}

	if err := walk(start); err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// Rename moves a unit to a new name. Staged promotion uses it to avoid
// copying on backends that support renames.
func (l *Local) Rename(_ context.Context, oldname, newname string) error {
	return l.fs.Rename(l.path(oldname), l.path(newname))
}

func (l *Local) syncDir(dir string) error {
	f, err := l.fs.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
