package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/subclust/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestLocal_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocal(tmpDir)

	ctx := context.Background()

	// 1. Create a unit with streaming writes
	err := s.EnsureDir(ctx, "run")
	require.NoError(t, err)

	data := []byte("1 - +Inf 000\n2 1 0.25 101\n")

	u, err := s.Create(ctx, "run/clusterOrder")
	require.NoError(t, err)

	n, err := u.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	require.NoError(t, u.Sync())
	require.NoError(t, u.Close())

	// Verify the file exists on disk
	_, err = os.Stat(filepath.Join(tmpDir, "run", "clusterOrder"))
	require.NoError(t, err)

	// 2. Open and read it back
	rc, err := s.Open(ctx, "run/clusterOrder")
	require.NoError(t, err)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, data, got)

	// 3. Put a second unit in one shot
	err = s.Put(ctx, "run/cluster_0", []byte("### level: 0\n"))
	require.NoError(t, err)

	// 4. List
	names, err := s.List(ctx, "run/")
	require.NoError(t, err)
	require.Equal(t, []string{"run/clusterOrder", "run/cluster_0"}, names)

	// 5. Delete
	err = s.Delete(ctx, "run/clusterOrder")
	require.NoError(t, err)

	_, err = s.Open(ctx, "run/clusterOrder")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_PutAtomic(t *testing.T) {
	tmpDir := t.TempDir()

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(".tmp", fs.Fault{FailOnSync: true})

	s := NewLocalWithFS(tmpDir, faulty)
	ctx := context.Background()

	err := s.Put(ctx, "cluster_0", []byte("### level: 0\n"))
	require.Error(t, err)

	// Neither the final unit nor the temp file survive a failed Put
	_, err = os.Stat(filepath.Join(tmpDir, "cluster_0"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(tmpDir, "cluster_0.tmp"))
	require.True(t, os.IsNotExist(err))
}

func TestLocal_PutOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocal(tmpDir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "cluster_0", []byte("old")))
	require.NoError(t, s.Put(ctx, "cluster_0", []byte("new")))

	rc, err := s.Open(ctx, "cluster_0")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), got)
}

func TestLocal_ListNested(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocal(tmpDir)
	ctx := context.Background()

	require.NoError(t, s.EnsureDir(ctx, "a/b"))
	require.NoError(t, s.Put(ctx, "a/b/cluster_0", []byte("x")))
	require.NoError(t, s.Put(ctx, "a/cluster_1_d0", []byte("y")))
	require.NoError(t, s.Put(ctx, "top", []byte("z")))

	names, err := s.List(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/b/cluster_0", "a/cluster_1_d0"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"a/b/cluster_0", "a/cluster_1_d0", "top"}, all)

	// A missing directory lists as empty, not as an error
	none, err := s.List(ctx, "missing/")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLocal_Rename(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewLocal(tmpDir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "old", []byte("payload")))
	require.NoError(t, s.Rename(ctx, "old", "new"))

	_, err := s.Open(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	rc, err := s.Open(ctx, "new")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}
