package manifest

import (
	"context"
	"testing"

	"github.com/hupe1980/subclust/codec"
	"github.com/hupe1980/subclust/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewStore(sink.NewMemory(), "run", nil)

	m, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.ID)
	assert.Equal(t, CurrentVersion, m.Version)
	assert.Empty(t, m.Clusters)
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()
	store := NewStore(mem, "run", nil)

	m := &Manifest{
		Dimensionality: 3,
		Transcript:     "clusterOrder",
		Clusters: []ClusterInfo{
			{ID: "cluster_0", Level: 0, LevelIndex: 0, Members: 0, Path: "cluster_0"},
			{ID: "cluster_1_d0", Level: 1, LevelIndex: 0, Members: 2, Path: "cluster_1_d0"},
		},
	}

	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(1), m.ID)
	assert.Equal(t, "go-json", m.Codec)
	assert.NotZero(t, m.CreatedAtUnixNano)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	// Both the manifest file and the CURRENT pointer exist
	names, err := mem.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/CURRENT", "run/MANIFEST-000001.json"}, names)
}

func TestStore_SaveTwice(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()
	store := NewStore(mem, "run", codec.JSON{})

	m := &Manifest{Dimensionality: 3}
	require.NoError(t, store.Save(ctx, m))
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(2), m.ID)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.ID)
	assert.Equal(t, "json", got.Codec)

	// Older manifests stay behind for inspection
	names, err := mem.List(ctx, "run/MANIFEST-")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/MANIFEST-000001.json", "run/MANIFEST-000002.json"}, names)
}

func TestStore_UnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()

	require.NoError(t, mem.Put(ctx, "run/MANIFEST-000001.json", []byte(`{"version":99}`)))
	require.NoError(t, mem.Put(ctx, "run/CURRENT", []byte("MANIFEST-000001.json")))

	store := NewStore(mem, "run", nil)
	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest version")
}

func TestStore_UnknownCodec(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()

	require.NoError(t, mem.Put(ctx, "run/MANIFEST-000001.json", []byte(`{"version":1,"codec":"msgpack"}`)))
	require.NoError(t, mem.Put(ctx, "run/CURRENT", []byte("MANIFEST-000001.json")))

	store := NewStore(mem, "run", nil)
	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown manifest codec")
}

func TestStore_DanglingCurrent(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()

	require.NoError(t, mem.Put(ctx, "run/CURRENT", []byte("MANIFEST-000007.json")))

	store := NewStore(mem, "run", nil)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, sink.ErrNotFound)
}

func TestStore_LocalRoundtrip(t *testing.T) {
	ctx := context.Background()
	local := sink.NewLocal(t.TempDir())
	store := NewStore(local, "", nil)

	m := &Manifest{Dimensionality: 8, Transcript: "clusterOrder"}
	require.NoError(t, store.Save(ctx, m))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
