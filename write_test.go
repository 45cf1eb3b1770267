package subclust

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/subclust/core"
	"github.com/hupe1980/subclust/manifest"
	"github.com/hupe1980/subclust/order"
	"github.com/hupe1980/subclust/prefvec"
	"github.com/hupe1980/subclust/sink"
	"github.com/hupe1980/subclust/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUnit(t *testing.T, s sink.Sink, name string) string {
	t.Helper()

	rc, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return string(data)
}

// countingSink counts Create calls per unit name.
type countingSink struct {
	sink.Sink
	mu      sync.Mutex
	creates map[string]int
}

func (c *countingSink) Create(ctx context.Context, name string) (sink.Unit, error) {
	c.mu.Lock()
	c.creates[name]++
	c.mu.Unlock()
	return c.Sink.Create(ctx, name)
}

// failCreateSink fails Create for one unit name.
type failCreateSink struct {
	sink.Sink
	failName string
}

func (f *failCreateSink) Create(ctx context.Context, name string) (sink.Unit, error) {
	if name == f.failName {
		return nil, errors.New("disk full")
	}
	return f.Sink.Create(ctx, name)
}

func TestWrite_Scenario(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()
	sc := New(WithSink(mem), WithHeader("demo run"))

	h, err := sc.Extract(ctx, 3, scenarioOrder())
	require.NoError(t, err)
	require.NoError(t, sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run"))

	names, err := mem.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run/clusterOrder",
		"run/cluster_0",
		"run/cluster_1_d0",
		"run/cluster_2_d0d1",
	}, names)

	rule := strings.Repeat("#", 80)

	assert.Equal(t, ""+
		"### demo run\n"+
		"1 - +Inf 100\n"+
		"2 1 0.5 100\n"+
		"3 2 0.9 110\n",
		readUnit(t, mem, "run/clusterOrder"))

	assert.Equal(t, ""+
		"### demo run\n"+
		"### preference vector: 0, 0, 0\n"+
		"### children: cluster_1_d0\n"+
		"### parents: \n"+
		"### level: 0\n"+
		"### level index: 0\n"+
		rule+"\n",
		readUnit(t, mem, "run/cluster_0"))

	assert.Equal(t, ""+
		"### demo run\n"+
		"### preference vector: 1, 0, 0\n"+
		"### children: cluster_2_d0d1\n"+
		"### parents: cluster_0\n"+
		"### level: 1\n"+
		"### level index: 0\n"+
		rule+"\n"+
		"1.5 2 3 a\n"+
		"1.25 2.5 3.5 b\n",
		readUnit(t, mem, "run/cluster_1_d0"))

	assert.Equal(t, ""+
		"### demo run\n"+
		"### preference vector: 1, 1, 0\n"+
		"### children: \n"+
		"### parents: cluster_1_d0\n"+
		"### level: 2\n"+
		"### level index: 0\n"+
		rule+"\n"+
		"0.5 0.25 4\n",
		readUnit(t, mem, "run/cluster_2_d0d1"))
}

// TestWrite_DiamondWritesOnce materializes an artificial diamond: the
// cluster of {d0,d1} refines both {d0} and {d1}, so it is reachable via two
// parent paths but must be written exactly once.
func TestWrite_DiamondWritesOnce(t *testing.T) {
	ctx := context.Background()

	ord := order.Order{
		{ID: 1, Reachability: math.Inf(1), Preference: prefvec.FromDims(3, 0)},
		{ID: 2, Predecessor: 1, Reachability: 0.3, Preference: prefvec.FromDims(3, 1)},
		{ID: 3, Predecessor: 2, Reachability: 0.6, Preference: prefvec.FromDims(3, 0, 1)},
	}
	lookup := MapLookup{
		Values: map[core.ObjectID][]float64{
			1: {1, 0, 0},
			2: {0, 1, 0},
			3: {1, 1, 0},
		},
	}

	cs := &countingSink{Sink: sink.NewMemory(), creates: make(map[string]int)}
	sc := New(WithSink(cs))

	h, err := sc.Extract(ctx, 3, ord)
	require.NoError(t, err)
	require.NoError(t, sc.Write(ctx, h, ord, lookup, "run"))

	require.Len(t, cs.creates, 5)
	for name, count := range cs.creates {
		assert.Equal(t, 1, count, "unit %s", name)
	}

	shared := readUnit(t, cs, "run/cluster_2_d0d1")
	assert.Contains(t, shared, "### parents: cluster_1_d1:cluster_1_d0\n")

	root := readUnit(t, cs, "run/cluster_0")
	assert.Contains(t, root, "### children: cluster_1_d1:cluster_1_d0\n")
}

func TestWrite_RestorationAborts(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()

	// Doubles every coordinate; rejects members recorded below scale 1.
	restorer := func(value []float64) ([]float64, error) {
		if value[0] < 1 {
			return nil, errors.New("value below restorable range")
		}
		out := make([]float64, len(value))
		for i, v := range value {
			out[i] = v * 2
		}
		return out, nil
	}

	sc := New(WithSink(mem), WithRestorer(restorer))

	h, err := sc.Extract(ctx, 3, scenarioOrder())
	require.NoError(t, err)

	err = sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run")

	var er *ErrIncompatibleRestoration
	require.ErrorAs(t, err, &er)
	assert.Equal(t, core.ObjectID(3), er.ID)

	// Units flushed before the failure remain; nothing beyond them exists.
	names, err := mem.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run/clusterOrder",
		"run/cluster_0",
		"run/cluster_1_d0",
	}, names)

	restored := readUnit(t, mem, "run/cluster_1_d0")
	assert.Contains(t, restored, "3 4 6 a\n2.5 5 7 b\n")
}

func TestWrite_MissingValue(t *testing.T) {
	ctx := context.Background()
	sc := New(WithSink(sink.NewMemory()))

	h, err := sc.Extract(ctx, 3, scenarioOrder())
	require.NoError(t, err)

	lookup := scenarioLookup()
	delete(lookup.Values, 3)

	err = sc.Write(ctx, h, scenarioOrder(), lookup, "run")

	var em *ErrMalformedOrder
	require.ErrorAs(t, err, &em)
	assert.Contains(t, em.Reason, "member 3")
}

func TestWrite_SinkUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()
	fs := &failCreateSink{Sink: mem, failName: "run/cluster_1_d0"}
	sc := New(WithSink(fs))

	h, err := sc.Extract(ctx, 3, scenarioOrder())
	require.NoError(t, err)

	err = sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run")

	var es *ErrSinkUnavailable
	require.ErrorAs(t, err, &es)
	assert.Equal(t, "run/cluster_1_d0", es.Target)

	names, err := mem.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/clusterOrder", "run/cluster_0"}, names)
}

func TestWrite_Canceled(t *testing.T) {
	mem := sink.NewMemory()
	sc := New(WithSink(mem))

	h, err := sc.Extract(context.Background(), 3, scenarioOrder())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mem.Len())
}

func TestWrite_Deterministic(t *testing.T) {
	ctx := context.Background()

	write := func() (sink.Sink, []string) {
		mem := sink.NewMemory()
		sc := New(WithSink(mem), WithHeader("fixed header", "second line"))

		h, err := sc.Extract(ctx, 3, scenarioOrder())
		require.NoError(t, err)
		require.NoError(t, sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run"))

		names, err := mem.List(ctx, "run/")
		require.NoError(t, err)
		return mem, names
	}

	first, firstNames := write()
	second, secondNames := write()

	require.Equal(t, firstNames, secondNames)
	for _, name := range firstNames {
		assert.Equal(t, readUnit(t, first, name), readUnit(t, second, name), "unit %s", name)
	}
}

func TestWrite_HeaderCopied(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()

	lines := []string{"alpha"}
	sc := New(WithSink(mem), WithHeader(lines...))
	lines[0] = "mutated"

	h, err := sc.Extract(ctx, 3, scenarioOrder())
	require.NoError(t, err)
	require.NoError(t, sc.Write(ctx, h, scenarioOrder(), scenarioLookup(), "run"))

	assert.True(t, strings.HasPrefix(readUnit(t, mem, "run/clusterOrder"), "### alpha\n"))
}

func TestWrite_Manifest(t *testing.T) {
	ctx := context.Background()
	mem := sink.NewMemory()
	sc := New(WithSink(mem), WithManifest(true))

	_, err := sc.Run(ctx, 3, scenarioOrder(), scenarioLookup(), "run")
	require.NoError(t, err)

	store := manifest.NewStore(mem, "run", nil)
	m, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), m.ID)
	assert.Equal(t, 3, m.Dimensionality)
	assert.Equal(t, "clusterOrder", m.Transcript)
	assert.NotZero(t, m.CreatedAtUnixNano)

	require.Len(t, m.Clusters, 3)
	assert.Equal(t, "cluster_1_d0", m.Clusters[0].ID)
	assert.Equal(t, 2, m.Clusters[0].Members)
	assert.Equal(t, "cluster_2_d0d1", m.Clusters[1].ID)
	assert.Equal(t, "cluster_0", m.Clusters[2].ID)
	for _, ci := range m.Clusters {
		assert.Equal(t, ci.ID, ci.Path)
	}

	names, err := mem.List(ctx, "run/")
	require.NoError(t, err)
	assert.Contains(t, names, "run/CURRENT")
	assert.Contains(t, names, "run/MANIFEST-000001.json")

	// A second run bumps the manifest id.
	_, err = sc.Run(ctx, 3, scenarioOrder(), scenarioLookup(), "run")
	require.NoError(t, err)

	m, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.ID)
}

func benchmarkOrder(n, dim int) (order.Order, MapLookup) {
	rng := testutil.NewRNG(1)

	ord := rng.SubspaceOrder(n, dim, 24)

	lookup := MapLookup{
		Values: rng.Values(ord, dim),
		Labels: make(map[core.ObjectID]string),
	}
	for i, e := range ord {
		if i%10 == 0 {
			lookup.Labels[e.ID] = "obj-" + strconv.Itoa(i)
		}
	}

	return ord, lookup
}

func BenchmarkExtract(b *testing.B) {
	ctx := context.Background()
	ord, _ := benchmarkOrder(10000, 8)
	sc := New(WithSink(sink.NewMemory()))

	b.ReportAllocs()
	for b.Loop() {
		if _, err := sc.Extract(ctx, 8, ord); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWrite(b *testing.B) {
	ctx := context.Background()
	ord, lookup := benchmarkOrder(10000, 8)
	mem := sink.NewMemory()
	sc := New(WithSink(mem))

	h, err := sc.Extract(ctx, 8, ord)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if err := sc.Write(ctx, h, ord, lookup, "bench"); err != nil {
			b.Fatal(err)
		}
	}
}
