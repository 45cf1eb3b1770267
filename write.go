package subclust

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/subclust/hierarchy"
	"github.com/hupe1980/subclust/internal/visited"
	"github.com/hupe1980/subclust/manifest"
	"github.com/hupe1980/subclust/order"
)

// transcriptName is the output unit holding the raw cluster order.
const transcriptName = "clusterOrder"

// ruleWidth is the width of the '#' rule separating cluster metadata from
// data rows.
const ruleWidth = 80

// Write materializes a hierarchy under dest: one transcript unit for the raw
// cluster order first, then one unit per cluster, depth first from the root.
// Every cluster is written exactly once no matter how many parents reference
// it, and children are visited smallest first, so two runs over the same
// hierarchy and header produce byte-identical units.
//
// Cancellation is checked between units only. On any failure the units
// already flushed remain in place; callers needing atomicity write through
// sink.NewStaged and promote on success.
func (sc *Subclust) Write(ctx context.Context, h *hierarchy.Hierarchy, ord order.Order, lookup Lookup, dest string) error {
	start := time.Now()
	units, err := sc.write(ctx, h, ord, lookup, dest)
	duration := time.Since(start)

	sc.metrics.RecordMaterialize(units, duration, err)
	sc.logger.LogWrite(ctx, dest, units, err)

	if err != nil {
		return err
	}

	if sc.manifest {
		return sc.saveManifest(ctx, h, dest)
	}

	return nil
}

func (sc *Subclust) write(ctx context.Context, h *hierarchy.Hierarchy, ord order.Order, lookup Lookup, dest string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if dest != "" {
		if err := sc.sink.EnsureDir(ctx, dest); err != nil {
			return 0, &ErrSinkUnavailable{Target: dest, cause: err}
		}
	}

	units := 0

	if err := sc.writeTranscript(ctx, ord, dest); err != nil {
		return units, err
	}
	units++

	// Depth first with an explicit stack. Convergent clusters may be pushed
	// once per parent, so the visited set is consulted both before push and
	// after pop; each cluster is written exactly once.
	seen := visited.New(h.Len())
	stack := make([]int, 0, h.Len())
	stack = append(stack, h.RootIndex())

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return units, err
		}

		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen.Visited(i) {
			continue
		}
		seen.Visit(i)

		c := h.Cluster(i)
		if err := sc.writeCluster(ctx, h, c, lookup, dest); err != nil {
			return units, err
		}
		units++

		// Children are sorted ascending; pushing them reversed pops the
		// smallest first.
		children := c.Children()
		for j := len(children) - 1; j >= 0; j-- {
			if !seen.Visited(children[j]) {
				stack = append(stack, children[j])
			}
		}
	}

	return units, nil
}

// writeTranscript writes the raw cluster order as the first output unit.
func (sc *Subclust) writeTranscript(ctx context.Context, ord order.Order, dest string) error {
	name := path.Join(dest, transcriptName)

	u, err := sc.sink.Create(ctx, name)
	if err != nil {
		return &ErrSinkUnavailable{Target: name, cause: err}
	}

	if err := order.Write(u, ord, sc.header); err != nil {
		_ = u.Close()
		return &ErrSinkUnavailable{Target: name, cause: err}
	}

	if err := u.Sync(); err != nil {
		_ = u.Close()
		return &ErrSinkUnavailable{Target: name, cause: err}
	}

	if err := u.Close(); err != nil {
		return &ErrSinkUnavailable{Target: name, cause: err}
	}

	return nil
}

func (sc *Subclust) writeCluster(ctx context.Context, h *hierarchy.Hierarchy, c *hierarchy.Cluster, lookup Lookup, dest string) error {
	start := time.Now()
	rows, err := sc.writeClusterUnit(ctx, h, c, lookup, dest)
	sc.metrics.RecordClusterWrite(rows, time.Since(start), err)
	sc.logger.LogClusterWrite(ctx, c.ID(), rows, err)
	return err
}

// writeClusterUnit writes one cluster: the header block, the "### " marked
// metadata lines, an 80 character '#' rule, then one data row per member.
// Rows are resolved up front, so a restoration failure aborts before the
// unit is created.
func (sc *Subclust) writeClusterUnit(ctx context.Context, h *hierarchy.Hierarchy, c *hierarchy.Cluster, lookup Lookup, dest string) (int, error) {
	rows, err := sc.formatRows(c, lookup)
	if err != nil {
		return 0, err
	}

	name := path.Join(dest, c.ID())

	u, err := sc.sink.Create(ctx, name)
	if err != nil {
		return 0, &ErrSinkUnavailable{Target: name, cause: err}
	}

	// Write errors stick to the buffered writer and surface at Flush.
	bw := bufio.NewWriter(u)

	for _, line := range sc.header {
		fmt.Fprintf(bw, "### %s\n", line)
	}

	fmt.Fprintf(bw, "### preference vector: %s\n", c.PreferenceVector().Format())
	fmt.Fprintf(bw, "### children: %s\n", joinIDs(h, c.Children()))
	fmt.Fprintf(bw, "### parents: %s\n", joinIDs(h, c.Parents()))
	fmt.Fprintf(bw, "### level: %d\n", c.Level())
	fmt.Fprintf(bw, "### level index: %d\n", c.LevelIndex())

	bw.WriteString(strings.Repeat("#", ruleWidth))
	bw.WriteByte('\n')

	for _, row := range rows {
		bw.WriteString(row)
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		_ = u.Close()
		return 0, &ErrSinkUnavailable{Target: name, cause: err}
	}

	if err := u.Sync(); err != nil {
		_ = u.Close()
		return 0, &ErrSinkUnavailable{Target: name, cause: err}
	}

	if err := u.Close(); err != nil {
		return 0, &ErrSinkUnavailable{Target: name, cause: err}
	}

	return len(rows), nil
}

// formatRows renders the data rows of a cluster in member order: the
// restored value representation, then a space and the member's label when it
// has one.
func (sc *Subclust) formatRows(c *hierarchy.Cluster, lookup Lookup) ([]string, error) {
	rows := make([]string, 0, len(c.Members()))

	for _, id := range c.Members() {
		value, err := lookup.Value(id)
		if err != nil {
			return nil, &ErrMalformedOrder{Reason: fmt.Sprintf("member %d has no value", id), cause: err}
		}

		if sc.restorer != nil {
			value, err = sc.restorer(value)
			if err != nil {
				return nil, &ErrIncompatibleRestoration{ID: id, cause: err}
			}
		}

		var sb strings.Builder
		for i, v := range value {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if label, ok := lookup.Label(id); ok {
			sb.WriteByte(' ')
			sb.WriteString(label)
		}

		rows = append(rows, sb.String())
	}

	return rows, nil
}

func joinIDs(h *hierarchy.Hierarchy, indices []int) string {
	ids := make([]string, len(indices))
	for i, ci := range indices {
		ids[i] = h.Cluster(ci).ID()
	}
	return strings.Join(ids, ":")
}

// saveManifest records the written units in a fresh manifest and repoints
// CURRENT at it. Unit paths are relative to dest.
func (sc *Subclust) saveManifest(ctx context.Context, h *hierarchy.Hierarchy, dest string) error {
	store := manifest.NewStore(sc.sink, dest, sc.codec)

	m, err := store.Load(ctx)
	if err != nil {
		sc.logger.LogManifest(ctx, 0, err)
		return &ErrSinkUnavailable{Target: path.Join(dest, manifest.CurrentFileName), cause: err}
	}

	m.Dimensionality = h.Dimensionality()
	m.Transcript = transcriptName
	m.Clusters = make([]manifest.ClusterInfo, 0, h.Len())
	m.CreatedAtUnixNano = 0

	for _, c := range h.All() {
		m.Clusters = append(m.Clusters, manifest.ClusterInfo{
			ID:         c.ID(),
			Level:      c.Level(),
			LevelIndex: c.LevelIndex(),
			Members:    len(c.Members()),
			Path:       c.ID(),
		})
	}

	err = store.Save(ctx, m)
	sc.logger.LogManifest(ctx, m.ID, err)
	if err != nil {
		return &ErrSinkUnavailable{Target: path.Join(dest, manifest.CurrentFileName), cause: err}
	}

	return nil
}
