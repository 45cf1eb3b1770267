// Package order models cluster orders, the linear walk a density based
// scan emits over a database: each object annotated with its predecessor,
// its reachability distance and its preference vector.
package order

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/subclust/core"
	"github.com/hupe1980/subclust/prefvec"
)

// Entry is a single object in a cluster order.
type Entry struct {
	// ID identifies the database object.
	ID core.ObjectID

	// Predecessor is the object this one was reached from, core.None for
	// the first entry of a walk.
	Predecessor core.ObjectID

	// Reachability is the reachability distance of the object. The first
	// entry of a walk carries +Inf.
	Reachability float64

	// Preference is the preference vector assigned to the object.
	Preference *prefvec.Vector
}

// Order is a cluster order, in emission sequence.
type Order []Entry

// Write writes the cluster order as a line oriented transcript. Header lines
// are prefixed with "### ", then one line per entry follows:
//
//	<id> <predecessor> <reachability> <preference bits>
//
// The predecessor column holds "-" for entries without one.
func Write(w io.Writer, o Order, header []string) error {
	bw := bufio.NewWriter(w)

	for _, line := range header {
		if _, err := fmt.Fprintf(bw, "### %s\n", line); err != nil {
			return err
		}
	}

	for _, e := range o {
		pred := "-"
		if e.Predecessor != core.None {
			pred = strconv.FormatUint(uint64(e.Predecessor), 10)
		}

		if _, err := fmt.Fprintf(bw, "%d %s %s %s\n",
			e.ID,
			pred,
			strconv.FormatFloat(e.Reachability, 'g', -1, 64),
			e.Preference.Key(),
		); err != nil {
			return err
		}
	}

	return bw.Flush()
}
