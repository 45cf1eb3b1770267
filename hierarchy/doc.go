// Package hierarchy derives hierarchies of axes parallel subspace clusters
// from annotated cluster orders.
//
// Build groups the entries of a cluster order by preference vector, links
// the resulting clusters with covering edges (parent vector strictly below
// the child vector, no cluster in between) and roots the graph at the
// cluster of the empty vector, synthesizing that cluster when no entry
// carries one. The result is a DAG, not a tree: a cluster whose vector
// refines several incomparable vectors has several parents.
//
// Clusters live in an arena ordered by discovery; edges are arena indices,
// not pointers.
package hierarchy
