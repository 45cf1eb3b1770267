// Package testutil provides testing utilities for subclust.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random cluster orders and the
// value lookups that go with them.
//
// # Random Order Generation
//
//	rng := testutil.NewRNG(seed)
//	ord := rng.SubspaceOrder(10000, 8, 16) // 16 planted subspaces
//	values := rng.Values(ord, 8)
package testutil
