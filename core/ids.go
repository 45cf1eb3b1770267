package core

// ObjectID is a dense identifier for a database object within a single
// cluster order. It is strictly 32-bit, allowing for max 4 Billion objects
// per order. Used for all hot-path structures (member lists, bitsets,
// dedup maps).
type ObjectID uint32

// None marks the absence of an object, e.g. the predecessor of the first
// entry in a cluster order. Real identifiers start at 1.
const None ObjectID = 0

// MaxObjectID is the maximum possible value for an ObjectID.
const MaxObjectID = ^ObjectID(0)
