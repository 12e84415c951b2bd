// Package store implements the central shared data container of a run: a
// mutable map from variable name to a shaped float64 array, validated
// against the variable registry and the grid. The store exclusively owns
// the backing arrays; models read references through Get and write back
// through Set, which overwrites in place so existing references observe
// every update.
//
// The simulation driver is the single logical owner and sequences all
// calls; there is no locking because execution is single-threaded.
package store
