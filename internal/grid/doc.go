// Package grid defines the simulation's spatial layout: a tessellation of
// square or hexagonal cells with stable integer cell IDs, adjacency and
// distance queries, and coordinate resolution for externally supplied data.
//
// Cell IDs are assigned row-major from the lower-left origin: the cell in
// column x and row y has ID y*NX + x. The assignment is total and immutable
// for the lifetime of the Grid.
package grid
