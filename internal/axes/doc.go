// Package axes catalogs every named scientific variable the simulator can
// produce or consume, together with the named axes (dimensions) that shape
// its data. The registry is an explicit context object: the application
// constructs one per run, models register their descriptors into it during
// startup, and it is treated as immutable once the run begins.
package axes
