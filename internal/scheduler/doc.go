// Package scheduler sequences the run: it resolves the per-phase model
// dependency graphs into deterministic execution orders and drives the
// timing loop, advancing global simulation time by the configured interval
// and updating each model whenever its own cadence falls due.
//
// Execution is single-threaded and cooperative. Within a tick, models run
// strictly in dependency order and each Update runs to completion before
// the next starts; the first failure aborts the loop with no rollback.
package scheduler
