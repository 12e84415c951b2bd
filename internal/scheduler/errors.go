package scheduler

import "errors"

var (
	// ErrCyclicDependency reports a dependency graph with no valid order.
	// The error names the models involved in the cycle.
	ErrCyclicDependency = errors.New("scheduler: cyclic model dependency")

	// ErrTimingConfiguration reports an invalid run timing: a non-positive
	// interval, an end not after the start, a run length that is not a
	// whole number of intervals, or a model interval that is below the
	// global one or not an exact multiple of it.
	ErrTimingConfiguration = errors.New("scheduler: invalid timing configuration")
)
