package grid

import "errors"

var (
	// ErrInvalidGridConfig reports a non-positive dimension or cell area, or
	// an unrecognized grid type, in the grid configuration.
	ErrInvalidGridConfig = errors.New("grid: invalid grid configuration")

	// ErrUnknownCell reports a cell ID outside the grid's ID range.
	ErrUnknownCell = errors.New("grid: unknown cell id")

	// ErrGridMismatch reports coordinates that cannot be aligned with the
	// grid's configured resolution and extent.
	ErrGridMismatch = errors.New("grid: coordinates do not align with grid")
)
