package model

import "errors"

var (
	// ErrUnknownModel reports a configured model name with no registered
	// definition.
	ErrUnknownModel = errors.New("model: unknown model")

	// ErrInitialisation reports a model that cannot be constructed: a
	// missing or axis-mismatched required variable, an invalid update
	// interval, or a constant override outside its valid range.
	ErrInitialisation = errors.New("model: initialisation failed")

	// ErrLifecycle reports a lifecycle call out of state order.
	ErrLifecycle = errors.New("model: lifecycle transition violation")
)
