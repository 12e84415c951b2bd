package axes

import "errors"

var (
	// ErrDuplicateVariable reports a re-registration of a variable name with
	// a different descriptor. Identical re-registration is a no-op.
	ErrDuplicateVariable = errors.New("axes: variable already registered with a different descriptor")

	// ErrUnknownVariable reports a lookup of a name never registered.
	ErrUnknownVariable = errors.New("axes: unknown variable")

	// ErrUnknownAxis reports a descriptor axis outside the fixed vocabulary.
	ErrUnknownAxis = errors.New("axes: unknown axis name")

	// ErrUnresolvedAxis reports an axis with no configured size.
	ErrUnresolvedAxis = errors.New("axes: axis has no known size")
)
