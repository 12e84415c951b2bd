package config

import "errors"

var (
	// ErrDuplicateKey reports the same fully-qualified key defined in two
	// different configuration documents. Merging is additive, never
	// override-by-last.
	ErrDuplicateKey = errors.New("config: duplicate configuration key")

	// ErrSchemaViolation reports a merged tree that fails schema validation:
	// an unknown top-level key, a missing required key, or a value outside
	// its declared type or range.
	ErrSchemaViolation = errors.New("config: schema violation")

	// ErrMissingKey reports an access of a key path with no defined value.
	ErrMissingKey = errors.New("config: missing key")

	// ErrBadValue reports a defined value that cannot be converted to the
	// requested Go type.
	ErrBadValue = errors.New("config: bad value")
)
