package store

import "errors"

var (
	// ErrMissingVariable reports a read of a variable not yet in the store.
	ErrMissingVariable = errors.New("store: variable not present")

	// ErrShapeMismatch reports a write whose array shape does not match the
	// variable's resolved shape. The stored value is unchanged.
	ErrShapeMismatch = errors.New("store: array shape does not match variable shape")

	// ErrBroadcast reports a literal value that cannot be broadcast to the
	// variable's resolved shape.
	ErrBroadcast = errors.New("store: cannot broadcast value to variable shape")

	// ErrDataValidation reports file data whose dimensions or shape do not
	// match the variable's declared axes.
	ErrDataValidation = errors.New("store: file data does not match variable axes")

	// ErrUndeclaredWrite reports a model writing a variable outside its
	// declared updated-variable set.
	ErrUndeclaredWrite = errors.New("store: write to undeclared variable")

	// ErrUnknownCategory reports a categorical mapping name never defined.
	ErrUnknownCategory = errors.New("store: unknown categorical mapping")
)
