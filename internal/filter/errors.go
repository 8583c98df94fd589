package filter

import "errors"

var (
	// ErrEmptyInput is returned by CheckVar for an empty value.
	ErrEmptyInput = errors.New("filter: empty input")

	// ErrUnknownKind is returned by CheckVar for a kind it does not handle.
	ErrUnknownKind = errors.New("filter: unknown check kind")

	// ErrRejected is returned when a value fails validation.
	ErrRejected = errors.New("filter: value rejected")

	ErrUnknownExtension = errors.New("filter: unknown extension")
)
