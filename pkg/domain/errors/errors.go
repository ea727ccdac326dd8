package errors

import "errors"

var (
	// requested entity does not exist, is owned by another organisation,
	// or has been soft-deleted. Callers cannot tell these apart.
	ErrMissing = errors.New("missing")

	// requested entity is found too much.
	ErrTooMuch = errors.New("too much")

	// write conflicts with an existing row (uniqueness).
	ErrConflict = errors.New("conflict")

	// request payload is malformed or empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// invite token is unknown or expired.
	ErrInvalidInviteToken = errors.New("invalid invite token")
)
