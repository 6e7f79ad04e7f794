package contextio

import "errors"

var (
	// ErrNotImplemented is returned by operations the client does not support.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownAction is returned for an Action or action name outside the
	// action table.
	ErrUnknownAction = errors.New("unknown action")

	// ErrResponseError is returned by Response.Decode when the response is
	// flagged as an error.
	ErrResponseError = errors.New("response has error flag set")
)
