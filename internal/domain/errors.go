package domain

import "errors"

var (
	// ErrInvalidArgument indicates a missing or zero key or value passed to a
	// store primitive. It is a caller bug and is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptState indicates a stored value failed its expected shape on a
	// typed read. A validated put should never produce this; it signals store
	// misuse or data corruption and must not be coerced to a default.
	ErrCorruptState = errors.New("corrupt store state")

	// ErrUnsupportedMessageType indicates a wire message outside the two
	// known types (pre-key message, ratchet message).
	ErrUnsupportedMessageType = errors.New("unsupported message type")
)
