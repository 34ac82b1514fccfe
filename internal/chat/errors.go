package chat

import "errors"

var (
	// ErrNotFound indicates the referenced client record does not exist.
	ErrNotFound = errors.New("client not found")

	// ErrInvalidTransition indicates a lifecycle transition that would move
	// a client backwards, e.g. picking a closed chat.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownChat indicates a message referenced a chat with no
	// resolvable recipient.
	ErrUnknownChat = errors.New("unknown chat")
)
