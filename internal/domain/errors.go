package domain

import "errors"

// Sentinel errors for the chat session layer. Callers match them with
// errors.Is; concrete failures are wrapped around them with %w.
var (
	ErrDirectoryUnavailable = errors.New("room directory unavailable")
	ErrMalformedInbound     = errors.New("malformed inbound message")
	ErrTransport            = errors.New("transport error")
	ErrInvalidOperation     = errors.New("invalid operation for current session state")
)
