package payment

import "errors"

var (
	// ErrSessionNotFound is returned when a checkout session does not exist.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrUnknownProvider is returned when no provider is registered under
	// the requested name.
	ErrUnknownProvider = errors.New("unknown payment provider")
)
