package gateway

import "errors"

// Sentinel errors for gateway operations.
var (
	// ErrInvalidCommand is returned when a command has no identifier or address.
	ErrInvalidCommand = errors.New("gateway: invalid command")

	// ErrTimeout is returned when the gateway does not answer a request in time.
	ErrTimeout = errors.New("gateway: request timed out")

	// ErrGateway is returned when the gateway answers with an error.
	ErrGateway = errors.New("gateway: error response")

	// ErrNotStarted is returned by requests made before Start or after Stop.
	ErrNotStarted = errors.New("gateway: client not started")
)
