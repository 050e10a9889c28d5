package engine

import "github.com/yanun0323/errors"

// Fatal fault classes. Any of these halts the engine that raised it;
// sibling symbols keep running.
var (
	// ErrConnectivity marks the venue or store being unreachable at
	// engine start.
	ErrConnectivity = errors.New("connectivity fault")

	// ErrVenueProtocol marks a non-success status from the venue or the
	// backfill endpoint.
	ErrVenueProtocol = errors.New("venue protocol fault")

	// ErrIntegrity marks a persisted row count that does not match the
	// expected write count.
	ErrIntegrity = errors.New("integrity fault")
)

// Fault is a fatal error reported by one symbol's engine to the
// supervisor.
type Fault struct {
	Symbol string
	Err    error
}
