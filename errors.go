package jobsched

import "errors"

// Sentinel errors forming the closed error taxonomy described in the
// scheduler's contract. Callers should use errors.Is to test for these
// rather than matching on message text.
var (
	// ErrInvalidWeight is returned by Register when weight == 0.
	ErrInvalidWeight = errors.New("jobsched: client weight must be >= 1")

	// ErrAlreadyRegistered is returned by Register when the client id is
	// already known to the scheduler.
	ErrAlreadyRegistered = errors.New("jobsched: client already registered")

	// ErrUnknownClient is returned by Submit and GetClientMetrics when the
	// client id has not been registered.
	ErrUnknownClient = errors.New("jobsched: unknown client")

	// ErrQueueFull is returned by Submit under the Reject overflow
	// strategy when the client's queue is at capacity.
	ErrQueueFull = errors.New("jobsched: client queue is full")
)
