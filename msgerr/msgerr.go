// Package msgerr defines the error taxonomy shared by every transport.
package msgerr

import "errors"

// Sentinel errors. Transport-specific errors wrap one of these with
// fmt.Errorf("%w", ...) so callers can distinguish categories with
// errors.Is while still seeing the concrete cause in the message.
var (
	// ErrResourceExhausted covers shm allocation, semaphore open, or port
	// binding failures.
	ErrResourceExhausted = errors.New("msginfra: resource exhausted")

	// ErrPayloadTooLarge is returned by a shmem send port when
	// elsize*total_size exceeds the channel's nbytes. This implementation
	// rejects rather than truncates.
	ErrPayloadTooLarge = errors.New("msginfra: payload too large")

	// ErrChannelClosed is returned by Send/Recv on a joined port.
	ErrChannelClosed = errors.New("msginfra: channel closed")

	// ErrTransportFailure is a transient middleware or RPC error; callers
	// may retry.
	ErrTransportFailure = errors.New("msginfra: transport failure")

	// ErrFatal marks an invariant violation in a process-wide singleton.
	// Callers that see ErrFatal should terminate the process.
	ErrFatal = errors.New("msginfra: fatal invariant violation")
)
