// Package port defines the uniform capability contract every transport's
// send/receive endpoints satisfy (spec §4.1), and the transport Kind that
// the factory package dispatches channel construction on (spec §4.6).
package port

import "github.com/alephcore/msginfra/meta"

// Kind identifies a transport backing for GetChannel.
type Kind int

const (
	SHMEM Kind = iota
	PUBSUB
	RPC
)

func (k Kind) String() string {
	switch k {
	case SHMEM:
		return "SHMEM"
	case PUBSUB:
		return "PUBSUB"
	case RPC:
		return "RPC"
	default:
		return "UNKNOWN"
	}
}

// Port is the capability set common to both directions of a channel.
type Port interface {
	// Start performs transport-specific rendezvous. Idempotent; must be
	// called exactly once before any I/O.
	Start() error

	// Join marks the port closed. Idempotent. Pending Recvs must return
	// or error within a bounded time.
	Join() error

	// Probe returns true iff a Recv would not block at this instant.
	// Advisory; races are allowed.
	Probe() bool
}

// SendPort is the send side of a channel.
type SendPort interface {
	Port
	// Send transfers one message, blocking if the transport is full.
	// Returns msgerr.ErrChannelClosed if the port has been joined. The
	// shmem send port returns msgerr.ErrPayloadTooLarge if the payload does
	// not fit its slot; the pubsub and rpc send ports do not check payload
	// size. The caller may free payload after Send returns.
	Send(m meta.Meta, payload []byte) error
}

// RecvPort is the receive side of a channel.
type RecvPort interface {
	Port
	// Recv blocks until a message is available or the port is joined,
	// in which case err is msgerr.ErrChannelClosed.
	Recv() (m meta.Meta, payload []byte, err error)
	// Peek returns a copy of the next message without consuming it.
	Peek() (m meta.Meta, payload []byte, err error)
}

// Channel binds one transport resource to a send port and a receive port.
type Channel interface {
	GetSendPort() SendPort
	GetRecvPort() RecvPort
	// Name identifies this channel for diagnostics (src->dst).
	Name() string
}

// Observable is implemented by receive ports that support the selector's
// broadcast-on-arrival observer pattern (spec §4.8). AddObserver returns an
// unsubscribe function, since bare func values are not comparable in Go.
type Observable interface {
	AddObserver(fn func()) (unsubscribe func())
}
