// Package factory implements GetChannel (spec §4.6): the single entry point
// that builds a named channel over whichever transport its Kind selects,
// hiding SHMEM/PUBSUB/RPC construction details from callers that only see
// the port.Channel contract.
package factory

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/pubsub"
	"github.com/alephcore/msginfra/ringshm"
	"github.com/alephcore/msginfra/rpcchannel"
)

// Factory holds the process-wide resources each transport needs to build
// channels: the shmem manager for SHMEM, a shared NATS connection for
// PUBSUB. RPC channels are self-contained (each allocates its own listener)
// and need no shared state here.
type Factory struct {
	shm *ringshm.Manager
	nc  *nats.Conn
}

// New returns a factory backed by its own shmem manager. natsConn may be
// nil if the caller never requests a PUBSUB channel.
func New(natsConn *nats.Conn) *Factory {
	return &Factory{shm: ringshm.NewManager(), nc: natsConn}
}

// ShmManager exposes the underlying shmem manager so callers can run
// DeleteAllSharedMemory during process-wide cleanup (spec §4.3).
func (f *Factory) ShmManager() *ringshm.Manager { return f.shm }

// GetChannel builds a channel named src->dst over the given transport.
// capacity must be > 0. For SHMEM, capacity == 1 yields the blocking
// single-slot variant (spec §4.6).
func (f *Factory) GetChannel(kind port.Kind, capacity, nbytes int, src, dst string) (port.Channel, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0", msgerr.ErrResourceExhausted)
	}
	name := src + "->" + dst

	switch kind {
	case port.SHMEM:
		ring, err := f.shm.AllocChannelSharedMemory(nbytes, capacity)
		if err != nil {
			return nil, err
		}
		return ringshm.NewChannel(name, ring), nil

	case port.PUBSUB:
		if f.nc == nil {
			return nil, fmt.Errorf("%w: PUBSUB channel requested without a NATS connection", msgerr.ErrResourceExhausted)
		}
		return pubsub.NewChannel(name, "msginfra."+name, f.nc, capacity)

	case port.RPC:
		return rpcchannel.NewChannel(name, capacity, nbytes)

	default:
		return nil, fmt.Errorf("%w: unknown channel kind %v", msgerr.ErrResourceExhausted, kind)
	}
}
