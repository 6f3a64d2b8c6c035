package ringshm

import (
	"fmt"
	"sync/atomic"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
)

// Channel binds one ring buffer to a send port and a receive port,
// satisfying spec §4.1 and the component-D responsibility of pairing a
// transport resource with both port directions.
type Channel struct {
	name string
	ring *RingBuffer
	send *SendPort
	recv port.RecvPort
}

// NewChannel wires a freshly allocated ring into a named channel. If
// capacity == 1, the receive side is the blocking single-slot variant
// (spec §4.6: "SHMEM with capacity == 1 returns the blocking single-slot
// variant").
func NewChannel(name string, ring *RingBuffer) *Channel {
	ch := &Channel{name: name, ring: ring, send: &SendPort{ring: ring}}
	if ring.Capacity() == 1 {
		ch.recv = &BlockRecvPort{ring: ring}
	} else {
		ch.recv = &RecvPortImpl{ring: ring}
	}
	return ch
}

func (c *Channel) Name() string                { return c.name }
func (c *Channel) GetSendPort() port.SendPort { return c.send }
func (c *Channel) GetRecvPort() port.RecvPort { return c.recv }

// ShmName, ReqName, and AckName expose the underlying region/semaphore
// names so a channel's rendezvous info can be handed to a re-exec'd actor
// (see ChannelEnv/AttachChannelFromEnv).
func (c *Channel) ShmName() string { return c.ring.reg.name }
func (c *Channel) ReqName() string { return c.ring.req.Name() }
func (c *Channel) AckName() string { return c.ring.ack.Name() }
func (c *Channel) Capacity() int   { return c.ring.Capacity() }
func (c *Channel) NBytes() int     { return c.ring.NBytes() }

// SendPort is the shmem send side (spec §4.1/§4.2 Store protocol).
type SendPort struct {
	ring    *RingBuffer
	started atomic.Bool
	done    atomic.Bool
}

func (p *SendPort) Start() error {
	p.started.Store(true)
	return nil
}

func (p *SendPort) Join() error {
	p.done.Store(true)
	return nil
}

func (p *SendPort) Probe() bool {
	return false // spec §4.2: ShmemSendPort::Probe is always false, sends never "ready"-poll.
}

func (p *SendPort) Send(m meta.Meta, payload []byte) error {
	if p.done.Load() {
		return msgerr.ErrChannelClosed
	}
	if err := meta.CheckFits(&m, p.ring.NBytes()); err != nil {
		return err
	}
	var encodeErr error
	p.ring.Store(func(slot []byte) {
		encodeErr = encodeInto(slot, &m, payload)
	})
	return encodeErr
}

// RecvPortImpl is the general (capacity > 1) shmem receive side.
type RecvPortImpl struct {
	ring *RingBuffer
	done atomic.Bool
}

func (p *RecvPortImpl) Start() error { return nil }

func (p *RecvPortImpl) Join() error {
	p.done.Store(true)
	p.ring.Close()
	return nil
}

func (p *RecvPortImpl) Probe() bool {
	return p.ring.TryProbe()
}

// Recv blocks on the ring's req semaphore (the real sem_wait suspension
// point, spec §4.2/§5) rather than busy-polling, and returns
// ErrChannelClosed once Join wakes it instead of hanging.
func (p *RecvPortImpl) Recv() (meta.Meta, []byte, error) {
	if p.done.Load() {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	var m meta.Meta
	var payload []byte
	var decodeErr error
	ok := p.ring.BlockLoad(func(slot []byte) {
		m, payload, decodeErr = decodeFrom(slot)
	})
	if !ok {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	if decodeErr != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, decodeErr)
	}
	return m, payload, nil
}

// Peek populates the returned metadata by reading (not consuming) the
// current slot — the corrected behaviour for the bug flagged in spec §9.
func (p *RecvPortImpl) Peek() (meta.Meta, []byte, error) {
	var m meta.Meta
	var payload []byte
	var decodeErr error
	p.ring.Peek(func(slot []byte) {
		m, payload, decodeErr = decodeFrom(slot)
	})
	if decodeErr != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, decodeErr)
	}
	return m, payload, nil
}

// AddObserver registers fn to be called whenever a message is stored into
// this port's ring (spec §4.8 selector support), not only when one is
// drained — a selector parked before the store still wakes. Returns an
// unsubscribe function.
func (p *RecvPortImpl) AddObserver(fn func()) func() {
	return p.ring.obs.Add(fn)
}

// BlockRecvPort is the blocking single-slot (capacity == 1) receive side.
type BlockRecvPort struct {
	ring *RingBuffer
	done atomic.Bool
}

func (p *BlockRecvPort) Start() error { return nil }

func (p *BlockRecvPort) Join() error {
	p.done.Store(true)
	p.ring.Close()
	return nil
}

func (p *BlockRecvPort) Probe() bool {
	return p.ring.TryProbe()
}

func (p *BlockRecvPort) Recv() (meta.Meta, []byte, error) {
	if p.done.Load() {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	var m meta.Meta
	var payload []byte
	var decodeErr error
	ok := p.ring.BlockLoad(func(slot []byte) {
		m, payload, decodeErr = decodeFrom(slot)
	})
	if !ok {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	if decodeErr != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, decodeErr)
	}
	return m, payload, nil
}

// Peek reads the sole slot directly without semaphore bookkeeping, since
// capacity == 1 means there is never more than one producer-written slot
// outstanding and this port is its only consumer.
func (p *BlockRecvPort) Peek() (meta.Meta, []byte, error) {
	var m meta.Meta
	var payload []byte
	var decodeErr error
	p.ring.Read(func(slot []byte) {
		m, payload, decodeErr = decodeFrom(slot)
	})
	if decodeErr != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, decodeErr)
	}
	return m, payload, nil
}

func (p *BlockRecvPort) AddObserver(fn func()) func() {
	return p.ring.obs.Add(fn)
}
