// Package pubsub implements the topic-based channel (spec §4.5) on top of
// NATS core pub/sub. NATS has no built-in history depth, so the receive
// side layers a bounded, drop-oldest queue over a plain subscription to
// give Recv/Peek "keep last capacity samples" history-depth semantics.
// Unlike the shmem ring, which blocks the producer when full, a full
// queue here drops its oldest sample.
package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
	"github.com/alephcore/msginfra/syncx"
)

// Channel is one named pub/sub topic bound to a connection shared by every
// channel in a process.
type Channel struct {
	name  string
	topic string
	send  *SendPort
	recv  *RecvPort
}

// NewChannel subscribes to topic on nc and returns a channel with a
// capacity-deep receive buffer.
func NewChannel(name, topic string, nc *nats.Conn, capacity int) (*Channel, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0", msgerr.ErrResourceExhausted)
	}
	rp := &RecvPort{cap: capacity}
	sub, err := nc.Subscribe(topic, func(msg *nats.Msg) {
		rp.push(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %v", msgerr.ErrResourceExhausted, topic, err)
	}
	rp.sub = sub
	sp := &SendPort{nc: nc, topic: topic}
	return &Channel{name: name, topic: topic, send: sp, recv: rp}, nil
}

func (c *Channel) Name() string                { return c.name }
func (c *Channel) GetSendPort() port.SendPort  { return c.send }
func (c *Channel) GetRecvPort() port.RecvPort  { return c.recv }

// SendPort publishes onto the topic. Publish never blocks on subscriber
// presence, matching the fire-and-forget semantics of the original dds
// channel's publish side.
type SendPort struct {
	nc    *nats.Conn
	topic string
	mu    sync.Mutex
	done  bool
}

func (p *SendPort) Start() error { return nil }

func (p *SendPort) Join() error {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
	return nil
}

func (p *SendPort) Probe() bool { return false }

func (p *SendPort) Send(m meta.Meta, payload []byte) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done {
		return msgerr.ErrChannelClosed
	}
	hdr := meta.Encode(&m)
	buf := make([]byte, 0, meta.HeaderSize+len(payload))
	buf = append(buf, hdr[:]...)
	buf = append(buf, payload...)
	if err := p.nc.Publish(p.topic, buf); err != nil {
		return fmt.Errorf("%w: publish %s: %v", msgerr.ErrTransportFailure, p.topic, err)
	}
	return nil
}

// RecvPort is the capacity-deep, drop-oldest subscriber side.
type RecvPort struct {
	sub *nats.Subscription
	cap int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   [][]byte
	closed  bool
	obs     syncx.ObserverSet
}

func (p *RecvPort) cv() *sync.Cond {
	if p.cond == nil {
		p.cond = sync.NewCond(&p.mu)
	}
	return p.cond
}

func (p *RecvPort) push(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	p.mu.Lock()
	if len(p.queue) >= p.cap {
		p.queue = p.queue[1:] // drop oldest sample, matching history-depth QoS
	}
	p.queue = append(p.queue, cp)
	p.mu.Unlock()
	p.cv().Broadcast()
	p.obs.Notify()
}

func (p *RecvPort) Start() error { return nil }

func (p *RecvPort) Join() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cv().Broadcast()
	if p.sub != nil {
		_ = p.sub.Unsubscribe()
	}
	return nil
}

func (p *RecvPort) Probe() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) > 0
}

func (p *RecvPort) Recv() (meta.Meta, []byte, error) {
	p.mu.Lock()
	for len(p.queue) == 0 && !p.closed {
		p.cv().Wait()
	}
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	buf := p.queue[0]
	p.queue = p.queue[1:]
	p.mu.Unlock()
	return decode(buf)
}

func (p *RecvPort) Peek() (meta.Meta, []byte, error) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	buf := p.queue[0]
	p.mu.Unlock()
	return decode(buf)
}

// AddObserver registers fn for selector support.
func (p *RecvPort) AddObserver(fn func()) func() {
	return p.obs.Add(fn)
}

func decode(buf []byte) (meta.Meta, []byte, error) {
	m, err := meta.Decode(buf)
	if err != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, err)
	}
	payload := make([]byte, len(buf)-meta.HeaderSize)
	copy(payload, buf[meta.HeaderSize:])
	return m, payload, nil
}

// Connect dials the NATS server at url, defaulting to nats.DefaultURL, with
// a short connect timeout matching the ambient stack's fail-fast posture.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", msgerr.ErrResourceExhausted, url, err)
	}
	return nc, nil
}

// Drain flushes and closes nc via nats' own Drain, which is bounded by the
// connection's drain timeout; ctx is not consulted.
func Drain(ctx context.Context, nc *nats.Conn) error {
	_ = ctx
	return nc.Drain()
}
