// Package rpcchannel implements the RPC channel (spec §4.4): a gRPC unary
// "Push" service fronting a local ring, so a remote process can send into a
// channel whose receive side lives in this process. The gRPC ServiceDesc is
// hand-registered (see service.go) rather than generated, since there is no
// .proto to run through protoc for a single opaque-bytes method.
package rpcchannel

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/port"
)

// maxInFlightPush bounds how many Push RPCs a single send port will have
// outstanding at once, so a slow or wedged server applies backpressure to
// the caller instead of letting unbounded goroutines pile up client-side.
const maxInFlightPush = 32

// Channel binds a local Server (the receive side) to a dialed client stub
// (the send side) for one named RPC link.
type Channel struct {
	name string
	send *SendPort
	recv *RecvPort
}

// NewChannel starts a server of the given ring capacity and dials it,
// matching spec §4.6's single-process GetChannel(RPC, ...) contract; a
// cross-process sender instead dials the address returned by Server.Addr
// directly via NewSendPort.
func NewChannel(name string, capacity, nbytes int) (*Channel, error) {
	srv, err := NewServer(capacity)
	if err != nil {
		return nil, err
	}
	sp, err := NewSendPort(srv.Addr())
	if err != nil {
		srv.Stop()
		return nil, err
	}
	rp := &RecvPort{srv: srv}
	return &Channel{name: name, send: sp, recv: rp}, nil
}

func (c *Channel) Name() string               { return c.name }
func (c *Channel) GetSendPort() port.SendPort { return c.send }
func (c *Channel) GetRecvPort() port.RecvPort { return c.recv }

// SendPort dials a remote Server and issues Push RPCs.
type SendPort struct {
	conn   *grpc.ClientConn
	inFlight *semaphore.Weighted
	done   bool
}

// NewSendPort dials addr (as returned by Server.Addr).
func NewSendPort(addr string) (*SendPort, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", msgerr.ErrResourceExhausted, addr, err)
	}
	return &SendPort{conn: conn, inFlight: semaphore.NewWeighted(maxInFlightPush)}, nil
}

func (p *SendPort) Start() error { return nil }

func (p *SendPort) Join() error {
	p.done = true
	return p.conn.Close()
}

func (p *SendPort) Probe() bool { return false }

func (p *SendPort) Send(m meta.Meta, payload []byte) error {
	if p.done {
		return msgerr.ErrChannelClosed
	}
	hdr := meta.Encode(&m)
	buf := make([]byte, 0, meta.HeaderSize+len(payload))
	buf = append(buf, hdr[:]...)
	buf = append(buf, payload...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.inFlight.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: push backpressure: %v", msgerr.ErrTransportFailure, err)
	}
	defer p.inFlight.Release(1)

	reply := new(wrapperspb.BytesValue)
	if err := p.conn.Invoke(ctx, fullMethod, &wrapperspb.BytesValue{Value: buf}, reply); err != nil {
		return fmt.Errorf("%w: push: %v", msgerr.ErrTransportFailure, err)
	}
	return nil
}

// RecvPort is the in-process side draining a Server's ring.
type RecvPort struct {
	srv  *Server
	done bool
}

func (p *RecvPort) Start() error { return nil }

func (p *RecvPort) Join() error {
	p.done = true
	p.srv.Stop()
	return nil
}

func (p *RecvPort) Probe() bool {
	return p.srv.ring.availableCount() > 0
}

func (p *RecvPort) Recv() (meta.Meta, []byte, error) {
	if p.done {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	item, err := p.srv.ring.pop(context.Background())
	if err != nil {
		return meta.Meta{}, nil, wrapRingErr(err)
	}
	return decodeItem(item)
}

func (p *RecvPort) Peek() (meta.Meta, []byte, error) {
	item, ok := p.srv.ring.front()
	if !ok {
		return meta.Meta{}, nil, msgerr.ErrChannelClosed
	}
	return decodeItem(item)
}

// AddObserver registers fn for selector support.
func (p *RecvPort) AddObserver(fn func()) func() {
	return p.srv.obs.Add(fn)
}
