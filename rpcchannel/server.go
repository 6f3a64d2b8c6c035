package rpcchannel

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alephcore/msginfra/meta"
	"github.com/alephcore/msginfra/msgerr"
	"github.com/alephcore/msginfra/syncx"
)

// Server hosts the receive side of one RPC channel: a gRPC listener
// accepting Push calls from remote senders, backed by a local ring that the
// in-process RecvPort drains.
type Server struct {
	addr string
	ring *ring
	gs   *grpc.Server
	lis  net.Listener
	obs  syncx.ObserverSet
}

// NewServer allocates an address from the pool, starts listening, and
// returns a server whose ring holds up to capacity pending messages.
func NewServer(capacity int) (*Server, error) {
	addr := allocAddr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		releaseAddr(addr)
		return nil, fmt.Errorf("%w: listen %s: %v", msgerr.ErrResourceExhausted, addr, err)
	}
	s := &Server{addr: addr, ring: newRing(capacity), lis: lis}
	s.gs = grpc.NewServer()
	s.gs.RegisterService(&serviceDesc, s)
	go s.gs.Serve(lis)
	return s, nil
}

// Addr is the dial target remote senders use.
func (s *Server) Addr() string { return s.addr }

// push is the unary RPC handler: it decodes nothing (the payload is opaque
// header+payload bytes) and simply enqueues it.
func (s *Server) push(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.ring.push(ctx, req.Value); err != nil {
		return nil, wrapRingErr(err)
	}
	s.obs.Notify()
	return &wrapperspb.BytesValue{}, nil
}

// Stop closes the listener, closes the ring (waking any blocked push or
// pop; items already queued can still be popped), and releases the address
// from the pool. Idempotent.
func (s *Server) Stop() {
	s.gs.GracefulStop()
	s.ring.close()
	releaseAddr(s.addr)
}

func decodeItem(buf []byte) (meta.Meta, []byte, error) {
	m, err := meta.Decode(buf)
	if err != nil {
		return meta.Meta{}, nil, fmt.Errorf("%w: %v", msgerr.ErrTransportFailure, err)
	}
	payload := make([]byte, len(buf)-meta.HeaderSize)
	copy(payload, buf[meta.HeaderSize:])
	return m, payload, nil
}
