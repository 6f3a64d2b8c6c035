package rpcchannel

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alephcore/msginfra/msgerr"
)

// errClosed marks a ring that has been closed while a caller was waiting.
var errClosed = errors.New("rpcchannel: ring closed")

// fullMethod is the unary RPC this package hand-registers in place of
// protoc-generated code: a single Push method carrying the encoded
// header+payload as opaque bytes, matching the original's single-call
// "store into ring" wire contract.
const fullMethod = "/msginfra.rpcchannel.Channel/Push"

// pushServer is implemented by *Server and registered via serviceDesc.
type pushServer interface {
	push(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func pushHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pushServer).push(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(pushServer).push(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "msginfra.rpcchannel.Channel",
	HandlerType: (*pushServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Push", Handler: pushHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcchannel.proto",
}

// wrapRingErr turns a ring-level error into the shared taxonomy.
func wrapRingErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errClosed) {
		return msgerr.ErrChannelClosed
	}
	return errors.Join(msgerr.ErrTransportFailure, err)
}
