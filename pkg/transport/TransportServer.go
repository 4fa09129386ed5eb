package transport

import "context"
import "net"

import "github.com/raftkit/snapshot/pkg/chunk"
import "google.golang.org/grpc"
import "google.golang.org/protobuf/types/known/wrapperspb"


//=========================================== Transport Server


/*
	ServiceDesc is built by hand rather than generated by protoc: there is no .proto file in
	scope for this module, only the wire codec in pkg/chunk. wrapperspb.BytesValue is a real
	generated protobuf message, so the RPC still round-trips through actual protobuf framing,
	it is just opaque bytes as far as grpc is concerned -- chunk.DecodeChunk does the real
	decoding once the bytes arrive
*/

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GRPCReplication)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodName,
			Handler: installChunkHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
	Metadata: "snapshotreplication.proto",
}

func installChunkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := &wrapperspb.BytesValue{}
	if err := dec(req); err != nil { return nil, err }

	if interceptor == nil {
		return srv.(*GRPCReplication).handleInstallChunk(ctx, req)
	}

	info := &grpc.UnaryServerInfo{
		Server: srv,
		FullMethod: fullMethod,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*GRPCReplication).handleInstallChunk(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, req, info, handler)
}

/*
	handleInstallChunk decodes the wire-level chunk and hands it to whatever handler was
	registered through Consume. A nil handler means no Controller has wired up this
	transport yet -- that is a startup ordering bug, not a peer error, so it is logged and
	acknowledged rather than surfaced to the sender
*/

func (t *GRPCReplication) handleInstallChunk(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	decoded, decodeErr := chunk.DecodeChunk(req.Value)
	if decodeErr != nil {
		Log.Warn("rejected chunk, failed to decode:", decodeErr.Error())
		return nil, decodeErr
	}

	if t.handler == nil {
		Log.Warn("dropping chunk", decoded.ChunkName, "of", decoded.SnapshotId, "no consumer registered")
		return &wrapperspb.BytesValue{}, nil
	}

	t.handler(decoded)

	return &wrapperspb.BytesValue{}, nil
}

/*
	Serve starts a grpc server bound to listener and registers this transport's manually
	built ServiceDesc against it
*/

func (t *GRPCReplication) Serve(listener net.Listener) {
	srv := grpc.NewServer()
	srv.RegisterService(&ServiceDesc, t)

	Log.Info("chunk transport gRPC server listening on", listener.Addr().String())

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil { Log.Error("chunk transport server stopped:", serveErr.Error()) }
	}()
}
