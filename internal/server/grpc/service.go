package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service. Its single method
// Connect is a bidirectional stream of google.protobuf.BytesValue frames,
// each holding one JSON request (client to server) or response.
const ServiceName = "svgkeeper.v1.Documents"

const connectMethod = "/" + ServiceName + "/Connect"

// DocumentsServer is implemented by GRPCServer.
type DocumentsServer interface {
	Connect(stream grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentsServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "svgkeeper/v1/documents.proto",
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(DocumentsServer).Connect(&grpc.GenericServerStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ServerStream: stream})
}

// RegisterDocumentsServer registers srv on s.
func RegisterDocumentsServer(s grpc.ServiceRegistrar, srv DocumentsServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Stream is the client side of Connect. Roundtrip is not safe for
// concurrent use.
type Stream struct {
	stream grpc.BidiStreamingClient[wrapperspb.BytesValue, wrapperspb.BytesValue]
}

// OpenStream starts a Connect stream on cc.
func OpenStream(ctx context.Context, cc grpc.ClientConnInterface, opts ...grpc.CallOption) (*Stream, error) {
	s, err := cc.NewStream(ctx, &serviceDesc.Streams[0], connectMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &Stream{stream: &grpc.GenericClientStream[wrapperspb.BytesValue, wrapperspb.BytesValue]{ClientStream: s}}, nil
}

// Roundtrip sends one request and waits for its response.
func (s *Stream) Roundtrip(raw []byte) ([]byte, error) {
	if err := s.stream.Send(wrapperspb.Bytes(raw)); err != nil {
		return nil, err
	}
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return resp.GetValue(), nil
}

// Close half-closes the stream.
func (s *Stream) Close() error {
	return s.stream.CloseSend()
}
