// Package grpc serves the JSON protocol over a gRPC bidirectional stream.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/svgkeeper/internal/server/protocol"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Handler produces the response to one inbound message.
type Handler interface {
	Handle(ctx context.Context, raw []byte) protocol.Response
}

const shutdownTimeout = 5 * time.Second

type GRPCServer struct {
	address         string
	handler         Handler
	logger          logging.Logger
	metrics         *metrics.Metrics
	maxMessageBytes int
	shutdownTimeout time.Duration
}

func NewGRPCServer(a string, l logging.Logger, h Handler, m *metrics.Metrics, maxMessageBytes int64) *GRPCServer {
	if maxMessageBytes <= 0 {
		maxMessageBytes = common.DefaultMaxMessageBytes
	}
	return &GRPCServer{
		address:         a,
		logger:          l.With("module", "grpc_server"),
		handler:         h,
		metrics:         m,
		maxMessageBytes: int(maxMessageBytes),
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts streams on listen until ctx is done. Open streams get
// shutdownTimeout to finish before they are cancelled; Serve returns once
// every Connect handler has returned.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(s.maxMessageBytes),
		grpc.ChainStreamInterceptor(s.connectionInterceptor),
		grpc.WaitForHandlers(true),
	)

	RegisterDocumentsServer(srv, s)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")

		graceful := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(graceful)
		}()

		select {
		case <-graceful:
		case <-time.After(s.shutdownTimeout):
			s.logger.Warn(ctx, "gRPC streams still open after shutdown timeout, closing them")
			srv.Stop()
			<-graceful
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	<-stopped
	return nil
}

// Connect answers each inbound frame with exactly one outbound frame, in
// order.
func (s *GRPCServer) Connect(stream grpc.BidiStreamingServer[wrapperspb.BytesValue, wrapperspb.BytesValue]) error {
	ctx := stream.Context()
	for {
		in, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp := s.handler.Handle(ctx, in.GetValue())

		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if err := stream.Send(wrapperspb.Bytes(out)); err != nil {
			return err
		}
	}
}
