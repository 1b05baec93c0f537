package grpc

import (
	"github.com/dmitrijs2005/svgkeeper/internal/server/metrics"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

// connectionInterceptor logs stream lifetimes and counts them as
// connections.
func (s *GRPCServer) connectionInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := ss.Context()

	remote := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	log := s.logger.With("conn_id", uuid.NewString(), "remote", remote, "method", info.FullMethod)

	done := s.metrics.ConnectionOpened(metrics.TransportGRPC)
	defer done()

	log.Info(ctx, "stream opened")
	err := handler(srv, ss)
	if err != nil {
		log.Debug(ctx, "stream ended with error", "error", err)
	}
	log.Info(ctx, "stream closed")
	return err
}
