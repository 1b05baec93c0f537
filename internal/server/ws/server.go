// Package ws serves the JSON protocol over WebSocket and exposes the HTTP
// surface (health and metrics) next to it.
package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/svgkeeper/internal/server/protocol"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	writeTimeout           = 10 * time.Second
)

// Handler produces the response to one inbound message.
type Handler interface {
	Handle(ctx context.Context, raw []byte) protocol.Response
}

type Option func(*Server)

// WithMaxMessageBytes limits inbound frames; larger frames close the
// connection.
func WithMaxMessageBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMessageBytes = n
		}
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests
// after ctx is done.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

type Server struct {
	address         string
	handler         Handler
	logger          logging.Logger
	metrics         *metrics.Metrics
	gatherer        prometheus.Gatherer
	maxMessageBytes int64
	shutdownTimeout time.Duration
	upgrader        websocket.Upgrader

	// handlers counts running serveWS calls; hijacked connections are
	// invisible to http.Server.Shutdown.
	handlers sync.WaitGroup

	mu      sync.Mutex
	closing bool
	conns   map[*websocket.Conn]struct{}
}

func NewServer(address string, h Handler, l logging.Logger, opts ...Option) *Server {
	s := &Server{
		address:         address,
		handler:         h,
		logger:          l.With("module", "ws_server"),
		maxMessageBytes: common.DefaultMaxMessageBytes,
		shutdownTimeout: defaultShutdownTimeout,
		conns:           make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client is served from a different origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the HTTP handler: /ws and / upgrade to WebSocket,
// /healthz answers liveness probes and /metrics serves Prometheus.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.serveWS)
	r.Get("/", s.serveWS)

	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is done. It then stops
// accepting and closes live WebSocket connections. Before returning it waits,
// at most shutdownTimeout, for requests already being handled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting WebSocket server", "address", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping WebSocket server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.closeAll()

	finished := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-shutdownCtx.Done():
		s.logger.Warn(ctx, "requests still in flight after shutdown timeout")
		return shutdownCtx.Err()
	}

	if err != nil {
		return err
	}
	return <-errCh
}

// track registers c for closeAll. It reports false once closeAll has run.
func (s *Server) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range s.conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.Close()
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	s.handlers.Add(1)
	defer s.handlers.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug(r.Context(), "upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.serveConn(r.Context(), conn, r.RemoteAddr)
}

// serveConn handles one connection: messages are read and answered strictly
// in order.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn, remote string) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}

	log := s.logger.With("conn_id", uuid.NewString(), "remote", remote)
	done := s.metrics.ConnectionOpened(metrics.TransportWS)

	defer func() {
		s.untrack(conn)
		_ = conn.Close()
		done()
		log.Info(ctx, "connection closed")
	}()

	log.Info(ctx, "connection accepted")
	conn.SetReadLimit(s.maxMessageBytes)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				log.Warn(ctx, "message too large", "limit", s.maxMessageBytes)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Debug(ctx, "read error", "error", err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		resp := s.handler.Handle(ctx, data)

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug(ctx, "write error", "error", err)
			return
		}
	}
}
