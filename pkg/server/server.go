// Package server accepts inbound WebSocket transports, wraps each in a
// Channel sharing the server route table, tracks the live channel set and
// forwards channel lifecycle to subscribers.
package server

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crosstalk-rpc/crosstalk/internal/tlsutil"
	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
	"github.com/crosstalk-rpc/crosstalk/pkg/transport"
)

// Server is the accepting side: one Channel per inbound connection, all
// answering the same route table.
type Server struct {
	config   *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	channels map[*channel.Channel]struct{}

	listenerMu   sync.Mutex
	onConnection []func(ch *channel.Channel, r *http.Request)

	started   atomic.Bool
	accepting atomic.Bool

	httpServer *http.Server
	listener   net.Listener

	stats serverStats
}

// New creates a Server with the given configuration. Nil or partially zero
// configs are filled with defaults.
func New(config *Config) *Server {
	cfg := config.withDefaults()
	return &Server{
		config: cfg,
		logger: slog.Default().With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			CheckOrigin:       cfg.CheckOrigin,
			EnableCompression: !cfg.DisableCompression,
		},
		channels: make(map[*channel.Channel]struct{}),
	}
}

// OnConnection registers a listener fired for every accepted channel, with
// the raw upgrade request for context. Register before Start.
func (s *Server) OnConnection(fn func(ch *channel.Channel, r *http.Request)) {
	s.listenerMu.Lock()
	s.onConnection = append(s.onConnection, fn)
	s.listenerMu.Unlock()
}

// Handler returns the server's HTTP surface for mounting in external
// routers: /ws (upgrade), /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.HandleWebSocket)
	return r
}

// WebSocketHandler returns an http.Handler for the upgrade endpoint only.
func (s *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(s.HandleWebSocket)
}

// Start brings up the listening endpoint and resolves once it is actively
// listening, or immediately when the endpoint is externally owned. It fails
// if the endpoint cannot bind.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	s.accepting.Store(true)

	if s.config.ExternalEndpoint {
		s.logger.Info("attached to external endpoint")
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		s.started.Store(false)
		s.accepting.Store(false)
		return &BindError{Addr: s.config.Addr, Err: err}
	}

	if s.config.TLS != nil && s.config.TLS.Enabled {
		material, err := tlsutil.Load(s.config.TLS.CertFile, s.config.TLS.KeyFile, s.config.TLS.CAFile)
		if err != nil {
			ln.Close()
			s.started.Store(false)
			s.accepting.Store(false)
			return err
		}
		ln = tls.NewListener(ln, material.ServerConfig())
	}

	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("serve error", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", ln.Addr().String(), "tls", s.config.TLS != nil && s.config.TLS.Enabled)
	return nil
}

// Addr returns the bound listen address, useful with ":0" configs.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Stop closes the frame-layer acceptor first, then the live channels, then
// the listening endpoint (unless externally owned). The first error
// encountered is propagated.
func (s *Server) Stop(ctx context.Context) error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	s.accepting.Store(false)

	s.mu.Lock()
	live := make([]*channel.Channel, 0, len(s.channels))
	for ch := range s.channels {
		live = append(live, ch)
	}
	s.mu.Unlock()

	var firstErr error
	for _, ch := range live {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.config.ExternalEndpoint || s.httpServer == nil {
		return firstErr
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.logger.Info("stopped")
	return firstErr
}

// HandleWebSocket upgrades an inbound request and wires the connection into
// a Channel.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.accepting.Load() {
		http.Error(w, "not accepting connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	ws := transport.NewWS(conn, &transport.WSConfig{
		WriteTimeout:   s.config.WriteTimeout,
		MaxMessageSize: s.config.MaxMessageSize,
	})
	ch := channel.New(ws, &channel.Config{
		Routes:       s.config.Routes,
		Interceptors: s.config.Interceptors,
		CallTimeout:  s.config.CallTimeout,
		Logger:       s.logger,
	})

	s.mu.Lock()
	s.channels[ch] = struct{}{}
	s.mu.Unlock()
	s.stats.accepted.Add(1)
	s.stats.active.Add(1)

	ch.OnDisconnected(func(code int, reason string) {
		s.mu.Lock()
		delete(s.channels, ch)
		s.mu.Unlock()
		s.stats.active.Add(-1)
		s.stats.closed.Add(1)
		s.logger.Debug("channel closed", "remote", r.RemoteAddr, "code", code, "reason", reason)
	})

	s.listenerMu.Lock()
	subscribers := append([]func(*channel.Channel, *http.Request){}, s.onConnection...)
	s.listenerMu.Unlock()
	for _, fn := range subscribers {
		fn(ch, r)
	}

	s.logger.Debug("channel accepted", "remote", r.RemoteAddr)
	ch.Start()
}

// Count returns the number of live channels.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

// ForEach visits every live channel until fn returns false.
func (s *Server) ForEach(fn func(ch *channel.Channel) bool) {
	s.mu.Lock()
	live := make([]*channel.Channel, 0, len(s.channels))
	for ch := range s.channels {
		live = append(live, ch)
	}
	s.mu.Unlock()

	for _, ch := range live {
		if !fn(ch) {
			return
		}
	}
}

// Publish broadcasts a fire-and-forget message to every live channel.
func (s *Server) Publish(method string, data any) {
	s.ForEach(func(ch *channel.Channel) bool {
		ch.Publish(method, data)
		return true
	})
}

// Logger returns the server's diagnostic logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
