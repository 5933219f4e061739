// Package server exposes the orchestrator over HTTP: a WebSocket endpoint
// that starts, streams and cancels runs, a health probe and the Prometheus
// metrics of the solver.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agbru/heatsolve/internal/logging"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// Timeouts of the HTTP server and WebSocket writes.
const (
	ReadHeaderTimeout = 5 * time.Second
	WriteWait         = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Server serves the orchestrator to WebSocket clients.
type Server struct {
	httpServer  *http.Server
	orch        *orchestration.Orchestrator
	metrics     *metrics.SolverMetrics
	httpMetrics *HTTPMetrics
	logger      logging.Logger
	security    SecurityConfig
	upgrader    websocket.Upgrader

	// connCtx is cancelled on shutdown so that open connections cancel
	// their runs and close.
	connCtx    context.Context
	closeConns context.CancelFunc
	conns      sync.WaitGroup
	activeRuns atomic.Int64
	fieldBytes atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSecurity replaces DefaultSecurityConfig.
func WithSecurity(c SecurityConfig) Option {
	return func(s *Server) { s.security = c }
}

// New creates a server listening on addr. The solver metrics registry also
// receives the server's request metrics.
func New(addr string, orch *orchestration.Orchestrator, sm *metrics.SolverMetrics, opts ...Option) *Server {
	s := &Server{
		orch:     orch,
		metrics:  sm,
		logger:   logging.NopLogger{},
		security: DefaultSecurityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpMetrics = NewHTTPMetrics(sm.Registry())
	if err := metrics.RegisterGridGauge(sm.Registry(), func() uint64 { return uint64(s.fieldBytes.Load()) }); err != nil {
		s.logger.Error("grid gauge not registered", err)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(s.security.AllowedOrigins),
	}
	s.connCtx, s.closeConns = context.WithCancel(context.Background())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	return s
}

// Handler returns the routing of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.metricsMiddleware(SecurityMiddleware(s.security, s.handleHealth)))
	mux.HandleFunc("/metrics", s.metricsMiddleware(SecurityMiddleware(s.security, s.handleMetrics)))
	mux.HandleFunc("/ws", s.metricsMiddleware(s.handleWebSocket))
	return mux
}

// ListenAndServe serves until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is done, then shuts down within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown stops accepting requests, cancels the runs of open WebSocket
// connections and waits for them to close or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeConns()
	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	s.logger.Info("server stopped")
	return err
}

type healthResponse struct {
	Status     string `json:"status"`
	ActiveRuns int64  `json:"active_runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthResponse{Status: "ok", ActiveRuns: s.activeRuns.Load()}); err != nil {
		s.logger.Error("health: encode response", err)
	}
}
