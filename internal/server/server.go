package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/fxtree/internal/backend"
	"github.com/agbru/fxtree/internal/config"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/logging"
	"github.com/agbru/fxtree/internal/service"
)

// Server represents the HTTP server for the reduction API.
// It wraps the standard http.Server and adds application-specific configuration
// and graceful shutdown capabilities.
type Server struct {
	registry       *backend.Registry
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a new Server instance with the given backend registry and
// configuration.
//
// Parameters:
//   - registry: The registry requests construct their backends from.
//   - cfg: The application configuration (port, request defaults, timeout).
//   - opts: Optional functional options for customizing the server (e.g., WithLogger).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(registry *backend.Registry, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		registry:       registry,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server", cfg.Level()),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	if cfg.Timeout > 0 {
		s.timeouts.RequestTimeout = cfg.Timeout
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewReductionService(s.registry, s.cfg, s.securityConfig.MaxBatchSize)
	}
	if s.rateLimiter == nil {
		rlConfig := DefaultRateLimiterConfig()
		rlConfig.TrustedProxies = cfg.TrustedProxyPrefixes()
		s.rateLimiter = NewRateLimiter(rlConfig)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/reduce", s.wrapWithMiddleware(s.handleReduce))
	mux.HandleFunc("/backends", s.wrapWithMiddleware(s.handleBackends))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort("", cfg.Port),
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// wrapWithMiddleware applies the middleware chain to a handler. Requests pass
// through request id, observation, security and rate limiting, in that order.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := RateLimitMiddleware(s.rateLimiter, handler)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	wrapped = s.observeMiddleware(wrapped)
	return s.requestIDMiddleware(wrapped)
}

// Handler returns the root handler, for embedding the API in another server.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves the API until SIGINT or SIGTERM is received, then shuts down
// gracefully.
//
// Returns:
//   - error: A ServerError if the server fails to start or to shut down.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.String("backend", s.cfg.Backend),
			logging.String("growth", s.cfg.Growth),
			logging.String("overflow", s.cfg.Overflow),
			logging.Int("max_batch_size", s.securityConfig.MaxBatchSize),
		)
		s.logger.Info("endpoints: POST /reduce, GET /backends, GET /health, GET /metrics")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
