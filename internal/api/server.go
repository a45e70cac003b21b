// File: internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/internal/config"
)

// requestTimeout bounds a single request, including signal collection and
// channel dispatch.
const requestTimeout = 120 * time.Second

// Server hosts the HTTP API in front of the pipeline.
type Server struct {
	cfg      config.ServerConfig
	logger   *zap.Logger
	handlers *Handlers
	metrics  http.Handler
}

// NewServer builds the server. metrics may be nil, in which case /metrics is
// not mounted.
func NewServer(cfg config.ServerConfig, deps Deps, metrics http.Handler, logger *zap.Logger) (*Server, error) {
	if deps.Processor == nil || deps.Evidence == nil || deps.Inspector == nil {
		return nil, errors.New("api server requires a processor, an evidence reader and an account inspector")
	}
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" {
		return nil, errors.New("api auth is enabled but no secret is configured")
	}
	logger = logger.Named("api")
	return &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: NewHandlers(logger, deps),
		metrics:  metrics,
	}, nil
}

// Handler returns the fully assembled router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handlers.HandleHealthCheck)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.Auth.Enabled {
			r.Use(requireBearer(s.cfg.Auth, s.logger))
		}
		s.handlers.RegisterRoutes(r)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener. The shutdown goroutine exits on
// both return paths.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		defer close(idleConnsClosed)
		<-ctx.Done()
		s.logger.Info("Shutting down API server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}()

	s.logger.Info("API server starting", zap.String("address", ln.Addr().String()), zap.Bool("auth", s.cfg.Auth.Enabled))
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-idleConnsClosed
		return fmt.Errorf("http server failed: %w", err)
	}

	<-idleConnsClosed
	s.logger.Info("API server stopped.")
	return nil
}
