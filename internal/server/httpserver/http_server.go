// Package httpserver wires the docsite handlers, middleware and listener.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/export"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/icons"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/server/handlers"
	smw "git.home.luguber.info/inful/docsite/internal/server/middleware"
)

// Deps are the runtime collaborators the handlers serve from.
type Deps struct {
	Exporter  handlers.Exporter
	Snapshots export.Snapshots
	Status    handlers.StatusProvider
	Icons     *icons.Resolver
	Recorder  metrics.Recorder
	// Registry backs the metrics endpoint. Nil disables it.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server serves the docsite HTTP API.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// New builds the route table and middleware chain.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exportHandlers := handlers.NewExportHandlers(deps.Exporter, logger)
	apiHandlers := handlers.NewAPIHandlers(cfg.Layout, deps.Icons, deps.Snapshots, logger)
	monitoringHandlers := handlers.NewMonitoringHandlers(deps.Status, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+export.RouteExport, exportHandlers.HandleExport)
	mux.HandleFunc("GET "+export.RoutePages, exportHandlers.HandlePage)
	mux.HandleFunc("GET "+export.RoutePages+"/{path...}", exportHandlers.HandlePage)
	mux.HandleFunc("GET /api/layout", apiHandlers.HandleLayout)
	mux.HandleFunc("GET /api/tree", apiHandlers.HandleTree)
	mux.HandleFunc("GET /api/pages", apiHandlers.HandlePages)
	mux.HandleFunc("GET "+cfg.Monitoring.Health.Path, monitoringHandlers.HandleHealthCheck)
	if deps.Registry != nil && cfg.MetricsEnabled() {
		mux.Handle("GET "+cfg.Monitoring.Metrics.Path, metrics.HTTPHandler(deps.Registry))
	}

	chain := smw.Chain(logger, ferrors.NewHTTPErrorAdapter(logger), deps.Recorder)
	rewrite := smw.RewriteMDX(cfg.Content.BaseURL, export.RoutePages)

	return &Server{cfg: cfg, logger: logger, handler: rewrite(chain(mux))}
}

// Handler returns the complete handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the configured address and serves in the background. Binding
// errors are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ferrors.DaemonError("server already started").Build()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to bind HTTP listener").
			WithContext("addr", s.cfg.Server.Addr()).
			Build()
	}
	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.done = make(chan struct{})

	srv, done := s.srv, s.done
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	s.logger.InfoContext(ctx, "HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	<-done
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "HTTP server shutdown failed").Build()
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
