// ABOUTME: Server orchestrator that owns the store, status file, capture and aggregate services
// ABOUTME: Manages the HTTP listener (TCP or tailnet), status watching, and graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"tailscale.com/tsnet"

	"github.com/2389/second-brain/internal/aggregate"
	"github.com/2389/second-brain/internal/capture"
	"github.com/2389/second-brain/internal/config"
	"github.com/2389/second-brain/internal/dedupe"
	"github.com/2389/second-brain/internal/status"
	"github.com/2389/second-brain/internal/store"
)

// Server serves the second-brain HTTP API.
type Server struct {
	config      *config.Config
	store       store.Store
	status      status.Store
	captures    *capture.Service
	aggregate   *aggregate.Service
	markdown    goldmark.Markdown
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// statusFile is set when status is file-backed and may be watched
	statusFile *status.FileStore

	// dedupe remembers capture idempotency keys
	dedupe *dedupe.Cache[*capture.Result]

	now func() time.Time
}

// initStore opens the configured database.
func initStore(cfg *config.Config) (store.Store, error) {
	s, err := store.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Server from configuration, opening the database and the
// status file.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	statusFile := status.NewFileStore(cfg.Status.Path, logger)
	srv := newServer(cfg, s, statusFile, logger)
	srv.statusFile = statusFile
	return srv, nil
}

// newServer wires a Server around already-open collaborators.
func newServer(cfg *config.Config, s store.Store, st status.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	seen := dedupe.New[*capture.Result](cfg.Capture.DedupeTTL, cfg.Capture.DedupeMaxEntries)

	srv := &Server{
		config:    cfg,
		store:     s,
		status:    st,
		captures:  capture.NewService(s, cfg.Capture.DefaultSource, seen, logger),
		aggregate: aggregate.NewService(s, st, logger),
		markdown:  goldmark.New(),
		dedupe:    seen,
		logger:    logger.With("component", "server"),
		now:       time.Now,
	}

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	return srv
}

// Handler returns the full HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/ready", s.handleReady)

	// Entities
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/notes", s.handleNotes)
	mux.HandleFunc("/conversations", s.handleConversations)
	mux.HandleFunc("/credentials", s.handleCredentials)

	// Aggregates and convenience endpoints
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/context", s.handleContext)
	mux.HandleFunc("/capture", s.handleCapture)
	mux.HandleFunc("/status", s.handleStatus)

	return withRequestID(withLogging(s.logger, mux))
}

// setupTCPListener creates a standard TCP listener for HTTP.
func (s *Server) setupTCPListener() (net.Listener, error) {
	s.logger.Info("starting server", "http_addr", s.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// setupListener creates the listener based on configuration (Tailscale or TCP).
func (s *Server) setupListener(ctx context.Context) (net.Listener, error) {
	if s.config.Tailscale.Enabled {
		if s.config.Server.HTTPAddr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", s.config.Server.HTTPAddr,
			)
		}
		return s.setupTailscaleListener(ctx)
	}
	return s.setupTCPListener()
}

// startWatcher keeps the status cache in sync with external writers.
func (s *Server) startWatcher(ctx context.Context) {
	if s.statusFile == nil || !s.config.Status.WatchEnabled() {
		return
	}
	go func() {
		if err := s.statusFile.Watch(ctx); err != nil {
			s.logger.Warn("status watch stopped, falling back to direct reads", "error", err)
		}
	}()
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.setupListener(ctx)
	if err != nil {
		// Nothing is serving yet, but New already opened the store
		return errors.Join(err, s.closeResources())
	}

	s.startWatcher(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context since the run
// context is already canceled.
func (s *Server) gracefulShutdown() error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// closeResources releases the tailnet node, the store and the dedupe cache.
func (s *Server) closeResources() error {
	var errs []error
	if s.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", s.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", s.store.Close())

	if s.dedupe != nil {
		s.dedupe.Close()
	}
	return errors.Join(errs...)
}
