package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"retailmedia-hq/guardrail/pkg/config"
	"retailmedia-hq/guardrail/pkg/engine"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/telemetry/health"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// EngineFactory builds an engine for a freshly loaded catalog. It is called on
// every rules reload.
type EngineFactory func(catalog *rules.Catalog) (*engine.Engine, error)

// ReloadRecorder receives rules reload outcomes. Implemented by
// metrics.Collector.
type ReloadRecorder interface {
	RecordRulesReload(success bool, version string, size int)
}

// Server hosts the compliance engine over HTTP.
type Server struct {
	config  *config.ServerConfig
	logger  *slog.Logger
	factory EngineFactory

	engine atomic.Pointer[engine.Engine]
	last   atomic.Pointer[verdict.Verdict]

	metricsPath string
	metrics     http.Handler
	reloads     ReloadRecorder
	health      *health.Checker
	traced      bool
	version     string
	commit      string
	buildTime   string

	httpServer *http.Server
	mu         sync.Mutex
	isRunning  bool
	reloadMu   sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithEngineFactory enables rules reload.
func WithEngineFactory(f EngineFactory) Option {
	return func(s *Server) { s.factory = f }
}

// WithMetrics mounts handler at path.
func WithMetrics(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = handler
	}
}

// WithReloadRecorder reports reload outcomes to r.
func WithReloadRecorder(r ReloadRecorder) Option {
	return func(s *Server) { s.reloads = r }
}

// WithHealth uses checker for /health. A "rules" check is always registered.
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) { s.health = checker }
}

// WithTracing extracts W3C trace context from incoming requests.
func WithTracing(enabled bool) Option {
	return func(s *Server) { s.traced = enabled }
}

// WithVersion sets the build information served at /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = version
		s.commit = commit
		s.buildTime = buildTime
	}
}

// New creates a server evaluating with eng.
func New(cfg *config.ServerConfig, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.New(0)
	}
	s.health.RegisterCheck("rules", s.checkRules)
	s.engine.Store(eng)
	return s
}

// Engine returns the engine currently serving evaluations.
func (s *Server) Engine() *engine.Engine {
	return s.engine.Load()
}

// Catalog returns the rule catalog currently in effect.
func (s *Server) Catalog() *rules.Catalog {
	if eng := s.engine.Load(); eng != nil {
		return eng.Catalog()
	}
	return nil
}

// LastVerdict returns the last verdict served by any engine generation.
func (s *Server) LastVerdict() *verdict.Verdict {
	return s.last.Load().Clone()
}

func (s *Server) checkRules(context.Context) error {
	c := s.Catalog()
	if c == nil {
		return errors.New("no rule catalog loaded")
	}
	if c.Len() == 0 {
		return errors.New("rule catalog is empty")
	}
	return nil
}

// Start listens on the configured address and blocks until ctx is cancelled
// or the listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting guardrail server",
			"address", s.config.ListenAddress,
			"rules_version", s.Catalog().Version(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || s.httpServer == nil {
		return nil
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.isRunning = false
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("guardrail server stopped")
	return nil
}

// IsRunning reports whether Start is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	auth := APIKeyMiddleware(s.config.APIKeys, s.logger)
	mux.Handle("POST /v1/evaluate/{mode}", auth(http.HandlerFunc(s.handleEvaluate)))
	mux.Handle("GET /v1/verdicts/last", auth(http.HandlerFunc(s.handleLastVerdict)))
	mux.Handle("GET /v1/rules", auth(http.HandlerFunc(s.handleRules)))
	health.Register(mux, s.health, s.version, s.commit, s.buildTime)
	if s.metrics != nil && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.metrics)
	}

	var handler http.Handler = mux
	handler = LoggingMiddleware(s.logger)(handler)
	if s.traced {
		handler = TracingMiddleware(handler)
	}
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(s.logger)(handler)

	return handler
}
