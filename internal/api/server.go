// Package api serves the bridge's HTTP status surface: Prometheus metrics,
// a health endpoint, bridge counters and the command/cue journal.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/config"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/obs-osc-bridge/internal/journal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Server timeouts. Every endpoint is a small GET.
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// StatsProvider reports bridge counters. *bridge.Bridge satisfies it.
type StatsProvider interface {
	Stats() bridge.Stats
}

// HealthCheck verifies one component. It returns nil when healthy.
type HealthCheck func(ctx context.Context) error

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.MetricsConfig
	Logger   *logging.Logger
	Gatherer prometheus.Gatherer    // required: served on Config.Path
	Stats    StatsProvider          // optional: /api/v1/stats
	Journal  journal.Repository     // optional: /api/v1/journal
	Checks   map[string]HealthCheck // optional: components reported by /healthz
	Version  string
}

// Server is the HTTP status server.
//
// It is created with New() and started with Start().
type Server struct {
	cfg      config.MetricsConfig
	logger   *logging.Logger
	gatherer prometheus.Gatherer
	stats    StatsProvider
	journal  journal.Repository
	checks   map[string]HealthCheck
	version  string
	started  time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer is required")
	}

	path := deps.Config.Path
	if path == "" {
		path = "/metrics"
	}
	deps.Config.Path = path

	checks := make(map[string]HealthCheck, len(deps.Checks))
	for name, check := range deps.Checks {
		if check != nil {
			checks[name] = check
		}
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		gatherer: deps.Gatherer,
		stats:    deps.Stats,
		journal:  deps.Journal,
		checks:   checks,
		version:  deps.Version,
	}, nil
}

// Start binds the listener and serves in a background goroutine.
//
// Binding happens before Start returns, so a port already in use is
// reported here rather than logged later.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.cfg.Address(), err)
	}

	s.started = time.Now()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String(), "metrics_path", s.cfg.Path)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
