package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/yourusername/nardengine/pkg/engine"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host              string        // Host to bind to (default "localhost")
	Port              int           // Port to listen on (default 8080)
	ReadTimeout       time.Duration // Read timeout (default 30s)
	WriteTimeout      time.Duration // Write timeout (default 0, rollouts stream)
	IdleTimeout       time.Duration // Idle timeout (default 60s)
	ShutdownTimeout   time.Duration // Graceful shutdown limit (default 10s)
	MaxFastWorkers    int           // Max concurrent move analyses (default 100)
	MaxSlowWorkers    int           // Max concurrent rollouts (default 4)
	QueueTimeout      time.Duration // Max wait for a worker slot (default 5s)
	AllowedOrigins    []string      // CORS and WebSocket origins (default "*")
	RolloutGames      int           // Games when a request gives none (default 1000)
	RolloutMaxPlies   int           // Ply cap when a request gives none
	MaxRolloutGames   int           // Largest rollout a request may ask for
	MaxRolloutWorkers int           // Most workers a rollout request may ask for
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:              "localhost",
		Port:              8080,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxFastWorkers:    100,
		MaxSlowWorkers:    4,
		QueueTimeout:      5 * time.Second,
		AllowedOrigins:    []string{"*"},
		RolloutGames:      1000,
		RolloutMaxPlies:   engine.DefaultMaxPlies,
		MaxRolloutGames:   DefaultMaxRolloutGames,
		MaxRolloutWorkers: DefaultMaxRolloutWorkers,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	log      zerolog.Logger
	version  string
}

// NewServer creates a new API server.
func NewServer(e *engine.Engine, config ServerConfig, version string, logger zerolog.Logger) *Server {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
		QueueTimeout:   config.QueueTimeout,
	})
	handlers := NewHandlersWithPool(e, version, pool)
	handlers.SetRolloutLimits(config.RolloutGames, config.RolloutMaxPlies, config.MaxRolloutGames)
	handlers.SetMaxRolloutWorkers(config.MaxRolloutWorkers)
	handlers.SetAllowedOrigins(config.AllowedOrigins)

	s := &Server{
		config:   config,
		handlers: handlers,
		pool:     pool,
		log:      logger,
		version:  version,
	}
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// Routes builds the router with all API routes and middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         60 * 15,
	}))

	r.Route("/api", func(rr chi.Router) {
		rr.Get("/health", s.handlers.Health)
		rr.Post("/moves", s.handlers.Moves)
		rr.Post("/rollout", s.handlers.Rollout)
		rr.Get("/rollout/stream", s.handlers.RolloutSSE)
		rr.HandleFunc("/ws", s.handlers.WebSocket)
	})

	return r
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().
		Str("version", s.version).
		Str("addr", s.server.Addr).
		Int("fast_workers", s.pool.Stats().MaxFast).
		Int("slow_workers", s.pool.Stats().MaxSlow).
		Msg("starting nard API server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info().Msg("server stopped gracefully")
	return nil
}
