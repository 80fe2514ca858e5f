package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/publisher"
	"github.com/MJE43/roulette-strategy-sim/internal/store"
)

const defaultRequestTimeout = 60 * time.Second

// BatchPublisher announces finished batches.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, summary publisher.BatchSummary) (string, error)
	Ping(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	db             store.DB
	publisher      BatchPublisher
	errorHandler   *ErrorHandler
	logger         *zap.Logger
	requestTimeout time.Duration
	allowedOrigins []string
	startTime      time.Time
	httpServer     *http.Server
	upgrader       *websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher publishes every batch to a stream.
func WithPublisher(p BatchPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestTimeout bounds every non-streaming request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithAllowedOrigins sets the origins allowed by CORS and by websocket
// upgrades.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// NewServer creates a new API server. db may be nil, in which case runs are
// neither persisted nor listed.
func NewServer(db store.DB, opts ...Option) *Server {
	s := &Server{
		db:             db,
		logger:         zap.NewNop(),
		requestTimeout: defaultRequestTimeout,
		allowedOrigins: []string{"*"},
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = NewErrorHandler(s.logger)
	s.upgrader = s.newUpgrader()

	s.logger.Info("api server created",
		zap.Bool("database_enabled", db != nil),
		zap.Bool("publisher_enabled", s.publisher != nil),
		zap.String("engine_version", EngineVersion),
	)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Engine-Version", "X-Error-Type", "X-Error-Category"},
		MaxAge:         300,
	}))

	timeout := middleware.Timeout(s.requestTimeout)

	// Health and monitoring endpoints
	r.With(timeout).Get("/health", s.handleHealthCheck)
	r.With(timeout).Get("/health/ready", s.handleReadiness)
	r.With(timeout).Get("/health/live", s.handleLiveness)
	r.With(timeout).Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		// The websocket stream outlives the request timeout.
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/strategies", s.handleListStrategies)
			r.Post("/simulate", s.handleSimulate)
			r.Post("/batch", s.handleBatch)

			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
			r.Get("/runs/{id}/sessions", s.handleRunSessions)
			r.Delete("/runs/{id}", s.handleDeleteRun)
		})
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// Start begins listening in a goroutine. It returns once the socket is
// bound, with the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("api listening", zap.String("addr", ln.Addr().String()))
	return ln.Addr(), nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
