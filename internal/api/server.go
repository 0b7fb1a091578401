package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/busfahrer-sim/internal/scan"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

// Options tunes a Server. Zero values select the defaults.
type Options struct {
	Logger *slog.Logger
	// MaxTrials caps the trials per configuration of one request.
	MaxTrials uint64
	// SweepTimeout bounds a single sweep; the partial result is kept.
	SweepTimeout time.Duration
	// MaxConfigurations caps the configurations of one sweep.
	MaxConfigurations int
}

// Server handles HTTP requests
type Server struct {
	db           store.DB
	scanner      *scan.Scanner
	errorHandler *ErrorHandler
	logger       *slog.Logger
	maxTrials    uint64
	sweepTimeout time.Duration
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(db store.DB, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	if opts.SweepTimeout <= 0 {
		opts.SweepTimeout = 60 * time.Second
	}
	if opts.MaxConfigurations <= 0 {
		opts.MaxConfigurations = 1024
	}

	s := &Server{
		db:           db,
		scanner:      scan.NewScanner().WithMaxTrials(opts.MaxTrials).WithMaxConfigurations(opts.MaxConfigurations),
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		maxTrials:    opts.MaxTrials,
		sweepTimeout: opts.SweepTimeout,
		startTime:    time.Now(),
	}

	logger.Info("server_initialized",
		"engine_version", EngineVersion,
		"max_trials", opts.MaxTrials,
		"max_configurations", opts.MaxConfigurations,
		"sweep_timeout", opts.SweepTimeout,
	)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.LoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	// Sweeps bound themselves; leave room to persist the partial result.
	r.Use(middleware.Timeout(s.sweepTimeout + 10*time.Second))
	r.Use(s.CORSMiddleware)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/options", s.handleOptions)

		r.Route("/sweeps", func(r chi.Router) {
			r.Post("/", s.handleCreateSweep)
			r.Get("/", s.handleListSweeps)
			r.Get("/{id}", s.handleGetSweep)
			r.Delete("/{id}", s.handleDeleteSweep)
			r.Get("/{id}/export.csv", s.handleExportSweep)
		})

		r.Post("/trials/verify", s.handleVerifyTrial)
		r.Post("/seed/hash", s.handleSeedHash)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
