package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazardwatch/internal/adapter/sqlite"
	"github.com/couchcryptid/hazardwatch/internal/dashboard"
	"github.com/couchcryptid/hazardwatch/internal/ingest"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Refresher runs an ingestion cycle on demand.
type Refresher interface {
	ReadinessChecker
	RefreshNow(ctx context.Context) (ingest.Snapshot, bool)
}

// ArchiveReader queries archived events.
type ArchiveReader interface {
	Since(ctx context.Context, t time.Time, limit int) ([]sqlite.ArchivedEvent, error)
	Count(ctx context.Context) (int, error)
}

// Options wires the API handlers. Archive may be nil when archiving is off.
type Options struct {
	Dashboard *dashboard.Dashboard
	Refresher Refresher
	Archive   ArchiveReader
	Metrics   *observability.Metrics
}

// Server exposes the dashboard API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	dash       *dashboard.Dashboard
	refresher  Refresher
	archive    ArchiveReader
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the operational and /api routes.
func NewServer(addr string, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		dash:      opts.Dashboard,
		refresher: opts.Refresher,
		archive:   opts.Archive,
		metrics:   opts.Metrics,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(s.refresher))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.logRequests)
		r.Get("/events", s.handleEvents)
		r.Get("/filter", s.handleGetFilter)
		r.Post("/filter", s.handleDispatch)
		r.Get("/markers", s.handleMarkers)
		r.Get("/recent", s.handleRecent)
		r.Get("/summary", s.handleSummary)
		r.Get("/news", s.handleNews)
		r.Get("/export.csv", s.handleExport)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/archive", s.handleArchive)
	})
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
