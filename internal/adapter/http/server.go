package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwygoda/morgue/internal/domain"
)

// ReportSource provides the most recent sweep report.
type ReportSource interface {
	LastReport() (domain.SweepReport, bool)
}

// Server is the HTTP adapter exposing health, metrics and sweep status.
type Server struct {
	reports  ReportSource
	gatherer prometheus.Gatherer
	router   chi.Router
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(reports ReportSource, gatherer prometheus.Gatherer, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		reports:  reports,
		gatherer: gatherer,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/sweeps/last", s.handleLastSweep)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// sweepResponse is the JSON response for GET /sweeps/last.
type sweepResponse struct {
	ID         string              `json:"id"`
	StartedAt  string              `json:"started_at"`
	FinishedAt string              `json:"finished_at,omitempty"`
	LastPage   int                 `json:"last_page"`
	Discarded  int                 `json:"discarded"`
	Retried    int                 `json:"retried"`
	Passes     []domain.PassResult `json:"passes"`
	Error      string              `json:"error,omitempty"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLastSweep(w http.ResponseWriter, r *http.Request) {
	report, ok := s.reports.LastReport()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no sweep has finished yet")
		return
	}
	s.writeJSON(w, http.StatusOK, reportToResponse(report))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func reportToResponse(r domain.SweepReport) sweepResponse {
	resp := sweepResponse{
		ID:        r.ID,
		StartedAt: r.StartedAt.UTC().Format(time.RFC3339),
		LastPage:  r.LastPage,
		Discarded: r.Total(domain.ActionDiscard),
		Retried:   r.Total(domain.ActionRetry),
		Passes:    r.Passes,
		Error:     r.Error,
	}
	if resp.Passes == nil {
		resp.Passes = []domain.PassResult{}
	}
	if !r.FinishedAt.IsZero() {
		resp.FinishedAt = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
