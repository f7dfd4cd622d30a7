package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Progress reports the last simulation time step that finished.
type Progress interface {
	LastTime() int
}

// AllReady is ready only when every checker is. Failures are joined.
type AllReady []sharedobs.ReadinessChecker

func (a AllReady) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status is the body of GET /status.
type Status struct {
	LastTimestep int    `json:"last_timestep"`
	Ready        bool   `json:"ready"`
	Reason       string `json:"reason,omitempty"`
}

// Server serves the probes, Prometheus metrics and a simulation status
// document.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer routes /healthz, /readyz, /status and /metrics. Readiness and
// status share the same checker so they never disagree.
func NewServer(addr string, ready sharedobs.ReadinessChecker, progress Progress, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /status", statusHandler(ready, progress, logger))
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

func statusHandler(ready sharedobs.ReadinessChecker, progress Progress, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{LastTimestep: progress.LastTime(), Ready: true}
		if err := ready.CheckReadiness(r.Context()); err != nil {
			st.Ready = false
			st.Reason = err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			logger.Warn("write status", "error", err)
		}
	}
}

// Start listens until Shutdown, which makes it return http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
