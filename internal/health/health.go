package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/pkg/logger"
	"github.com/selivandex/fng-signal/pkg/models"
)

// Checker probes one dependency; nil means healthy
type Checker func(ctx context.Context) error

// Server provides health check HTTP endpoints for the scheduled signal
type Server struct {
	server    *http.Server
	checks    map[string]Checker
	ready     bool
	lastRun   *RunStatus
	mu        sync.RWMutex
	startTime time.Time
}

// HealthStatus represents process liveness
type HealthStatus struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Uptime    string     `json:"uptime"`
	LastRun   *RunStatus `json:"last_run,omitempty"`
}

// ReadinessStatus represents dependency readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// RunStatus summarizes the most recent pipeline run
type RunStatus struct {
	At       string `json:"at"`
	Status   string `json:"status"`
	Decision string `json:"decision,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewServer creates new health check server listening on addr
func NewServer(addr string, checks map[string]Checker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		checks:    checks,
		startTime: time.Now(),
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReadiness)

	return s
}

// Handler returns the HTTP handler (used by tests)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Stop is called
func (s *Server) Start() error {
	logger.Info("health check server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping health check server...")
	return s.server.Shutdown(ctx)
}

// SetReady marks the scheduler as started (or stopping)
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("✅ service marked as READY")
	} else {
		logger.Warn("⚠️ service marked as NOT READY")
	}
}

// RecordRun stores the outcome of a pipeline run for /health
func (s *Server) RecordRun(result *models.RunResult, err error) {
	run := &RunStatus{At: time.Now().UTC().Format(time.RFC3339)}

	switch {
	case err != nil:
		run.Status = "failed"
		run.Error = err.Error()
	case result != nil:
		run.Status = string(result.Status)
		if result.Change != nil {
			run.Decision = result.Change.Current.Decision.Key()
		}
	}

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}

// handleHealth is the liveness probe: 200 while the process is alive, even
// when the last run failed or a dependency is down
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	lastRun := s.lastRun
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		LastRun:   lastRun,
	})
}

// handleReadiness is the readiness probe: 200 only when started and every
// dependency check passes
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.checks))
	allHealthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			continue
		}
		checks[name] = "healthy"
	}

	isReady := ready && allHealthy

	code := http.StatusOK
	if !isReady {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, ReadinessStatus{
		Ready:     isReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write health response", zap.Error(err))
	}
}
