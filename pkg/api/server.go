// Package api exposes the analysis engine over HTTP
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bionetlab/netcontrol/pkg/logging"
	"github.com/bionetlab/netcontrol/pkg/metrics"
	"github.com/bionetlab/netcontrol/pkg/store"
	"github.com/bionetlab/netcontrol/pkg/worker"
)

// Defaults are applied to submissions that omit the stopping limits
type Defaults struct {
	IterationLimit     int
	NoImprovementLimit int
}

// Server represents the HTTP API server
type Server struct {
	store     store.Store
	pool      *worker.Pool
	registry  *metrics.Registry
	logger    logging.Logger
	defaults  Defaults
	startTime time.Time
	version   string
}

// NewServer creates a new API server
func NewServer(st store.Store, pool *worker.Pool, registry *metrics.Registry, logger logging.Logger, defaults Defaults) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		store:     st,
		pool:      pool,
		registry:  registry,
		logger:    logger.With(logging.Component("api")),
		defaults:  defaults,
		startTime: time.Now(),
		version:   "1.0.0",
	}
}

// Handler builds the routing table with metrics middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.registry.Handler())

	// Analysis endpoints
	mux.HandleFunc("/analyses", s.handleAnalyses)
	mux.HandleFunc("/analyses/", s.handleAnalysis) // /analyses/{id}[/stop|/log]

	return s.metricsMiddleware(mux)
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is the JSON body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Running   int       `json:"runningAnalyses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Running:   s.pool.Running(),
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	s.respondJSON(w, status, response)
}
