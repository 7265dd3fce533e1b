package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bionetlab/netcontrol/pkg/analysis"
	"github.com/bionetlab/netcontrol/pkg/graph"
	"github.com/bionetlab/netcontrol/pkg/logging"
	"github.com/bionetlab/netcontrol/pkg/store"
	"github.com/bionetlab/netcontrol/pkg/validation"
	"github.com/bionetlab/netcontrol/pkg/worker"
)

// SubmitResponse acknowledges an accepted analysis
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StopResponse reports the outcome of a stop request
type StopResponse struct {
	ID      string `json:"id"`
	Stopped bool   `json:"stopped"`
}

// LogResponse carries the append-only log of one analysis
type LogResponse struct {
	ID  string              `json:"id"`
	Log []analysis.LogEntry `json:"log"`
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAnalysis routes /analyses/{id}, /analyses/{id}/stop and /analyses/{id}/log
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/analyses/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		s.respondError(w, http.StatusBadRequest, "Missing analysis ID")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleGet(w, r, id)
	case len(parts) == 2 && parts[1] == "stop":
		if r.Method != http.MethodPost {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleStop(w, r, id)
	case len(parts) == 2 && parts[1] == "log":
		if r.Method != http.MethodGet {
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleLog(w, r, id)
	default:
		s.respondError(w, http.StatusNotFound, "Unknown analysis endpoint")
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req validation.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := validation.ValidateSubmitRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	model, err := buildModel(&req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	algorithm, err := analysis.ParseAlgorithm(req.Algorithm)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	iterLimit := req.IterationLimit
	if iterLimit == 0 {
		iterLimit = s.defaults.IterationLimit
	}
	noImpLimit := req.NoImprovementLimit
	if noImpLimit == 0 {
		noImpLimit = s.defaults.NoImprovementLimit
	}

	a := analysis.New(algorithm, iterLimit, noImpLimit)
	if req.Genetic != nil {
		applyGeneticInput(a, req.Genetic)
	}

	// Persist the Initializing snapshot so the analysis is pollable
	// before a worker picks it up.
	if err := s.store.SaveProgress(r.Context(), a.Snapshot(time.Now())); err != nil {
		s.logger.Error("failed to persist accepted analysis",
			logging.AnalysisID(a.ID), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to persist analysis")
		return
	}

	if err := s.pool.Submit(a, model); err != nil {
		if errors.Is(err, worker.ErrPoolClosed) {
			s.respondError(w, http.StatusServiceUnavailable, "analysis engine is shutting down")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to queue analysis")
		return
	}

	s.logger.Info("analysis accepted",
		logging.AnalysisID(a.ID),
		logging.Algorithm(string(a.Algorithm)),
		logging.Int("nodes", model.NodeCount()),
		logging.Int("edges", model.EdgeCount()))

	s.respondJSON(w, http.StatusAccepted, SubmitResponse{
		ID:     a.ID,
		Status: string(a.Status),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := s.store.GetSnapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		s.logger.Error("failed to load snapshot", logging.AnalysisID(id), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context())
	if err != nil {
		s.logger.Error("failed to list analyses", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	s.respondJSON(w, http.StatusOK, snaps)
}

// handleStop is idempotent: stopping an unknown or finished analysis
// reports stopped=false instead of an error.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, id string) {
	stopped := s.pool.Stop(id)
	s.respondJSON(w, http.StatusOK, StopResponse{ID: id, Stopped: stopped})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := s.store.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		s.logger.Error("failed to load log", logging.AnalysisID(id), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to load analysis log")
		return
	}
	s.respondJSON(w, http.StatusOK, LogResponse{ID: id, Log: entries})
}

// buildModel converts a validated submission into an immutable graph model
func buildModel(req *validation.SubmitRequest) (*graph.Model, error) {
	nodes := make([]graph.NodeSpec, 0, len(req.Nodes))
	for _, n := range req.Nodes {
		role, err := graph.ParseRole(n.Role)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		nodes = append(nodes, graph.NodeSpec{ID: n.ID, Role: role})
	}
	edges := make([]graph.EdgeSpec, 0, len(req.Edges))
	for _, e := range req.Edges {
		edges = append(edges, graph.EdgeSpec{FromNodeID: e.From, ToNodeID: e.To})
	}
	return graph.NewModel(nodes, edges)
}

func applyGeneticInput(a *analysis.Analysis, in *validation.GeneticInput) {
	if in.PopulationSize > 0 {
		a.Genetic.PopulationSize = in.PopulationSize
	}
	if in.CrossoverRate > 0 {
		a.Genetic.CrossoverRate = in.CrossoverRate
	}
	if in.MutationRate > 0 {
		a.Genetic.MutationRate = in.MutationRate
	}
	if in.Seed != 0 {
		a.Genetic.Seed = in.Seed
	}
}
