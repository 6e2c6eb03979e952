// internal/api/server.go

// Package api exposes the screening service over a small JSON HTTP surface.
// It belongs to the surrounding application, not to the engine core: the
// engine's contract is data in, data out.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"screening-engine/internal/common/config"
	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/models"
	"screening-engine/internal/service"
)

// Server wires the screening service into an http.Server.
type Server struct {
	svc    *service.ScreeningService
	logger logger.Logger
}

// NewServer creates the API server.
func NewServer(svc *service.ScreeningService, log logger.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /applications", s.handleStart)
	mux.HandleFunc("GET /applications/{id}", s.handleGet)
	mux.HandleFunc("POST /applications/{id}/stages/{stage}", s.handleSubmitStage)
	mux.HandleFunc("POST /applications/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// HTTPServer builds a configured http.Server around the handler.
func (s *Server) HTTPServer(cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
}

type submitStageRequest struct {
	Responses []models.Response `json:"responses"`
}

type finalizeRequest struct {
	Contact models.Contact `json:"contact"`
}

type finalizeResponse struct {
	State          models.ApplicationState `json:"state"`
	Classification string                  `json:"classification"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSubmitStage(w http.ResponseWriter, r *http.Request) {
	stageIndex, err := strconv.Atoi(r.PathValue("stage"))
	if err != nil {
		http.Error(w, "invalid stage index", http.StatusBadRequest)
		return
	}

	var req submitStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := s.svc.SubmitStage(r.Context(), r.PathValue("id"), stageIndex, req.Responses)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	state, label, err := s.svc.Finalize(r.Context(), r.PathValue("id"), req.Contact)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, finalizeResponse{State: state, Classification: label})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{"error": err})
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	if engErr, ok := errors.AsEngineError(err); ok {
		switch {
		case engErr.Code == errors.ErrCodeApplicationNotFound:
			status = http.StatusNotFound
		case engErr.Code == errors.ErrCodeApplicantLocked:
			status = http.StatusConflict
		case engErr.Category == errors.CategorySequence:
			status = http.StatusConflict
		case engErr.Category == errors.CategoryValidation:
			status = http.StatusUnprocessableEntity
		case engErr.Category == errors.CategoryLookup:
			status = http.StatusNotFound
		}
		s.writeJSON(w, status, engErr)
		return
	}

	s.logger.Error("request failed", map[string]interface{}{"error": err})
	http.Error(w, "internal error", status)
}
