// Package api exposes the prediction service: a thin HTTP surface over the
// trained model and the uncertainty propagator. The pipeline core itself has
// no network dependency; this is collaborator glue.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/salmanhiro/starnet/domain/dataset"
	"github.com/salmanhiro/starnet/internal"
	"github.com/salmanhiro/starnet/internal/pipeline"
	"github.com/salmanhiro/starnet/ports"
)

// Server serves prediction-with-uncertainty requests
type Server struct {
	router   *chi.Mux
	service  *pipeline.Service
	model    ports.Regressor
	expected int // bins the model was trained on
	log      *internal.Logger
}

// NewServer creates the prediction server around a trained model
func NewServer(service *pipeline.Service, model ports.Regressor, bins int) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		model:    model,
		expected: bins,
		log:      internal.DefaultLogger.WithComponent("api"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/predict", s.handlePredict)
}

// Handler returns the HTTP handler for mounting or serving
func (s *Server) Handler() http.Handler {
	return s.router
}

// predictRequest carries one spectrum, optionally with its per-bin noise
type predictRequest struct {
	Spectrum      []float64 `json:"spectrum"`
	ErrorSpectrum []float64 `json:"error_spectrum,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Spectrum) != s.expected {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "spectrum bin count does not match the trained model",
		})
		return
	}

	sample, err := s.service.PredictWithUncertainty(r.Context(), s.model,
		dataset.Spectrum(req.Spectrum), dataset.Spectrum(req.ErrorSpectrum))
	if err != nil {
		s.log.Error("prediction failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, sample)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
