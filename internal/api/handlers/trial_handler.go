package handlers

import (
	"net/http"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
)

// TrialHandler handles trial-related HTTP requests
type TrialHandler struct {
	trialService *services.TrialService
}

// NewTrialHandler creates a new trial handler
func NewTrialHandler(trialService *services.TrialService) *TrialHandler {
	return &TrialHandler{
		trialService: trialService,
	}
}

// GetTrial handles GET /api/trials/{id}
func (h *TrialHandler) GetTrial(w http.ResponseWriter, r *http.Request) {
	trialID := r.PathValue("id")
	if trialID == "" {
		respondWithError(w, http.StatusBadRequest, "trial ID is required")
		return
	}

	trial, err := h.trialService.GetByID(r.Context(), trialID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, trial)
}

// ListTrials handles GET /api/trials
func (h *TrialHandler) ListTrials(w http.ResponseWriter, r *http.Request) {
	filter := repositories.TrialFilter{
		Phase:     r.URL.Query().Get("phase"),
		Condition: r.URL.Query().Get("condition"),
		Limit:     parseIntParam(r, "limit", 50),
		Offset:    parseIntParam(r, "offset", 0),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}

	trials, err := h.trialService.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list trials")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"trials": trials,
		"count":  len(trials),
	})
}

// SearchTrials handles GET /api/trials/search
func (h *TrialHandler) SearchTrials(w http.ResponseWriter, r *http.Request) {
	query := repositories.TrialSearchQuery{
		Query:      r.URL.Query().Get("q"),
		Phase:      r.URL.Query().Get("phase"),
		Condition:  r.URL.Query().Get("condition"),
		ActiveOnly: r.URL.Query().Get("active") != "false",
		Limit:      parseIntParam(r, "limit", 20),
	}

	hits, err := h.trialService.Search(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search trials")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"count": len(hits),
	})
}
