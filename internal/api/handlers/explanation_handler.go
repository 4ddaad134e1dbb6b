package handlers

import (
	"net/http"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
)

// ExplanationHandler handles explanation HTTP requests
type ExplanationHandler struct {
	explanationService *services.ExplanationService
}

// NewExplanationHandler creates a new explanation handler
func NewExplanationHandler(explanationService *services.ExplanationService) *ExplanationHandler {
	return &ExplanationHandler{
		explanationService: explanationService,
	}
}

// CreateExplanation handles POST /api/patients/{id}/trials/{trialId}/explanation
func (h *ExplanationHandler) CreateExplanation(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	trialID := r.PathValue("trialId")
	if patientID == "" || trialID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID and trial ID are required")
		return
	}

	outcome, err := h.explanationService.Explain(r.Context(), patientID, trialID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}
