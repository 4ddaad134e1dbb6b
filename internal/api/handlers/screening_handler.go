package handlers

import (
	"net/http"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
)

// ScreeningHandler handles eligibility screening HTTP requests
type ScreeningHandler struct {
	screeningService *services.ScreeningService
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(screeningService *services.ScreeningService) *ScreeningHandler {
	return &ScreeningHandler{
		screeningService: screeningService,
	}
}

// GetScreening handles GET /api/patients/{id}/trials/{trialId}/screening
func (h *ScreeningHandler) GetScreening(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	trialID := r.PathValue("trialId")
	if patientID == "" || trialID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID and trial ID are required")
		return
	}

	patient, trial, result, err := h.screeningService.Screen(r.Context(), patientID, trialID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patient.ID,
		"trial_id":   trial.ID,
		"result":     result,
	})
}

// RankTrialsForPatient handles GET /api/patients/{id}/trials
func (h *ScreeningHandler) RankTrialsForPatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	matches, summary, err := h.screeningService.RankTrialsForPatient(r.Context(), patientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"matches":    matches,
		"summary":    summary,
	})
}

// RankPatientsForTrial handles GET /api/trials/{id}/patients
func (h *ScreeningHandler) RankPatientsForTrial(w http.ResponseWriter, r *http.Request) {
	trialID := r.PathValue("id")
	if trialID == "" {
		respondWithError(w, http.StatusBadRequest, "trial ID is required")
		return
	}

	matches, summary, err := h.screeningService.RankPatientsForTrial(r.Context(), trialID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"trial_id": trialID,
		"matches":  matches,
		"summary":  summary,
	})
}
