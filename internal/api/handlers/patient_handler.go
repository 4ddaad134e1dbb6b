package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	patientService *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	patient, err := h.patientService.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// The clinical note is optional; patients without one still resolve.
	var note *entities.ClinicalNote
	if n, err := h.patientService.GetNote(r.Context(), patientID); err == nil {
		note = n
	} else if !apperrors.IsNotFound(err) {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient": patient,
		"note":    note,
	})
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PatientFilter{
		Sex:       r.URL.Query().Get("sex"),
		Diagnosis: r.URL.Query().Get("diagnosis"),
		Limit:     parseIntParam(r, "limit", 50),
		Offset:    parseIntParam(r, "offset", 0),
	}
	if v := r.URL.Query().Get("min_age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinAge = &n
		}
	}
	if v := r.URL.Query().Get("max_age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MaxAge = &n
		}
	}

	patients, err := h.patientService.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
