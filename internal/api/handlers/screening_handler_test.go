package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/handlers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

func newScreeningHandler(patientRepo *memPatientRepo, trialRepo *memTrialRepo) *handlers.ScreeningHandler {
	return handlers.NewScreeningHandler(services.NewScreeningService(patientRepo, trialRepo, nil, 4))
}

func TestScreeningHandler_GetScreening(t *testing.T) {
	handler := newScreeningHandler(newMemPatientRepo(samplePatient("P0001")), newMemTrialRepo(sampleTrial("T-001")))

	req := httptest.NewRequest("GET", "/api/patients/P0001/trials/T-001/screening", nil)
	req.SetPathValue("id", "P0001")
	req.SetPathValue("trialId", "T-001")
	w := httptest.NewRecorder()

	handler.GetScreening(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		PatientID string                `json:"patient_id"`
		TrialID   string                `json:"trial_id"`
		Result    entities.ScreenResult `json:"result"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "P0001", response.PatientID)
	assert.Equal(t, "T-001", response.TrialID)
	assert.Equal(t, entities.StatusEligible, response.Result.Status)
}

func TestScreeningHandler_GetScreening_UnknownTrial(t *testing.T) {
	handler := newScreeningHandler(newMemPatientRepo(samplePatient("P0001")), newMemTrialRepo())

	req := httptest.NewRequest("GET", "/api/patients/P0001/trials/missing/screening", nil)
	req.SetPathValue("id", "P0001")
	req.SetPathValue("trialId", "missing")
	w := httptest.NewRecorder()

	handler.GetScreening(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScreeningHandler_RankTrialsForPatient(t *testing.T) {
	second := sampleTrial("T-002")
	second.Inclusion["egfr"] = entities.Criterion{Kind: entities.CriterionRange, Min: floatPtr(45)}
	handler := newScreeningHandler(
		newMemPatientRepo(samplePatient("P0001")),
		newMemTrialRepo(second, sampleTrial("T-001")),
	)

	req := httptest.NewRequest("GET", "/api/patients/P0001/trials", nil)
	req.SetPathValue("id", "P0001")
	w := httptest.NewRecorder()

	handler.RankTrialsForPatient(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// The patient has no eGFR, so T-002's closeness is the infinite
	// sentinel; it must serialize as null rather than abort encoding.
	body := w.Body.String()
	assert.Contains(t, body, `"closeness":null`)

	var response struct {
		PatientID string                    `json:"patient_id"`
		Matches   []services.TrialMatch     `json:"matches"`
		Summary   services.ScreeningSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Matches, 2)
	assert.Equal(t, "T-001", response.Matches[0].Trial.ID)
	assert.Equal(t, entities.StatusEligible, response.Matches[0].Result.Status)
	assert.Equal(t, "T-002", response.Matches[1].Trial.ID)
	assert.Equal(t, entities.StatusUncertain, response.Matches[1].Result.Status)
	assert.Equal(t, 2, response.Summary.Total)
}

func TestScreeningHandler_RankPatientsForTrial(t *testing.T) {
	ineligible := samplePatient("P0002")
	ineligible.AgeYears = intPtr(90)
	handler := newScreeningHandler(
		newMemPatientRepo(ineligible, samplePatient("P0001")),
		newMemTrialRepo(sampleTrial("T-001")),
	)

	req := httptest.NewRequest("GET", "/api/trials/T-001/patients", nil)
	req.SetPathValue("id", "T-001")
	w := httptest.NewRecorder()

	handler.RankPatientsForTrial(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		TrialID string                    `json:"trial_id"`
		Matches []services.PatientMatch   `json:"matches"`
		Summary services.ScreeningSummary `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Matches, 2)
	assert.Equal(t, "P0001", response.Matches[0].Patient.ID)
	assert.Equal(t, "P0002", response.Matches[1].Patient.ID)
	assert.Equal(t, entities.StatusNotEligible, response.Matches[1].Result.Status)
}
