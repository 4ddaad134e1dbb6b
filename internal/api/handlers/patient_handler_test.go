package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/api/handlers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// In-memory repositories shared by the handler tests in this package.

type memPatientRepo struct {
	patients map[string]*entities.Patient
	order    []string
}

func newMemPatientRepo(patients ...*entities.Patient) *memPatientRepo {
	repo := &memPatientRepo{patients: map[string]*entities.Patient{}}
	for _, p := range patients {
		repo.patients[p.ID] = p
		repo.order = append(repo.order, p.ID)
	}
	return repo
}

func (r *memPatientRepo) Create(_ context.Context, p *entities.Patient) error {
	r.patients[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memPatientRepo) GetByID(_ context.Context, id string) (*entities.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (r *memPatientRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Patient, error) {
	out := []*entities.Patient{}
	for _, id := range ids {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPatientRepo) Update(_ context.Context, p *entities.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *memPatientRepo) Delete(_ context.Context, id string) error {
	delete(r.patients, id)
	return nil
}

func (r *memPatientRepo) List(_ context.Context, _ repositories.PatientFilter) ([]*entities.Patient, error) {
	out := []*entities.Patient{}
	for _, id := range r.order {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memNoteRepo struct {
	notes map[string]*entities.ClinicalNote
}

func newMemNoteRepo(notes ...*entities.ClinicalNote) *memNoteRepo {
	repo := &memNoteRepo{notes: map[string]*entities.ClinicalNote{}}
	for _, n := range notes {
		repo.notes[n.PatientID] = n
	}
	return repo
}

func (r *memNoteRepo) Create(_ context.Context, n *entities.ClinicalNote) error {
	r.notes[n.PatientID] = n
	return nil
}

func (r *memNoteRepo) GetByPatientID(_ context.Context, patientID string) (*entities.ClinicalNote, error) {
	if n, ok := r.notes[patientID]; ok {
		return n, nil
	}
	return nil, apperrors.NewNotFoundError("clinical note not found")
}

func (r *memNoteRepo) Update(_ context.Context, n *entities.ClinicalNote) error {
	r.notes[n.PatientID] = n
	return nil
}

func (r *memNoteRepo) Delete(_ context.Context, patientID string) error {
	delete(r.notes, patientID)
	return nil
}

type memTrialRepo struct {
	trials map[string]*entities.Trial
	order  []string
}

func newMemTrialRepo(trials ...*entities.Trial) *memTrialRepo {
	repo := &memTrialRepo{trials: map[string]*entities.Trial{}}
	for _, tr := range trials {
		repo.trials[tr.ID] = tr
		repo.order = append(repo.order, tr.ID)
	}
	return repo
}

func (r *memTrialRepo) Create(_ context.Context, tr *entities.Trial) error {
	r.trials[tr.ID] = tr
	r.order = append(r.order, tr.ID)
	return nil
}

func (r *memTrialRepo) GetByID(_ context.Context, id string) (*entities.Trial, error) {
	if tr, ok := r.trials[id]; ok {
		return tr, nil
	}
	return nil, apperrors.NewNotFoundError("trial not found")
}

func (r *memTrialRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Trial, error) {
	out := []*entities.Trial{}
	for _, id := range ids {
		if tr, ok := r.trials[id]; ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *memTrialRepo) Update(_ context.Context, tr *entities.Trial) error {
	r.trials[tr.ID] = tr
	return nil
}

func (r *memTrialRepo) Delete(_ context.Context, id string) error {
	delete(r.trials, id)
	return nil
}

func (r *memTrialRepo) List(_ context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
	out := []*entities.Trial{}
	for _, id := range r.order {
		tr, ok := r.trials[id]
		if !ok {
			continue
		}
		if filter.IsActive != nil && tr.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func samplePatient(id string) *entities.Patient {
	return &entities.Patient{
		ID:           id,
		AgeYears:     intPtr(52),
		HbA1cPercent: floatPtr(8.1),
		Diagnoses:    []string{"type 2 diabetes"},
		Medications:  []string{"metformin"},
		Pregnant:     boolPtr(false),
	}
}

func sampleTrial(id string) *entities.Trial {
	return &entities.Trial{
		ID:       id,
		Title:    "Trial " + id,
		Phase:    "Phase 3",
		IsActive: true,
		Inclusion: entities.CriteriaSet{
			"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(18), Max: floatPtr(75)},
			"hba1c_percent": {Kind: entities.CriterionRange, Min: floatPtr(7), Max: floatPtr(10)},
			"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
		},
		Exclusion: entities.CriteriaSet{
			"pregnant": {Kind: entities.CriterionBoolFlag, Flag: true},
		},
	}
}

func TestPatientHandler_GetPatient(t *testing.T) {
	patientRepo := newMemPatientRepo(samplePatient("P0001"))
	noteRepo := newMemNoteRepo(&entities.ClinicalNote{PatientID: "P0001", Note: "52 year old with T2D on metformin."})
	handler := handlers.NewPatientHandler(services.NewPatientService(patientRepo, noteRepo))

	req := httptest.NewRequest("GET", "/api/patients/P0001", nil)
	req.SetPathValue("id", "P0001")
	w := httptest.NewRecorder()

	handler.GetPatient(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Patient *entities.Patient      `json:"patient"`
		Note    *entities.ClinicalNote `json:"note"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "P0001", response.Patient.ID)
	require.NotNil(t, response.Note)
	assert.Contains(t, response.Note.Note, "metformin")
}

func TestPatientHandler_GetPatient_NoNote(t *testing.T) {
	patientRepo := newMemPatientRepo(samplePatient("P0002"))
	handler := handlers.NewPatientHandler(services.NewPatientService(patientRepo, newMemNoteRepo()))

	req := httptest.NewRequest("GET", "/api/patients/P0002", nil)
	req.SetPathValue("id", "P0002")
	w := httptest.NewRecorder()

	handler.GetPatient(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "null", string(response["note"]))
}

func TestPatientHandler_GetPatient_NotFound(t *testing.T) {
	handler := handlers.NewPatientHandler(services.NewPatientService(newMemPatientRepo(), newMemNoteRepo()))

	req := httptest.NewRequest("GET", "/api/patients/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.GetPatient(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientHandler_ListPatients(t *testing.T) {
	patientRepo := newMemPatientRepo(samplePatient("P0001"), samplePatient("P0002"))
	handler := handlers.NewPatientHandler(services.NewPatientService(patientRepo, newMemNoteRepo()))

	req := httptest.NewRequest("GET", "/api/patients", nil)
	w := httptest.NewRecorder()

	handler.ListPatients(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Patients []*entities.Patient `json:"patients"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	assert.Len(t, response.Patients, 2)
}
