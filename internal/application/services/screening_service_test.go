package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// fakePatientRepo is an in-memory PatientRepository.
type fakePatientRepo struct {
	patients map[string]*entities.Patient
	order    []string
}

func newFakePatientRepo(patients ...*entities.Patient) *fakePatientRepo {
	repo := &fakePatientRepo{patients: map[string]*entities.Patient{}}
	for _, p := range patients {
		repo.patients[p.ID] = p
		repo.order = append(repo.order, p.ID)
	}
	return repo
}

func (r *fakePatientRepo) Create(_ context.Context, p *entities.Patient) error {
	r.patients[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id string) (*entities.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (r *fakePatientRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	out := []*entities.Patient{}
	for _, id := range ids {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *entities.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, id string) error {
	delete(r.patients, id)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, _ repositories.PatientFilter) ([]*entities.Patient, error) {
	out := []*entities.Patient{}
	for _, id := range r.order {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeTrialRepo is an in-memory TrialRepository.
type fakeTrialRepo struct {
	trials map[string]*entities.Trial
	order  []string
}

func newFakeTrialRepo(trials ...*entities.Trial) *fakeTrialRepo {
	repo := &fakeTrialRepo{trials: map[string]*entities.Trial{}}
	for _, tr := range trials {
		repo.trials[tr.ID] = tr
		repo.order = append(repo.order, tr.ID)
	}
	return repo
}

func (r *fakeTrialRepo) Create(_ context.Context, tr *entities.Trial) error {
	r.trials[tr.ID] = tr
	r.order = append(r.order, tr.ID)
	return nil
}

func (r *fakeTrialRepo) GetByID(_ context.Context, id string) (*entities.Trial, error) {
	if tr, ok := r.trials[id]; ok {
		return tr, nil
	}
	return nil, apperrors.NewNotFoundError("trial not found")
}

func (r *fakeTrialRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Trial, error) {
	out := []*entities.Trial{}
	for _, id := range ids {
		if tr, ok := r.trials[id]; ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *fakeTrialRepo) Update(_ context.Context, tr *entities.Trial) error {
	r.trials[tr.ID] = tr
	return nil
}

func (r *fakeTrialRepo) Delete(_ context.Context, id string) error {
	delete(r.trials, id)
	return nil
}

func (r *fakeTrialRepo) List(_ context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
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

func fixturePatient(id string, age int, hba1c float64) *entities.Patient {
	return &entities.Patient{
		ID:           id,
		AgeYears:     intPtr(age),
		HbA1cPercent: floatPtr(hba1c),
		Diagnoses:    []string{"type 2 diabetes"},
		Medications:  []string{"metformin"},
		Pregnant:     boolPtr(false),
	}
}

func fixtureTrial(id, phase string, minH, maxH float64) *entities.Trial {
	return &entities.Trial{
		ID:       id,
		Title:    "Trial " + id,
		Phase:    phase,
		IsActive: true,
		Inclusion: entities.CriteriaSet{
			"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(18), Max: floatPtr(75)},
			"hba1c_percent": {Kind: entities.CriterionRange, Min: floatPtr(minH), Max: floatPtr(maxH)},
			"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
		},
		Exclusion: entities.CriteriaSet{
			"pregnant": {Kind: entities.CriterionBoolFlag, Flag: true},
		},
	}
}

func TestScreeningService_Screen(t *testing.T) {
	patientRepo := newFakePatientRepo(fixturePatient("P0001", 45, 8.2))
	trialRepo := newFakeTrialRepo(fixtureTrial("T-001", "Phase 3", 7, 10))
	svc := services.NewScreeningService(patientRepo, trialRepo, nil, 4)

	patient, trial, result, err := svc.Screen(context.Background(), "P0001", "T-001")
	require.NoError(t, err)

	assert.Equal(t, "P0001", patient.ID)
	assert.Equal(t, "T-001", trial.ID)
	assert.Equal(t, entities.StatusEligible, result.Status)
}

func TestScreeningService_Screen_UnknownPatient(t *testing.T) {
	svc := services.NewScreeningService(newFakePatientRepo(), newFakeTrialRepo(), nil, 4)

	_, _, _, err := svc.Screen(context.Background(), "missing", "T-001")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestScreeningService_RankTrialsForPatient(t *testing.T) {
	patientRepo := newFakePatientRepo(fixturePatient("P0001", 45, 8.2))

	eligible := fixtureTrial("T-001", "Phase 3", 7, 10)
	uncertain := fixtureTrial("T-002", "Phase 2", 7, 10)
	uncertain.Inclusion["egfr"] = entities.Criterion{Kind: entities.CriterionRange, Min: floatPtr(45)}
	failing := fixtureTrial("T-003", "Phase 3", 9, 12)
	inactive := fixtureTrial("T-999", "Phase 3", 7, 10)
	inactive.IsActive = false

	trialRepo := newFakeTrialRepo(failing, uncertain, eligible, inactive)
	svc := services.NewScreeningService(patientRepo, trialRepo, nil, 4)

	matches, summary, err := svc.RankTrialsForPatient(context.Background(), "P0001")
	require.NoError(t, err)
	require.Len(t, matches, 3, "inactive trials are not screened")

	// Eligible first, then uncertain, then failed.
	assert.Equal(t, "T-001", matches[0].Trial.ID)
	assert.Equal(t, entities.StatusEligible, matches[0].Result.Status)
	assert.Equal(t, "T-002", matches[1].Trial.ID)
	assert.Equal(t, entities.StatusUncertain, matches[1].Result.Status)
	assert.Equal(t, "T-003", matches[2].Trial.ID)
	assert.Equal(t, entities.StatusNotEligible, matches[2].Result.Status)

	assert.Equal(t, services.ScreeningSummary{Eligible: 1, Uncertain: 1, NotEligible: 1, Total: 3}, summary)
}

func TestScreeningService_RankPatientsForTrial(t *testing.T) {
	young := fixturePatient("P0001", 45, 8.2)
	old := fixturePatient("P0002", 80, 8.2)
	undocumented := fixturePatient("P0003", 50, 8.0)
	undocumented.HbA1cPercent = nil

	patientRepo := newFakePatientRepo(old, undocumented, young)
	trialRepo := newFakeTrialRepo(fixtureTrial("T-001", "Phase 3", 7, 10))
	svc := services.NewScreeningService(patientRepo, trialRepo, nil, 4)

	matches, summary, err := svc.RankPatientsForTrial(context.Background(), "T-001")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "P0001", matches[0].Patient.ID)
	assert.Equal(t, "P0003", matches[1].Patient.ID)
	assert.Equal(t, "P0002", matches[2].Patient.ID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Eligible)
}

func TestScreeningService_RankingIsDeterministic(t *testing.T) {
	patientRepo := newFakePatientRepo(fixturePatient("P0001", 45, 8.2))
	trialRepo := newFakeTrialRepo(
		fixtureTrial("T-003", "Phase 3", 9, 12),
		fixtureTrial("T-001", "Phase 3", 7, 10),
		fixtureTrial("T-002", "Phase 2", 7, 10),
	)
	svc := services.NewScreeningService(patientRepo, trialRepo, nil, 4)

	var first []string
	for run := 0; run < 5; run++ {
		matches, _, err := svc.RankTrialsForPatient(context.Background(), "P0001")
		require.NoError(t, err)

		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.Trial.ID
		}
		if first == nil {
			first = ids
			continue
		}
		assert.Equal(t, first, ids)
	}
}
