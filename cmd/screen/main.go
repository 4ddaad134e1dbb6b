package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// fileRepos serve screening straight from JSON files, without a database.

type filePatientRepo struct {
	patients map[string]*entities.Patient
	order    []string
}

func (r *filePatientRepo) Create(_ context.Context, _ *entities.Patient) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *filePatientRepo) GetByID(_ context.Context, id string) (*entities.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (r *filePatientRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Patient, error) {
	out := []*entities.Patient{}
	for _, id := range ids {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *filePatientRepo) Update(_ context.Context, _ *entities.Patient) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *filePatientRepo) Delete(_ context.Context, _ string) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *filePatientRepo) List(_ context.Context, _ repositories.PatientFilter) ([]*entities.Patient, error) {
	out := make([]*entities.Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.patients[id])
	}
	return out, nil
}

type fileTrialRepo struct {
	trials map[string]*entities.Trial
	order  []string
}

func (r *fileTrialRepo) Create(_ context.Context, _ *entities.Trial) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *fileTrialRepo) GetByID(_ context.Context, id string) (*entities.Trial, error) {
	if tr, ok := r.trials[id]; ok {
		return tr, nil
	}
	return nil, apperrors.NewNotFoundError("trial not found")
}

func (r *fileTrialRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Trial, error) {
	out := []*entities.Trial{}
	for _, id := range ids {
		if tr, ok := r.trials[id]; ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *fileTrialRepo) Update(_ context.Context, _ *entities.Trial) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *fileTrialRepo) Delete(_ context.Context, _ string) error {
	return apperrors.NewValidationError("file-backed repository is read-only")
}

func (r *fileTrialRepo) List(_ context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
	out := []*entities.Trial{}
	for _, id := range r.order {
		tr := r.trials[id]
		if filter.IsActive != nil && tr.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// loadTrials reads a trial catalog, defaulting trials that omit "is_active"
// to active. Hand-written catalogs rarely carry the flag, and an inactive
// default would silently drop them from every ranking.
func loadTrials(path string) ([]*entities.Trial, error) {
	var raw []json.RawMessage
	if err := loadJSON(path, &raw); err != nil {
		return nil, err
	}

	trials := make([]*entities.Trial, 0, len(raw))
	for _, msg := range raw {
		trial := &entities.Trial{}
		if err := json.Unmarshal(msg, trial); err != nil {
			return nil, err
		}
		var flags struct {
			IsActive *bool `json:"is_active"`
		}
		if err := json.Unmarshal(msg, &flags); err != nil {
			return nil, err
		}
		if flags.IsActive == nil {
			trial.IsActive = true
		}
		trials = append(trials, trial)
	}
	return trials, nil
}

type patientReport struct {
	PatientID string                    `json:"patient_id"`
	Matches   []services.TrialMatch     `json:"matches"`
	Summary   services.ScreeningSummary `json:"summary"`
}

func main() {
	var patientsPath, trialsPath, patientID string
	var concurrency int
	flag.StringVar(&patientsPath, "patients", "data/patients.json", "path to patients JSON")
	flag.StringVar(&trialsPath, "trials", "data/trials.json", "path to trials JSON; trials omitting is_active are treated as active")
	flag.StringVar(&patientID, "patient", "", "screen a single patient instead of all")
	flag.IntVar(&concurrency, "concurrency", 8, "screening worker count")
	flag.Parse()

	var patients []*entities.Patient
	if err := loadJSON(patientsPath, &patients); err != nil {
		log.Fatalf("Failed to load patients from %s: %v", patientsPath, err)
	}

	trials, err := loadTrials(trialsPath)
	if err != nil {
		log.Fatalf("Failed to load trials from %s: %v", trialsPath, err)
	}

	patientRepo := &filePatientRepo{patients: map[string]*entities.Patient{}}
	for _, p := range patients {
		patientRepo.patients[p.ID] = p
		patientRepo.order = append(patientRepo.order, p.ID)
	}

	trialRepo := &fileTrialRepo{trials: map[string]*entities.Trial{}}
	for _, tr := range trials {
		trialRepo.trials[tr.ID] = tr
		trialRepo.order = append(trialRepo.order, tr.ID)
	}

	svc := services.NewScreeningService(patientRepo, trialRepo, nil, concurrency)
	ctx := context.Background()

	ids := patientRepo.order
	if patientID != "" {
		ids = []string{patientID}
	}

	reports := make([]patientReport, 0, len(ids))
	total := services.ScreeningSummary{}
	for _, id := range ids {
		matches, summary, err := svc.RankTrialsForPatient(ctx, id)
		if err != nil {
			log.Fatalf("Failed to screen patient %s: %v", id, err)
		}
		reports = append(reports, patientReport{PatientID: id, Matches: matches, Summary: summary})
		total.Eligible += summary.Eligible
		total.Uncertain += summary.Uncertain
		total.NotEligible += summary.NotEligible
		total.Total += summary.Total
	}

	out := map[string]interface{}{
		"patients": reports,
		"summary":  total,
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Screened %d patients against %d trials: %d eligible, %d uncertain, %d not eligible\n",
		len(reports), len(trials), total.Eligible, total.Uncertain, total.NotEligible)
}
