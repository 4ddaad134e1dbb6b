package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/eligibility"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// TrialMatch pairs a trial with the screening outcome and rank for one
// patient. Matches are returned best-first.
type TrialMatch struct {
	Trial  *entities.Trial       `json:"trial"`
	Result entities.ScreenResult `json:"result"`
	Rank   eligibility.RankKey   `json:"rank"`
}

// PatientMatch pairs a patient with the screening outcome and rank for one
// trial.
type PatientMatch struct {
	Patient *entities.Patient     `json:"patient"`
	Result  entities.ScreenResult `json:"result"`
	Rank    eligibility.RankKey   `json:"rank"`
}

// ScreeningSummary counts screening outcomes by status.
type ScreeningSummary struct {
	Eligible    int `json:"eligible"`
	Uncertain   int `json:"uncertain"`
	NotEligible int `json:"not_eligible"`
	Total       int `json:"total"`
}

func (s *ScreeningSummary) add(status entities.EligibilityStatus) {
	switch status {
	case entities.StatusEligible:
		s.Eligible++
	case entities.StatusUncertain:
		s.Uncertain++
	case entities.StatusNotEligible:
		s.NotEligible++
	}
	s.Total++
}

// ScreeningService runs the deterministic eligibility engine against stored
// patients and trials.
type ScreeningService struct {
	patientRepo repositories.PatientRepository
	trialRepo   repositories.TrialRepository
	metrics     *observability.Metrics
	concurrency int
}

// NewScreeningService creates a new screening service. metrics may be nil.
func NewScreeningService(
	patientRepo repositories.PatientRepository,
	trialRepo repositories.TrialRepository,
	metrics *observability.Metrics,
	concurrency int,
) *ScreeningService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &ScreeningService{
		patientRepo: patientRepo,
		trialRepo:   trialRepo,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Screen evaluates one patient against one trial.
func (s *ScreeningService) Screen(ctx context.Context, patientID, trialID string) (*entities.Patient, *entities.Trial, entities.ScreenResult, error) {
	ctx, span := observability.StartSpan(ctx, "ScreeningService.Screen")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("screening.patient_id", patientID),
		attribute.String("screening.trial_id", trialID),
	)

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, nil, entities.ScreenResult{}, err
	}

	trial, err := s.trialRepo.GetByID(ctx, trialID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, nil, entities.ScreenResult{}, err
	}

	result := s.screenOne(ctx, patient, trial)
	return patient, trial, result, nil
}

// RankTrialsForPatient screens the patient against every active trial and
// returns the matches best-first with a status summary.
func (s *ScreeningService) RankTrialsForPatient(ctx context.Context, patientID string) ([]TrialMatch, ScreeningSummary, error) {
	ctx, span := observability.StartSpan(ctx, "ScreeningService.RankTrialsForPatient")
	defer span.End()

	patient, err := s.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, ScreeningSummary{}, err
	}

	active := true
	trials, err := s.trialRepo.List(ctx, repositories.TrialFilter{IsActive: &active})
	if err != nil {
		observability.RecordError(span, err)
		return nil, ScreeningSummary{}, err
	}

	matches := make([]TrialMatch, len(trials))
	s.forEach(ctx, len(trials), func(i int) {
		result := s.screenOne(ctx, patient, trials[i])
		matches[i] = TrialMatch{
			Trial:  trials[i],
			Result: result,
			Rank:   eligibility.NewRankKey(patient, trials[i], result),
		}
	})

	// Stable sort on the rank key keeps equal candidates in list order, so
	// output is deterministic for a fixed dataset.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rank.Less(matches[j].Rank)
	})

	var summary ScreeningSummary
	for _, m := range matches {
		summary.add(m.Result.Status)
	}

	return matches, summary, nil
}

// RankPatientsForTrial screens every stored patient against the trial and
// returns the candidates best-first with a status summary.
func (s *ScreeningService) RankPatientsForTrial(ctx context.Context, trialID string) ([]PatientMatch, ScreeningSummary, error) {
	ctx, span := observability.StartSpan(ctx, "ScreeningService.RankPatientsForTrial")
	defer span.End()

	trial, err := s.trialRepo.GetByID(ctx, trialID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, ScreeningSummary{}, err
	}

	patients, err := s.patientRepo.List(ctx, repositories.PatientFilter{})
	if err != nil {
		observability.RecordError(span, err)
		return nil, ScreeningSummary{}, err
	}

	matches := make([]PatientMatch, len(patients))
	s.forEach(ctx, len(patients), func(i int) {
		result := s.screenOne(ctx, patients[i], trial)
		matches[i] = PatientMatch{
			Patient: patients[i],
			Result:  result,
			Rank:    eligibility.NewRankKey(patients[i], trial, result),
		}
	})

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rank.Less(matches[j].Rank)
	})

	var summary ScreeningSummary
	for _, m := range matches {
		summary.add(m.Result.Status)
	}

	return matches, summary, nil
}

func (s *ScreeningService) screenOne(ctx context.Context, patient *entities.Patient, trial *entities.Trial) entities.ScreenResult {
	start := time.Now()
	result := eligibility.Screen(patient, trial)
	if s.metrics != nil {
		observability.RecordScreeningMetric(ctx, s.metrics, string(result.Status), time.Since(start))
	}
	return result
}

// forEach runs fn for each index with bounded concurrency. The engine is
// pure CPU work, so the bound mostly matters for very large cohorts.
func (s *ScreeningService) forEach(ctx context.Context, n int, fn func(i int)) {
	if n == 0 {
		return
	}

	workers := s.concurrency
	if workers > n {
		workers = n
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(indexes)
			wg.Wait()
			return
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
}
