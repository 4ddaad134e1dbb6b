package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ExplanationService produces patient-facing explanations for screening
// results. The model only restates the rule-based outcome; when it fails or
// contradicts the engine, the service degrades to a deterministic fallback
// rather than surfacing model output as authoritative.
type ExplanationService struct {
	screening *ScreeningService
	noteRepo  repositories.NoteRepository
	provider  providers.ExplanationProvider
	cache     providers.CacheProvider
	metrics   *observability.Metrics
	cacheTTL  time.Duration
	model     string
}

// NewExplanationService creates a new explanation service. provider, cache
// and metrics may each be nil; the service degrades accordingly.
func NewExplanationService(
	screening *ScreeningService,
	noteRepo repositories.NoteRepository,
	provider providers.ExplanationProvider,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	cacheTTL time.Duration,
	model string,
) *ExplanationService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ExplanationService{
		screening: screening,
		noteRepo:  noteRepo,
		provider:  provider,
		cache:     cache,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		model:     model,
	}
}

func explanationCacheKey(patientID, trialID string) string {
	return fmt.Sprintf("explanation:%s:%s", patientID, trialID)
}

// Explain re-runs the deterministic screening and asks the model to explain
// it. The screening itself is always fresh; only the explanation text is
// cached.
func (s *ExplanationService) Explain(ctx context.Context, patientID, trialID string) (*entities.ExplanationOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "ExplanationService.Explain")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("screening.patient_id", patientID),
		attribute.String("screening.trial_id", trialID),
	)

	patient, trial, result, err := s.screening.Screen(ctx, patientID, trialID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	cacheKey := explanationCacheKey(patientID, trialID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var outcome entities.ExplanationOutcome
			if err := json.Unmarshal(cached, &outcome); err == nil {
				if s.metrics != nil {
					observability.RecordCacheHit(ctx, s.metrics, "explanation")
				}
				return &outcome, nil
			}
			log.Printf("Failed to unmarshal cached explanation for %s/%s: %v", patientID, trialID, err)
		}
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, "explanation")
		}
	}

	outcome := s.generate(ctx, patient, trial, result)

	if s.metrics != nil {
		observability.RecordExplanationMetric(ctx, s.metrics, string(outcome.Source))
	}

	// Fallback outcomes are transient failures; caching them would pin the
	// degraded answer for the full TTL.
	if s.cache != nil && outcome.Source == entities.ExplanationSourceModel {
		go func() {
			bgCtx := context.Background()
			if data, err := json.Marshal(outcome); err == nil {
				if err := s.cache.Set(bgCtx, cacheKey, data, s.cacheTTL); err != nil {
					log.Printf("Failed to cache explanation for %s/%s: %v", patientID, trialID, err)
				}
			}
		}()
	}

	return &outcome, nil
}

func (s *ExplanationService) generate(ctx context.Context, patient *entities.Patient, trial *entities.Trial, result entities.ScreenResult) entities.ExplanationOutcome {
	if s.provider == nil {
		return entities.NewFallbackExplanation(result, "explanation provider not configured")
	}

	// The note is optional input; a patient without one is still explainable.
	note, err := s.noteRepo.GetByPatientID(ctx, patient.ID)
	if err != nil {
		note = nil
	}

	explanation, err := s.provider.Explain(ctx, providers.ExplanationRequest{
		Patient: patient,
		Note:    note,
		Trial:   trial,
		Result:  &result,
	})
	if err != nil {
		log.Printf("Explanation provider failed for %s/%s: %v", patient.ID, trial.ID, err)
		return entities.NewFallbackExplanation(result, err.Error())
	}

	// The model never overrides the engine. A divergent final status is
	// corrected in place and flagged in the consistency check.
	if explanation.FinalStatus != result.Status {
		explanation.ConsistencyCheck.LLMAgrees = false
		if explanation.ConsistencyCheck.Notes != "" {
			explanation.ConsistencyCheck.Notes += " "
		}
		explanation.ConsistencyCheck.Notes += fmt.Sprintf(
			"Model stated %q but the rule engine decided %q; the rule-based status stands.",
			explanation.FinalStatus, result.Status,
		)
		explanation.FinalStatus = result.Status
	}
	explanation.ConsistencyCheck.RuleBasedStatus = result.Status

	return entities.ExplanationOutcome{
		Explanation: *explanation,
		Source:      entities.ExplanationSourceModel,
		Model:       s.model,
	}
}
