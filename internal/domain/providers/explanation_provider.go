package providers

import (
	"context"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// ExplanationProvider defines a provider that can produce a patient-facing
// explanation of a screening result. Implementations must never change the
// rule-based status; they only explain it.
type ExplanationProvider interface {
	Explain(ctx context.Context, req ExplanationRequest) (*entities.Explanation, error)
}

// ExplanationRequest carries everything the provider needs to explain a
// single patient/trial screening.
type ExplanationRequest struct {
	Patient *entities.Patient
	Note    *entities.ClinicalNote
	Trial   *entities.Trial
	Result  *entities.ScreenResult
}
