package repositories

import (
	"context"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// NoteRepository defines the interface for clinical note operations
type NoteRepository interface {
	// Create creates a new clinical note
	Create(ctx context.Context, note *entities.ClinicalNote) error

	// GetByPatientID retrieves the clinical note for a patient
	GetByPatientID(ctx context.Context, patientID string) (*entities.ClinicalNote, error)

	// Update updates a clinical note
	Update(ctx context.Context, note *entities.ClinicalNote) error

	// Delete deletes the clinical note for a patient
	Delete(ctx context.Context, patientID string) error
}
