package repositories

import (
	"context"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create creates a new patient record
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)

	// GetByIDs retrieves multiple patients by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error)

	// Update updates a patient record
	Update(ctx context.Context, patient *entities.Patient) error

	// Delete deletes a patient record
	Delete(ctx context.Context, id string) error

	// List retrieves patients with filters
	List(ctx context.Context, filter PatientFilter) ([]*entities.Patient, error)
}

// PatientFilter defines filters for listing patients
type PatientFilter struct {
	Sex       string
	MinAge    *int
	MaxAge    *int
	Diagnosis string
	Limit     int
	Offset    int
}
