package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
)

// PatientService handles business logic for patients and their notes
type PatientService struct {
	repo     repositories.PatientRepository
	noteRepo repositories.NoteRepository
}

// NewPatientService creates a new patient service
func NewPatientService(repo repositories.PatientRepository, noteRepo repositories.NoteRepository) *PatientService {
	return &PatientService{
		repo:     repo,
		noteRepo: noteRepo,
	}
}

// GetByID retrieves a patient by ID
func (s *PatientService) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves patients
func (s *PatientService) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	return s.repo.List(ctx, filter)
}

// GetNote retrieves the clinical note for a patient
func (s *PatientService) GetNote(ctx context.Context, patientID string) (*entities.ClinicalNote, error) {
	return s.noteRepo.GetByPatientID(ctx, patientID)
}

// Create creates a patient, with its clinical note when one is given
func (s *PatientService) Create(ctx context.Context, patient *entities.Patient, note *entities.ClinicalNote) error {
	if patient.ID == "" {
		patient.ID = uuid.New().String()
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return err
	}
	if note != nil {
		note.PatientID = patient.ID
		return s.noteRepo.Create(ctx, note)
	}
	return nil
}

// Update updates a patient record
func (s *PatientService) Update(ctx context.Context, patient *entities.Patient) error {
	return s.repo.Update(ctx, patient)
}

// Delete deletes a patient and its note
func (s *PatientService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// A patient without a note is normal; ignore a missing-note failure.
	_ = s.noteRepo.Delete(ctx, id)
	return nil
}
