package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// NoteAdapter implements NoteRepository. One note per patient.
type NoteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewNoteAdapter creates a new note adapter
func NewNoteAdapter(client *postgres.Client) repositories.NoteRepository {
	return &NoteAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new clinical note
func (a *NoteAdapter) Create(ctx context.Context, note *entities.ClinicalNote) error {
	query, args, err := a.db.Insert("clinical_notes").Rows(goqu.Record{
		"patient_id": note.PatientID,
		"note":       note.Note,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("clinical note already exists for patient " + note.PatientID)
		}
		return apperrors.NewInternalError("failed to create clinical note", err)
	}

	return nil
}

// GetByPatientID retrieves the clinical note for a patient
func (a *NoteAdapter) GetByPatientID(ctx context.Context, patientID string) (*entities.ClinicalNote, error) {
	query, args, err := a.db.Select("patient_id", "note").
		From("clinical_notes").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	note := &entities.ClinicalNote{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&note.PatientID, &note.Note)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("clinical note for patient %s not found", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get clinical note", err)
	}

	return note, nil
}

// Update updates a clinical note
func (a *NoteAdapter) Update(ctx context.Context, note *entities.ClinicalNote) error {
	query, args, err := a.db.Update("clinical_notes").
		Set(goqu.Record{"note": note.Note}).
		Where(goqu.Ex{"patient_id": note.PatientID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update clinical note", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("clinical note for patient %s not found", note.PatientID))
	}

	return nil
}

// Delete deletes the clinical note for a patient
func (a *NoteAdapter) Delete(ctx context.Context, patientID string) error {
	query, args, err := a.db.Delete("clinical_notes").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete clinical note", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("clinical note for patient %s not found", patientID))
	}

	return nil
}
