package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// Criteria sets live in jsonb columns in their compact wire format, so the
// same decoder serves both the API and the database.
var trialColumns = []interface{}{
	"id", "title", "phase", "conditions", "inclusion", "exclusion",
	"is_active", "created_at", "updated_at",
}

// TrialAdapter implements TrialRepository
type TrialAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTrialAdapter creates a new trial adapter
func NewTrialAdapter(client *postgres.Client) repositories.TrialRepository {
	return &TrialAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new trial
func (a *TrialAdapter) Create(ctx context.Context, trial *entities.Trial) error {
	record, err := trialRecord(trial)
	if err != nil {
		return err
	}

	query, args, err := a.db.Insert("trials").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("trial already exists: " + trial.ID)
		}
		return apperrors.NewInternalError("failed to create trial", err)
	}

	return nil
}

// GetByID retrieves a trial by ID
func (a *TrialAdapter) GetByID(ctx context.Context, id string) (*entities.Trial, error) {
	query, args, err := a.db.Select(trialColumns...).
		From("trials").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	trial, err := scanTrial(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("trial with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get trial", err)
	}

	return trial, nil
}

// GetByIDs retrieves multiple trials by their IDs
func (a *TrialAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Trial, error) {
	if len(ids) == 0 {
		return []*entities.Trial{}, nil
	}

	query, args, err := a.db.Select(trialColumns...).
		From("trials").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryTrials(ctx, query, args...)
}

// Update updates a trial
func (a *TrialAdapter) Update(ctx context.Context, trial *entities.Trial) error {
	trial.UpdatedAt = time.Now()

	record, err := trialRecord(trial)
	if err != nil {
		return err
	}
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("trials").
		Set(record).
		Where(goqu.Ex{"id": trial.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update trial", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("trial with id %s not found", trial.ID))
	}

	return nil
}

// Delete deactivates a trial
func (a *TrialAdapter) Delete(ctx context.Context, id string) error {
	// Soft delete
	query, args, err := a.db.Update("trials").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete trial", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("trial with id %s not found", id))
	}

	return nil
}

// List retrieves trials with filters
func (a *TrialAdapter) List(ctx context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
	ds := a.db.Select(trialColumns...).From("trials")

	if filter.Phase != "" {
		ds = ds.Where(goqu.Ex{"phase": filter.Phase})
	}
	if filter.Condition != "" {
		ds = ds.Where(goqu.L("? = ANY(conditions)", filter.Condition))
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryTrials(ctx, query, args...)
}

func (a *TrialAdapter) queryTrials(ctx context.Context, query string, args ...interface{}) ([]*entities.Trial, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query trials", err)
	}
	defer rows.Close()

	var trials []*entities.Trial
	for rows.Next() {
		trial, err := scanTrial(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan trial", err)
		}
		trials = append(trials, trial)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating trials", err)
	}

	return trials, nil
}

func trialRecord(trial *entities.Trial) (goqu.Record, error) {
	inclusion, err := json.Marshal(trial.Inclusion)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode inclusion criteria", err)
	}
	exclusion, err := json.Marshal(trial.Exclusion)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode exclusion criteria", err)
	}

	return goqu.Record{
		"id":         trial.ID,
		"title":      trial.Title,
		"phase":      trial.Phase,
		"conditions": pq.Array(trial.Conditions),
		"inclusion":  inclusion,
		"exclusion":  exclusion,
		"is_active":  trial.IsActive,
		"created_at": trial.CreatedAt,
		"updated_at": trial.UpdatedAt,
	}, nil
}

func scanTrial(row rowScanner) (*entities.Trial, error) {
	trial := &entities.Trial{}
	var inclusion, exclusion []byte

	err := row.Scan(
		&trial.ID,
		&trial.Title,
		&trial.Phase,
		pq.Array(&trial.Conditions),
		&inclusion,
		&exclusion,
		&trial.IsActive,
		&trial.CreatedAt,
		&trial.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(inclusion) > 0 {
		if err := json.Unmarshal(inclusion, &trial.Inclusion); err != nil {
			return nil, fmt.Errorf("failed to decode inclusion criteria: %w", err)
		}
	}
	if len(exclusion) > 0 {
		if err := json.Unmarshal(exclusion, &trial.Exclusion); err != nil {
			return nil, fmt.Errorf("failed to decode exclusion criteria: %w", err)
		}
	}

	return trial, nil
}
