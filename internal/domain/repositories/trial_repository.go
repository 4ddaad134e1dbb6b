package repositories

import (
	"context"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

// TrialRepository defines the interface for trial data operations
type TrialRepository interface {
	// Create creates a new trial
	Create(ctx context.Context, trial *entities.Trial) error

	// GetByID retrieves a trial by ID
	GetByID(ctx context.Context, id string) (*entities.Trial, error)

	// GetByIDs retrieves multiple trials by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Trial, error)

	// Update updates a trial
	Update(ctx context.Context, trial *entities.Trial) error

	// Delete deletes a trial
	Delete(ctx context.Context, id string) error

	// List retrieves trials with filters
	List(ctx context.Context, filter TrialFilter) ([]*entities.Trial, error)
}

// TrialFilter defines filters for listing trials
type TrialFilter struct {
	Phase     string
	Condition string
	IsActive  *bool
	Limit     int
	Offset    int
}

// TrialSearchRepository defines the interface for trial search operations
type TrialSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index indexes a trial
	Index(ctx context.Context, trial *entities.Trial) error

	// Search performs a full-text search over indexed trials
	Search(ctx context.Context, query TrialSearchQuery) ([]*entities.TrialSearchHit, error)

	// Delete removes a trial from the index
	Delete(ctx context.Context, trialID string) error
}

// TrialSearchQuery defines parameters for trial search
type TrialSearchQuery struct {
	Query      string
	Phase      string
	Condition  string
	ActiveOnly bool
	Limit      int
}
