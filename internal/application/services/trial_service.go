package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// TrialService handles business logic for trials
type TrialService struct {
	repo       repositories.TrialRepository
	searchRepo repositories.TrialSearchRepository
}

// NewTrialService creates a new trial service
func NewTrialService(repo repositories.TrialRepository, searchRepo repositories.TrialSearchRepository) *TrialService {
	return &TrialService{
		repo:       repo,
		searchRepo: searchRepo,
	}
}

// Create creates a new trial and indexes it
func (s *TrialService) Create(ctx context.Context, trial *entities.Trial) error {
	if trial.ID == "" {
		trial.ID = uuid.New().String()
	}

	// 1. Save to database
	if err := s.repo.Create(ctx, trial); err != nil {
		return err
	}

	// 2. Index in search engine
	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, trial); err != nil {
			// Log error but don't fail the request (eventual consistency)
			log.Printf("Warning: Failed to index trial %s: %v", trial.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a trial by ID
func (s *TrialService) GetByID(ctx context.Context, id string) (*entities.Trial, error) {
	return s.repo.GetByID(ctx, id)
}

// Update updates a trial and its index entry
func (s *TrialService) Update(ctx context.Context, trial *entities.Trial) error {
	if err := s.repo.Update(ctx, trial); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, trial); err != nil {
			log.Printf("Warning: Failed to update trial index %s: %v", trial.ID, err)
		}
	}

	return nil
}

// Delete deactivates a trial and removes it from the index
func (s *TrialService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Printf("Warning: Failed to delete trial from index %s: %v", id, err)
		}
	}

	return nil
}

// List retrieves trials
func (s *TrialService) List(ctx context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
	return s.repo.List(ctx, filter)
}

// Search performs a full-text search over the trial index
func (s *TrialService) Search(ctx context.Context, query repositories.TrialSearchQuery) ([]*entities.TrialSearchHit, error) {
	if s.searchRepo == nil {
		return nil, apperrors.NewUnavailableError("trial search is not available", nil)
	}
	return s.searchRepo.Search(ctx, query)
}
