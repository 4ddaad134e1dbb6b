package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// fakeSearchRepo records indexing calls and can fail on demand.
type fakeSearchRepo struct {
	indexed  []string
	deleted  []string
	indexErr error
}

func (r *fakeSearchRepo) InitSchema(_ context.Context) error {
	return nil
}

func (r *fakeSearchRepo) Index(_ context.Context, trial *entities.Trial) error {
	if r.indexErr != nil {
		return r.indexErr
	}
	r.indexed = append(r.indexed, trial.ID)
	return nil
}

func (r *fakeSearchRepo) Search(_ context.Context, _ repositories.TrialSearchQuery) ([]*entities.TrialSearchHit, error) {
	hits := []*entities.TrialSearchHit{}
	for _, id := range r.indexed {
		hits = append(hits, &entities.TrialSearchHit{TrialID: id})
	}
	return hits, nil
}

func (r *fakeSearchRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func TestTrialService_Create_IndexesTrial(t *testing.T) {
	searchRepo := &fakeSearchRepo{}
	svc := services.NewTrialService(newFakeTrialRepo(), searchRepo)

	trial := fixtureTrial("T-001", "Phase 3", 7, 10)
	require.NoError(t, svc.Create(context.Background(), trial))

	assert.Equal(t, []string{"T-001"}, searchRepo.indexed)
}

func TestTrialService_Create_AssignsID(t *testing.T) {
	svc := services.NewTrialService(newFakeTrialRepo(), nil)

	trial := fixtureTrial("", "Phase 2", 7, 10)
	require.NoError(t, svc.Create(context.Background(), trial))

	assert.NotEmpty(t, trial.ID)
}

func TestTrialService_Create_SurvivesIndexFailure(t *testing.T) {
	searchRepo := &fakeSearchRepo{indexErr: errors.New("typesense down")}
	repo := newFakeTrialRepo()
	svc := services.NewTrialService(repo, searchRepo)

	trial := fixtureTrial("T-001", "Phase 3", 7, 10)
	require.NoError(t, svc.Create(context.Background(), trial))

	stored, err := repo.GetByID(context.Background(), "T-001")
	require.NoError(t, err)
	assert.Equal(t, "T-001", stored.ID)
}

func TestTrialService_Delete_RemovesFromIndex(t *testing.T) {
	searchRepo := &fakeSearchRepo{}
	svc := services.NewTrialService(newFakeTrialRepo(fixtureTrial("T-001", "Phase 3", 7, 10)), searchRepo)

	require.NoError(t, svc.Delete(context.Background(), "T-001"))

	assert.Equal(t, []string{"T-001"}, searchRepo.deleted)
}

func TestTrialService_Search_WithoutIndex(t *testing.T) {
	svc := services.NewTrialService(newFakeTrialRepo(), nil)

	_, err := svc.Search(context.Background(), repositories.TrialSearchQuery{Query: "diabetes"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
