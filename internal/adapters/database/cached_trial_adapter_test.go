package database_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/database"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// memCache is an in-memory CacheProvider for decorator tests.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.items[key]; ok {
		return data, nil
	}
	return nil, apperrors.NewNotFoundError("cache miss")
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok, nil
}

func (c *memCache) DeletePattern(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string][]byte{}
	return nil
}

func (c *memCache) put(t *testing.T, key string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), key, data, time.Minute))
}

// countingTrialRepo tracks how often the underlying store is hit.
type countingTrialRepo struct {
	mu     sync.Mutex
	trials map[string]*entities.Trial
	gets   int
}

func newCountingTrialRepo(trials ...*entities.Trial) *countingTrialRepo {
	repo := &countingTrialRepo{trials: map[string]*entities.Trial{}}
	for _, tr := range trials {
		repo.trials[tr.ID] = tr
	}
	return repo
}

func (r *countingTrialRepo) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func (r *countingTrialRepo) Create(_ context.Context, tr *entities.Trial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trials[tr.ID] = tr
	return nil
}

func (r *countingTrialRepo) GetByID(_ context.Context, id string) (*entities.Trial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if tr, ok := r.trials[id]; ok {
		return tr, nil
	}
	return nil, apperrors.NewNotFoundError("trial not found")
}

func (r *countingTrialRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Trial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	out := []*entities.Trial{}
	for _, id := range ids {
		if tr, ok := r.trials[id]; ok {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (r *countingTrialRepo) Update(_ context.Context, tr *entities.Trial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trials[tr.ID] = tr
	return nil
}

func (r *countingTrialRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trials, id)
	return nil
}

func (r *countingTrialRepo) List(_ context.Context, _ repositories.TrialFilter) ([]*entities.Trial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	out := []*entities.Trial{}
	for _, tr := range r.trials {
		out = append(out, tr)
	}
	return out, nil
}

func TestCachedTrialAdapter_GetByID_CacheHit(t *testing.T) {
	cache := newMemCache()
	cache.put(t, "trial:T-001", &entities.Trial{ID: "T-001", Title: "Cached trial"})
	repo := newCountingTrialRepo()
	adapter := database.NewCachedTrialAdapter(repo, cache, time.Minute)

	trial, err := adapter.GetByID(context.Background(), "T-001")
	require.NoError(t, err)

	assert.Equal(t, "Cached trial", trial.Title)
	assert.Equal(t, 0, repo.getCount())
}

func TestCachedTrialAdapter_GetByID_CacheMissFallsThrough(t *testing.T) {
	cache := newMemCache()
	repo := newCountingTrialRepo(&entities.Trial{ID: "T-001", Title: "Stored trial"})
	adapter := database.NewCachedTrialAdapter(repo, cache, time.Minute)

	trial, err := adapter.GetByID(context.Background(), "T-001")
	require.NoError(t, err)

	assert.Equal(t, "Stored trial", trial.Title)
	assert.Equal(t, 1, repo.getCount())

	// The cache write is async
	require.Eventually(t, func() bool {
		_, err := cache.Get(context.Background(), "trial:T-001")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestCachedTrialAdapter_GetByID_CorruptEntryFallsThrough(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), "trial:T-001", []byte("{not json"), time.Minute))
	repo := newCountingTrialRepo(&entities.Trial{ID: "T-001", Title: "Stored trial"})
	adapter := database.NewCachedTrialAdapter(repo, cache, time.Minute)

	trial, err := adapter.GetByID(context.Background(), "T-001")
	require.NoError(t, err)

	assert.Equal(t, "Stored trial", trial.Title)
	assert.Equal(t, 1, repo.getCount())
}

func TestCachedTrialAdapter_GetByIDs_PartialHit(t *testing.T) {
	cache := newMemCache()
	cache.put(t, "trial:T-001", &entities.Trial{ID: "T-001", Title: "Cached trial"})
	repo := newCountingTrialRepo(&entities.Trial{ID: "T-002", Title: "Stored trial"})
	adapter := database.NewCachedTrialAdapter(repo, cache, time.Minute)

	trials, err := adapter.GetByIDs(context.Background(), []string{"T-001", "T-002"})
	require.NoError(t, err)

	require.Len(t, trials, 2)
	ids := []string{trials[0].ID, trials[1].ID}
	assert.Contains(t, ids, "T-001")
	assert.Contains(t, ids, "T-002")
	assert.Equal(t, 1, repo.getCount())
}

func TestCachedTrialAdapter_Update_InvalidatesEntry(t *testing.T) {
	cache := newMemCache()
	cache.put(t, "trial:T-001", &entities.Trial{ID: "T-001", Title: "Stale trial"})
	repo := newCountingTrialRepo(&entities.Trial{ID: "T-001", Title: "Stale trial"})
	adapter := database.NewCachedTrialAdapter(repo, cache, time.Minute)

	require.NoError(t, adapter.Update(context.Background(), &entities.Trial{ID: "T-001", Title: "Fresh trial"}))

	require.Eventually(t, func() bool {
		_, err := cache.Get(context.Background(), "trial:T-001")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
