package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
)

// CachedTrialAdapter wraps a TrialRepository with caching. Trials change
// rarely but are read on every screening, so they are the one entity worth
// keeping hot. Screening results themselves are never cached.
type CachedTrialAdapter struct {
	adapter repositories.TrialRepository
	cache   providers.CacheProvider
	ttl     time.Duration
}

// NewCachedTrialAdapter creates a new cached trial adapter
func NewCachedTrialAdapter(adapter repositories.TrialRepository, cache providers.CacheProvider, ttl time.Duration) repositories.TrialRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedTrialAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttl,
	}
}

func trialCacheKey(id string) string {
	return fmt.Sprintf("trial:%s", id)
}

func trialsListCacheKey(filter repositories.TrialFilter) string {
	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("trials:list:%s:%s:%s:%d:%d", filter.Phase, filter.Condition, active, filter.Limit, filter.Offset)
}

// GetByID retrieves a trial by ID with caching
func (a *CachedTrialAdapter) GetByID(ctx context.Context, id string) (*entities.Trial, error) {
	cacheKey := trialCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var trial entities.Trial
		if err := json.Unmarshal(cached, &trial); err == nil {
			return &trial, nil
		}
		log.Printf("Failed to unmarshal cached trial %s: %v", id, err)
	}

	// Cache miss - fetch from database
	trial, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(trial); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, a.ttl); err != nil {
				log.Printf("Failed to cache trial %s: %v", id, err)
			}
		}
	}()

	return trial, nil
}

// GetByIDs retrieves multiple trials by IDs, consulting the cache per ID
func (a *CachedTrialAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Trial, error) {
	if len(ids) == 0 {
		return []*entities.Trial{}, nil
	}

	var cachedTrials []*entities.Trial
	missingIDs := make([]string, 0)

	for _, id := range ids {
		data, err := a.cache.Get(ctx, trialCacheKey(id))
		if err == nil {
			var trial entities.Trial
			if err := json.Unmarshal(data, &trial); err == nil {
				cachedTrials = append(cachedTrials, &trial)
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) == 0 {
		return cachedTrials, nil
	}

	dbTrials, err := a.adapter.GetByIDs(ctx, missingIDs)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		for _, trial := range dbTrials {
			if data, err := json.Marshal(trial); err == nil {
				if err := a.cache.Set(bgCtx, trialCacheKey(trial.ID), data, a.ttl); err != nil {
					log.Printf("Failed to cache trial %s: %v", trial.ID, err)
				}
			}
		}
	}()

	return append(cachedTrials, dbTrials...), nil
}

// List retrieves trials with caching
func (a *CachedTrialAdapter) List(ctx context.Context, filter repositories.TrialFilter) ([]*entities.Trial, error) {
	cacheKey := trialsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var trials []*entities.Trial
		if err := json.Unmarshal(cached, &trials); err == nil {
			return trials, nil
		}
		log.Printf("Failed to unmarshal cached trials list: %v", err)
	}

	trials, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(trials); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, a.ttl); err != nil {
				log.Printf("Failed to cache trials list: %v", err)
			}
		}
	}()

	return trials, nil
}

// Create creates a trial and invalidates list caches
func (a *CachedTrialAdapter) Create(ctx context.Context, trial *entities.Trial) error {
	if err := a.adapter.Create(ctx, trial); err != nil {
		return err
	}

	go a.invalidateLists()
	return nil
}

// Update updates a trial and invalidates its caches
func (a *CachedTrialAdapter) Update(ctx context.Context, trial *entities.Trial) error {
	if err := a.adapter.Update(ctx, trial); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, trialCacheKey(trial.ID)); err != nil {
			log.Printf("Failed to invalidate trial cache %s: %v", trial.ID, err)
		}
		a.invalidateLists()
	}()
	return nil
}

// Delete deactivates a trial and invalidates its caches
func (a *CachedTrialAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, trialCacheKey(id)); err != nil {
			log.Printf("Failed to invalidate trial cache %s: %v", id, err)
		}
		a.invalidateLists()
	}()
	return nil
}

func (a *CachedTrialAdapter) invalidateLists() {
	bgCtx := context.Background()
	if err := a.cache.DeletePattern(bgCtx, "trials:list:*"); err != nil {
		log.Printf("Failed to invalidate trials list cache: %v", err)
	}
}
