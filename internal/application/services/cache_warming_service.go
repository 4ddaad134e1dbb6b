package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/providers"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
)

// CacheWarmingService pre-populates the trial cache so the ranking endpoints
// do not pay a database round-trip for the active trial catalog.
type CacheWarmingService struct {
	trialRepo repositories.TrialRepository
	cache     providers.CacheProvider
	ttl       time.Duration
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	trialRepo repositories.TrialRepository,
	cache providers.CacheProvider,
	ttl time.Duration,
) *CacheWarmingService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheWarmingService{
		trialRepo: trialRepo,
		cache:     cache,
		ttl:       ttl,
	}
}

// WarmCache warms the cache with the active trial catalog
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Println("Starting cache warming...")

	active := true
	trials, err := s.trialRepo.List(ctx, repositories.TrialFilter{IsActive: &active})
	if err != nil {
		return fmt.Errorf("failed to fetch active trials: %w", err)
	}

	for _, trial := range trials {
		data, err := json.Marshal(trial)
		if err != nil {
			log.Printf("Failed to marshal trial %s: %v", trial.ID, err)
			continue
		}
		key := fmt.Sprintf("trial:%s", trial.ID)
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			log.Printf("Failed to cache trial %s: %v", trial.ID, err)
		}
	}

	log.Printf("Warmed cache with %d active trials", len(trials))
	return nil
}

// StartPeriodicWarming starts a background goroutine that periodically warms the cache
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	// Initial warming
	if err := s.WarmCache(ctx); err != nil {
		log.Printf("Initial cache warming failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Printf("Periodic cache warming failed: %v", err)
				}
			}
		}
	}()
	log.Printf("Started periodic cache warming every %v", interval)
}

// InvalidateCache drops all trial cache entries (useful after bulk updates)
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	patterns := []string{
		"trial:*",
		"trials:*",
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Printf("Failed to invalidate cache pattern %s: %v", pattern, err)
		}
	}

	log.Println("Cache invalidated")
	return nil
}
