package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements trial search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements TrialSearchRepository
var _ repositories.TrialSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the trials collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index indexes a trial
func (a *TypesenseAdapter) Index(ctx context.Context, trial *entities.Trial) error {
	document := map[string]interface{}{
		"id":         trial.ID,
		"trial_id":   trial.ID,
		"title":      trial.Title,
		"phase":      trial.Phase,
		"conditions": trial.Conditions,
		"is_active":  trial.IsActive,
		"created_at": trial.CreatedAt.Unix(),
	}

	if err := a.client.IndexTrial(ctx, document); err != nil {
		return fmt.Errorf("failed to index trial: %w", err)
	}

	return nil
}

// Delete removes a trial from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, trialID string) error {
	_, err := a.client.Client().Collection(tsclient.TrialsCollection).Document(trialID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete trial from index: %w", err)
	}
	return nil
}

// Search performs a full-text search over trial titles and conditions
func (a *TypesenseAdapter) Search(ctx context.Context, query repositories.TrialSearchQuery) ([]*entities.TrialSearchHit, error) {
	q := strings.TrimSpace(query.Query)
	if q == "" {
		q = "*"
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("title,conditions"),
		PerPage: pointer.Int(limit),
	}

	if filterBy := buildFilterBy(query); filterBy != "" {
		searchParams.FilterBy = pointer.String(filterBy)
	}

	result, err := a.client.Client().Collection(tsclient.TrialsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search trials: %w", err)
	}

	hits := []*entities.TrialSearchHit{}
	if result.Hits == nil {
		return hits, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		// Typesense returns map[string]interface{}, so cast each field safely
		searchHit := &entities.TrialSearchHit{}
		if val, ok := doc["trial_id"].(string); ok {
			searchHit.TrialID = val
		}
		if val, ok := doc["title"].(string); ok {
			searchHit.Title = val
		}
		if val, ok := doc["phase"].(string); ok {
			searchHit.Phase = val
		}
		if vals, ok := doc["conditions"].([]interface{}); ok {
			for _, v := range vals {
				if s, ok := v.(string); ok {
					searchHit.Conditions = append(searchHit.Conditions, s)
				}
			}
		}
		if hit.TextMatch != nil {
			searchHit.Score = float64(*hit.TextMatch)
		}

		hits = append(hits, searchHit)
	}

	return hits, nil
}

func buildFilterBy(query repositories.TrialSearchQuery) string {
	var filters []string
	if query.ActiveOnly {
		filters = append(filters, "is_active:=true")
	}
	if query.Phase != "" {
		filters = append(filters, fmt.Sprintf("phase:=%s", query.Phase))
	}
	if query.Condition != "" {
		filters = append(filters, fmt.Sprintf("conditions:=%s", query.Condition))
	}
	return strings.Join(filters, " && ")
}
