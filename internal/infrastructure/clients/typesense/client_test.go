package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/config"
)

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test")
	}

	cfg := &config.Config{
		Typesense: config.TypesenseConfig{
			URL:    "http://localhost:8108",
			APIKey: "xyz",
		},
	}

	client, err := NewClient(&cfg.Typesense)
	assert.NoError(t, err)
	assert.NotNil(t, client)

	ctx := context.Background()

	// Test InitSchema
	err = client.InitSchema(ctx)
	assert.NoError(t, err)

	// Test Indexing
	doc := map[string]interface{}{
		"id":         "test-trial-1",
		"trial_id":   "NCT-T2D-TEST",
		"title":      "Test trial",
		"phase":      "Phase 2",
		"conditions": []string{"type 2 diabetes"},
		"is_active":  true,
		"created_at": time.Now().Unix(),
	}
	err = client.IndexTrial(ctx, doc)
	assert.NoError(t, err)
}
