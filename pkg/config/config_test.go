package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("TYPESENSE_API_KEY")
	os.Unsetenv("GEMINI_MODEL")
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("GOOGLE_API_KEY")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "xyz", cfg.Typesense.APIKey)
	assert.Equal(t, "trial_eligibility", cfg.Database.Database)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 8, cfg.Screening.BatchConcurrency)
	assert.Equal(t, time.Hour, cfg.Screening.ExplanationCacheTTL)
}

func TestLoad_TypesenseConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	os.Setenv("TYPESENSE_API_KEY", "test-key")
	defer func() {
		os.Unsetenv("TYPESENSE_URL")
		os.Unsetenv("TYPESENSE_API_KEY")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
}

func TestLoad_GeminiKeyPrecedence(t *testing.T) {
	os.Setenv("GOOGLE_API_KEY", "google-key")
	defer os.Unsetenv("GOOGLE_API_KEY")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "google-key", cfg.Gemini.APIKey)

	// GEMINI_API_KEY wins over GOOGLE_API_KEY
	os.Setenv("GEMINI_API_KEY", "gemini-key")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg, err = Load()
	assert.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Gemini.APIKey)
}

func TestLoad_ScreeningDurations(t *testing.T) {
	os.Setenv("EXPLANATION_CACHE_TTL", "30m")
	os.Setenv("GEMINI_TIMEOUT", "10s")
	defer func() {
		os.Unsetenv("EXPLANATION_CACHE_TTL")
		os.Unsetenv("GEMINI_TIMEOUT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Screening.ExplanationCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
}
