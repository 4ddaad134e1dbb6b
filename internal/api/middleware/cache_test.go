package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// stubCache records what the middleware stores.
type stubCache struct {
	items map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{items: map[string][]byte{}}
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, error) {
	if data, ok := c.items[key]; ok {
		return data, nil
	}
	return nil, apperrors.NewNotFoundError("cache miss")
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.items[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func (c *stubCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.items[key]
	return ok, nil
}

func (c *stubCache) DeletePattern(_ context.Context, _ string) error {
	c.items = map[string][]byte{}
	return nil
}

func newCachedHandler(cache *stubCache) http.Handler {
	return NewCacheMiddleware(cache).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
}

func TestCacheMiddleware_CachesTrialRoutes(t *testing.T) {
	cache := newStubCache()
	handler := newCachedHandler(cache)

	for _, path := range []string{"/api/trials", "/api/trials/search", "/api/trials/T-001"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"), path)
	}
	assert.Len(t, cache.items, 3)
}

func TestCacheMiddleware_ServesSecondRequestFromCache(t *testing.T) {
	cache := newStubCache()
	handler := newCachedHandler(cache)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/trials/T-001", nil))
	require.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/trials/T-001", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())
}

func TestCacheMiddleware_NeverCachesScreeningRoutes(t *testing.T) {
	cache := newStubCache()
	handler := newCachedHandler(cache)

	// Screening results are computed per request; trial sub-resources must
	// not hit the response cache.
	for _, path := range []string{
		"/api/trials/T-001/patients",
		"/api/patients/P0001/trials",
		"/api/patients/P0001/trials/T-001/screening",
	} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"), path)
	}
	assert.Empty(t, cache.items)
}
