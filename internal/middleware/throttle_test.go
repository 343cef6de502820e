package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayt-al-hikmah/taskgate/internal/ratelimit"
)

type erroringStore struct{ err error }

func (e *erroringStore) Increment(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, e.err
}

type recordingStore struct {
	inner    ratelimit.CounterStore
	lastKeys []string
}

func (r *recordingStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	r.lastKeys = append(r.lastKeys, key)
	return r.inner.Increment(ctx, key, window)
}

func newThrottleRouter(t *testing.T, engine *ratelimit.Throttle, fakeUser uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	router.GET("/anon", Throttle(engine), ok)
	router.GET("/user", func(c *gin.Context) {
		// Stand-in for RequireAuth having resolved identity
		c.Set(CtxUserID, fakeUser)
	}, Throttle(engine), ok)
	router.GET("/named", ThrottleScope(engine, "uploads"), ok)
	router.GET("/free", ThrottleScope(engine, "no-such-scope"), ok)

	return router
}

func TestThrottleMiddleware(t *testing.T) {
	mem := ratelimit.NewMemoryStore()
	defer mem.Stop()
	store := &recordingStore{inner: mem}

	engine, err := ratelimit.NewThrottle(store, map[string]ratelimit.Rule{
		ratelimit.ScopeAnon: {Window: time.Minute, MaxCount: 2},
		ratelimit.ScopeUser: {Window: time.Minute, MaxCount: 3},
		"uploads":           {Window: time.Minute, MaxCount: 1},
	}, true)
	require.NoError(t, err)

	userID := uuid.New()
	router := newThrottleRouter(t, engine, userID)

	get := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("anonymous scope keys by client IP", func(t *testing.T) {
		w := get("/anon", "203.0.113.7")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
		assert.Contains(t, store.lastKeys[len(store.lastKeys)-1], "anon:203.0.113.7")

		get("/anon", "203.0.113.7")
		w = get("/anon", "203.0.113.7")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limited")
	})

	t.Run("authenticated scope keys by subject id", func(t *testing.T) {
		w := get("/user", "203.0.113.8")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, store.lastKeys[len(store.lastKeys)-1], "user:"+userID.String())
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("named scope overrides the default", func(t *testing.T) {
		w := get("/named", "203.0.113.9")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Contains(t, store.lastKeys[len(store.lastKeys)-1], "uploads:203.0.113.9")

		w = get("/named", "203.0.113.9")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("unconfigured scope bypasses counting", func(t *testing.T) {
		before := len(store.lastKeys)
		for i := 0; i < 10; i++ {
			w := get("/free", "203.0.113.10")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		}
		assert.Equal(t, before, len(store.lastKeys))
	})
}

func TestThrottleMiddlewareStoreOutage(t *testing.T) {
	rules := map[string]ratelimit.Rule{
		ratelimit.ScopeAnon: {Window: time.Minute, MaxCount: 2},
	}
	outage := &erroringStore{err: errors.New("dial tcp: connection refused")}

	t.Run("fail open lets the request through", func(t *testing.T) {
		engine, err := ratelimit.NewThrottle(outage, rules, true)
		require.NoError(t, err)
		router := newThrottleRouter(t, engine, uuid.New())

		req := httptest.NewRequest(http.MethodGet, "/anon", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("fail closed rejects with 503", func(t *testing.T) {
		engine, err := ratelimit.NewThrottle(outage, rules, false)
		require.NoError(t, err)
		router := newThrottleRouter(t, engine, uuid.New())

		req := httptest.NewRequest(http.MethodGet, "/anon", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "storage_unavailable")
	})
}
