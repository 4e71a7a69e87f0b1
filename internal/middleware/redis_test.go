package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/filmorate/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "fc",
		MaxBodyBytes: 1 << 20,
	}
}

// catalogServer serves a film counter: GET reads it, POST /films bumps it,
// the other POST routes fail.
func catalogServer(mws ...echo.MiddlewareFunc) *echo.Echo {
	films := 0
	e := echo.New()
	e.Use(mws...)
	e.GET("/films", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"films": films})
	})
	e.POST("/films", func(c echo.Context) error {
		films++
		return c.JSON(http.StatusCreated, echo.Map{"id": films})
	})
	e.POST("/films/invalid", func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "film name must not be empty"})
	})
	e.POST("/films/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected error")
	})
	return e
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRedisCacheMissThenHit(t *testing.T) {
	_, rdb := newRedis(t)
	e := catalogServer(NewRedisCache(cacheConfig(), rdb, zerolog.Nop()))

	first := serve(e, http.MethodGet, "/films")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"films":0}`, first.Body.String())

	second := serve(e, http.MethodGet, "/films")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Len(t, second.Header().Values("X-Cache"), 1)
}

func TestRedisCacheWriteInvalidatesReads(t *testing.T) {
	mr, rdb := newRedis(t)
	e := catalogServer(NewRedisCache(cacheConfig(), rdb, zerolog.Nop()))

	serve(e, http.MethodGet, "/films")
	require.Equal(t, "HIT", serve(e, http.MethodGet, "/films").Header().Get("X-Cache"))

	require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/films").Code)
	gen, err := mr.Get("fc:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	after := serve(e, http.MethodGet, "/films")
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"films":1}`, after.Body.String())
}

func TestRedisCacheFailedWritesKeepGeneration(t *testing.T) {
	mr, rdb := newRedis(t)
	e := catalogServer(NewRedisCache(cacheConfig(), rdb, zerolog.Nop()))
	serve(e, http.MethodGet, "/films")

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/films/invalid").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodPost, "/films/broken").Code)

	assert.False(t, mr.Exists("fc:gen"))
	assert.Equal(t, "HIT", serve(e, http.MethodGet, "/films").Header().Get("X-Cache"))
}

func TestRedisCacheHitCarriesCurrentRequestHeaders(t *testing.T) {
	_, rdb := newRedis(t)
	n := 0
	requestID := echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	}})
	limits := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		Prefix:         "rl",
	}
	e := catalogServer(
		requestID,
		NewTokenBucket(limits, rdb, zerolog.Nop()),
		NewRedisCache(cacheConfig(), rdb, zerolog.Nop()),
	)

	require.Equal(t, "MISS", serve(e, http.MethodGet, "/films").Header().Get("X-Cache"))
	hit := serve(e, http.MethodGet, "/films")
	require.Equal(t, "HIT", hit.Header().Get("X-Cache"))

	assert.Equal(t, []string{"req-2"}, hit.Header().Values(echo.HeaderXRequestID))
	assert.Equal(t, []string{"8"}, hit.Header().Values("X-Ratelimit-Remaining"))
	assert.Equal(t, []string{"10"}, hit.Header().Values("X-Ratelimit-Limit"))
}

func TestTokenBucketRejectsWhenEmpty(t *testing.T) {
	_, rdb := newRedis(t)
	limits := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := catalogServer(NewTokenBucket(limits, rdb, zerolog.Nop()))

	for want := 1; want >= 0; want-- {
		rec := serve(e, http.MethodGet, "/films")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, strconv.Itoa(want), rec.Header().Get("X-Ratelimit-Remaining"))
	}

	blocked := serve(e, http.MethodGet, "/films")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, blocked.Body.String())
	retry, err := strconv.Atoi(blocked.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
}
