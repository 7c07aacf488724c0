package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var fixedNow = time.UnixMilli(1_700_000_000_000)

func rateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "client",
		Prefix:         "rl",
	}
}

func serveRate(t *testing.T, mock redismock.ClientMock, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/v1/screenings", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mw)
	req := httptest.NewRequest(http.MethodGet, "/v1/screenings", nil)
	req.Header.Set(ClientIDHeader, "kiosk-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NoError(t, mock.ExpectationsWereMet())
	return rec
}

func TestTokenBucket_Allows(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := rateConfig()
	mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:client:kiosk-7"},
		fixedNow.UnixMilli(), 2, 1, int64(1000), int64(60)).
		SetVal([]interface{}{int64(1), int64(1), int64(0)})

	rec := serveRate(t, mock, newTokenBucket(cfg, db, quiet(), func() time.Time { return fixedNow }))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucket_Blocks(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := rateConfig()
	mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:client:kiosk-7"},
		fixedNow.UnixMilli(), 2, 1, int64(1000), int64(60)).
		SetVal([]interface{}{int64(0), int64(0), int64(400)})

	rec := serveRate(t, mock, newTokenBucket(cfg, db, quiet(), func() time.Time { return fixedNow }))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")
}

func TestTokenBucket_RedisErrorPassesThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := rateConfig()
	mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:client:kiosk-7"},
		fixedNow.UnixMilli(), 2, 1, int64(1000), int64(60)).
		SetErr(assert.AnError)

	rec := serveRate(t, mock, newTokenBucket(cfg, db, quiet(), func() time.Time { return fixedNow }))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_DisabledIsNoop(t *testing.T) {
	cfg := rateConfig()
	cfg.Enabled = false
	db, mock := redismock.NewClientMock()

	rec := serveRate(t, mock, NewTokenBucket(cfg, db, quiet()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateKey_Strategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tickets")

	cfg := rateConfig()
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /v1/tickets", rateKey(cfg, c))

	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:10.0.0.1:client:anon:route:POST /v1/tickets", rateKey(cfg, c))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      []string{"GET"},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1024,
	}
}

func serveCache(t *testing.T, mw echo.MiddlewareFunc, calls *int) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/v1/screenings", func(c echo.Context) error {
		*calls++
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"movies":[]}`))
	}, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/screenings?genre=SCIFI", nil))
	return rec
}

func TestRedisCache_MissStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	key := cacheKey("cache", "route_query", http.MethodGet, "/v1/screenings", "genre=SCIFI")
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"movies":[]}`))
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, payload, 30*time.Second).SetVal("OK")

	calls := 0
	rec := serveCache(t, NewRedisCache(cacheConfig(), db, quiet()), &calls)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"movies":[]}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_HitSkipsHandler(t *testing.T) {
	db, mock := redismock.NewClientMock()
	key := cacheKey("cache", "route_query", http.MethodGet, "/v1/screenings", "genre=SCIFI")
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"movies":["cached"]}`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	calls := 0
	rec := serveCache(t, NewRedisCache(cacheConfig(), db, quiet()), &calls)

	assert.Zero(t, calls)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `{"movies":["cached"]}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayloadRoundTrip(t *testing.T) {
	body := []byte("hello")
	bs, err := encodePayload(http.StatusOK, http.Header{"X-A": {"1", "2"}}, body)
	require.NoError(t, err)

	status, hdr, got, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"1", "2"}, hdr.Values("X-A"))
	assert.True(t, bytes.Equal(body, got))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	e := echo.New()
	var seen string
	e.GET("/healthz", func(c echo.Context) error {
		seen, _ = c.Get(RequestIDKey).(string)
		return c.NoContent(http.StatusNoContent)
	}, RequestLogger(quiet()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}
