package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "ratelimit:events:10.0.0.1:10"

func newFixedLimiter(db *redis.Client, limit int) *RateLimiter {
	r := NewRateLimiter(db, limit, time.Minute)
	r.now = func() time.Time { return time.Unix(630, 0) }
	return r
}

func TestRateLimiter_Key(t *testing.T) {
	db, _ := redismock.NewClientMock()
	r := NewRateLimiter(db, 5, time.Minute)

	now := time.Unix(600, 0)
	assert.Equal(t, "ratelimit:events:10.0.0.1:10", r.key("10.0.0.1", now))
	assert.Equal(t, r.key("10.0.0.1", now), r.key("10.0.0.1", now.Add(59*time.Second)))
	assert.NotEqual(t, r.key("10.0.0.1", now), r.key("10.0.0.1", now.Add(time.Minute)))
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newFixedLimiter(db, 2)

	mock.ExpectIncr(testKey).SetVal(1)
	mock.ExpectExpire(testKey, time.Minute).SetVal(true)
	mock.ExpectIncr(testKey).SetVal(2)
	mock.ExpectIncr(testKey).SetVal(3)

	for _, want := range []bool{true, true, false} {
		allowed, err := r.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, allowed)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newFixedLimiter(db, 1)

	mock.ExpectIncr(testKey).SetErr(errors.New("connection refused"))

	allowed, err := r.Allow("10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_Middleware(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newFixedLimiter(db, 1)

	mock.ExpectIncr(testKey).SetVal(1)
	mock.ExpectExpire(testKey, time.Minute).SetVal(true)
	mock.ExpectIncr(testKey).SetVal(2)

	e := echo.New()
	e.POST("/events", func(c echo.Context) error {
		return c.String(http.StatusCreated, "Event Created!")
	}, r.CreateRateLimit())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.RemoteAddr = "10.0.0.1:41000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
