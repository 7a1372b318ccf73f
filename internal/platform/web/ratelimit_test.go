package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenRefuse(t *testing.T) {
	rl := NewRateLimiter(0.0001, 3)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"), "bucket should be empty")

	// Other visitors have their own buckets.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)

	calls := 0
	handler := rl.Middleware(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestMiddlewarePrefersForwardedFor(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1)

	handler := rl.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Two clients behind the same proxy address are limited separately.
	reqA := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	reqA.RemoteAddr = "10.0.0.1:1111"
	reqA.Header.Set("X-Forwarded-For", "203.0.113.7")

	reqB := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	reqB.RemoteAddr = "10.0.0.1:2222"
	reqB.Header.Set("X-Forwarded-For", "203.0.113.8")

	recA := httptest.NewRecorder()
	handler(recA, reqA)
	recB := httptest.NewRecorder()
	handler(recB, reqB)

	assert.Equal(t, http.StatusOK, recA.Code)
	assert.Equal(t, http.StatusOK, recB.Code)
}
