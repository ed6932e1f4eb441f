package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(2), 2)
	defer rl.Stop()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	makeRequest := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payment", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, makeRequest("192.168.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, makeRequest("192.168.1.1:5678").Code)

	// burst spent; the port does not matter
	limited := makeRequest("192.168.1.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, makeRequest("192.168.1.2:1234").Code)

	// no port falls back to the raw address
	assert.Equal(t, http.StatusOK, makeRequest("10.0.0.1").Code)
}

func TestRateLimiterRejectionKeepsTokens(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()

	now := time.Now()
	ok, _ := rl.reserve("a", now)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		ok, wait := rl.reserve("a", now)
		assert.False(t, ok)
		assert.Equal(t, time.Second, wait)
	}

	ok, _ = rl.reserve("a", now.Add(time.Second))
	assert.True(t, ok)
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	rl.Stop()
	rl.Stop()

	now := time.Now()
	rl.reserve("old", now.Add(-visitorTTL-time.Second))
	rl.reserve("fresh", now)
	rl.sweep(now)

	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "fresh")
}
