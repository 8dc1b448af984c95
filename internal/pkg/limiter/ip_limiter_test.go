package limiter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"presenced/internal/pkg/errs"
	"presenced/internal/pkg/resp"
)

func TestIPRateLimiter_DeniesAfterBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 3)

	lim := l.GetLimiter("198.51.100.7")
	for i := 0; i < 3; i++ {
		require.True(t, lim.Allow(), "request %d within burst", i)
	}
	assert.False(t, lim.Allow())

	// Limits are per IP; a different client is unaffected.
	assert.True(t, l.GetLimiter("198.51.100.8").Allow())
}

func TestIPRateLimiter_GetLimiterReusesInstance(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)

	first := l.GetLimiter("198.51.100.7")
	second := l.GetLimiter("198.51.100.7")
	assert.Same(t, first, second)
}

func TestIPRateLimiter_MiddlewareReturns429(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.0.2.1:53412"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)

	// Burst spent: the next attempt is rejected before reaching the handler.
	w := send()
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body resp.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, errs.ErrRateLimitExceeded, body.Code)
}
