package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/touchgrass/touchgrass/internal/api/middleware"
)

func captureRequestID(t *testing.T, header string) (fromContext, fromResponse string) {
	t.Helper()

	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		fromContext = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/vibes", http.NoBody)
	if header != "" {
		req.Header.Set("X-Request-Id", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return fromContext, rec.Header().Get("X-Request-Id")
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	ctxID, respID := captureRequestID(t, "")

	assert.True(t, strings.HasPrefix(ctxID, "req_"))
	assert.Len(t, ctxID, 36)
	assert.Equal(t, ctxID, respID)
}

func TestRequestID_PreservesWellFormedID(t *testing.T) {
	ctxID, respID := captureRequestID(t, "client-trace_42.a")

	assert.Equal(t, "client-trace_42.a", ctxID)
	assert.Equal(t, "client-trace_42.a", respID)
}

func TestRequestID_ReplacesMalformedID(t *testing.T) {
	for _, bad := range []string{"has space", "<script>", strings.Repeat("a", 65)} {
		ctxID, _ := captureRequestID(t, bad)
		assert.NotEqual(t, bad, ctxID)
		assert.True(t, strings.HasPrefix(ctxID, "req_"))
	}
}

func TestGetRequestID_MissingContext(t *testing.T) {
	assert.Empty(t, middleware.GetRequestID(context.Background()))
}

func TestRequestID_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, _ := captureRequestID(t, "")
		assert.False(t, seen[id], "duplicate request ID: %s", id)
		seen[id] = true
	}
}
