package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/requestid"
)

func serve(t *testing.T, headerID string) (ctxID string, rec *httptest.ResponseRecorder) {
	t.Helper()

	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if headerID != "" {
		req.Header.Set(requestid.Header, headerID)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates id when absent", func(t *testing.T) {
		t.Parallel()
		ctxID, rec := serve(t, "")
		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses valid client id", func(t *testing.T) {
		t.Parallel()
		ctxID, rec := serve(t, "req-abc_123")
		assert.Equal(t, "req-abc_123", ctxID)
		assert.Equal(t, "req-abc_123", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces malformed client id", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"has space", "semi;colon", "slash/id", "<script>"} {
			ctxID, _ := serve(t, bad)
			assert.NotEqual(t, bad, ctxID)
			assert.NotEmpty(t, ctxID)
		}
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(context.Background(), "req-1"))
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())

	_, ok = extract(context.Background())
	assert.False(t, ok)
}
