package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestSize(t *testing.T) {
	var readErr error
	handler := RequestSize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("within limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, readErr)
	})

	t.Run("declared length too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("chunked body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var maxErr *http.MaxBytesError
		require.True(t, errors.As(readErr, &maxErr))
	})
}

func TestRequestSizeLimits(t *testing.T) {
	require.Less(t, WebhookMaxBodySize, DefaultMaxBodySize)
	require.Less(t, DefaultMaxBodySize, AdminMaxBodySize)
	require.Less(t, AdminMaxBodySize, ImportMaxBodySize)
}
