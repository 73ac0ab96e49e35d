package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	rec := httptest.NewRecorder()
	WriteError(ctx, rec, NewError("invalid_number", "quantity\nmust be whole", http.StatusBadRequest).
		WithField("items[0].quantity"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "invalid_number", payload["error"])
	require.Equal(t, "quantity must be whole", payload["message"])
	require.Equal(t, "req-1", payload["request_id"])
	require.Equal(t, "items[0].quantity", payload["field"])
	require.EqualValues(t, 400, payload["status"])
	require.NotContains(t, payload, "trace_id")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Notes string `json:"notes"`
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"notes":"call back"}`))
	require.NoError(t, DecodeJSON(req, 1024, &dst))
	require.Equal(t, "call back", dst.Notes)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"unknown":1}`))
	require.Error(t, DecodeJSON(req, 1024, &dst))

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"notes":"`+strings.Repeat("x", 64)+`"}`))
	require.True(t, errors.Is(DecodeJSON(req, 16, &dst), ErrBodyTooLarge))

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`  `))
	require.Error(t, DecodeJSON(req, 16, &dst))
}
