package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/server/middleware"
)

func TestFromSearchError(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-1")

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{name: "empty query", err: adsearch.ErrEmptyQuery, wantCode: CodeValidationFailed, wantStatus: http.StatusBadRequest, wantMsg: adsearch.ErrEmptyQuery.Error()},
		{name: "backend detail", err: &adsearch.ServerError{StatusCode: 422, Detail: "depth inválido"}, wantCode: CodeExternalService, wantStatus: http.StatusBadGateway, wantMsg: "depth inválido"},
		{name: "timeout", err: &adsearch.TransportError{Op: "search", Err: context.DeadlineExceeded}, wantCode: CodeTimeout, wantStatus: http.StatusGatewayTimeout, wantMsg: "search backend timed out"},
		{name: "transport", err: &adsearch.TransportError{Op: "search", Err: fmt.Errorf("connection refused")}, wantCode: CodeExternalService, wantStatus: http.StatusBadGateway, wantMsg: "connection refused"},
		{name: "unknown", err: fmt.Errorf("boom"), wantCode: CodeInternal, wantStatus: http.StatusInternalServerError, wantMsg: "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := FromSearchError(ctx, tt.err)
			require.NotNil(t, envelope)
			assert.Equal(t, tt.wantCode, envelope.Code)
			assert.Equal(t, tt.wantMsg, envelope.Message)
			assert.Equal(t, tt.wantStatus, HTTPStatusFromEnvelope(envelope))
		})
	}

	envelope := FromSearchError(ctx, &adsearch.ServerError{StatusCode: 500})
	assert.Equal(t, "req-1", envelope.CorrelationID)
	assert.Equal(t, 500, envelope.Details["upstream_status"])
}

func TestEnsureEnvelopeKeepsExistingEnvelope(t *testing.T) {
	original := NewConflictError("busy")
	assert.Same(t, original, EnsureEnvelope(original))

	wrapped := EnsureEnvelope(fmt.Errorf("disk on fire"))
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.Equal(t, gferrors.SeverityHigh, wrapped.Severity)
}

func TestRespondWithEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "abc"))
	rec := httptest.NewRecorder()

	RespondWithEnvelope(rec, req, NewNotFoundError("ad not in current results"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "ad not in current results", body.Error.Message)
	assert.Equal(t, "abc", body.Error.RequestID)
}

func TestResponseDetailsMergesContext(t *testing.T) {
	envelope := NewServiceUnavailableError("down").WithDetails(map[string]interface{}{"status": "unhealthy"})
	envelope, err := envelope.WithContext(map[string]interface{}{"status": "ignored", "probe": "ready"})
	require.NoError(t, err)

	details := ResponseDetails(envelope)
	assert.Equal(t, "unhealthy", details["status"])
	assert.Equal(t, "ready", details["probe"])
	assert.Nil(t, ResponseDetails(NewInternalError("x")))
}
