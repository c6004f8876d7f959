package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/data/pkrv", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error maps by code",
			err:        ErrReportNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeReportNotFound,
		},
		{
			name:       "validation api error",
			err:        ErrValidation("length", "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "plain not found string",
			err:        fmt.Errorf("table tenor_rates does not exist"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error is internal",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}
}

func TestHandleErrorWritesProblemJSON(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/data/pkrv", nil)

	h.HandleError(rec, req, ErrReportNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeReportNotFound, body["type"])
	assert.Equal(t, "REPORT_NOT_FOUND", body["error_code"])
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/data/pkrv", nil)

	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
