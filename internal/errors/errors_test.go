package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	with := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "missing", "details")
	assert.Equal(t, "details", with.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrReportNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "REPORT_NOT_FOUND", resp.Error.ErrorCode)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageError("write failed", cause)
	assert.Equal(t, "[STORAGE] write failed: disk full", err.Error())
	assert.Equal(t, cause, err.Unwrap())

	err.WithContext("table", "tenor_rates")
	assert.Equal(t, "tenor_rates", err.Context["table"])

	plain := NewNotFoundError("report")
	assert.Equal(t, "[NOT_FOUND] report not found", plain.Error())
}

func TestProblemDetailsMarshal(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "missing", "/api/data").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, TypeNotFound, out["type"])
	assert.Equal(t, "abc", out["trace_id"])
	assert.EqualValues(t, http.StatusNotFound, out["status"])
}
