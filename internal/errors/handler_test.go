package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *ErrorHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestHandleErrorPipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "source not found",
			err:        NewSourceNotFoundError("missing.xlsx", errors.New("no such file")),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceNotFound,
			wantCode:   "SOURCE_NOT_FOUND",
		},
		{
			name:       "schema mismatch",
			err:        NewMissingColumnError("KPI", "metrics"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchemaMismatch,
			wantCode:   "SCHEMA_MISMATCH",
		},
		{
			name:       "duplicate key",
			err:        NewDuplicateKeyError("Sales", "ROI (%)", "R1"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDuplicateKey,
			wantCode:   "DUPLICATE_KEY",
		},
		{
			name:       "invalid enum",
			err:        NewInvalidEnumError("function", "Marketing"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInvalidEnum,
			wantCode:   "INVALID_ENUM_VALUE",
		},
		{
			name:       "missing direction",
			err:        NewMissingDirectionError("Sales", "ROI (%)"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeMissingDirection,
			wantCode:   "MISSING_DIRECTION_CONFIG",
		},
		{
			name:       "wrapped pipeline error",
			err:        fmt.Errorf("reload: %w", NewDuplicateKeyError("Operations", "Shift utilization", "R3")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDuplicateKey,
			wantCode:   "DUPLICATE_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, tt.wantCode, problem["error_code"])
			assert.Equal(t, "/api/reload", problem["instance"])
		})
	}
}

func TestHandleErrorSurfacesOffendingKey(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, NewDuplicateKeyError("Sales", "ROI (%)", "R2"))

	problem := decodeProblem(t, rec)
	key, ok := problem["key"].(map[string]interface{})
	require.True(t, ok, "problem details must carry the offending key")
	assert.Equal(t, "Sales", key["function"])
	assert.Equal(t, "ROI (%)", key["kpi"])
	assert.Equal(t, "R2", key["round"])
}

func TestHandleErrorAPIError(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/functions/Marketing", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, FunctionNotFoundError("Marketing"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, TypeNotFound, problem["type"])
	assert.Equal(t, "FUNCTION_NOT_FOUND", problem["error_code"])
}

func TestHandleErrorSnapshotUnavailable(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, ErrSnapshotUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, TypeNoSnapshot, problem["type"])
}

func TestHandleErrorContextTimeout(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, TypeTimeout, problem["type"])
}

func TestHandleErrorGenericFallback(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, problem["type"])
}

func TestHandleErrorNil(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandlePanic(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()

	h.HandlePanic(rec, req, "unexpected nil")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, problem["type"])
	assert.NotContains(t, problem, "stack", "stack only included when configured")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.NotFound(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil)
	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
