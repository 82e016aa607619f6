package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess_WrapsData(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data": {"key": "value"}}`, w.Body.String())
}

func TestError_MessageOnly(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, "query is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message": "query is required"}`, w.Body.String())
}

func TestInternalError_CarriesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, "deep search failed", errors.New("context deadline exceeded"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message": "deep search failed", "error": "context deadline exceeded"}`, w.Body.String())
}

func TestInternalError_NilErrorOmitsDetail(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, "deep search failed", nil)

	assert.JSONEq(t, `{"message": "deep search failed"}`, w.Body.String())
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"already exists", domain.ErrUserAlreadyExists, http.StatusConflict},
		{"unauthorized", domain.ErrAPIKeyRevoked, http.StatusUnauthorized},
		{"internal", domain.NewDomainError(domain.ErrCodeInternalError, "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_DomainValidation(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domain.ErrEmptyQuery)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "query is required and must be a non-empty string", resp.Message)
	assert.Empty(t, resp.Detail)
}

func TestHandleError_InternalIncludesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("pg: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
	assert.Equal(t, "pg: connection refused", resp.Detail)
}
