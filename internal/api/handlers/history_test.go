package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/candlelight-labs/sift/internal/pagination"
	"github.com/candlelight-labs/sift/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchHistoryRepository struct {
	mock.Mock
}

func (m *MockSearchHistoryRepository) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]service.SearchLogEntry, error) {
	args := m.Called(ctx, userID, limit, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchLogEntry), args.Error(1)
}

func historyEntries(n int) []service.SearchLogEntry {
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	entries := make([]service.SearchLogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, service.SearchLogEntry{
			ID:           "log-" + string(rune('a'+i)),
			UserID:       "user-456",
			QueryText:    "query",
			SubQueries:   []string{"sub"},
			TotalResults: 5,
			Confidence:   0.8,
			AIGenerated:  true,
			CreatedAt:    base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return entries
}

func TestHistoryHandler_List_Success(t *testing.T) {
	mockRepo := new(MockSearchHistoryRepository)
	handler := NewHistoryHandler(mockRepo)

	mockRepo.On("ListByUser", mock.Anything, "user-456", 20, time.Time{}).
		Return(historyEntries(2), nil)

	req := requestWithUserID(http.MethodGet, "/searches", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data pagination.PageResult[HistoryItemResponse] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "query", resp.Data.Items[0].Query)
	assert.False(t, resp.Data.HasMore)
	mockRepo.AssertExpectations(t)
}

func TestHistoryHandler_List_FullPageSetsCursor(t *testing.T) {
	mockRepo := new(MockSearchHistoryRepository)
	handler := NewHistoryHandler(mockRepo)

	mockRepo.On("ListByUser", mock.Anything, "user-456", 2, time.Time{}).
		Return(historyEntries(2), nil)

	req := requestWithUserID(http.MethodGet, "/searches?limit=2", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data pagination.PageResult[HistoryItemResponse] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.HasMore)
	assert.NotEmpty(t, resp.Data.Cursor)

	cursor, err := pagination.DecodeCursor(resp.Data.Cursor)
	require.NoError(t, err)
	assert.Equal(t, "log-b", cursor.LastID)
}

func TestHistoryHandler_List_InvalidLimit(t *testing.T) {
	mockRepo := new(MockSearchHistoryRepository)
	handler := NewHistoryHandler(mockRepo)

	for _, q := range []string{"limit=0", "limit=101", "limit=abc"} {
		req := requestWithUserID(http.MethodGet, "/searches?"+q, nil)
		w := httptest.NewRecorder()

		handler.List(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	mockRepo.AssertNotCalled(t, "ListByUser")
}

func TestHistoryHandler_List_InvalidCursor(t *testing.T) {
	mockRepo := new(MockSearchHistoryRepository)
	handler := NewHistoryHandler(mockRepo)

	req := requestWithUserID(http.MethodGet, "/searches?cursor=!!!not-base64", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
