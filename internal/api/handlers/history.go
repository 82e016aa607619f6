package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/candlelight-labs/sift/internal/api"
	"github.com/candlelight-labs/sift/internal/api/middleware"
	"github.com/candlelight-labs/sift/internal/pagination"
	"github.com/candlelight-labs/sift/internal/service"
)

type SearchHistoryRepository interface {
	ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]service.SearchLogEntry, error)
}

type HistoryHandler struct {
	repo SearchHistoryRepository
}

func NewHistoryHandler(repo SearchHistoryRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

type HistoryItemResponse struct {
	ID           string   `json:"id"`
	Query        string   `json:"query"`
	SubQueries   []string `json:"searchQueries"`
	TotalResults int      `json:"totalResults"`
	Confidence   float64  `json:"confidence"`
	AIGenerated  bool     `json:"aiGenerated"`
	CacheHit     bool     `json:"cacheHit"`
	CreatedAt    string   `json:"created_at"`
}

// List returns the caller's past searches, newest first, with cursor
// pagination.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	var before time.Time
	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}
	if cursor != nil {
		before = cursor.Timestamp
	}

	entries, err := h.repo.ListByUser(r.Context(), userID, limit, before)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]HistoryItemResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItemResponse{
			ID:           e.ID,
			Query:        e.QueryText,
			SubQueries:   e.SubQueries,
			TotalResults: e.TotalResults,
			Confidence:   e.Confidence,
			AIGenerated:  e.AIGenerated,
			CacheHit:     e.CacheHit,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	next := pagination.CreateNextCursor(entries, limit,
		func(e service.SearchLogEntry) string { return e.ID },
		func(e service.SearchLogEntry) time.Time { return e.CreatedAt },
	)

	api.Success(w, http.StatusOK, pagination.PageResult[HistoryItemResponse]{
		Items:   items,
		Cursor:  next,
		HasMore: next != "",
	})
}
