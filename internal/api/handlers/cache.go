package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/candlelight-labs/sift/internal/api"
	"github.com/candlelight-labs/sift/internal/api/middleware"
	"github.com/candlelight-labs/sift/internal/domain"
)

type CacheAdminService interface {
	Stats(ctx context.Context, userID string) (*domain.CacheStats, error)
	Clear(ctx context.Context, userID string) error
}

type CacheHandler struct {
	svc CacheAdminService
}

func NewCacheHandler(svc CacheAdminService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

type CacheStatsResponse struct {
	EntryCount int64  `json:"entryCount"`
	OldestAge  string `json:"oldestAge"`
}

func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, CacheStatsResponse{
		EntryCount: stats.EntryCount,
		OldestAge:  stats.OldestAge.Round(time.Second).String(),
	})
}

func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.svc.Clear(r.Context(), userID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "cleared"})
}
