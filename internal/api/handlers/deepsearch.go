package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/candlelight-labs/sift/internal/api"
	"github.com/candlelight-labs/sift/internal/api/middleware"
	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/service"
)

type DeepSearchService interface {
	Search(ctx context.Context, query domain.Query) (*service.DeepSearchResult, error)
}

type DeepSearchHandler struct {
	svc DeepSearchService
}

func NewDeepSearchHandler(svc DeepSearchService) *DeepSearchHandler {
	return &DeepSearchHandler{svc: svc}
}

type DeepSearchRequest struct {
	Query   string        `json:"query"`
	History []domain.Turn `json:"history,omitempty"`
}

// TextPart is one block of answer text.
type TextPart struct {
	Text string `json:"text"`
}

// DeepSearchMetadata describes how the answer was produced.
type DeepSearchMetadata struct {
	Query         string               `json:"query"`
	Decomposition domain.Decomposition `json:"decomposition"`
	TotalResults  int                  `json:"totalResults"`
	Sources       []string             `json:"sources"`
	Confidence    float64              `json:"confidence"`
	AIGenerated   bool                 `json:"aiGenerated"`
	CacheHit      bool                 `json:"cacheHit"`
	RateLimited   bool                 `json:"rateLimited,omitempty"`
}

// DeepSearchResponse is shaped as an assistant chat message so clients can
// append it to a conversation directly.
type DeepSearchResponse struct {
	Role      string             `json:"role"`
	Type      string             `json:"type"`
	Parts     []TextPart         `json:"parts"`
	Timestamp string             `json:"timestamp"`
	Metadata  DeepSearchMetadata `json:"metadata"`
}

func (h *DeepSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req DeepSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := domain.Query{
		UserID:  middleware.GetUserID(r.Context()),
		Text:    req.Query,
		History: req.History,
	}

	result, err := h.svc.Search(r.Context(), query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := result.Synthesis.Sources
	if sources == nil {
		sources = []string{}
	}

	api.JSON(w, http.StatusOK, DeepSearchResponse{
		Role:      "assistant",
		Type:      "deep_search",
		Parts:     []TextPart{{Text: result.Synthesis.Summary}},
		Timestamp: result.Timestamp.UTC().Format(time.RFC3339),
		Metadata: DeepSearchMetadata{
			Query:         req.Query,
			Decomposition: result.Decomposition,
			TotalResults:  result.TotalResults,
			Sources:       sources,
			Confidence:    result.Synthesis.Confidence,
			AIGenerated:   result.Synthesis.AIGenerated,
			CacheHit:      result.CacheHit,
			RateLimited:   result.RateLimited,
		},
	})
}
