package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/candlelight-labs/sift/internal/api/handlers"
	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	userID string
	err    error
}

func (s *stubValidator) ValidateAPIKey(ctx context.Context, token string) (string, error) {
	return s.userID, s.err
}

type stubDeepSearch struct {
	result *service.DeepSearchResult
	err    error
}

func (s *stubDeepSearch) Search(ctx context.Context, query domain.Query) (*service.DeepSearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCacheAdmin struct{}

func (s *stubCacheAdmin) Stats(ctx context.Context, userID string) (*domain.CacheStats, error) {
	return &domain.CacheStats{EntryCount: 1, OldestAge: time.Minute}, nil
}

func (s *stubCacheAdmin) Clear(ctx context.Context, userID string) error {
	return nil
}

type stubHistory struct{}

func (s *stubHistory) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]service.SearchLogEntry, error) {
	return nil, nil
}

type stubAuthService struct{}

func (s *stubAuthService) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	return &domain.User{ID: "user-1", Name: name, CreatedAt: time.Now().UTC()}, nil
}

func (s *stubAuthService) CreateAPIKey(ctx context.Context, userID, name string) (string, error) {
	return "sift_" + strings.Repeat("ab", 32), nil
}

func newTestRouter(validator *stubValidator) http.Handler {
	return NewRouter(RouterConfig{
		AuthValidator: validator,
		DeepSearchHandler: handlers.NewDeepSearchHandler(&stubDeepSearch{
			result: &service.DeepSearchResult{
				Synthesis: domain.SynthesisResult{Summary: "answer", Sources: []string{}},
				Timestamp: time.Now().UTC(),
			},
		}),
		CacheHandler:   handlers.NewCacheHandler(&stubCacheAdmin{}),
		HistoryHandler: handlers.NewHistoryHandler(&stubHistory{}),
		AuthHandler:    handlers.NewAuthHandler(&stubAuthService{}),
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRouter_DeepSearchRequiresAuth(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	req := httptest.NewRequest(http.MethodPost, "/deep-search", bytes.NewReader([]byte(`{"query":"x"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_DeepSearchWithAuth(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	req := httptest.NewRequest(http.MethodPost, "/deep-search", bytes.NewReader([]byte(`{"query":"x"}`)))
	req.Header.Set("Authorization", "Bearer sift_"+strings.Repeat("00", 32))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"assistant"`)
}

func TestRouter_CacheRoutes(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})
	auth := "Bearer sift_" + strings.Repeat("00", 32)

	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cache", nil)
	req.Header.Set("Authorization", auth)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cleared")
}

func TestRouter_UserCreationIsPublic(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte(`{"name":"alice"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	big := bytes.Repeat([]byte("a"), 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(big))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NotEqual(t, http.StatusCreated, w.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(&stubValidator{userID: "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
