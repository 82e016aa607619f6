package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/llm"
	"github.com/candlelight-labs/sift/internal/rag"
	"github.com/candlelight-labs/sift/internal/search"
)

type MockSearchLogRepository struct {
	mock.Mock
}

func (m *MockSearchLogRepository) Create(ctx context.Context, entry SearchLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSearchLogRepository) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]SearchLogEntry, error) {
	args := m.Called(ctx, userID, limit, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchLogEntry), args.Error(1)
}

func newPipeline(t *testing.T, repo CacheRepository, primary, fallback search.Provider, completer *stubCompleter) *DeepSearchService {
	t.Helper()
	var c llm.Completer
	if completer != nil {
		c = completer
	}
	cache := NewCacheService(repo, nil)
	return NewDeepSearchService(
		cache,
		NewDecomposer(c, 3),
		NewOrchestrator(primary, fallback, DefaultOrchestratorConfig()),
		NewSynthesizer(c),
		nil,
		nil,
		time.Minute,
	)
}

func TestDeepSearch_EmptyQuery(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newPipeline(t, repo, &fakeProvider{name: "brave"}, nil, nil)

	_, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "   "})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeepSearch_CacheMissRunsPipelineAndStores(t *testing.T) {
	repo := new(MockCacheRepository)
	repo.On("Get", mock.Anything, "user-1", mock.Anything).Return(nil, domain.ErrCacheEntryNotFound)
	repo.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.CacheEntry) bool {
		return e.UserID == "user-1" && e.TTLClass == domain.TTLSearch && len(e.Payload.Hits) == 1
	})).Return(nil)

	primary := &fakeProvider{name: "brave", hits: map[string][]search.Hit{
		"what is raft?": {hitFor("what is raft?")},
	}}
	svc := newPipeline(t, repo, primary, nil, nil)

	res, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "what is raft?"})

	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, res.TotalResults)
	assert.False(t, res.Decomposition.AIGenerated)
	assert.Equal(t, []string{"what is raft?"}, res.Decomposition.SubQueries)
	assert.False(t, res.Synthesis.AIGenerated)
	assert.NotEmpty(t, res.Synthesis.Summary)
	repo.AssertExpectations(t)
}

func TestDeepSearch_CacheHitSkipsProviders(t *testing.T) {
	repo := new(MockCacheRepository)
	hash := QueryHash("what is raft?")
	repo.On("Get", mock.Anything, "user-1", hash).Return(&domain.CacheEntry{
		UserID:    "user-1",
		QueryHash: hash,
		Payload: domain.CachePayload{
			Hits:      []domain.SearchHit{{Title: "Raft paper", URL: "https://raft.github.io/raft.pdf"}},
			Synthesis: domain.SynthesisResult{Summary: "cached answer", AIGenerated: true, Confidence: 0.8},
		},
		TTLClass:  domain.TTLSearch,
		UpdatedAt: time.Now().UTC(),
	}, nil)

	primary := &fakeProvider{name: "brave"}
	completer := &stubCompleter{out: `{"summary": "fresh answer"}`}
	svc := newPipeline(t, repo, primary, nil, completer)

	res, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "  WHAT is raft?  "})

	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	assert.Equal(t, "cached answer", res.Synthesis.Summary)
	assert.Equal(t, 1, res.TotalResults)
	assert.Equal(t, int64(0), primary.calls.Load())
	assert.Equal(t, 0, completer.calls)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestDeepSearch_AllProvidersFailStillSucceeds(t *testing.T) {
	repo := new(MockCacheRepository)
	repo.On("Get", mock.Anything, "user-1", mock.Anything).Return(nil, domain.ErrCacheEntryNotFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	primary := &fakeProvider{name: "brave", err: assertAnError()}
	fallback := &fakeProvider{name: "duckduckgo", err: assertAnError()}
	svc := newPipeline(t, repo, primary, fallback, nil)

	res, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "what is raft?"})

	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalResults)
	assert.False(t, res.Synthesis.AIGenerated)
	assert.Zero(t, res.Synthesis.Confidence)
	assert.Empty(t, res.Synthesis.Sources)
}

type fakeRAGProvider struct {
	snippets []rag.Snippet
	err      error
}

func (f *fakeRAGProvider) Relevant(ctx context.Context, userID, queryText string) ([]rag.Snippet, error) {
	return f.snippets, f.err
}

func TestDeepSearch_DocumentContextUsesLongerTTL(t *testing.T) {
	repo := new(MockCacheRepository)
	repo.On("Get", mock.Anything, "user-1", mock.Anything).Return(nil, domain.ErrCacheEntryNotFound)
	repo.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.CacheEntry) bool {
		return e.TTLClass == domain.TTLRAGContext
	})).Return(nil)

	primary := &fakeProvider{name: "brave", hits: map[string][]search.Hit{
		"what is raft?": {hitFor("what is raft?")},
	}}
	cache := NewCacheService(repo, nil)
	ragProvider := &fakeRAGProvider{snippets: []rag.Snippet{{Source: "raft.md", Content: "Raft is a consensus algorithm."}}}
	svc := NewDeepSearchService(cache, NewDecomposer(nil, 3), NewOrchestrator(primary, nil, DefaultOrchestratorConfig()), NewSynthesizer(nil), ragProvider, nil, time.Minute)

	res, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "what is raft?"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalResults)
	repo.AssertExpectations(t)
}

func TestDeepSearch_LogsSearch(t *testing.T) {
	repo := new(MockCacheRepository)
	repo.On("Get", mock.Anything, "user-1", mock.Anything).Return(nil, domain.ErrCacheEntryNotFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	logs := new(MockSearchLogRepository)
	logs.On("Create", mock.Anything, mock.MatchedBy(func(e SearchLogEntry) bool {
		return e.UserID == "user-1" && e.QueryText == "what is raft?" && e.TotalResults == 1 && !e.CacheHit
	})).Return(nil)

	primary := &fakeProvider{name: "brave", hits: map[string][]search.Hit{
		"what is raft?": {hitFor("what is raft?")},
	}}
	cache := NewCacheService(repo, nil)
	svc := NewDeepSearchService(cache, NewDecomposer(nil, 3), NewOrchestrator(primary, nil, DefaultOrchestratorConfig()), NewSynthesizer(nil), nil, logs, time.Minute)

	_, err := svc.Search(context.Background(), domain.Query{UserID: "user-1", Text: "what is raft?"})

	require.NoError(t, err)
	logs.AssertExpectations(t)
}

func assertAnError() error {
	return domain.NewDomainError(domain.ErrCodeInternalError, "provider unavailable")
}
