//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/candlelight-labs/sift/internal/api/handlers"
	"github.com/candlelight-labs/sift/internal/repository"
	"github.com/candlelight-labs/sift/internal/search"
	"github.com/candlelight-labs/sift/internal/server"
	"github.com/candlelight-labs/sift/internal/service"
	"github.com/candlelight-labs/sift/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// scriptedProvider is an in-process search backend with counters so tests can
// assert on outbound call volume.
type scriptedProvider struct {
	name  string
	hits  []search.Hit
	err   error
	calls atomic.Int64
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Search(ctx context.Context, query string) ([]search.Hit, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.hits, nil
}

// scriptedCompleter answers decomposition and synthesis prompts with canned
// JSON, keyed on the system prompt.
type scriptedCompleter struct {
	decomposition string
	synthesis     string
	err           error
	calls         atomic.Int64
}

func (c *scriptedCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	if strings.Contains(system, "search planning") {
		return c.decomposition, nil
	}
	return c.synthesis, nil
}

// TestEnv holds the running server plus hooks into its fakes.
type TestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	ServerURL  string
	stopServer func()

	Primary   *scriptedProvider
	Fallback  *scriptedProvider
	Completer *scriptedCompleter

	UserID     string
	APIToken   string
	HTTPClient *http.Client
}

func SetupEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	primary := &scriptedProvider{
		name: "primary",
		hits: []search.Hit{
			{Title: "Raft", Snippet: "Raft is a consensus algorithm.", URL: "https://raft.github.io"},
			{Title: "Raft paper", Snippet: "In search of an understandable consensus algorithm.", URL: "https://raft.github.io/raft.pdf"},
		},
	}
	fallback := &scriptedProvider{name: "fallback"}
	completer := &scriptedCompleter{
		decomposition: `{"coreQuestion": "what is raft?", "searchQueries": ["raft consensus algorithm", "raft leader election"]}`,
		synthesis:     `{"summary": "Raft is a consensus algorithm built for understandability.", "sources": ["https://raft.github.io"], "confidence": 0.9}`,
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, stop := startServer(t, pool, primary, fallback, completer, port)

	env := &TestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		ServerURL:  serverURL,
		stopServer: stop,
		Primary:    primary,
		Fallback:   fallback,
		Completer:  completer,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	env.bootstrap()
	return env
}

func (e *TestEnv) Cleanup() {
	if e.stopServer != nil {
		e.stopServer()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// bootstrap creates a user and API key through the public endpoints.
func (e *TestEnv) bootstrap() {
	resp, status, err := e.do("POST", "/users", map[string]string{"name": "e2e-user"}, "")
	if err != nil {
		e.T.Fatalf("failed to create user: %v", err)
	}
	if status != http.StatusCreated {
		e.T.Fatalf("unexpected status creating user: %d", status)
	}

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &envelope); err != nil {
		e.T.Fatalf("failed to parse user response: %v", err)
	}
	e.UserID = envelope.Data.ID

	resp, status, err = e.do("POST", "/apikeys", map[string]string{
		"user_id": e.UserID,
		"name":    "e2e-key",
	}, "")
	if err != nil {
		e.T.Fatalf("failed to create API key: %v", err)
	}
	if status != http.StatusCreated {
		e.T.Fatalf("unexpected status creating API key: %d", status)
	}

	var keyEnvelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &keyEnvelope); err != nil {
		e.T.Fatalf("failed to parse API key response: %v", err)
	}
	e.APIToken = keyEnvelope.Data.Token
}

// DeepSearch issues an authenticated POST /deep-search and returns the raw
// body with the HTTP status.
func (e *TestEnv) DeepSearch(query string) ([]byte, int, error) {
	return e.do("POST", "/deep-search", map[string]string{"query": query}, e.APIToken)
}

func (e *TestEnv) do(method, path string, body interface{}, token string) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func startServer(t *testing.T, pool *pgxpool.Pool, primary, fallback search.Provider, completer *scriptedCompleter, port int) (string, func()) {
	userRepo := repository.NewUserRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	cacheRepo := repository.NewCacheRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	cacheSvc := service.NewCacheService(cacheRepo, service.DefaultCacheTTLs())

	deepSearchSvc := service.NewDeepSearchService(
		cacheSvc,
		service.NewDecomposer(completer, 3),
		service.NewOrchestrator(primary, fallback, service.OrchestratorConfig{
			Concurrency: 3,
			CallTimeout: 10 * time.Second,
		}),
		service.NewSynthesizer(completer),
		nil,
		searchLogRepo,
		60*time.Second,
	)

	cfg := server.RouterConfig{
		AuthValidator:     authSvc,
		DeepSearchHandler: handlers.NewDeepSearchHandler(deepSearchSvc),
		CacheHandler:      handlers.NewCacheHandler(cacheSvc),
		HistoryHandler:    handlers.NewHistoryHandler(searchLogRepo),
		AuthHandler:       handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForServer(t, serverURL)

	return serverURL, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}
}

func waitForServer(t *testing.T, url string) {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not become ready")
}

// Message mirrors the deep-search response body.
type Message struct {
	Role  string `json:"role"`
	Type  string `json:"type"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
	Timestamp string `json:"timestamp"`
	Metadata  struct {
		Query         string `json:"query"`
		Decomposition struct {
			CoreQuestion string   `json:"coreQuestion"`
			SubQueries   []string `json:"searchQueries"`
			AIGenerated  bool     `json:"aiGenerated"`
		} `json:"decomposition"`
		TotalResults int      `json:"totalResults"`
		Sources      []string `json:"sources"`
		Confidence   float64  `json:"confidence"`
		AIGenerated  bool     `json:"aiGenerated"`
		CacheHit     bool     `json:"cacheHit"`
	} `json:"metadata"`
}

func parseMessage(t *testing.T, body []byte) Message {
	t.Helper()
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("failed to parse deep-search response: %v\nbody: %s", err, body)
	}
	return msg
}
