package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/candlelight-labs/sift/internal/api/handlers"
	"github.com/candlelight-labs/sift/internal/config"
	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/jobs"
	"github.com/candlelight-labs/sift/internal/llm"
	"github.com/candlelight-labs/sift/internal/rag"
	"github.com/candlelight-labs/sift/internal/repository"
	"github.com/candlelight-labs/sift/internal/search"
	"github.com/candlelight-labs/sift/internal/server"
	"github.com/candlelight-labs/sift/internal/service"
	"github.com/candlelight-labs/sift/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the sift deep-search API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	userRepo := repository.NewUserRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	cacheRepo := repository.NewCacheRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)
	ragChunkRepo := repository.NewRAGChunkRepository(pool)

	if cfg.InitUserName != "" {
		if err := bootstrapInitialUser(ctx, cfg, userRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial user: %w", err)
		}
	}

	var completer llm.Completer
	var ragProvider service.RAGProvider
	if cfg.HasOpenAI() {
		client := llm.NewClientWithConfig(llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		})
		completer = client
		ragProvider = rag.NewProvider(client, ragChunkRepo, cfg.RAGSnippetLimit)
		log.Println("language model configured")
	} else {
		log.Println("no OPENAI_API_KEY set; decomposition and synthesis run in fallback mode")
	}

	var primary search.Provider = search.NewDuckDuckGo()
	var fallback search.Provider
	if cfg.HasBrave() {
		primary = search.NewBrave(cfg.BraveAPIKey)
		fallback = search.NewDuckDuckGo()
		log.Println("brave search configured as primary provider")
	} else {
		log.Println("no BRAVE_API_KEY set; using duckduckgo only")
	}

	cacheSvc := service.NewCacheService(cacheRepo, service.CacheTTLs{
		domain.TTLSearch:     cfg.SearchTTL,
		domain.TTLRAGContext: cfg.RAGContextTTL,
	})

	deepSearchSvc := service.NewDeepSearchService(
		cacheSvc,
		service.NewDecomposer(completer, cfg.MaxSubQueries),
		service.NewOrchestrator(primary, fallback, service.OrchestratorConfig{
			Concurrency: cfg.SearchConcurrency,
			CallTimeout: cfg.SearchTimeout,
		}),
		service.NewSynthesizer(completer),
		ragProvider,
		searchLogRepo,
		cfg.RequestDeadline,
	)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	sweeper := jobs.NewWorker(jobs.NewCacheSweeper(cacheSvc), cfg.SweepInterval)
	go sweeper.Start(ctx)
	log.Println("cache sweeper started")

	routerCfg := server.RouterConfig{
		AuthValidator:     authSvc,
		DeepSearchHandler: handlers.NewDeepSearchHandler(deepSearchSvc),
		CacheHandler:      handlers.NewCacheHandler(cacheSvc),
		HistoryHandler:    handlers.NewHistoryHandler(searchLogRepo),
		AuthHandler:       handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func bootstrapInitialUser(ctx context.Context, cfg *config.Config, userRepo *repository.UserRepository, apiKeyRepo *repository.APIKeyRepository) error {
	user, err := userRepo.GetByName(ctx, cfg.InitUserName)
	if err != nil && err != domain.ErrUserNotFound {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	if user == nil {
		user, err = authSvc.CreateUser(ctx, cfg.InitUserName)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		log.Printf("bootstrap: created user '%s' (id: %s)", user.Name, user.ID)
	} else {
		log.Printf("bootstrap: user '%s' already exists (id: %s)", user.Name, user.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid SIFT_INIT_API_KEY format (expected 'sift_<64 hex chars>')")
		}

		err := authSvc.CreateAPIKeyWithToken(ctx, user.ID, "bootstrap", cfg.InitAPIKey)
		if err == domain.ErrAPIKeyAlreadyExists {
			log.Printf("bootstrap: API key already exists")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	}

	if upErr == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
