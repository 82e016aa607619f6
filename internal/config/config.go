package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	LLMTimeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	BraveAPIKey string `envconfig:"BRAVE_API_KEY"`

	// Deep-search pipeline tuning
	SearchConcurrency int           `envconfig:"SEARCH_CONCURRENCY" default:"3"`
	MaxSubQueries     int           `envconfig:"MAX_SUB_QUERIES" default:"3"`
	SearchTimeout     time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	RequestDeadline   time.Duration `envconfig:"REQUEST_DEADLINE" default:"90s"`

	// Cache lifetimes by TTL class, plus the reclaim sweep cadence.
	SearchTTL     time.Duration `envconfig:"SEARCH_TTL" default:"1h"`
	RAGContextTTL time.Duration `envconfig:"RAG_CONTEXT_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"30m"`

	// RAG context retrieval
	RAGSnippetLimit int `envconfig:"RAG_SNIPPET_LIMIT" default:"3"`

	// Bootstrap: create initial user and API key on startup
	InitUserName string `envconfig:"INIT_USER_NAME"`
	InitAPIKey   string `envconfig:"INIT_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SIFT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasBrave() bool {
	return c.BraveAPIKey != ""
}
