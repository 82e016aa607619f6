package llm

import (
	"context"
	"errors"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the OpenAI model used for decomposition and synthesis
	DefaultChatModel = openai.GPT4oMini
	// DefaultEmbeddingModel is the OpenAI model used for RAG context embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
)

var (
	// ErrEmptyPrompt is returned when a completion is requested with no prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrEmptyResponse is returned when the model returns no choices
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// Completer is the narrow synthesis-collaborator contract used by the
// decomposer and synthesizer. Implementations must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ChatAPI defines the slice of the OpenAI client this package depends on
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Client wraps the OpenAI API for chat completions and embeddings
type Client struct {
	api         ChatAPI
	model       string
	temperature float32
	timeout     time.Duration
}

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// Timeout bounds each API call. Zero means no per-call deadline
	// beyond what the caller's context carries.
	Timeout time.Duration
}

// NewClient creates a new client using the default chat model.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	return &Client{
		api:         openai.NewClient(cfg.APIKey),
		model:       model,
		temperature: temperature,
		timeout:     cfg.Timeout,
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// NewClientFromEnv creates a new client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Complete sends a single-turn chat completion and returns the raw text of
// the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateEmbedding generates an embedding for the given text. Used by the
// RAG context provider.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyPrompt
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: DefaultEmbeddingModel,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	return resp.Data[0].Embedding, nil
}
