package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var ErrMissingAPIKey = errors.New("API key is required")

// Config holds LLM client configuration.
type Config struct {
	Provider         string // "openai" or "anthropic"
	APIKey           string // Required: API key for the provider
	BaseURL          string // Optional: custom API endpoint
	Model            string // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
	MaxRetries       int    // SDK level retries; 0 disables them
	StructuredOutput bool   // Honour Request.Schema where the provider supports it
}

// Client produces a single text completion for a system + user prompt pair.
// Implementations are safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
	Provider() string
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	// Schema optionally constrains the reply to a JSON schema (see GenerateSchema).
	// Providers without structured output ignore it.
	Schema      *Schema
	MaxTokens   int
	Temperature *float64 // nil = model default, explicit 0 = deterministic
}

type Schema struct {
	Name       string
	Definition any
}

type Response struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// New creates a Client for cfg.Provider. Defaults to OpenAI if no provider is specified.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GenerateSchema generates a strict JSON schema for T.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}

// StatusCode returns the HTTP status the provider answered with, if err came
// from a provider API response.
func StatusCode(err error) (int, bool) {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	return 0, false
}

// Describe gives a short classification of an upstream failure for logs and
// error messages.
func Describe(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}

	status, ok := StatusCode(err)
	if !ok {
		slog.DebugContext(ctx, "llm network error", "error", err)
		return "provider unreachable"
	}

	switch {
	case status == 401 || status == 403:
		return "authentication failed"
	case status == 429:
		return "rate limited"
	case status >= 500:
		return "provider error"
	default:
		return fmt.Sprintf("request rejected (status %d)", status)
	}
}
