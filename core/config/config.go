package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel           OTelConfig
	LLM            LLMConfig
	Recommendation RecommendationConfig
	HTTP           HTTPConfig
	Env            string
	Host           string
	Port           string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider         string // "openai" or "anthropic"
	APIKey           string
	BaseURL          string // Optional: for custom endpoints
	Model            string
	MaxTokens        int
	Temperature      *float64      // nil = provider default
	Timeout          time.Duration // Upper bound for a single completion round trip
	StructuredOutput bool          // Ask OpenAI for a json_schema response format
}

type RecommendationConfig struct {
	Count       int
	StrictCount bool // Reject replies that don't carry exactly Count products
}

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
)

// Load loads configuration from environment variables.
// In development it loads .env.server first and falls back to .env.
//
// The LLM credential is required: without it every request would fail upstream,
// so Load refuses to start instead.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("RECOMMENDER_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	provider := getEnv("LLM_PROVIDER", "openai")

	cfg := Config{
		Env:  getEnv("RECOMMENDER_ENV", "development"),
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "8000"),
		HTTP: HTTPConfig{
			ReadTimeout:  getEnvSeconds("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvSeconds("HTTP_WRITE_TIMEOUT", 90*time.Second),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "recommender"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			Provider:         provider,
			APIKey:           getEnv("LLM_API_KEY", providerAPIKey(provider)),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			Model:            getEnv("LLM_MODEL", ""),
			MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 2048),
			Temperature:      getEnvFloatPtr("LLM_TEMPERATURE"),
			Timeout:          getEnvSeconds("LLM_TIMEOUT", 60*time.Second),
			StructuredOutput: getEnvBool("LLM_STRUCTURED_OUTPUT", true),
		},
		Recommendation: RecommendationConfig{
			Count:       getEnvInt("RECOMMENDATION_COUNT", 5),
			StrictCount: getEnvBool("RECOMMENDATION_STRICT_COUNT", false),
		},
	}

	if cfg.LLM.Provider != "openai" && cfg.LLM.Provider != "anthropic" {
		return Config{}, fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", cfg.LLM.Provider)
	}

	if cfg.LLM.APIKey == "" {
		return Config{}, fmt.Errorf("LLM_API_KEY (or %s) is required", providerKeyVar(cfg.LLM.Provider))
	}

	if cfg.Recommendation.Count < 1 {
		return Config{}, fmt.Errorf("RECOMMENDATION_COUNT must be positive, got %d", cfg.Recommendation.Count)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func providerKeyVar(provider string) string {
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func providerAPIKey(provider string) string {
	return getEnv(providerKeyVar(provider), "")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func getEnvFloatPtr(key string) *float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
	}
	return nil
}
