package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and services enrich the context once; every slog call made with that
// context carries the fields without repeating them.
type LogFields struct {
	RequestID   *int64  // Snowflake id assigned by the RequestID middleware
	ProductType *string // Product category being recommended
	LLMProvider *string // "openai" or "anthropic"
	LLMModel    *string // Model serving the completion
	Component   string  // Component name (OTel semantic convention style, e.g., "recommender.service")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RequestID != nil {
		result.RequestID = new.RequestID
	}
	if new.ProductType != nil {
		result.ProductType = new.ProductType
	}
	if new.LLMProvider != nil {
		result.LLMProvider = new.LLMProvider
	}
	if new.LLMModel != nil {
		result.LLMModel = new.LLMModel
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{RequestID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to at most maxLen bytes, appending "..." if truncated.
// The cut backs off to a rune boundary so the result stays valid UTF-8.
// Useful for logging model prompts and replies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
