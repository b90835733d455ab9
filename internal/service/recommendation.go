package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/internal/model"
	"basegraph.app/recommender/internal/recommend"
)

const logPreviewLength = 2000

var (
	ErrProductTypeRequired = errors.New("product_type is required")
	ErrPreferencesRequired = errors.New("user_preferences is required")
)

type RecommendationService interface {
	Recommend(ctx context.Context, req model.RecommendationRequest) (*model.Recommendation, error)
}

type RecommendationConfig struct {
	Count       int
	StrictCount bool
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration // 0 leaves the caller's deadline as the only bound
}

type recommendationService struct {
	llmClient llm.Client
	parser    *recommend.Parser
	cfg       RecommendationConfig
}

func NewRecommendationService(llmClient llm.Client, cfg RecommendationConfig) RecommendationService {
	if cfg.Count <= 0 {
		cfg.Count = 5
	}
	return &recommendationService{
		llmClient: llmClient,
		parser:    recommend.NewParser(cfg.Count, cfg.StrictCount),
		cfg:       cfg,
	}
}

func (s *recommendationService) Recommend(ctx context.Context, req model.RecommendationRequest) (*model.Recommendation, error) {
	productType := strings.TrimSpace(req.ProductType)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ProductType: logger.Ptr(productType),
		LLMProvider: logger.Ptr(s.llmClient.Provider()),
		LLMModel:    logger.Ptr(s.llmClient.Model()),
		Component:   "recommender.service.recommendation",
	})

	prompt, err := s.buildPrompt(productType, req.UserPreferences)
	if err != nil {
		slog.WarnContext(ctx, "recommendation request rejected", "error", err)
		return nil, ValidationError(err)
	}

	sc := logger.StartSpan(ctx, "recommendation.generate")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.String("recommendation.product_type", productType),
		attribute.Int("recommendation.count", s.cfg.Count),
		attribute.String("llm.model", s.llmClient.Model()),
	)

	completeCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		completeCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	slog.DebugContext(ctx, "requesting recommendations", "prompt", logger.Truncate(prompt, logPreviewLength))

	start := time.Now()
	resp, err := s.llmClient.Complete(completeCtx, llm.Request{
		SystemPrompt: recommend.SystemPrompt,
		UserPrompt:   prompt,
		Schema:       recommend.ReplySchema(),
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	})
	if err != nil {
		sc.RecordError(err)
		reason := llm.Describe(ctx, err)
		slog.ErrorContext(ctx, "completion request failed",
			"reason", reason,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, UpstreamError(fmt.Errorf("completion request failed (%s): %w", reason, err))
	}

	slog.DebugContext(ctx, "completion received",
		"reply", logger.Truncate(resp.Content, logPreviewLength),
		"finish_reason", resp.FinishReason)

	products, err := s.parser.Parse(resp.Content)
	if err != nil {
		sc.RecordError(err)
		if resp.FinishReason == "length" {
			err = fmt.Errorf("%w (reply was cut off at the token limit)", err)
		}
		slog.WarnContext(ctx, "unusable completion reply",
			"error", err,
			"reply", logger.Truncate(resp.Content, logPreviewLength))
		return nil, ResponseParseError(fmt.Errorf("invalid recommendation reply: %w", err))
	}

	slog.InfoContext(ctx, "recommendations generated",
		"products", len(products),
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return &model.Recommendation{Products: products}, nil
}

func (s *recommendationService) buildPrompt(productType string, preferences map[string]any) (string, error) {
	if productType == "" {
		return "", ErrProductTypeRequired
	}
	if preferences == nil {
		return "", ErrPreferencesRequired
	}
	return recommend.BuildPrompt(productType, preferences, s.cfg.Count)
}
