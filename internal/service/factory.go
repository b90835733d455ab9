package service

import (
	"basegraph.app/recommender/common/llm"
)

type ServicesConfig struct {
	LLMClient      llm.Client
	Recommendation RecommendationConfig
}

type Services struct {
	llmClient      llm.Client
	recommendation RecommendationConfig
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		llmClient:      cfg.LLMClient,
		recommendation: cfg.Recommendation,
	}
}

func (s *Services) Recommendations() RecommendationService {
	return NewRecommendationService(s.llmClient, s.recommendation)
}
