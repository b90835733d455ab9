package dto

import (
	"basegraph.app/recommender/internal/model"
)

type RecommendationRequest struct {
	ProductType     string         `json:"product_type" binding:"required"`
	UserPreferences map[string]any `json:"user_preferences" binding:"required"`
}

func (r RecommendationRequest) ToModel() model.RecommendationRequest {
	return model.RecommendationRequest{
		ProductType:     r.ProductType,
		UserPreferences: r.UserPreferences,
	}
}

type ProductResponse struct {
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Price    float64  `json:"price"`
	Rating   float64  `json:"rating"`
	Features []string `json:"features"`
}

type RecommendationResponse struct {
	Products []ProductResponse `json:"products"`
}

func ToRecommendationResponse(rec *model.Recommendation) *RecommendationResponse {
	products := make([]ProductResponse, 0, len(rec.Products))
	for _, p := range rec.Products {
		features := p.Features
		if features == nil {
			features = []string{}
		}
		products = append(products, ProductResponse{
			Name:     p.Name,
			Brand:    p.Brand,
			Price:    p.Price,
			Rating:   p.Rating,
			Features: features,
		})
	}
	return &RecommendationResponse{Products: products}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
