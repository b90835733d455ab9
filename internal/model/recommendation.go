package model

// RecommendationRequest is one inbound ask. UserPreferences are opaque to the
// service and only rendered into the prompt.
type RecommendationRequest struct {
	ProductType     string         `json:"product_type"`
	UserPreferences map[string]any `json:"user_preferences"`
}

type Product struct {
	Name     string   `json:"name" validate:"required" jsonschema_description:"Product name"`
	Brand    string   `json:"brand" validate:"required" jsonschema_description:"Manufacturer or brand"`
	Price    float64  `json:"price" validate:"gte=0" jsonschema_description:"Price as a plain number without currency symbols"`
	Rating   float64  `json:"rating" validate:"gte=0,lte=5" jsonschema_description:"Rating out of 5"`
	Features []string `json:"features" validate:"required,dive,required" jsonschema_description:"Key features"`
}

// Recommendation is the ordered product list produced for one request.
type Recommendation struct {
	Products []Product `json:"products"`
}
