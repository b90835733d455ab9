package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/internal/model"
)

// SystemPrompt is sent with every completion request.
const SystemPrompt = "You are a helpful product recommendation assistant. " +
	"Always respond with valid JSON only, never with prose or code."

const schemaName = "product_recommendations"

var ErrUnserializablePreferences = errors.New("user_preferences is not JSON serializable")

// Reply is the shape the model is asked to produce.
type Reply struct {
	Products []model.Product `json:"products"`
}

var replySchema = sync.OnceValue(func() any {
	return llm.GenerateSchema[Reply]()
})

// ReplySchema is the structured-output schema for Reply.
func ReplySchema() *llm.Schema {
	return &llm.Schema{Name: schemaName, Definition: replySchema()}
}

// BuildPrompt renders the user prompt. Preferences are embedded as JSON (keys
// sorted by encoding/json) so the model sees exactly what the client sent.
func BuildPrompt(productType string, preferences map[string]any, count int) (string, error) {
	rendered, err := json.Marshal(preferences)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnserializablePreferences, err)
	}

	return fmt.Sprintf(
		"Recommend %d %s based on these preferences: %s. "+
			"For each product, provide the name, brand, price (as a number), rating (out of 5), and a list of key features. "+
			`Format the response as a JSON object of the form {"products": [{"name": string, "brand": string, "price": number, "rating": number, "features": [string]}]} `+
			"containing exactly %d products. Do not include any explanatory text outside the JSON.",
		count, productType, rendered, count,
	), nil
}
