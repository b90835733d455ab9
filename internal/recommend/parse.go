package recommend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"basegraph.app/recommender/internal/model"
)

var (
	ErrEmptyReply   = errors.New("reply is empty")
	ErrNotJSON      = errors.New("reply is not a JSON array or object")
	ErrNoProducts   = errors.New("reply contains no products")
	ErrMissingField = errors.New("missing field")
)

// Parser turns model reply text into validated products. It never evaluates
// the reply: anything encoding/json can't decode into the expected shape is an
// error, and one bad record rejects the whole reply.
type Parser struct {
	validate    *validator.Validate
	count       int
	strictCount bool
}

func NewParser(count int, strictCount bool) *Parser {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Parser{
		validate:    v,
		count:       count,
		strictCount: strictCount,
	}
}

// candidate mirrors model.Product with pointers so absent keys and explicit
// nulls are told apart from zero values. Keys match case-insensitively.
type candidate struct {
	Name     *string   `json:"name"`
	Brand    *string   `json:"brand"`
	Price    *float64  `json:"price"`
	Rating   *float64  `json:"rating"`
	Features *[]string `json:"features"`
}

func (p *Parser) Parse(reply string) ([]model.Product, error) {
	text := StripCodeFence(reply)
	if text == "" {
		return nil, ErrEmptyReply
	}

	records, err := extractRecords([]byte(text))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNoProducts
	}
	if p.strictCount && len(records) != p.count {
		return nil, fmt.Errorf("expected %d products, got %d", p.count, len(records))
	}

	products := make([]model.Product, 0, len(records))
	for i, raw := range records {
		product, err := p.toProduct(raw)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i+1, err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (p *Parser) toProduct(raw json.RawMessage) (model.Product, error) {
	var c candidate
	if err := decodeStrict(raw, &c); err != nil {
		return model.Product{}, err
	}

	switch {
	case c.Name == nil:
		return model.Product{}, fmt.Errorf("%w %q", ErrMissingField, "name")
	case c.Brand == nil:
		return model.Product{}, fmt.Errorf("%w %q", ErrMissingField, "brand")
	case c.Price == nil:
		return model.Product{}, fmt.Errorf("%w %q", ErrMissingField, "price")
	case c.Rating == nil:
		return model.Product{}, fmt.Errorf("%w %q", ErrMissingField, "rating")
	case c.Features == nil:
		return model.Product{}, fmt.Errorf("%w %q", ErrMissingField, "features")
	}

	product := model.Product{
		Name:     *c.Name,
		Brand:    *c.Brand,
		Price:    *c.Price,
		Rating:   *c.Rating,
		Features: *c.Features,
	}

	if err := p.validate.Struct(product); err != nil {
		return model.Product{}, describeValidation(err)
	}

	return product, nil
}

// StripCodeFence removes a surrounding markdown fence (```json ... ```),
// which chat models add despite being told not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// drop the opening fence line, including any language tag
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractRecords accepts either a bare array of products or an object with a
// "products" array.
func extractRecords(data []byte) ([]json.RawMessage, error) {
	switch data[0] {
	case '[':
		var records []json.RawMessage
		if err := decodeStrict(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
		}
		return records, nil
	case '{':
		var wrapper struct {
			Products *[]json.RawMessage `json:"products"`
		}
		if err := decodeStrict(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
		}
		if wrapper.Products == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingField, "products")
		}
		return *wrapper.Products, nil
	default:
		return nil, ErrNotJSON
	}
}

// decodeStrict decodes exactly one JSON value and rejects trailing content.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after JSON value")
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s must not be empty", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
