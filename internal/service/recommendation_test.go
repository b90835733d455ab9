package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/internal/model"
	"basegraph.app/recommender/internal/recommend"
	"basegraph.app/recommender/internal/service"
)

func productJSON(i int) string {
	return fmt.Sprintf(`{"name":"Shoe %d","brand":"Brand %d","price":%d.5,"rating":%d.0,"features":["feature %d"]}`, i, i, 80+i, i%6, i)
}

func fiveProducts() string {
	records := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		records = append(records, productJSON(i))
	}
	return "[" + strings.Join(records, ",") + "]"
}

var _ = Describe("RecommendationService", func() {
	var (
		ctx     context.Context
		client  *mockLLMClient
		svc     service.RecommendationService
		request model.RecommendationRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockLLMClient{}
		svc = service.NewRecommendationService(client, service.RecommendationConfig{
			Count:       5,
			MaxTokens:   1024,
			Temperature: llm.Temp(0.3),
			Timeout:     time.Second,
		})
		request = model.RecommendationRequest{
			ProductType:     "running shoes",
			UserPreferences: map[string]any{"budget": 100, "terrain": "trail"},
		}
	})

	Describe("Recommend", func() {
		Context("when the model returns five valid products", func() {
			It("returns them in the stub's order", func() {
				client.completeFn = reply(fiveProducts())

				rec, err := svc.Recommend(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Products).To(HaveLen(5))
				for i, p := range rec.Products {
					n := i + 1
					Expect(p).To(Equal(model.Product{
						Name:     fmt.Sprintf("Shoe %d", n),
						Brand:    fmt.Sprintf("Brand %d", n),
						Price:    float64(80+n) + 0.5,
						Rating:   float64(n % 6),
						Features: []string{fmt.Sprintf("feature %d", n)},
					}))
				}
			})

			It("sends the fixed system prompt, the built prompt and the reply schema", func() {
				client.completeFn = reply(fiveProducts())

				_, err := svc.Recommend(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(client.calls()).To(Equal(1))

				req := client.lastRequest()
				Expect(req.SystemPrompt).To(Equal(recommend.SystemPrompt))
				Expect(req.UserPrompt).To(ContainSubstring("Recommend 5 running shoes"))
				Expect(req.UserPrompt).To(ContainSubstring(`{"budget":100,"terrain":"trail"}`))
				Expect(req.Schema).NotTo(BeNil())
				Expect(req.Schema.Name).To(Equal("product_recommendations"))
				Expect(req.MaxTokens).To(Equal(1024))
				Expect(*req.Temperature).To(BeNumerically("~", 0.3))
			})

			It("trims the product type before prompting", func() {
				client.completeFn = reply(fiveProducts())
				request.ProductType = "  tents \n"

				_, err := svc.Recommend(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(client.lastRequest().UserPrompt).To(HavePrefix("Recommend 5 tents based on"))
			})

			It("accepts a long product type as is", func() {
				client.completeFn = reply(fiveProducts())
				request.ProductType = strings.Repeat("x", 500)

				rec, err := svc.Recommend(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Products).To(HaveLen(5))
				Expect(client.calls()).To(Equal(1))
				Expect(client.lastRequest().UserPrompt).To(ContainSubstring(request.ProductType))
			})
		})

		Context("when the request is invalid", func() {
			DescribeTable("fails with a validation error and never calls the model",
				func(mutate func(*model.RecommendationRequest), want error) {
					mutate(&request)

					rec, err := svc.Recommend(ctx, request)
					Expect(rec).To(BeNil())
					Expect(err).To(MatchError(want))

					kind, ok := service.KindOf(err)
					Expect(ok).To(BeTrue())
					Expect(kind).To(Equal(service.KindValidation))
					Expect(client.calls()).To(BeZero())
				},
				Entry("missing product type", func(r *model.RecommendationRequest) { r.ProductType = "" }, service.ErrProductTypeRequired),
				Entry("blank product type", func(r *model.RecommendationRequest) { r.ProductType = "   " }, service.ErrProductTypeRequired),
				Entry("nil preferences", func(r *model.RecommendationRequest) { r.UserPreferences = nil }, service.ErrPreferencesRequired),
				Entry("unserializable preferences", func(r *model.RecommendationRequest) {
					r.UserPreferences = map[string]any{"ch": make(chan int)}
				}, recommend.ErrUnserializablePreferences),
			)
		})

		Context("when the completion API fails", func() {
			It("returns an upstream error", func() {
				client.completeFn = func(context.Context, llm.Request) (*llm.Response, error) {
					return nil, errors.New("dial tcp: connection refused")
				}

				rec, err := svc.Recommend(ctx, request)
				Expect(rec).To(BeNil())
				Expect(err).To(MatchError(ContainSubstring("connection refused")))
				Expect(err).To(MatchError(ContainSubstring("provider unreachable")))

				kind, _ := service.KindOf(err)
				Expect(kind).To(Equal(service.KindUpstream))
				Expect(client.calls()).To(Equal(1))
			})

			It("bounds the call with the configured timeout", func() {
				client.completeFn = func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
					deadline, ok := ctx.Deadline()
					Expect(ok).To(BeTrue())
					Expect(time.Until(deadline)).To(BeNumerically("<=", time.Second))
					<-ctx.Done()
					return nil, fmt.Errorf("openai chat: %w", ctx.Err())
				}
				svc = service.NewRecommendationService(client, service.RecommendationConfig{
					Count:   5,
					Timeout: 20 * time.Millisecond,
				})

				_, err := svc.Recommend(ctx, request)
				Expect(err).To(MatchError(context.DeadlineExceeded))
				Expect(err).To(MatchError(ContainSubstring("request timed out")))

				kind, _ := service.KindOf(err)
				Expect(kind).To(Equal(service.KindUpstream))
			})

			It("stops when the caller cancels", func() {
				cancelled, cancel := context.WithCancel(ctx)
				cancel()
				client.completeFn = func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
					return nil, ctx.Err()
				}

				_, err := svc.Recommend(cancelled, request)
				Expect(err).To(MatchError(context.Canceled))
				kind, _ := service.KindOf(err)
				Expect(kind).To(Equal(service.KindUpstream))
			})
		})

		Context("when the reply is unusable", func() {
			DescribeTable("returns a parse error and no products",
				func(content string) {
					client.completeFn = reply(content)

					rec, err := svc.Recommend(ctx, request)
					Expect(rec).To(BeNil())
					Expect(err).To(HaveOccurred())

					kind, ok := service.KindOf(err)
					Expect(ok).To(BeTrue())
					Expect(kind).To(Equal(service.KindParse))
				},
				Entry("prose", "Sure! Here are some shoes you might like."),
				Entry("python literal", `[{'name': 'A'}]`),
				Entry("rating out of range", strings.Replace(fiveProducts(), `"rating":3.0`, `"rating":7.0`, 1)),
				Entry("non-numeric price", strings.Replace(fiveProducts(), `"price":82.5`, `"price":"cheap"`, 1)),
				Entry("empty", ""),
			)

			It("mentions truncation when the reply hit the token limit", func() {
				client.completeFn = func(context.Context, llm.Request) (*llm.Response, error) {
					return &llm.Response{Content: fiveProducts()[:50], FinishReason: "length"}, nil
				}

				_, err := svc.Recommend(ctx, request)
				Expect(err).To(MatchError(ContainSubstring("cut off at the token limit")))
				Expect(err).To(MatchError(recommend.ErrNotJSON))
			})
		})

		Context("with a strict count", func() {
			It("rejects replies with the wrong number of products", func() {
				svc = service.NewRecommendationService(client, service.RecommendationConfig{Count: 5, StrictCount: true})
				client.completeFn = reply("[" + productJSON(1) + "]")

				_, err := svc.Recommend(ctx, request)
				Expect(err).To(MatchError(ContainSubstring("expected 5 products, got 1")))
				kind, _ := service.KindOf(err)
				Expect(kind).To(Equal(service.KindParse))
			})
		})

		It("handles concurrent requests independently", func() {
			client.completeFn = func(_ context.Context, req llm.Request) (*llm.Response, error) {
				if strings.Contains(req.UserPrompt, "broken") {
					return &llm.Response{Content: "nope"}, nil
				}
				return &llm.Response{Content: fiveProducts()}, nil
			}

			var wg sync.WaitGroup
			errs := make([]error, 20)
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					req := request
					if i%2 == 0 {
						req.ProductType = "broken widgets"
					}
					_, errs[i] = svc.Recommend(ctx, req)
				}()
			}
			wg.Wait()

			for i, err := range errs {
				if i%2 == 0 {
					Expect(err).To(HaveOccurred())
				} else {
					Expect(err).NotTo(HaveOccurred())
				}
			}
			Expect(client.calls()).To(Equal(20))
		})
	})
})

var _ = Describe("ErrorKind", func() {
	DescribeTable("names each kind",
		func(kind service.ErrorKind, name string) {
			Expect(kind.String()).To(Equal(name))
		},
		Entry("validation", service.KindValidation, "validation"),
		Entry("upstream", service.KindUpstream, "upstream"),
		Entry("parse", service.KindParse, "response_parse"),
		Entry("unknown", service.ErrorKind(0), "unknown"),
	)

	It("is found through wrapping", func() {
		err := fmt.Errorf("handler: %w", service.UpstreamError(errors.New("boom")))
		kind, ok := service.KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(service.KindUpstream))
		Expect(err.Error()).To(Equal("handler: boom"))
	})

	It("is absent on plain errors", func() {
		_, ok := service.KindOf(errors.New("plain"))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Services", func() {
	It("builds a recommendation service from the shared client", func() {
		client := &mockLLMClient{completeFn: reply(fiveProducts())}
		services := service.NewServices(service.ServicesConfig{
			LLMClient:      client,
			Recommendation: service.RecommendationConfig{Count: 5},
		})

		rec, err := services.Recommendations().Recommend(context.Background(), model.RecommendationRequest{
			ProductType:     "tents",
			UserPreferences: map[string]any{},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Products).To(HaveLen(5))
	})
})
