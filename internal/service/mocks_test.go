package service_test

import (
	"context"
	"sync"

	"basegraph.app/recommender/common/llm"
)

type mockLLMClient struct {
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)

	mu       sync.Mutex
	requests []llm.Request
}

func (m *mockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return &llm.Response{Content: "[]"}, nil
}

func (m *mockLLMClient) Model() string {
	return "stub-model"
}

func (m *mockLLMClient) Provider() string {
	return "stub"
}

func (m *mockLLMClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockLLMClient) lastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// reply returns a completeFn answering with a fixed reply text.
func reply(content string) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content, FinishReason: "stop"}, nil
	}
}
