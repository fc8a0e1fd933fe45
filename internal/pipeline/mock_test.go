package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/clearterms/contract-cli/pkg/anthropic"
	"github.com/clearterms/contract-cli/pkg/gcal"
	"github.com/clearterms/contract-cli/pkg/perplexity"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse builds a single-block text response with the given usage.
func textResponse(text string, in, out int64) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: in, OutputTokens: out},
	}
}

// withSystem matches a CreateMessage request whose system prompt is exactly s.
func withSystem(s string) any {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.System == s
	})
}

// --- Perplexity Mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *mockSearchClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

// --- Mailer Mock ---

type mockMailerClient struct {
	mock.Mock
}

func (m *mockMailerClient) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

// --- Calendar Mock ---

type mockCalendarClient struct {
	mock.Mock
}

func (m *mockCalendarClient) CreateEvent(ctx context.Context, ev gcal.Event) (gcal.EventStatus, error) {
	args := m.Called(ctx, ev)
	return args.Get(0).(gcal.EventStatus), args.Error(1)
}
