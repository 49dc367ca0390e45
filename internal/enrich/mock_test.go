package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/vault"
	"github.com/sells-group/resale-cli/pkg/anthropic"
	"github.com/sells-group/resale-cli/pkg/groq"
)

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

type mockGroqClient struct {
	mock.Mock
}

func (m *mockGroqClient) ChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groq.ChatCompletionResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

// forProduct matches a request whose user message carries the given item name.
func forProduct(name string) any {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && strings.Contains(req.Messages[0].Content, name)
	})
}

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New("test-secret")
	require.NoError(t, err)
	return v
}

func product(id int, name string, price int) model.Product {
	return model.Product{ID: id, Candidate: model.Candidate{
		ItemName:     model.Ptr(name),
		Price:        model.Ptr(price),
		PurchaseDate: model.Ptr("2023-01-15"),
		Platform:     "amazon",
	}}
}
