// Package groq performs chat completions against Groq's OpenAI-compatible
// endpoint.
package groq

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// Client performs chat completions.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// ChatCompletionRequest is a single completion call. An empty Model uses
// the client's model.
type ChatCompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string
	Content string
}

// ChatCompletionResponse holds the first choice of a completion.
type ChatCompletionResponse struct {
	ID      string
	Content string
	Usage   Usage
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Option configures the client.
type Option func(*options)

type options struct {
	baseURL string
	model   string
	http    *http.Client
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.http = hc
	}
}

type openaiClient struct {
	client *openai.Client
	model  string
}

// NewClient creates a Groq client backed by go-openai.
func NewClient(apiKey string, opts ...Option) Client {
	o := &options{baseURL: defaultBaseURL, model: defaultModel}
	for _, opt := range opts {
		opt(o)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = o.baseURL
	if o.http != nil {
		cfg.HTTPClient = o.http
	}
	return &openaiClient{client: openai.NewClientWithConfig(cfg), model: o.model}
}

func (c *openaiClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "groq: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("groq: response has no choices")
	}

	return &ChatCompletionResponse{
		ID:      resp.ID,
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
