package anthropic

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
)

// CachedSystem wraps a system prompt in a single block with a cache
// breakpoint. Stages that send one request per item reuse the same
// prompt, so later requests read it from the cache.
func CachedSystem(text string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: "5m"},
	}}
}

// Temperature returns a pointer for MessageRequest.Temperature.
func Temperature(t float64) *float64 { return &t }

// Prompt is a single-turn request template: a fixed system prompt plus
// one JSON user message per call. Safe for concurrent use.
type Prompt struct {
	Client      Client
	Model       string
	MaxTokens   int64
	System      string
	Stage       string
	Temperature *float64

	// OnUsage, when set, receives the usage of every successful call.
	OnUsage func(stage string, u TokenUsage)

	mu    sync.Mutex
	total TokenUsage
}

// AskJSON encodes input as the user turn and returns the reply text.
func (p *Prompt) AskJSON(ctx context.Context, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", eris.Wrapf(err, "anthropic: %s: marshal input", p.Stage)
	}

	resp, err := p.Client.CreateMessage(ctx, MessageRequest{
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		System:      CachedSystem(p.System),
		Messages:    []Message{{Role: "user", Content: string(payload)}},
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.total.Add(resp.Usage)
	p.mu.Unlock()

	resp.Usage.LogCost(p.Model, p.Stage)
	if p.OnUsage != nil {
		p.OnUsage(p.Stage, resp.Usage)
	}
	return resp.Text(), nil
}

// Total returns the usage accumulated across all calls so far.
func (p *Prompt) Total() TokenUsage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
