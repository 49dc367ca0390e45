package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/pkg/anthropic"
)

// ErrMalformedResponse is returned when a model reply cannot be parsed
// into the expected shape.
var ErrMalformedResponse = eris.New("pipeline: malformed response")

const classifySystemPrompt = `You filter purchase records. Keep only items that are electronic or need power to operate (phones, laptops, tablets, headphones, speakers, cameras, appliances).

Drop:
- protective accessories such as cases, covers, screen guards and skins
- cables, chargers and power adapters
- non-electronic goods such as clothing, books and groceries

You receive a JSON array of objects with keys itemname, price, purchase_date and platform. Respond with a JSON array containing only the kept objects, unchanged and in their original order. Respond with the array and nothing else.`

// Classifier keeps the candidates that describe electronic or powered
// items. The order of the returned list determines product ids.
type Classifier interface {
	Classify(ctx context.Context, cands []model.Candidate) ([]model.Candidate, error)
}

// LLMClassifier classifies candidates with a single Anthropic request.
type LLMClassifier struct {
	prompt *anthropic.Prompt
}

// NewLLMClassifier creates a classifier backed by the Anthropic API.
func NewLLMClassifier(client anthropic.Client, cfg config.AnthropicConfig) *LLMClassifier {
	return &LLMClassifier{prompt: &anthropic.Prompt{
		Client:      client,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		System:      classifySystemPrompt,
		Stage:       StageClassify,
		Temperature: anthropic.Temperature(0),
		OnUsage:     monitoring.ObserveUsage,
	}}
}

// Classify sends the whole batch in one request. A reply that is not a
// JSON array, or that holds a record which was not sent, fails the batch
// with ErrMalformedResponse; nothing is retried.
func (c *LLMClassifier) Classify(ctx context.Context, cands []model.Candidate) ([]model.Candidate, error) {
	if len(cands) == 0 {
		return []model.Candidate{}, nil
	}

	text, err := c.prompt.AskJSON(ctx, cands)
	if err != nil {
		return nil, eris.Wrap(err, "classify: create message")
	}

	kept, err := parseCandidateArray(text)
	if err != nil {
		return nil, err
	}
	if err := checkSubset(cands, kept); err != nil {
		return nil, err
	}
	zap.L().Info("classify: complete", zap.Int("sent", len(cands)), zap.Int("kept", len(kept)))
	return kept, nil
}

func parseCandidateArray(text string) ([]model.Candidate, error) {
	text = anthropic.StripFences(text)
	if !strings.HasPrefix(text, "[") {
		return nil, eris.Wrap(ErrMalformedResponse, "classify: reply is not a JSON array")
	}
	var out []model.Candidate
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "classify: decode reply: %v", err)
	}
	if out == nil {
		out = []model.Candidate{}
	}
	return out, nil
}

// checkSubset rejects a reply containing any record whose identity key is
// not among the records sent.
func checkSubset(sent, kept []model.Candidate) error {
	known := make(map[model.DedupKey]struct{}, len(sent))
	for _, c := range sent {
		known[c.Key()] = struct{}{}
	}
	for i, c := range kept {
		if _, ok := known[c.Key()]; !ok {
			return eris.Wrapf(ErrMalformedResponse, "classify: reply record %d was not in the request", i)
		}
	}
	return nil
}

// AssignIDs numbers products 1..N in the given order.
func AssignIDs(cands []model.Candidate) []model.Product {
	products := make([]model.Product, len(cands))
	for i, c := range cands {
		products[i] = model.Product{ID: i + 1, Candidate: c}
	}
	return products
}
