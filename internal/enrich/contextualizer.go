package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/pkg/anthropic"
	"github.com/sells-group/resale-cli/pkg/groq"
)

const contextPrompt = `Given this item metadata:
%s

Generate:
1. A canonical product name
2. A list of aliases and common names this product might be referred to as
3. A list of usage context keywords: verbs, tasks and related software that indicate how people commonly use this item

Respond with a single JSON object with keys id, price, canonical_name, aliases, context_keywords and nothing else.`

// Contextualizer generates canonical names, aliases and usage keywords
// for products through the Groq API.
type Contextualizer struct {
	client groq.Client
}

// NewContextualizer creates a Contextualizer.
func NewContextualizer(client groq.Client) *Contextualizer {
	return &Contextualizer{client: client}
}

type contextInput struct {
	ID           int     `json:"id"`
	Price        *int    `json:"price"`
	Item         *string `json:"item"`
	PurchaseDate *string `json:"purchase_date"`
}

// Contextualize requests a context for each product in order. Products
// whose reply fails to parse are skipped; a transport error is also
// skipped so one bad item does not lose the rest.
func (c *Contextualizer) Contextualize(ctx context.Context, products []model.Product) ([]model.ProductContext, error) {
	out := make([]model.ProductContext, 0, len(products))
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "context: cancelled")
		}
		pc, err := c.contextOne(ctx, p)
		if err != nil {
			zap.L().Warn("context: skipping product", zap.Int("id", p.ID), zap.Error(err))
			continue
		}
		out = append(out, *pc)
	}
	zap.L().Info("context: complete", zap.Int("products", len(products)), zap.Int("contexts", len(out)))
	return out, nil
}

func (c *Contextualizer) contextOne(ctx context.Context, p model.Product) (*model.ProductContext, error) {
	meta, err := json.MarshalIndent(contextInput{
		ID:           p.ID,
		Price:        p.Price,
		Item:         p.ItemName,
		PurchaseDate: p.PurchaseDate,
	}, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "context: marshal product")
	}

	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Messages:    []groq.Message{{Role: "user", Content: fmt.Sprintf(contextPrompt, meta)}},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}
	monitoring.ObserveTokens("context", int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))

	var pc model.ProductContext
	if err := json.Unmarshal([]byte(anthropic.JSONObject(resp.Content)), &pc); err != nil {
		return nil, eris.Wrap(err, "context: decode reply")
	}
	if strings.TrimSpace(pc.CanonicalName) == "" && len(pc.Aliases) == 0 && len(pc.ContextKeywords) == 0 {
		return nil, eris.New("context: reply has no terms")
	}
	pc.ID = model.FlexString(model.IDString(p.ID))
	if p.Price != nil {
		pc.Price = model.FlexString(model.IDString(*p.Price))
	}
	return &pc, nil
}
