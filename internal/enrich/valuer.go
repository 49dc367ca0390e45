// Package enrich produces the side-datasets joined onto products: resale
// valuations, product contexts, calendar mentions and browsing-history
// matches.
package enrich

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/pkg/anthropic"
)

const valuationSystemPrompt = `You are a resale valuation assistant for the Indian second-hand market (OLX, Cashify, Quikr).

Estimate a realistic and conservative resale price range in INR for the product you are given, using its name, original price, purchase date and platform.

Guidelines:
- Electronics depreciate fast: a steep drop in the first 1-3 years, flattening after 5 years.
- Flagship brands retain value better than mid-range ones.
- Classified listings price lower than trade-in platforms.
- Prefer the lower safe bracket over overpricing.
- Confidence reflects demand: "high", "medium" or "low".

Respond with a single JSON object and nothing else:
{"id": <product id>, "itemname": "<name>", "price_range": "X to Y INR", "confidence": "high|medium|low", "reasoning": "<one line>"}`

var validConfidence = map[string]bool{"high": true, "medium": true, "low": true}

// Valuer estimates resale price ranges with the Anthropic API.
type Valuer struct {
	prompt      *anthropic.Prompt
	concurrency int
	limiter     *rate.Limiter
}

// NewValuer creates a Valuer. Requests are bounded by the configured
// concurrency and rate.
func NewValuer(client anthropic.Client, acfg config.AnthropicConfig, pcfg config.PipelineConfig) *Valuer {
	concurrency := pcfg.ValuationConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if pcfg.ValuationRPS > 0 {
		limit = rate.Limit(pcfg.ValuationRPS)
	}
	return &Valuer{
		prompt: &anthropic.Prompt{
			Client:    client,
			Model:     acfg.Model,
			MaxTokens: acfg.MaxTokens,
			System:    valuationSystemPrompt,
			Stage:     StageValue,
			OnUsage:   monitoring.ObserveUsage,
		},
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, concurrency),
	}
}

// Value returns one entry per product whose valuation parsed, in product
// order. Items that fail are skipped with a warning; only context
// cancellation fails the call.
func (v *Valuer) Value(ctx context.Context, products []model.Product) ([]model.ResaleEntry, error) {
	results := make([]*model.ResaleEntry, len(products))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i, p := range products {
		g.Go(func() error {
			if err := v.limiter.Wait(gctx); err != nil {
				return eris.Wrap(err, "value: rate limit wait")
			}
			entry, err := v.valueOne(gctx, p)
			if err != nil {
				skipped.Add(1)
				zap.L().Warn("value: skipping product", zap.Int("id", p.ID), zap.Error(err))
				return nil
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ResaleEntry, 0, len(products))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	zap.L().Info("value: complete",
		zap.Int("products", len(products)),
		zap.Int("valued", len(out)),
		zap.Int64("skipped", skipped.Load()),
		zap.Int64("input_tokens", v.prompt.Total().InputTokens),
	)
	return out, nil
}

func (v *Valuer) valueOne(ctx context.Context, p model.Product) (*model.ResaleEntry, error) {
	text, err := v.prompt.AskJSON(ctx, p)
	if err != nil {
		return nil, eris.Wrap(err, "value: create message")
	}
	return parseValuation(text, p)
}

func parseValuation(text string, p model.Product) (*model.ResaleEntry, error) {
	var entry model.ResaleEntry
	if err := json.Unmarshal([]byte(anthropic.JSONObject(text)), &entry); err != nil {
		return nil, eris.Wrap(err, "value: decode reply")
	}
	if entry.PriceRange == nil || strings.TrimSpace(*entry.PriceRange) == "" {
		return nil, eris.New("value: reply has no price_range")
	}
	if entry.Confidence == nil {
		return nil, eris.New("value: reply has no confidence")
	}
	conf := model.FlexString(strings.ToLower(strings.TrimSpace(entry.Confidence.String())))
	if !validConfidence[conf.String()] {
		return nil, eris.Errorf("value: unknown confidence %q", entry.Confidence.String())
	}

	// The join key always comes from the product, never from the model.
	entry.ID = model.FlexString(model.IDString(p.ID))
	entry.Confidence = &conf
	if entry.ItemName == nil {
		entry.ItemName = p.ItemName
	}
	return &entry, nil
}
