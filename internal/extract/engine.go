// Package extract turns raw order-confirmation documents into purchase
// candidates using per-origin cascades of pattern strategies.
package extract

import (
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
)

// Engine resolves each document's origin and runs that origin's cascade.
type Engine struct {
	origins  []Origin
	cascades map[Style]Cascade
}

// NewEngine creates an engine over the given origin table. A nil table
// falls back to DefaultOrigins.
func NewEngine(origins []Origin) *Engine {
	if len(origins) == 0 {
		origins = DefaultOrigins()
	}
	return &Engine{
		origins: origins,
		cascades: map[Style]Cascade{
			StyleItemized: ItemizedCascade(),
			StyleInvoice:  InvoiceCascade(),
		},
	}
}

// Stats summarizes an ExtractAll call for the run ledger.
type Stats struct {
	Documents  int
	Unresolved int
	Empty      int
	Candidates int
	Strategies map[string]int
}

// Counts flattens the stats into ledger counters.
func (s Stats) Counts() map[string]int {
	out := map[string]int{
		"documents":  s.Documents,
		"unresolved": s.Unresolved,
		"empty":      s.Empty,
		"candidates": s.Candidates,
	}
	for name, n := range s.Strategies {
		out["strategy_"+name] = n
	}
	return out
}

// Extract normalizes one document and runs its origin's cascade. It
// returns the candidates and the name of the strategy that produced them.
// Documents from unknown senders yield nothing.
func (e *Engine) Extract(doc model.RawDocument) ([]model.Candidate, string) {
	origin, ok := Resolve(e.origins, doc.From)
	if !ok {
		zap.L().Debug("extract: unresolved origin", zap.String("from", doc.From), zap.String("subject", doc.Subject))
		return nil, ""
	}
	cascade, ok := e.cascades[origin.Style]
	if !ok {
		zap.L().Warn("extract: no cascade for style", zap.String("origin", origin.Name), zap.String("style", string(origin.Style)))
		return nil, ""
	}

	in := Input{
		Body:     CleanText(doc.Body),
		Subject:  doc.Subject,
		Date:     NormalizeDate(doc.Date),
		Platform: origin.Name,
	}
	found, strategy := cascade.Run(in)
	if len(found) == 0 {
		zap.L().Debug("extract: no strategy matched", zap.String("origin", origin.Name), zap.String("subject", doc.Subject))
	}
	return found, strategy
}

// ExtractAll extracts every document and flattens the candidates in
// document order.
func (e *Engine) ExtractAll(docs []model.RawDocument) ([]model.Candidate, Stats) {
	stats := Stats{Documents: len(docs), Strategies: make(map[string]int)}
	var all []model.Candidate
	for _, doc := range docs {
		if _, ok := Resolve(e.origins, doc.From); !ok {
			stats.Unresolved++
			continue
		}
		found, strategy := e.Extract(doc)
		if len(found) == 0 {
			stats.Empty++
			continue
		}
		stats.Strategies[strategy]++
		all = append(all, found...)
	}
	stats.Candidates = len(all)

	zap.L().Info("extract: complete",
		zap.Int("documents", stats.Documents),
		zap.Int("candidates", stats.Candidates),
		zap.Int("unresolved", stats.Unresolved),
		zap.Int("empty", stats.Empty),
	)
	return all, stats
}
