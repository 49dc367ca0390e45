package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/pkg/anthropic"
)

// Decision is the disposition returned for one master record.
type Decision struct {
	ID     int          `json:"id"`
	Status model.Status `json:"status"`
}

// Decider assigns a usage status to a master record given the driver log.
type Decider interface {
	Decide(ctx context.Context, rec model.MasterRecord, driver model.DriverLog) (*Decision, error)
}

const decideSystemPrompt = `You decide whether a purchased electronic item is still in use or should be resold.

Rules:
- Recent device-driver activity for the item means it is in use: "in_use".
- Repair or fix keywords in browsing history or calendar text mean it is a resale candidate: "resell_candidate".
- An old purchase with no usage signal is a resale candidate: "resell_candidate".
- Otherwise answer "uncertain".

You receive a JSON object with the item under "product" and the device-driver log under "driver_history". Respond with a single JSON object {"id": <item id>, "status": "<status>"} and nothing else.`

// LLMDecider asks the Anthropic API for one decision per record.
type LLMDecider struct {
	prompt *anthropic.Prompt
}

// NewLLMDecider creates a decider backed by the Anthropic API.
func NewLLMDecider(client anthropic.Client, cfg config.AnthropicConfig) *LLMDecider {
	return &LLMDecider{prompt: &anthropic.Prompt{
		Client:      client,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		System:      decideSystemPrompt,
		Stage:       StageAnnotate,
		Temperature: anthropic.Temperature(0),
		OnUsage:     monitoring.ObserveUsage,
	}}
}

type decideInput struct {
	Product       model.MasterRecord `json:"product"`
	DriverHistory model.DriverLog    `json:"driver_history"`
}

// Decide returns an error for an empty reply, a reply that does not decode,
// an unknown status, or a reply naming a different id.
func (d *LLMDecider) Decide(ctx context.Context, rec model.MasterRecord, driver model.DriverLog) (*Decision, error) {
	if driver == nil {
		driver = model.DriverLog("null")
	}
	text, err := d.prompt.AskJSON(ctx, decideInput{Product: rec, DriverHistory: driver})
	if err != nil {
		return nil, eris.Wrapf(err, "annotate: decide id %d", rec.ID)
	}
	return parseDecision(text, rec.ID)
}

func parseDecision(text string, wantID int) (*Decision, error) {
	text = anthropic.JSONObject(text)
	if text == "" {
		return nil, eris.Wrap(ErrMalformedResponse, "annotate: empty reply")
	}

	var raw struct {
		ID     *json.Number `json:"id"`
		Status string       `json:"status"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "annotate: decode reply: %v", err)
	}
	if raw.ID == nil {
		return nil, eris.Wrap(ErrMalformedResponse, "annotate: reply has no id")
	}
	id, err := raw.ID.Int64()
	if err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "annotate: non-integer id %s", raw.ID.String())
	}
	if int(id) != wantID {
		return nil, eris.Wrapf(ErrMalformedResponse, "annotate: reply id %d does not match %d", id, wantID)
	}
	status, err := model.ParseStatus(raw.Status)
	if err != nil {
		return nil, eris.Wrap(ErrMalformedResponse, "annotate: "+err.Error())
	}
	return &Decision{ID: wantID, Status: status}, nil
}

// checkDecision holds any Decider to the same contract LLMDecider enforces.
func checkDecision(dec Decision, wantID int) error {
	if dec.ID != wantID {
		return eris.Errorf("annotate: decision for id %d, want %d", dec.ID, wantID)
	}
	if _, err := model.ParseStatus(string(dec.Status)); err != nil {
		return eris.Wrap(err, "annotate: decision status")
	}
	return nil
}

// Annotate assigns a status to every record, one at a time. Any decider
// failure resolves the record to uncertain and the batch continues.
// Reasoning strings are then copied from the resale entries by id. The
// input dataset is not modified.
func Annotate(ctx context.Context, ds model.MasterDataset, decider Decider, reasoning []model.ResaleEntry) (model.MasterDataset, map[string]int) {
	log := zap.L()
	out := model.MasterDataset{
		Products:      make([]model.MasterRecord, len(ds.Products)),
		DriverHistory: ds.DriverHistory,
	}
	copy(out.Products, ds.Products)

	counts := map[string]int{"records": len(out.Products)}
	for i := range out.Products {
		rec := &out.Products[i]
		status := model.StatusUncertain

		if err := ctx.Err(); err != nil {
			log.Warn("annotate: context done, defaulting to uncertain", zap.Int("id", rec.ID), zap.Error(err))
		} else if dec, err := decider.Decide(ctx, *rec, ds.DriverHistory); err != nil {
			counts["decider_errors"]++
			log.Warn("annotate: decision failed, defaulting to uncertain", zap.Int("id", rec.ID), zap.Error(err))
		} else if dec == nil {
			counts["decider_errors"]++
			log.Warn("annotate: empty decision, defaulting to uncertain", zap.Int("id", rec.ID))
		} else if err := checkDecision(*dec, rec.ID); err != nil {
			counts["decider_errors"]++
			log.Warn("annotate: invalid decision, defaulting to uncertain", zap.Int("id", rec.ID), zap.Error(err))
		} else {
			status = dec.Status
		}

		rec.Status = status
		counts["status_"+string(status)]++
		monitoring.StatusAssigned.WithLabelValues(string(status)).Inc()
	}

	byID := make(map[string]*string, len(reasoning))
	for _, r := range reasoning {
		if r.Reasoning != nil {
			byID[r.ID.String()] = r.Reasoning
		}
	}
	for i := range out.Products {
		if text, ok := byID[model.IDString(out.Products[i].ID)]; ok {
			out.Products[i].Reasoning = text
			counts["reasoning"]++
		}
	}

	log.Info("annotate: complete",
		zap.Int("records", len(out.Products)),
		zap.Int("decider_errors", counts["decider_errors"]),
	)
	return out, counts
}
