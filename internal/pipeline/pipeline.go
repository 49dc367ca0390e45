// Package pipeline turns extracted purchase candidates into the annotated
// master dataset: dedupe, classification, side-data join, and status
// annotation, run as an ordered list of stages.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/internal/store"
)

// Stage is one run-to-completion step. Run returns counts recorded in the
// run ledger.
type Stage struct {
	Name string
	Run  func(ctx context.Context) (map[string]int, error)
}

// Result summarizes one pipeline run.
type Result struct {
	RunID  string              `json:"run_id,omitempty"`
	Stages []model.StageResult `json:"stages"`
	Failed string              `json:"failed,omitempty"`
}

// Pipeline runs stages sequentially and records them in the run ledger.
// A nil store disables ledger recording.
type Pipeline struct {
	store store.Store
}

// New creates a Pipeline.
func New(st store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// Run executes stages in order and stops at the first failure. The
// returned error names the failed stage. Ledger write failures are logged
// and never fail the run.
func (p *Pipeline) Run(ctx context.Context, stages []Stage) (*Result, error) {
	log := zap.L()
	result := &Result{}

	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}

	var run *model.Run
	if p.store != nil {
		r, err := p.store.CreateRun(ctx, names)
		if err != nil {
			log.Warn("pipeline: failed to create run", zap.Error(err))
		} else {
			run = r
			result.RunID = r.ID
		}
	}

	trackStage := func(s Stage) error {
		var stageRow *model.RunStage
		if run != nil {
			row, err := p.store.CreateStage(ctx, run.ID, s.Name)
			if err != nil {
				log.Warn("pipeline: failed to create stage", zap.String("stage", s.Name), zap.Error(err))
			}
			stageRow = row
		}

		start := time.Now()
		counts, fnErr := s.Run(ctx)
		elapsed := time.Since(start)

		sr := model.StageResult{
			Name:     s.Name,
			Duration: elapsed.Milliseconds(),
			Counts:   counts,
		}
		if fnErr != nil {
			sr.Status = model.StageStatusFailed
			sr.Error = fnErr.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", s.Name),
				zap.Int64("duration_ms", sr.Duration),
				zap.Error(fnErr),
			)
		} else {
			sr.Status = model.StageStatusComplete
			log.Info("pipeline: stage complete",
				zap.String("stage", s.Name),
				zap.Int64("duration_ms", sr.Duration),
				zap.Any("counts", counts),
			)
		}
		monitoring.ObserveStage(s.Name, string(sr.Status), elapsed)

		if stageRow != nil {
			if err := p.store.CompleteStage(ctx, stageRow.ID, &sr); err != nil {
				log.Warn("pipeline: failed to complete stage", zap.String("stage", s.Name), zap.Error(err))
			}
		}
		result.Stages = append(result.Stages, sr)
		return fnErr
	}

	var runErr error
	for _, s := range stages {
		if err := trackStage(s); err != nil {
			result.Failed = s.Name
			runErr = eris.Wrapf(err, "pipeline: stage %s", s.Name)
			break
		}
	}

	if run != nil {
		status, msg := model.RunStatusComplete, ""
		if runErr != nil {
			status, msg = model.RunStatusFailed, runErr.Error()
		}
		// The run context may already be cancelled; the ledger row should
		// still be closed out.
		finishCtx := context.WithoutCancel(ctx)
		if err := p.store.FinishRun(finishCtx, run.ID, status, result.Stages, msg); err != nil {
			log.Warn("pipeline: failed to finish run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	return result, runErr
}
