package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/extract"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/internal/vault"
)

// Stage names in run order.
const (
	StageExtract   = "extract"
	StageClassify  = "classify"
	StageAggregate = "aggregate"
	StageAnnotate  = "annotate"
)

// Paths locates every dataset a run reads or writes.
type Paths struct {
	Documents  string
	Candidates string
	Products   string
	Master     string
	Usage      string
	Side       SidePaths
}

// PathsFromConfig resolves dataset paths against the vault data directory.
func PathsFromConfig(cfg config.VaultConfig) Paths {
	return Paths{
		Documents:  cfg.Path(cfg.Files.Documents),
		Candidates: cfg.Path(cfg.Files.Candidates),
		Products:   cfg.Path(cfg.Files.Products),
		Master:     cfg.Path(cfg.Files.Master),
		Usage:      cfg.Path(cfg.Files.Usage),
		Side: SidePaths{
			Resale:   cfg.Path(cfg.Files.Resale),
			History:  cfg.Path(cfg.Files.History),
			Calendar: cfg.Path(cfg.Files.Calendar),
			Driver:   cfg.Path(cfg.Files.Driver),
		},
	}
}

// Env carries the collaborators stages are built from.
type Env struct {
	Vault      *vault.Vault
	Paths      Paths
	Engine     *extract.Engine
	Classifier Classifier
	Decider    Decider
}

// DefaultStages returns the full run: extract, classify, aggregate, annotate.
func DefaultStages(env Env) []Stage {
	return []Stage{
		ExtractStage(env),
		ClassifyStage(env),
		AggregateStage(env),
		AnnotateStage(env),
	}
}

// SelectStages returns the named stages from all in their original order.
// An unknown name is an error.
func SelectStages(all []Stage, names []string) ([]Stage, error) {
	if len(names) == 0 {
		return all, nil
	}
	known := make(map[string]bool, len(all))
	for _, s := range all {
		known[s.Name] = true
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			return nil, eris.Errorf("pipeline: unknown stage %q", n)
		}
		want[n] = true
	}
	var out []Stage
	for _, s := range all {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

// ExtractStage reads raw documents and writes the flattened candidates.
func ExtractStage(env Env) Stage {
	return Stage{Name: StageExtract, Run: func(_ context.Context) (map[string]int, error) {
		var docs []model.RawDocument
		if err := env.Vault.Load(env.Paths.Documents, &docs); err != nil {
			return nil, eris.Wrap(err, "extract: load documents")
		}

		cands, stats := env.Engine.ExtractAll(docs)
		for name, n := range stats.Strategies {
			monitoring.ExtractedCandidates.WithLabelValues(name).Add(float64(n))
		}
		if cands == nil {
			cands = []model.Candidate{}
		}
		if err := env.Vault.Save(cands, env.Paths.Candidates); err != nil {
			return nil, eris.Wrap(err, "extract: save candidates")
		}
		return stats.Counts(), nil
	}}
}

// ClassifyStage dedupes candidates, filters them through the classifier
// and writes the products with ids assigned. A classifier failure fails
// the whole batch.
func ClassifyStage(env Env) Stage {
	return Stage{Name: StageClassify, Run: func(ctx context.Context) (map[string]int, error) {
		var cands []model.Candidate
		if err := env.Vault.Load(env.Paths.Candidates, &cands); err != nil {
			return nil, eris.Wrap(err, "classify: load candidates")
		}

		unique := Dedupe(cands)
		kept, err := env.Classifier.Classify(ctx, unique)
		if err != nil {
			return nil, err
		}
		products := AssignIDs(kept)
		if err := env.Vault.Save(products, env.Paths.Products); err != nil {
			return nil, eris.Wrap(err, "classify: save products")
		}
		return map[string]int{
			"candidates": len(cands),
			"unique":     len(unique),
			"products":   len(products),
		}, nil
	}}
}

// AggregateStage joins the products with the side-datasets and writes the
// master dataset.
func AggregateStage(env Env) Stage {
	return Stage{Name: StageAggregate, Run: func(_ context.Context) (map[string]int, error) {
		var products []model.Product
		if err := env.Vault.Load(env.Paths.Products, &products); err != nil {
			return nil, eris.Wrap(err, "aggregate: load products")
		}
		side, err := LoadSideData(env.Vault, env.Paths.Side)
		if err != nil {
			return nil, err
		}

		master := Aggregate(products, side)
		if err := env.Vault.Save(master, env.Paths.Master); err != nil {
			return nil, eris.Wrap(err, "aggregate: save master")
		}
		counts := map[string]int{
			"records":  len(master.Products),
			"resale":   len(side.Resale),
			"history":  len(side.History),
			"calendar": len(side.Calendar),
		}
		if side.Driver != nil {
			counts["driver"] = 1
		}
		return counts, nil
	}}
}

// AnnotateStage attaches a status and reasoning to every master record and
// writes the usage dataset.
func AnnotateStage(env Env) Stage {
	return Stage{Name: StageAnnotate, Run: func(ctx context.Context) (map[string]int, error) {
		var master model.MasterDataset
		if err := env.Vault.Load(env.Paths.Master, &master); err != nil {
			return nil, eris.Wrap(err, "annotate: load master")
		}
		var reasoning []model.ResaleEntry
		if env.Paths.Side.Resale != "" {
			if _, err := env.Vault.LoadOptional(env.Paths.Side.Resale, &reasoning); err != nil {
				return nil, eris.Wrap(err, "annotate: load reasoning")
			}
		}

		annotated, counts := Annotate(ctx, master, env.Decider, reasoning)
		if err := env.Vault.Save(annotated, env.Paths.Usage); err != nil {
			return nil, eris.Wrap(err, "annotate: save usage")
		}
		return counts, nil
	}}
}
