package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/resale-cli/internal/enrich"
	"github.com/sells-group/resale-cli/internal/extract"
	"github.com/sells-group/resale-cli/internal/pipeline"
	"github.com/sells-group/resale-cli/internal/vault"
	"github.com/sells-group/resale-cli/pkg/anthropic"
	"github.com/sells-group/resale-cli/pkg/groq"
)

func openVault() (*vault.Vault, error) {
	return vault.New(cfg.Vault.Secret)
}

func buildEngine() (*extract.Engine, error) {
	if cfg.Pipeline.OriginsFile == "" {
		return extract.NewEngine(nil), nil
	}
	origins, err := extract.LoadOrigins(cfg.Pipeline.OriginsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load origins")
	}
	return extract.NewEngine(origins), nil
}

// pipelineEnv wires the extraction and consolidation stages from config.
func pipelineEnv() (pipeline.Env, error) {
	v, err := openVault()
	if err != nil {
		return pipeline.Env{}, err
	}
	engine, err := buildEngine()
	if err != nil {
		return pipeline.Env{}, err
	}
	ai := anthropic.NewClient(cfg.Anthropic.Key)
	return pipeline.Env{
		Vault:      v,
		Paths:      pipeline.PathsFromConfig(cfg.Vault),
		Engine:     engine,
		Classifier: pipeline.NewLLMClassifier(ai, cfg.Anthropic),
		Decider:    pipeline.NewLLMDecider(ai, cfg.Anthropic),
	}, nil
}

// enrichEnv wires the side-dataset stages from config.
func enrichEnv() (enrich.Env, error) {
	v, err := openVault()
	if err != nil {
		return enrich.Env{}, err
	}
	ai := anthropic.NewClient(cfg.Anthropic.Key)
	gq := groq.NewClient(cfg.Groq.Key, groq.WithBaseURL(cfg.Groq.BaseURL), groq.WithModel(cfg.Groq.Model))
	return enrich.Env{
		Vault:          v,
		Paths:          enrich.PathsFromConfig(cfg.Vault),
		Valuer:         enrich.NewValuer(ai, cfg.Anthropic, cfg.Pipeline),
		Contextualizer: enrich.NewContextualizer(gq),
	}, nil
}
