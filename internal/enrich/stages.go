package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/pipeline"
	"github.com/sells-group/resale-cli/internal/vault"
)

// Stage names in run order.
const (
	StageValue    = "value"
	StageContext  = "context"
	StageCalendar = "calendar"
)

// Paths locates the datasets enrichment reads and writes.
type Paths struct {
	Products string
	Resale   string
	Contexts string
	Events   string
	Calendar string
}

// PathsFromConfig resolves enrichment paths against the vault data directory.
func PathsFromConfig(cfg config.VaultConfig) Paths {
	return Paths{
		Products: cfg.Path(cfg.Files.Products),
		Resale:   cfg.Path(cfg.Files.Resale),
		Contexts: cfg.Path(cfg.Files.Contexts),
		Events:   cfg.Path(cfg.Files.Events),
		Calendar: cfg.Path(cfg.Files.Calendar),
	}
}

// Env carries the collaborators enrichment stages are built from.
type Env struct {
	Vault          *vault.Vault
	Paths          Paths
	Valuer         *Valuer
	Contextualizer *Contextualizer
}

// Stages returns value, context and calendar in run order.
func Stages(env Env) []pipeline.Stage {
	return []pipeline.Stage{
		ValueStage(env),
		ContextStage(env),
		CalendarStage(env),
	}
}

func loadProducts(v *vault.Vault, path string) ([]model.Product, error) {
	var products []model.Product
	if err := v.Load(path, &products); err != nil {
		return nil, eris.Wrap(err, "enrich: load products")
	}
	return products, nil
}

// ValueStage writes the resale valuation dataset.
func ValueStage(env Env) pipeline.Stage {
	return pipeline.Stage{Name: StageValue, Run: func(ctx context.Context) (map[string]int, error) {
		products, err := loadProducts(env.Vault, env.Paths.Products)
		if err != nil {
			return nil, err
		}
		entries, err := env.Valuer.Value(ctx, products)
		if err != nil {
			return nil, err
		}
		if err := env.Vault.Save(entries, env.Paths.Resale); err != nil {
			return nil, eris.Wrap(err, "value: save resale dataset")
		}
		return map[string]int{
			"products": len(products),
			"valued":   len(entries),
			"skipped":  len(products) - len(entries),
		}, nil
	}}
}

// ContextStage writes the product context dataset used for history and
// calendar matching.
func ContextStage(env Env) pipeline.Stage {
	return pipeline.Stage{Name: StageContext, Run: func(ctx context.Context) (map[string]int, error) {
		products, err := loadProducts(env.Vault, env.Paths.Products)
		if err != nil {
			return nil, err
		}
		contexts, err := env.Contextualizer.Contextualize(ctx, products)
		if err != nil {
			return nil, err
		}
		if err := env.Vault.Save(contexts, env.Paths.Contexts); err != nil {
			return nil, eris.Wrap(err, "context: save contexts")
		}
		return map[string]int{
			"products": len(products),
			"contexts": len(contexts),
			"skipped":  len(products) - len(contexts),
		}, nil
	}}
}

// CalendarStage matches calendar events against product contexts and
// writes the calendar dataset. A missing events file yields null dates.
func CalendarStage(env Env) pipeline.Stage {
	return pipeline.Stage{Name: StageCalendar, Run: func(_ context.Context) (map[string]int, error) {
		var contexts []model.ProductContext
		if err := env.Vault.Load(env.Paths.Contexts, &contexts); err != nil {
			return nil, eris.Wrap(err, "calendar: load contexts")
		}
		var events []model.CalendarEvent
		if _, err := env.Vault.LoadOptional(env.Paths.Events, &events); err != nil {
			return nil, eris.Wrap(err, "calendar: load events")
		}

		entries := LastMentioned(events, contexts)
		if err := env.Vault.Save(entries, env.Paths.Calendar); err != nil {
			return nil, eris.Wrap(err, "calendar: save calendar dataset")
		}
		matched := 0
		for _, e := range entries {
			if e.LastMentioned != nil {
				matched++
			}
		}
		return map[string]int{
			"events":   len(events),
			"contexts": len(contexts),
			"matched":  matched,
		}, nil
	}}
}
