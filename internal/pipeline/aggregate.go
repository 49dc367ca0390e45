package pipeline

import (
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/vault"
)

// SideData holds the independently produced side-datasets joined onto the
// products. Every field is optional.
type SideData struct {
	Resale   []model.ResaleEntry
	History  map[string]model.HistoryEntry
	Calendar model.CalendarSet
	Driver   model.DriverLog
}

// SidePaths locates the side-dataset files in the vault. An empty path
// means the dataset is not configured.
type SidePaths struct {
	Resale   string
	History  string
	Calendar string
	Driver   string
}

// Aggregate joins side-data onto products by stringified id. The output
// has exactly one record per product in product order. Join misses yield
// null fields; the driver log is attached once and omitted when absent.
func Aggregate(products []model.Product, side SideData) model.MasterDataset {
	resale := make(map[string]model.ResaleEntry, len(side.Resale))
	for _, r := range side.Resale {
		// Later duplicates replace earlier ones.
		resale[r.ID.String()] = r
	}

	records := make([]model.MasterRecord, 0, len(products))
	for _, p := range products {
		key := model.IDString(p.ID)
		rec := model.MasterRecord{
			ID:            p.ID,
			ItemName:      p.ItemName,
			PurchasePrice: p.Price,
			PurchaseDate:  p.PurchaseDate,
		}
		if r, ok := resale[key]; ok {
			rec.PriceRange = r.PriceRange
			rec.Confidence = r.Confidence
		}
		if h, ok := side.History[key]; ok {
			rec.MatchedQueries = h.MatchedQueries
		}
		if c, ok := side.Calendar[key]; ok {
			rec.CalendarLastMentioned = c.LastMentioned
		}
		records = append(records, rec)
	}

	return model.MasterDataset{Products: records, DriverHistory: side.Driver}
}

// LoadSideData reads each configured side-dataset from the vault. Missing
// files leave the dataset absent; a file that cannot be decoded fails.
func LoadSideData(v *vault.Vault, paths SidePaths) (SideData, error) {
	var side SideData

	if paths.Resale != "" {
		if _, err := v.LoadOptional(paths.Resale, &side.Resale); err != nil {
			return SideData{}, eris.Wrap(err, "aggregate: load resale dataset")
		}
	}
	if paths.History != "" {
		if _, err := v.LoadOptional(paths.History, &side.History); err != nil {
			return SideData{}, eris.Wrap(err, "aggregate: load history dataset")
		}
	}
	if paths.Calendar != "" {
		if _, err := v.LoadOptional(paths.Calendar, &side.Calendar); err != nil {
			return SideData{}, eris.Wrap(err, "aggregate: load calendar dataset")
		}
	}
	if paths.Driver != "" {
		raw, err := v.LoadRaw(paths.Driver)
		switch {
		case errors.Is(err, vault.ErrNotFound):
		case err != nil:
			return SideData{}, eris.Wrap(err, "aggregate: load driver log")
		default:
			side.Driver = raw
		}
	}

	zap.L().Debug("aggregate: side data loaded",
		zap.Int("resale", len(side.Resale)),
		zap.Int("history", len(side.History)),
		zap.Int("calendar", len(side.Calendar)),
		zap.Bool("driver", side.Driver != nil),
	)
	return side, nil
}
