package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/monitoring"
	"github.com/sells-group/resale-cli/internal/vault"
)

// ErrProductNotFound is returned when no record carries the requested id.
var ErrProductNotFound = eris.New("pipeline: product not found")

// UpdateStatus overwrites the status of one record in the annotated
// dataset at path. The whole document is read, modified and saved.
func UpdateStatus(v *vault.Vault, path string, id int, status model.Status) error {
	status, err := model.ParseStatus(string(status))
	if err != nil {
		return eris.Wrap(err, "update status")
	}

	var ds model.MasterDataset
	err = v.Update(path, &ds, func() error {
		idx := ds.FindByID(id)
		if idx < 0 {
			return eris.Wrapf(ErrProductNotFound, "id %d", id)
		}
		ds.Products[idx].Status = status
		return nil
	})
	if err != nil {
		return err
	}

	monitoring.StatusCorrections.Inc()
	zap.L().Info("pipeline: status updated", zap.Int("id", id), zap.String("status", string(status)))
	return nil
}
