package pipeline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
)

func TestUpdateStatus(t *testing.T) {
	v := newTestVault(t)
	path := filepath.Join(t.TempDir(), "usage.json")
	ds := testMaster()
	for i := range ds.Products {
		ds.Products[i].Status = model.StatusUncertain
	}
	require.NoError(t, v.Save(ds, path))

	require.NoError(t, UpdateStatus(v, path, 2, model.StatusInUse))

	var got model.MasterDataset
	require.NoError(t, v.Load(path, &got))
	assert.Equal(t, model.StatusUncertain, got.Products[0].Status)
	assert.Equal(t, model.StatusInUse, got.Products[1].Status)
	assert.JSONEq(t, `{"usb":[]}`, string(got.DriverHistory))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	v := newTestVault(t)
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, v.Save(testMaster(), path))

	err := UpdateStatus(v, path, 99, model.StatusInUse)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	v := newTestVault(t)
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, v.Save(testMaster(), path))

	err := UpdateStatus(v, path, 1, model.Status("sold"))

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProductNotFound))
}
