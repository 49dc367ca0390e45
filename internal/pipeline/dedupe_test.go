package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/resale-cli/internal/model"
)

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	in := []model.Candidate{
		candidate("Phone", 10000, "2024-01-01", "amazon"),
		candidate("Cable", 299, "2024-01-01", "amazon"),
		candidate("Phone", 10000, "2024-01-01", "amazon"),
		candidate("Phone", 10000, "2024-01-01", "croma"),
	}

	out := Dedupe(in)

	assert.Len(t, out, 3)
	assert.Equal(t, "Phone", *out[0].ItemName)
	assert.Equal(t, "Cable", *out[1].ItemName)
	assert.Equal(t, "croma", out[2].Platform)
}

func TestDedupe_NilDistinctFromZero(t *testing.T) {
	withNil := model.Candidate{ItemName: model.Ptr("Speaker"), Platform: "amazon"}
	withZero := model.Candidate{ItemName: model.Ptr("Speaker"), Price: model.Ptr(0), Platform: "amazon"}

	out := Dedupe([]model.Candidate{withNil, withZero, withNil})

	assert.Len(t, out, 2)
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []model.Candidate{
		candidate("A", 1, "2024-01-01", "amazon"),
		candidate("B", 2, "2024-01-02", "amazon"),
		candidate("A", 1, "2024-01-01", "amazon"),
	}

	once := Dedupe(in)
	twice := Dedupe(once)

	assert.Equal(t, once, twice)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
