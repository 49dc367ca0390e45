package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
)

func TestMatchHistory(t *testing.T) {
	visits := []model.HistoryVisit{
		{Title: "How to fix iPhone battery drain", URL: "https://example.com/a"},
		{Title: "Weather today", URL: "https://example.com/noise-cancelling-review"},
		{Title: "   ", URL: "https://example.com/iphone"},
		{Title: "Recipes", URL: "https://example.com/food"},
	}

	got := MatchHistory(visits, testContexts())

	require.Len(t, got, 1)
	assert.Equal(t, []string{"How to fix iPhone battery drain"}, got["1"].MatchedQueries)
	assert.Equal(t, "1", got["1"].ID.String())
	assert.NotContains(t, got, "2")
}

func TestMatchHistory_URLAndMultipleProducts(t *testing.T) {
	contexts := []model.ProductContext{
		{ID: "1", ContextKeywords: []string{"noise-cancelling"}},
		{ID: "2", Aliases: []string{"review"}},
	}
	visits := []model.HistoryVisit{{Title: "Weather today", URL: "https://example.com/noise-cancelling-review"}}

	got := MatchHistory(visits, contexts)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"Weather today"}, got["1"].MatchedQueries)
	assert.Equal(t, []string{"Weather today"}, got["2"].MatchedQueries)
}

func TestMergeHistory(t *testing.T) {
	existing := map[string]model.HistoryEntry{
		"1": {ID: "1", MatchedQueries: []string{"iphone case"}},
	}
	incoming := map[string]model.HistoryEntry{
		"1": {ID: "1", MatchedQueries: []string{"iphone battery"}},
		"2": {MatchedQueries: []string{"headphones review"}},
	}

	merged := MergeHistory(existing, incoming)

	assert.Equal(t, []string{"iphone case", "iphone battery"}, merged["1"].MatchedQueries)
	assert.Equal(t, "2", merged["2"].ID.String())
	assert.Equal(t, []string{"headphones review"}, merged["2"].MatchedQueries)
	assert.Equal(t, []string{"iphone case"}, existing["1"].MatchedQueries)
}

func TestMergeHistory_NilExisting(t *testing.T) {
	merged := MergeHistory(nil, map[string]model.HistoryEntry{"5": {MatchedQueries: []string{"q"}}})

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"q"}, merged["5"].MatchedQueries)
}
