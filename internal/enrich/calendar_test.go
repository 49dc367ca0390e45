package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
)

func testContexts() []model.ProductContext {
	return []model.ProductContext{
		{ID: "1", CanonicalName: "Apple iPhone 12", Aliases: []string{"iPhone"}, ContextKeywords: []string{"facetime"}},
		{ID: "2", CanonicalName: "Sony WH-1000XM4", Aliases: []string{"headphones"}, ContextKeywords: []string{"noise cancelling"}},
		{ID: "3", CanonicalName: "Dell Monitor", Aliases: []string{"monitor"}},
	}
}

func TestLastMentioned(t *testing.T) {
	events := []model.CalendarEvent{
		{Summary: "FaceTime with mom", Start: "2024-03-01T18:00:00+05:30"},
		{Summary: "Standup", Description: "bring HEADPHONES", Start: "2024-02-10"},
		{Summary: "iPhone screen repair", Start: "2024-04-02T09:00:00Z"},
		{Summary: "iphone backup", Start: "not a date"},
		{Summary: "Call", Start: "2024-01-05T10:00:00"},
	}

	got := LastMentioned(events, testContexts())

	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID.String())
	require.NotNil(t, got[0].LastMentioned)
	assert.Equal(t, "2024-04-02", *got[0].LastMentioned)

	require.NotNil(t, got[1].LastMentioned)
	assert.Equal(t, "2024-02-10", *got[1].LastMentioned)

	assert.Nil(t, got[2].LastMentioned)
}

func TestLastMentioned_CanonicalNameAloneDoesNotMatch(t *testing.T) {
	events := []model.CalendarEvent{{Summary: "Return Dell Monitor", Start: "2024-05-01"}}
	contexts := []model.ProductContext{{ID: "9", CanonicalName: "Dell Monitor"}}

	got := LastMentioned(events, contexts)

	require.Len(t, got, 1)
	assert.Nil(t, got[0].LastMentioned)
}

func TestLastMentioned_NoEvents(t *testing.T) {
	got := LastMentioned(nil, testContexts())

	require.Len(t, got, 3)
	for _, e := range got {
		assert.Nil(t, e.LastMentioned)
	}
}
