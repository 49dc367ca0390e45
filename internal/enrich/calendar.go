package enrich

import (
	"strings"
	"time"

	"github.com/sells-group/resale-cli/internal/model"
)

var eventLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseEventStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LastMentioned returns, for every context, the date of the latest event
// whose summary or description contains one of its aliases or usage
// keywords. Matching is case-insensitive. Events with an unparseable start
// are ignored; a context with no match gets a null date.
func LastMentioned(events []model.CalendarEvent, contexts []model.ProductContext) []model.CalendarEntry {
	latest := make([]time.Time, len(contexts))
	for _, ev := range events {
		start, ok := parseEventStart(ev.Start)
		if !ok {
			continue
		}
		text := strings.ToLower(ev.Summary + " " + ev.Description)
		for i, pc := range contexts {
			if mentions(text, pc) && start.After(latest[i]) {
				latest[i] = start
			}
		}
	}

	out := make([]model.CalendarEntry, len(contexts))
	for i, pc := range contexts {
		out[i] = model.CalendarEntry{ID: pc.ID}
		if !latest[i].IsZero() {
			out[i].LastMentioned = model.Ptr(latest[i].Format("2006-01-02"))
		}
	}
	return out
}

func mentions(text string, pc model.ProductContext) bool {
	for _, group := range [][]string{pc.ContextKeywords, pc.Aliases} {
		for _, term := range group {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}
