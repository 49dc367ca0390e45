package enrich

import (
	"strings"

	"github.com/sells-group/resale-cli/internal/model"
)

// MatchHistory matches browser visits against product contexts. A visit
// matches a product when its title or URL contains the canonical name, an
// alias or a usage keyword. The visit title is recorded as the query.
func MatchHistory(visits []model.HistoryVisit, contexts []model.ProductContext) map[string]model.HistoryEntry {
	terms := make([][]string, len(contexts))
	for i, pc := range contexts {
		terms[i] = pc.Terms()
	}

	out := make(map[string]model.HistoryEntry)
	for _, visit := range visits {
		title := strings.TrimSpace(visit.Title)
		if title == "" {
			continue
		}
		text := strings.ToLower(title + " " + visit.URL)
		for i, pc := range contexts {
			if !containsAny(text, terms[i]) {
				continue
			}
			key := pc.ID.String()
			entry := out[key]
			entry.ID = pc.ID
			entry.MatchedQueries = append(entry.MatchedQueries, title)
			out[key] = entry
		}
	}
	return out
}

// MergeHistory appends incoming matches onto existing ones and returns the
// merged map. existing may be nil.
func MergeHistory(existing, incoming map[string]model.HistoryEntry) map[string]model.HistoryEntry {
	merged := make(map[string]model.HistoryEntry, len(existing)+len(incoming))
	for k, e := range existing {
		e.MatchedQueries = append([]string(nil), e.MatchedQueries...)
		merged[k] = e
	}
	for k, in := range incoming {
		e, ok := merged[k]
		if !ok {
			e = model.HistoryEntry{ID: model.FlexString(k), MatchedQueries: []string{}}
		}
		if e.ID == "" {
			e.ID = model.FlexString(k)
		}
		e.MatchedQueries = append(e.MatchedQueries, in.MatchedQueries...)
		merged[k] = e
	}
	return merged
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
