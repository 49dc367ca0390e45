package pipeline

import "github.com/sells-group/resale-cli/internal/model"

// Dedupe collapses candidates with equal identity keys, keeping the first
// occurrence and preserving order. Applying it twice changes nothing.
func Dedupe(cands []model.Candidate) []model.Candidate {
	seen := make(map[model.DedupKey]struct{}, len(cands))
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
