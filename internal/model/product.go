package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Candidate is an unconfirmed purchase extracted from one document. Nil
// fields serialize as JSON null.
type Candidate struct {
	ItemName     *string `json:"itemname"`
	Price        *int    `json:"price"`
	PurchaseDate *string `json:"purchase_date"`
	Platform     string  `json:"platform"`
}

// DedupKey identifies a candidate for deduplication. A nil field is
// distinct from its zero value.
type DedupKey struct {
	ItemName     string
	HasItemName  bool
	Price        int
	HasPrice     bool
	PurchaseDate string
	HasDate      bool
	Platform     string
}

// Key returns the candidate's identity 4-tuple.
func (c Candidate) Key() DedupKey {
	k := DedupKey{Platform: c.Platform}
	if c.ItemName != nil {
		k.ItemName, k.HasItemName = *c.ItemName, true
	}
	if c.Price != nil {
		k.Price, k.HasPrice = *c.Price, true
	}
	if c.PurchaseDate != nil {
		k.PurchaseDate, k.HasDate = *c.PurchaseDate, true
	}
	return k
}

// Product is a classified candidate with its run-local join id. Ids are
// contiguous from 1 within a run and are not stable across runs.
type Product struct {
	ID int `json:"id"`
	Candidate
}

// ResaleEntry is one row of the resale valuation side-dataset.
type ResaleEntry struct {
	ID         FlexString  `json:"id"`
	ItemName   *string     `json:"itemname,omitempty"`
	PriceRange *string     `json:"price_range"`
	Confidence *FlexString `json:"confidence"`
	Reasoning  *string     `json:"reasoning,omitempty"`
}

// HistoryEntry holds browsing-history queries matched to one product.
type HistoryEntry struct {
	ID             FlexString `json:"id,omitempty"`
	MatchedQueries []string   `json:"matched_queries"`
}

// ProductContext carries the canonical name, aliases and usage keywords
// generated for a product.
type ProductContext struct {
	ID              FlexString `json:"id"`
	Price           FlexString `json:"price,omitempty"`
	CanonicalName   string     `json:"canonical_name"`
	Aliases         []string   `json:"aliases"`
	ContextKeywords []string   `json:"context_keywords"`
}

// Terms returns the lowercased canonical name, aliases and keywords.
func (pc ProductContext) Terms() []string {
	terms := make([]string, 0, 1+len(pc.Aliases)+len(pc.ContextKeywords))
	if pc.CanonicalName != "" {
		terms = append(terms, strings.ToLower(pc.CanonicalName))
	}
	for _, group := range [][]string{pc.Aliases, pc.ContextKeywords} {
		for _, t := range group {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, strings.ToLower(t))
			}
		}
	}
	return terms
}

// FlexString decodes from a JSON string or number and always encodes as a
// string. Collaborators are inconsistent about quoting ids and scores.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "flexstring: decode string")
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return eris.Wrapf(err, "flexstring: decode %s", trimmed)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying string.
func (f FlexString) String() string { return string(f) }

// IDString renders an integer product id as a side-dataset key.
func IDString(id int) string { return strconv.Itoa(id) }

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
