package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// CalendarEntry records the most recent calendar mention of a product.
type CalendarEntry struct {
	ID            FlexString `json:"id"`
	LastMentioned *string    `json:"last_mentioned"`
}

// CalendarSet is the calendar side-dataset keyed by stringified product id.
// It decodes from either an object keyed by id or an array of entries;
// array entries without an id are dropped.
type CalendarSet map[string]CalendarEntry

// UnmarshalJSON implements json.Unmarshaler.
func (cs *CalendarSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	out := make(CalendarSet)
	switch {
	case bytes.Equal(data, []byte("null")):
		*cs = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var entries []CalendarEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return eris.Wrap(err, "calendar: decode entry list")
		}
		for _, e := range entries {
			if e.ID == "" {
				continue
			}
			out[e.ID.String()] = e
		}
	default:
		var keyed map[string]CalendarEntry
		if err := json.Unmarshal(data, &keyed); err != nil {
			return eris.Wrap(err, "calendar: decode keyed map")
		}
		for k, e := range keyed {
			out[k] = e
		}
	}
	*cs = out
	return nil
}

// DriverLog is the device-driver activity blob. It has no per-item keying
// and is carried through verbatim.
type DriverLog = json.RawMessage

// MasterRecord is the consolidated per-item record. Per-item side fields
// are always present and null when the side-dataset has no entry.
type MasterRecord struct {
	ID                    int         `json:"id"`
	ItemName              *string     `json:"itemname"`
	PurchasePrice         *int        `json:"purchase_price"`
	PurchaseDate          *string     `json:"purchase_date"`
	PriceRange            *string     `json:"price_range"`
	Confidence            *FlexString `json:"confidence"`
	MatchedQueries        []string    `json:"chrome_browsing_matched_url_history"`
	CalendarLastMentioned *string     `json:"calender_last_matched"`
	Status                Status      `json:"status,omitempty"`
	Reasoning             *string     `json:"reasoning,omitempty"`
}

// MasterDataset is the persisted master (and, after annotation, usage)
// document. DriverHistory is omitted entirely when no driver data exists.
type MasterDataset struct {
	Products      []MasterRecord `json:"products"`
	DriverHistory DriverLog      `json:"driver_history_from_pc,omitempty"`
}

// FindByID returns the index of the record with the given id, or -1.
func (d *MasterDataset) FindByID(id int) int {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return i
		}
	}
	return -1
}
