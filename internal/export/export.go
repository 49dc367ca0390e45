// Package export renders the annotated dataset as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resale-cli/internal/model"
)

// Header is the column order of every export.
var Header = []string{
	"id",
	"itemname",
	"purchase_price",
	"purchase_date",
	"price_range",
	"confidence",
	"calendar_last_mentioned",
	"matched_queries",
	"status",
	"reasoning",
}

// Rows flattens the dataset into string rows, header first. Null fields
// become empty cells and matched queries are joined with "; ".
func Rows(ds model.MasterDataset) [][]string {
	rows := make([][]string, 0, len(ds.Products)+1)
	rows = append(rows, Header)
	for _, rec := range ds.Products {
		price := ""
		if rec.PurchasePrice != nil {
			price = strconv.Itoa(*rec.PurchasePrice)
		}
		conf := ""
		if rec.Confidence != nil {
			conf = rec.Confidence.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(rec.ID),
			deref(rec.ItemName),
			price,
			deref(rec.PurchaseDate),
			deref(rec.PriceRange),
			conf,
			deref(rec.CalendarLastMentioned),
			strings.Join(rec.MatchedQueries, "; "),
			string(rec.Status),
			deref(rec.Reasoning),
		})
	}
	return rows
}

// WriteCSV writes the dataset as CSV to w.
func WriteCSV(w io.Writer, ds model.MasterDataset) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(ds)); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
