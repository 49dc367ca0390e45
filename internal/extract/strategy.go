package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/resale-cli/internal/model"
)

// Input is what a strategy sees: the normalized body plus document
// metadata copied onto every candidate it produces.
type Input struct {
	Body     string
	Subject  string
	Date     *string
	Platform string
}

func (in Input) candidate(item *string, price *int) model.Candidate {
	return model.Candidate{
		ItemName:     item,
		Price:        price,
		PurchaseDate: in.Date,
		Platform:     in.Platform,
	}
}

// StrategyFunc turns an input into zero or more candidates. Strategies are
// pure and independent of each other.
type StrategyFunc func(in Input) []model.Candidate

// Strategy is a named StrategyFunc.
type Strategy struct {
	Name string
	Run  StrategyFunc
}

// Cascade is an ordered strategy list. The first strategy that yields at
// least one candidate wins and later strategies are not consulted.
type Cascade []Strategy

// Run applies the cascade and reports which strategy produced the result.
// An empty name means no strategy matched.
func (c Cascade) Run(in Input) ([]model.Candidate, string) {
	for _, s := range c {
		if found := s.Run(in); len(found) > 0 {
			return found, s.Name
		}
	}
	return nil, ""
}

// ItemizedCascade is applied to origins with bulleted order listings. It
// ends in a sentinel, so it always yields at least one candidate.
func ItemizedCascade() Cascade {
	return Cascade{
		{Name: "itemized_bullets", Run: ItemizedBullets},
		{Name: "legacy_split_list", Run: LegacySplitList},
		{Name: "section_lines", Run: SectionLines},
		{Name: "summary_total", Run: SummaryTotal},
		{Name: "subject_fallback", Run: SubjectFallback},
		{Name: "sentinel", Run: Sentinel},
	}
}

// InvoiceCascade is applied to origins that send tabular invoices. It has
// no sentinel: a document matching neither strategy yields nothing.
func InvoiceCascade() Cascade {
	return Cascade{
		{Name: "invoice_table", Run: InvoiceTable},
		{Name: "total_paid", Run: TotalPaid},
	}
}

var (
	bulletItemRe    = regexp.MustCompile(`\*\s+(.+?)\s+Quantity:?[ ]*\d+\s+([\d,.]+)\s*INR`)
	legacyNameRe    = regexp.MustCompile(`\*\s+(.+?)\s+Quantity`)
	legacyAmountRe  = regexp.MustCompile(`Quantity: ?\d+\s+([\d,.]+)\s*INR`)
	sectionLineRe   = regexp.MustCompile(`^(.+?)\s+Rs\.?\s?([\d,.]+)`)
	summaryTotalRe  = regexp.MustCompile(`Order summary Item Subtotal: Rs\.([\d,.]+)`)
	subjectItemRe   = regexp.MustCompile(`Shipped: ["“”']?(.+?)["“”']`)
	invoiceHeaderRe = regexp.MustCompile(`Item Description\s*Tax Code\s*Qty\.\s*Rate\s*Amount\s*`)
	invoiceRowRe    = regexp.MustCompile(`(?s)^\s*(\d+)\s+(.+?)\s+\S+\s+(\d+\.\d+)\s+(\d+\.\d+)`)
	totalPaidRe     = regexp.MustCompile(`Total Amount Paid: ([\d,.]+)`)
)

const (
	shipmentSection = "Your Shipment Details"
	sentinelBodyLen = 50
	unknownProduct  = "Unknown Product"
)

func namePtr(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

// ItemizedBullets matches "* name Quantity: n amount INR" bullets.
func ItemizedBullets(in Input) []model.Candidate {
	var out []model.Candidate
	for _, m := range bulletItemRe.FindAllStringSubmatch(in.Body, -1) {
		out = append(out, in.candidate(namePtr(m[1]), ParsePrice(m[2])))
	}
	return out
}

// LegacySplitList matches item names and amounts independently and pairs
// them by position. Lists of unequal length are rejected.
func LegacySplitList(in Input) []model.Candidate {
	names := legacyNameRe.FindAllStringSubmatch(in.Body, -1)
	amounts := legacyAmountRe.FindAllStringSubmatch(in.Body, -1)
	if len(names) == 0 || len(names) != len(amounts) {
		return nil
	}
	out := make([]model.Candidate, 0, len(names))
	for i := range names {
		out = append(out, in.candidate(namePtr(names[i][1]), ParsePrice(amounts[i][1])))
	}
	return out
}

// SectionLines scans the lines after the shipment-details heading for
// "name Rs.amount" pairs. URL lines are ignored.
func SectionLines(in Input) []model.Candidate {
	_, section, ok := strings.Cut(in.Body, shipmentSection)
	if !ok {
		return nil
	}
	var out []model.Candidate
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "http") {
			continue
		}
		if m := sectionLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, in.candidate(namePtr(m[1]), ParsePrice(m[2])))
		}
	}
	return out
}

// SummaryTotal matches an order subtotal. The candidate has no item name.
func SummaryTotal(in Input) []model.Candidate {
	m := summaryTotalRe.FindStringSubmatch(in.Body)
	if m == nil {
		return nil
	}
	return []model.Candidate{in.candidate(nil, ParsePrice(m[1]))}
}

// SubjectFallback takes a quoted item name from a "Shipped:" subject and
// pairs it with any amount found in the body. Both must be present.
func SubjectFallback(in Input) []model.Candidate {
	m := subjectItemRe.FindStringSubmatch(in.Subject)
	if m == nil {
		return nil
	}
	item := strings.TrimSpace(m[1])
	price := BodyPrice(in.Body)
	if item == "" || price == nil || *price == 0 {
		return nil
	}
	return []model.Candidate{in.candidate(&item, price)}
}

// Sentinel always yields exactly one low-information candidate with price
// 0, named after the subject or the start of the body.
func Sentinel(in Input) []model.Candidate {
	name := strings.TrimSpace(in.Subject)
	if name == "" {
		name = strings.TrimSpace(truncateRunes(in.Body, sentinelBodyLen))
	}
	if name == "" {
		name = unknownProduct
	}
	zero := 0
	return []model.Candidate{in.candidate(&name, &zero)}
}

// InvoiceTable matches the invoice header followed by consecutive rows of
// quantity, description, tax code, rate and amount.
func InvoiceTable(in Input) []model.Candidate {
	var out []model.Candidate
	for _, loc := range invoiceHeaderRe.FindAllStringIndex(in.Body, -1) {
		rest := in.Body[loc[1]:]
		for {
			m := invoiceRowRe.FindStringSubmatchIndex(rest)
			if m == nil {
				break
			}
			desc := rest[m[4]:m[5]]
			amount := rest[m[8]:m[9]]
			out = append(out, in.candidate(namePtr(desc), ParsePrice(amount)))
			rest = rest[m[1]:]
		}
	}
	return out
}

// TotalPaid matches the amount-paid total. The candidate has no item name.
func TotalPaid(in Input) []model.Candidate {
	m := totalPaidRe.FindStringSubmatch(in.Body)
	if m == nil {
		return nil
	}
	return []model.Candidate{in.candidate(nil, ParsePrice(m[1]))}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
