package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText strips markup from a document body and collapses whitespace
// runs into single spaces. Bodies without markup pass through unchanged
// apart from whitespace and compatibility folding.
func CleanText(body string) string {
	text := body
	if strings.ContainsAny(body, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			doc.Find("script, style, head").Remove()
			var parts []string
			doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
				parts = append(parts, nodeText(s)...)
			})
			text = strings.Join(parts, " ")
		}
	}
	text = norm.NFKC.String(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// nodeText flattens a selection into its text nodes so adjacent elements
// do not run together.
func nodeText(s *goquery.Selection) []string {
	if goquery.NodeName(s) == "#text" {
		return []string{s.Text()}
	}
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		parts = append(parts, nodeText(c)...)
	})
	return parts
}

// headerDateLayouts are tried in order against a prefix of the input.
var headerDateLayouts = []struct {
	layout string
	prefix int
}{
	{"Mon, 2 Jan 2006 15:04:05", 25},
	{"2 Jan 2006 15:04:05", 20},
	{"2006-01-02", 10},
}

// NormalizeDate converts a header-style timestamp into YYYY-MM-DD. It
// returns nil when no known layout matches.
func NormalizeDate(s string) *string {
	s = strings.TrimSpace(s)
	for _, l := range headerDateLayouts {
		candidate := s
		if len(candidate) > l.prefix {
			candidate = candidate[:l.prefix]
		}
		candidate = strings.TrimSpace(candidate)
		if t, err := time.Parse(l.layout, candidate); err == nil {
			out := t.Format("2006-01-02")
			return &out
		}
	}
	return nil
}
