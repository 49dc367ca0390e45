package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParsePrice strips thousands separators, parses the amount as a decimal
// and truncates it to whole currency units. It returns nil when the amount
// does not parse.
func ParsePrice(s string) *int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}

// bodyPricePatterns are tried in order by BodyPrice.
var bodyPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Total\s+([\d,]+)\s+INR`),
	regexp.MustCompile(`Rs\.?\s?([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`₹\s?([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`Total Amount Paid: ([\d,]+\.\d{2})`),
}

// BodyPrice returns the first parseable amount found anywhere in text.
func BodyPrice(text string) *int {
	for _, re := range bodyPricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p := ParsePrice(m[1]); p != nil {
			return p
		}
	}
	return nil
}
