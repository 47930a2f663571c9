package search

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.,-]`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseDecimal reads a loosely formatted price such as "€ 12,50" or
// "1.234,56". When both separators are present the dot is a thousands
// separator and the comma the decimal one; a lone comma is a decimal
// separator. Only the leading number is read, so "12-15" gives 12.
// Values beyond the float64 range are rejected.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	m := leadingNumber.FindString(cleaned)
	if m == "" {
		return decimal.Zero, false
	}
	m = strings.TrimSuffix(m, ".")
	if strings.HasPrefix(m, "-.") {
		m = "-0" + m[1:]
	} else if strings.HasPrefix(m, ".") {
		m = "0" + m
	}

	d, err := decimal.NewFromString(m)
	if err != nil || !finite(d) {
		return decimal.Zero, false
	}
	return d, true
}

// ToNumber is ParseDecimal as a float64. ok is false for empty or
// unparsable input.
func ToNumber(s string) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func finite(d decimal.Decimal) bool {
	return !math.IsInf(d.InexactFloat64(), 0)
}
