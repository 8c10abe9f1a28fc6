// Package money formats and rounds monetary amounts for reports and storage.
// Arithmetic stays in float64; decimal is used at the edges so rendered and
// persisted values round half away from zero at 2 places.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for monetary amounts.
const Scale = 2

// Round converts an amount to a decimal rounded to Scale places.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Scale)
}

// Fixed formats an amount with exactly Scale decimals and no grouping, e.g. "-1234.50".
func Fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(Scale)
}

// Format renders an amount as "$1,234.50". Negative amounts keep the sign
// after the currency symbol: "$-1,234.50".
func Format(v float64) string {
	return "$" + Group(Fixed(v))
}

// Group inserts thousands separators into a fixed-point string.
func Group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	b.WriteString(frac)
	return b.String()
}
