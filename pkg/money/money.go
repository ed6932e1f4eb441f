// Package money converts the minor-unit integers stored on wallets and
// transactions (kobo, cents) into display amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const minorUnitExponent = 2

// ToMajor converts an amount in minor units to major units, e.g. 150050 -> 1500.50.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent)
}

// FromMajor parses a major-unit string such as "1500.50" into minor units.
// Amounts with more than two decimal places are rejected.
func FromMajor(major string) (int64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(major))
	if err != nil {
		return 0, false
	}
	scaled := d.Shift(minorUnitExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, false
	}
	return scaled.IntPart(), true
}

// Format renders minor units with the currency code, e.g. "NGN 1,500.50".
func Format(minor int64, currency string) string {
	return strings.TrimSpace(currency + " " + groupThousands(ToMajor(minor).StringFixed(minorUnitExponent)))
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
