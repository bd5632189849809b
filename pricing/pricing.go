// Package pricing turns locale-formatted price strings into integers and
// derives discount and recommended prices from them.
package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// NotAvailable is the literal sentinel scrapers emit for missing values.
// Downstream it is stored as-is, it is not a NULL marker.
const NotAvailable = "N/A"

var (
	nonDigitRegexp     = regexp.MustCompile(`\D`)
	plainIntegerRegexp = regexp.MustCompile(`^[0-9]+$`)

	recommendFactor = decimal.New(95, -2)
)

// ParsePrice strips every non-digit character and parses the residue.
// "Rp 1.250.000" yields 1250000. ok is false when no digits remain or the
// value does not fit the 32-bit INT price column, as happens when a range
// such as "Rp 25.000 - Rp 30.000" collapses into one number.
func ParsePrice(text string) (price int64, ok bool) {
	digits := nonDigitRegexp.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DiscountPercentage formats round((original-sold)/original*100) as "<n>%",
// rounding halves to even. It returns "0%" when there is no discount and
// NotAvailable when either price cannot be parsed.
func DiscountPercentage(original, sold string) string {
	o, ok := ParsePrice(original)
	if !ok {
		return NotAvailable
	}
	s, ok := ParsePrice(sold)
	if !ok {
		return NotAvailable
	}
	if o > s && o > 0 {
		pct := math.RoundToEven(float64(o-s) / float64(o) * 100)
		return fmt.Sprintf("%d%%", int64(pct))
	}
	return "0%"
}

// IsPlainInteger reports whether text consists of ASCII digits only.
func IsPlainInteger(text string) bool {
	return plainIntegerRegexp.MatchString(text)
}

// Average returns the exact mean of prices. It returns zero for an empty slice.
func Average(prices []int64) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromInt(p))
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

// RecommendedPrice applies the 5% markdown to avg and rounds the result to
// the nearest hundred. Exact ties go to the even hundred (1050 -> 1000,
// 1150 -> 1200).
func RecommendedPrice(avg decimal.Decimal) int64 {
	return avg.Mul(recommendFactor).RoundBank(-2).IntPart()
}
