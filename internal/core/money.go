// Package core provides money parsing and handling utilities.
//
// Amounts are held as decimal.Decimal so sums and allocations stay exact;
// floats only appear at the display edge.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amounts past these bounds are treated as not numeric. They keep a single
// short input like 1e999999999 from expanding into a huge coefficient.
const (
	maxAmountExponent = 30
	maxAmountBits     = 128
)

// InRange reports whether d is usable as an amount: a decimal exponent
// within ±30 and a coefficient of at most 128 bits (about 38 digits).
func InRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -maxAmountExponent && e <= maxAmountExponent && d.Coefficient().BitLen() <= maxAmountBits
}

// ParseAmount converts a user-entered amount into a decimal.
//
// It accepts a dot (12.34) or a comma (12,34) as decimal separator and
// Brazilian grouping (1.234,56). A leading currency marker ("R$"), a sign
// and an exponent (2.5e2) are allowed. Values outside InRange are
// rejected.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("R$ 1.234,5") -> 1234.5, nil
//	ParseAmount("1e3")       -> 1000, nil
//	ParseAmount("abc")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		// 1.234,56 style: dots group thousands
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	if s == "" || s == "." || strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	mantissa, _, _ := strings.Cut(strings.ToLower(s), "e")
	for _, r := range mantissa {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !InRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// CoerceAmount is ParseAmount for untrusted form data: anything that is
// not a number counts as zero.
func CoerceAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Percent returns p percent of amount.
func Percent(amount, p decimal.Decimal) decimal.Decimal {
	return amount.Mul(p).Div(hundred)
}

// Ratio returns part/whole expressed as a percentage, or zero when whole
// is zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

// Float returns the amount as float64 for display and spreadsheet cells.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
