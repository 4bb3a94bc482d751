// Package census normalizes the loosely typed values found in employer census files.
package census

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
}

// IsMissing reports whether a raw cell should be treated as absent
func IsMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// ParseCurrency parses values such as "$5,920.23", "4500" or " 4500.0 ".
// It returns false for blanks, missing-value tokens and anything unparseable.
func ParseCurrency(raw string) (decimal.Decimal, bool) {
	if IsMissing(raw) {
		return decimal.Zero, false
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseCurrencyPtr is ParseCurrency returning nil when the value is absent
func ParseCurrencyPtr(raw string) *decimal.Decimal {
	d, ok := ParseCurrency(raw)
	if !ok {
		return nil
	}
	return &d
}

// ParsePositiveCurrency returns nil unless the value parses and is greater than zero.
// Incomes of zero or below mean "no income data".
func ParsePositiveCurrency(raw string) *decimal.Decimal {
	d, ok := ParseCurrency(raw)
	if !ok || !d.GreaterThan(decimal.Zero) {
		return nil
	}
	return &d
}

// ParseAge parses an age cell. Float strings such as "34.0" truncate toward zero;
// negative or non-finite values are absent.
func ParseAge(raw string) (int, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(f), true
}

// ParseRatingArea parses "7", "7.0" or "Rating Area 7"
func ParseRatingArea(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToLower(s), "rating area")
	return ParseAge(strings.TrimSpace(s))
}

// NormalizeState upper-cases and trims a two-letter state code
func NormalizeState(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
