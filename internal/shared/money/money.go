package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadAmount = errors.New("malformed amount")

// FormatCents renders an integer cent amount the way payment APIs expect
// it on the wire: "19.99", no currency symbol, always two decimals.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseCents converts a wire amount ("19.99", "7", "7.5") back to cents.
// Anything with more than two decimals, grouping characters or exponents
// is rejected; captured amounts must round-trip exactly.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadAmount
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if frac == "" {
			// "7." is not a valid wire amount
			return 0, ErrBadAmount
		}
	}
	if whole == "" || len(frac) > 2 || !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrBadAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrBadAmount
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrBadAmount
	}
	cents := major*100 + minor
	if neg {
		cents = -cents
	}
	return cents, nil
}

// Display formats a cent amount with its currency symbol for logs and
// API responses.
func Display(currency string, cents int64) string {
	switch currency {
	case "EUR":
		return "€" + FormatCents(cents)
	case "USD":
		return "$" + FormatCents(cents)
	default:
		return FormatCents(cents) + " " + currency
	}
}

func digitsOnly(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
