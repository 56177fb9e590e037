package util

import (
	"regexp"
	"strings"
)

var amountRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// NormalizeAmount trims processor amount input and reports whether it is a
// positive decimal string with at most two fraction digits.
func NormalizeAmount(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !amountRe.MatchString(s) {
		return "", false
	}
	if strings.Trim(s, "0.") == "" {
		// all zeros
		return "", false
	}
	return s, true
}

// FormatUSD renders a normalized amount for donor-facing text.
func FormatUSD(amount string) string {
	return "$" + amount
}
