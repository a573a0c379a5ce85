package middleware

import (
	"regexp"
	"strings"
)

// Common validation patterns.
var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	symbolRegex   = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)
)

// ValidateEmail validates an email address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateCurrency validates a currency code (3 uppercase letters).
func ValidateCurrency(code string) bool {
	return currencyRegex.MatchString(code)
}

// ValidateSymbol validates a ticker symbol.
func ValidateSymbol(symbol string) bool {
	return symbolRegex.MatchString(symbol)
}

// ValidateRequired checks if a string is non-empty.
func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// ValidateLength checks if a string is within length bounds.
func ValidateLength(value string, min, max int) bool {
	l := len(value)
	return l >= min && l <= max
}

// ValidatePercentage checks if a value is a usable allocation percentage.
// Zero is excluded: a 0% target is a standing sell order, not a target.
func ValidatePercentage(value float64) bool {
	return value > 0 && value <= 100
}

// SanitizeString trims whitespace and removes control characters.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return s
}
