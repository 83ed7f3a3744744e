package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted on register and reset.
const MinPasswordLength = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AnyBlank reports whether any of the values is blank.
func AnyBlank(values ...string) bool {
	for _, v := range values {
		if IsBlank(v) {
			return true
		}
	}
	return false
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// IsValidPassword counts characters, not bytes.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// MaxPrice is the largest amount a decimal(12,2) price column holds.
const MaxPrice = 9999999999.99

var currencyRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ParsePrice parses a user-entered price and rounds it to cents. It fails for
// non-numeric input, NaN, infinities and amounts outside (0, MaxPrice] once rounded.
func ParsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f*100) / 100
	if f <= 0 || f > MaxPrice {
		return 0, false
	}
	return f, true
}

// NormalizeCurrency upper-cases a 3-letter ISO code. Blank input is accepted as ""
// so the column default applies.
func NormalizeCurrency(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if !currencyRe.MatchString(s) {
		return "", false
	}
	return strings.ToUpper(s), true
}
