package validation

import (
	"regexp"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Period keys are calendar months: "2026-08".
var periodKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Currency codes are 3 uppercase letters (ISO 4217 shape; no conversion here).
var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Traded symbols: 1-12 uppercase letters/digits/dots.
var symbolRe = regexp.MustCompile(`^[A-Z0-9.]{1,12}$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a letter, a digit and a
// special character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func IsValidPeriodKey(key string) bool {
	return periodKeyRe.MatchString(key)
}

func IsValidCurrency(code string) bool {
	return currencyRe.MatchString(code)
}

func IsValidSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}
