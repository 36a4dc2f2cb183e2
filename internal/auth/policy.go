package auth

import (
	"errors"
	"regexp"
	"strings"
)

// PasswordSymbols is the fixed set of symbols accepted in passwords.
const PasswordSymbols = "@$!%*?&"

const passwordMinLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var (
	errPasswordTooShort  = errors.New("password must be at least 8 characters")
	errPasswordUppercase = errors.New("password must contain an uppercase letter")
	errPasswordLowercase = errors.New("password must contain a lowercase letter")
	errPasswordDigit     = errors.New("password must contain a digit")
	errPasswordSymbol    = errors.New("password must contain one of " + PasswordSymbols)
	errPasswordCharset   = errors.New("password may only contain letters, digits and " + PasswordSymbols)
)

// CheckPassword validates the password complexity rule: minimum length 8,
// at least one uppercase letter, one lowercase letter, one digit and one
// symbol from PasswordSymbols, with no characters outside that alphabet.
// It returns nil on pass or an error naming the first violated rule.
func CheckPassword(password string) error {
	if len(password) < passwordMinLength {
		return errPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		default:
			return errPasswordCharset
		}
	}

	switch {
	case !hasUpper:
		return errPasswordUppercase
	case !hasLower:
		return errPasswordLowercase
	case !hasDigit:
		return errPasswordDigit
	case !hasSymbol:
		return errPasswordSymbol
	}
	return nil
}
