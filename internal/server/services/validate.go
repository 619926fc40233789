package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	maxEmailLen       = 254
	minUsernameLen    = 3
	maxUsernameLen    = 50
	minMasterPassword = 12
	maxMasterPassword = 128

	maxTitleLen     = 200
	maxItemUserLen  = 200
	maxItemPassLen  = 500
	maxURLLen       = 2048
	maxNotesLen     = 5000
	maxCategoryLen  = 50
	passwordSymbols = `!@#$%^&*(),.?":{}|<>`
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	if len(email) > maxEmailLen {
		return invalid("email is too long")
	}
	if !emailPattern.MatchString(email) {
		return invalid("email format is invalid")
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen {
		return invalid("username must be at least %d characters", minUsernameLen)
	}
	if n > maxUsernameLen {
		return invalid("username must be at most %d characters", maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return invalid("username may contain only letters, digits, underscores and hyphens")
	}
	return nil
}

// validateMasterPassword enforces the registration policy. Login does not
// re-check it so that a policy change never locks existing users out.
func validateMasterPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minMasterPassword {
		return invalid("master password must be at least %d characters", minMasterPassword)
	}
	if n > maxMasterPassword {
		return invalid("master password must be at most %d characters", maxMasterPassword)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return invalid("master password must contain an uppercase letter")
	case !lower:
		return invalid("master password must contain a lowercase letter")
	case !digit:
		return invalid("master password must contain a digit")
	case !symbol:
		return invalid("master password must contain a special character")
	}
	return nil
}

func validateRegistration(email, username, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateUsername(username); err != nil {
		return err
	}
	return validateMasterPassword(password)
}

func checkLen(field string, v *string, min, max int) error {
	if v == nil {
		if min > 0 {
			return invalid("%s is required", field)
		}
		return nil
	}
	n := utf8.RuneCountInString(*v)
	if n < min {
		return invalid("%s is required", field)
	}
	if n > max {
		return invalid("%s must be at most %d characters", field, max)
	}
	return nil
}
