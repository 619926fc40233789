// Package strength scores passwords on a 0-100 scale.
//
// The score combines length, character variety and the zxcvbn entropy
// estimate, minus penalties for dictionary words, keyboard walks, repeated
// runs and sequences.
package strength

import (
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

const (
	LabelNone      = "none"
	LabelWeak      = "weak"
	LabelFair      = "fair"
	LabelGood      = "good"
	LabelStrong    = "strong"
	LabelExcellent = "excellent"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

var keyboardPatterns = []string{
	"qwerty", "asdf", "zxcv", "1234", "0987", "qwertyuiop", "asdfghjkl",
	"zxcvbnm", "1qaz", "2wsx", "3edc", "4rfv", "5tgb", "6yhn", "7ujm", "8ik",
}

type Result struct {
	Score       int
	Label       string
	Suggestions []string
	// CrackTime is zxcvbn's human readable crack time estimate.
	CrackTime string
}

// IsWeak reports whether a label counts as weak for analytics.
func IsWeak(label string) bool {
	return label == LabelWeak || label == LabelFair || label == LabelNone
}

func Analyze(password string) Result {
	if password == "" {
		return Result{Score: 0, Label: LabelNone, Suggestions: []string{"Password is required"}}
	}

	var suggestions []string
	score := 0

	switch n := len([]rune(password)); {
	case n >= 16:
		score += 30
	case n >= 12:
		score += 20
	case n >= 8:
		score += 10
	default:
		suggestions = append(suggestions, "Use at least 12 characters")
	}

	est := zxcvbn.PasswordStrength(password, nil)
	switch {
	case est.Entropy >= 60:
		score += 25
	case est.Entropy >= 45:
		score += 20
	case est.Entropy >= 30:
		score += 10
	default:
		suggestions = append(suggestions, "Add more variety (uppercase, numbers, symbols)")
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	for _, has := range []bool{lower, upper, digit, special} {
		if has {
			score += 5
		}
	}
	if !upper {
		suggestions = append(suggestions, "Add uppercase letters")
	}
	if !digit {
		suggestions = append(suggestions, "Add numbers")
	}
	if !special {
		suggestions = append(suggestions, "Add special characters")
	}

	if est.Score == 0 {
		score -= 30
		suggestions = append(suggestions, "Avoid common passwords")
	}
	if hasKeyboardPattern(password) {
		score -= 15
		suggestions = append(suggestions, "Avoid keyboard patterns")
	}
	if hasRepeatedRun(password) {
		score -= 10
		suggestions = append(suggestions, "Avoid repeated characters")
	}
	if hasSequence(password) {
		score -= 10
		suggestions = append(suggestions, "Avoid sequential characters")
	}

	score = max(0, min(100, score))

	return Result{
		Score:       score,
		Label:       label(score),
		Suggestions: suggestions,
		CrackTime:   est.CrackTimeDisplay,
	}
}

func label(score int) string {
	switch {
	case score >= 80:
		return LabelExcellent
	case score >= 60:
		return LabelStrong
	case score >= 40:
		return LabelGood
	case score >= 20:
		return LabelFair
	default:
		return LabelWeak
	}
}

func hasKeyboardPattern(password string) bool {
	lower := strings.ToLower(password)
	for _, p := range keyboardPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports three or more identical characters in a row.
func hasRepeatedRun(password string) bool {
	rs := []rune(password)
	for i := 2; i < len(rs); i++ {
		if rs[i] == rs[i-1] && rs[i] == rs[i-2] {
			return true
		}
	}
	return false
}

// hasSequence reports three consecutive code points ascending or
// descending by one, e.g. "abc" or "321".
func hasSequence(password string) bool {
	rs := []rune(password)
	for i := 2; i < len(rs); i++ {
		d1, d2 := rs[i-1]-rs[i-2], rs[i]-rs[i-1]
		if d1 == d2 && (d1 == 1 || d1 == -1) {
			return true
		}
	}
	return false
}
