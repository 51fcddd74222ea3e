// Package phone canonicalizes client phone numbers before dispatch.
package phone

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalizer turns raw client phone numbers into +CC... form.
// Numbers that do not match a recognized pattern are rejected, never
// guessed at: a wrong destination is worse than a skipped reminder.
type Normalizer struct {
	// DefaultCountryCode is the country code assumed for bare domestic
	// numbers, without the plus (e.g. "39").
	DefaultCountryCode string
}

func (n Normalizer) Normalize(raw string) (string, error) {
	s := stripSeparators(raw)
	if s == "" {
		return "", ErrInvalidPhone
	}

	if strings.HasPrefix(s, "+") {
		digits := s[1:]
		// +[country][9-14 digits]: accept 11-16 digits total after the plus.
		if !allDigits(digits) || len(digits) < 11 || len(digits) > 16 {
			return "", ErrInvalidPhone
		}
		return "+" + digits, nil
	}

	if !allDigits(s) {
		return "", ErrInvalidPhone
	}

	cc := n.DefaultCountryCode
	// Country code present but the plus was dropped on entry.
	if cc != "" && strings.HasPrefix(s, cc) && len(s) == len(cc)+10 {
		return "+" + s, nil
	}
	// Bare domestic mobile number: 10 digits starting with the mobile prefix.
	if cc != "" && len(s) == 10 && s[0] == '3' {
		return "+" + cc + s, nil
	}

	return "", ErrInvalidPhone
}

func stripSeparators(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case ' ', '\t', '.', '-', '(', ')', '/':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
