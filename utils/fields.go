package utils

import (
	"strings"

	"github.com/badoux/checkmail"

	"leadform/models"
)

// MinPhoneDigits is the minimum normalized length for a number to be
// considered deliverable (local number plus area code).
const MinPhoneDigits = 10

// Key synonyms scanned in priority order. Earlier entries win so an explicit
// "whatsapp" field beats a generic "phone" one.
var phoneKeySynonyms = []string{"whatsapp", "telefone", "celular", "phone", "mobile"}

var nameKeySynonyms = []string{"nome completo", "full name", "nome", "name"}

var emailKeySynonyms = []string{"email", "e-mail", "correo"}

// FindPhone scans a lead's answer map for a phone-like field and returns the
// number normalized to digits. Keys are matched against the synonym list
// first; when no key matches, values are scanned for anything that looks like
// a phone number. The boolean is false when nothing with at least
// MinPhoneDigits digits is found.
func FindPhone(data map[string]interface{}) (string, bool) {
	for _, synonym := range phoneKeySynonyms {
		for key, value := range data {
			if !strings.Contains(strings.ToLower(key), synonym) {
				continue
			}
			digits := NormalizePhone(models.ValueToString(value))
			if len(digits) >= MinPhoneDigits {
				return digits, true
			}
		}
	}

	// Fallback: any value that is plausibly a phone number
	for _, value := range data {
		raw := models.ValueToString(value)
		if !looksLikePhone(raw) {
			continue
		}
		digits := NormalizePhone(raw)
		if len(digits) >= MinPhoneDigits {
			return digits, true
		}
	}

	return "", false
}

// NormalizePhone strips everything but digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// looksLikePhone reports whether a raw value is mostly digits and phone
// punctuation, guarding the value-scan fallback against free-text answers.
func looksLikePhone(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	digits := 0
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == '(' || r == ')' || r == ' ' || r == '.':
		default:
			return false
		}
	}
	return digits >= MinPhoneDigits
}

// FindEmail scans a lead's answer map for an email field, preferring keys
// from the synonym list and falling back to any syntactically valid address.
func FindEmail(data map[string]interface{}) (string, bool) {
	for _, synonym := range emailKeySynonyms {
		for key, value := range data {
			if !strings.Contains(strings.ToLower(key), synonym) {
				continue
			}
			candidate := strings.TrimSpace(models.ValueToString(value))
			if checkmail.ValidateFormat(candidate) == nil {
				return strings.ToLower(candidate), true
			}
		}
	}

	for _, value := range data {
		candidate := strings.TrimSpace(models.ValueToString(value))
		if candidate != "" && checkmail.ValidateFormat(candidate) == nil {
			return strings.ToLower(candidate), true
		}
	}

	return "", false
}

// FindName returns the lead's name field when one can be identified.
func FindName(data map[string]interface{}) (string, bool) {
	for _, synonym := range nameKeySynonyms {
		for key, value := range data {
			if !strings.Contains(strings.ToLower(key), synonym) {
				continue
			}
			name := strings.TrimSpace(models.ValueToString(value))
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// SplitName breaks a full name into first and last parts for providers that
// require them separately.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	first = parts[0]
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}
