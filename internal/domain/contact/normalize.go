package contact

import "strings"

// NormalizeEmail returns the canonical matching key for an email address:
// trimmed and lower-cased. An empty result means the input carries no
// usable address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone returns the canonical matching key for a phone number:
// every non-digit character is stripped, so "+1 555 123 4567" and
// "15551234567" produce the same key.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
