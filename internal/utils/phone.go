package utils

import "strings"

// NormalizePhone canonicalizes a phone number for storage and comparison:
// whitespace, dashes, dots and parentheses are stripped, a leading "00" is
// rewritten to "+", and anything other than digits (plus an optional leading
// "+") is dropped. Invitation-phone matching and user lookup both rely on
// comparing normalized forms.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}

// SamePhone reports whether two phone numbers refer to the same line after
// normalization.
func SamePhone(a, b string) bool {
	return NormalizePhone(a) != "" && NormalizePhone(a) == NormalizePhone(b)
}
