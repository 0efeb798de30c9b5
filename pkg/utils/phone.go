package utils

import "strings"

// NormalizePhoneNumber converts a phone number into its 10 digit national
// form, e.g. "+33 6 01 02 03 04" -> "0601020304". The second return value
// reports whether the result is a valid national number.
func NormalizePhoneNumber(input string) (string, bool) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// international prefix variants
	if strings.HasPrefix(digits, "0033") && len(digits) == 13 {
		digits = "0" + digits[4:]
	} else if strings.HasPrefix(digits, "33") && len(digits) == 11 {
		digits = "0" + digits[2:]
	}

	if len(digits) != 10 || digits[0] != '0' {
		return digits, false
	}
	return digits, true
}
