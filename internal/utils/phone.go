package utils

import "strings"

// NormalizeUAPhone returns "+380XXXXXXXXX" when the input holds exactly nine
// national digits (optionally behind 380 or a trunk 0). Anything else is
// returned trimmed and unchanged.
func NormalizeUAPhone(input string) string {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "380"):
		d = d[3:]
	case len(d) == 10 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}

	if len(d) != 9 {
		return strings.TrimSpace(input)
	}
	return "+380" + d
}
