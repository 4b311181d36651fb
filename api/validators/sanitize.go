package validators

import "strings"

// SanitizeString trims the input, collapses runs of whitespace to a
// single space, and truncates to maxLen bytes when maxLen is positive.
func SanitizeString(input string, maxLen int) string {
	clean := strings.Join(strings.Fields(input), " ")
	if maxLen > 0 && len(clean) > maxLen {
		return clean[:maxLen]
	}
	return clean
}
