package validate

import (
	"strings"
	"unicode"
)

// SanitizeTitle trims a to-do title and drops control characters.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(stripControl(title, false))
}

// SanitizeAddress cleans a location address for storage. Line breaks
// become spaces.
func SanitizeAddress(address string) string {
	address = strings.ReplaceAll(address, "\r\n", " ")
	address = strings.ReplaceAll(address, "\n", " ")
	return strings.TrimSpace(stripControl(address, false))
}

// StripControlChars removes control characters, keeping newlines and tabs.
func StripControlChars(s string) string {
	return stripControl(s, true)
}

func stripControl(s string, keepWhitespace bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || (keepWhitespace && (r == '\n' || r == '\t')) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateString truncates s to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
