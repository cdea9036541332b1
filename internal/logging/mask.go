package logging

import (
	"regexp"
	"strings"
)

const (
	maskChar = "*"
	// URLMaskLength is how many characters of a URL stay visible.
	URLMaskLength = 30
)

// Webhook URLs embed their secret in the path, so they are never logged whole.
var sensitiveFields = []string{
	"token", "secret", "password", "api_key", "apikey", "auth", "credential", "private",
}

var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// MaskURL keeps the first URLMaskLength characters of url.
func MaskURL(url string) string {
	if len(url) <= URLMaskLength {
		return url
	}
	return url[:URLMaskLength] + strings.Repeat(maskChar, 3)
}

// IsSensitiveField reports whether a log key names secret data.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveFields {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// MaskString masks every non-local URL found in s.
func MaskString(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(url string) string {
		if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
			return url
		}
		return MaskURL(url)
	})
}

// MaskArgs masks sensitive values in slog key/value pairs.
func MaskArgs(args []any) []any {
	if len(args) < 2 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		switch {
		case IsSensitiveField(key):
			result[i+1] = strings.Repeat(maskChar, 8)
		case key == KeyURL:
			if s, ok := result[i+1].(string); ok {
				result[i+1] = MaskString(s)
			}
		}
	}
	return result
}
