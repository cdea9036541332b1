package validate

import (
	"testing"
	"unicode"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// FuzzSanitizeTitle checks sanitized titles carry no control characters.
// Run with: go test ./internal/validate -fuzz=FuzzSanitizeTitle -fuzztime=30s
func FuzzSanitizeTitle(f *testing.F) {
	seeds := []string{
		"normal text",
		"hello\x00world",
		"test\x1b[31mred",
		"提交报销单",
		"emoji 😀🎉",
		string(make([]byte, 10000)),
		"",
		"\t\n\r",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		for _, r := range SanitizeTitle(input) {
			if unicode.IsControl(r) {
				t.Fatalf("SanitizeTitle(%q) kept control character %U", input, r)
			}
		}
	})
}

// FuzzRadius checks accepted radii are never below the minimum.
func FuzzRadius(f *testing.F) {
	for _, seed := range []string{"100", "99.9", "150m", "", "abc", "-5", "1e3", "NaN", "Inf"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		r, err := Radius(input)
		if err == nil && !(r >= model.MinRadius) {
			t.Fatalf("Radius(%q) = %v, below the minimum", input, r)
		}
	})
}
