package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTodoArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		title  string
		rawDue string
		hasDue bool
	}{
		{"empty_args", []string{}, "", "", false},
		{"title_only", []string{"买牛奶"}, "买牛奶", "", false},
		{"multi_word_title", []string{"buy", "milk"}, "buy milk", "", false},
		{"due_keyword", []string{"写周报", "due", "friday"}, "写周报", "friday", true},
		{"by_keyword", []string{"pay", "rent", "by", "next", "monday"}, "pay rent", "next monday", true},
		{"chinese_keyword", []string{"交报销单", "截止", "+3d"}, "交报销单", "+3d", true},
		{"keyword_case_insensitive", []string{"call", "DUE", "tomorrow"}, "call", "tomorrow", true},
		{"quoted_title_keeps_keyword", []string{"buy due stamps"}, "buy due stamps", "", false},
		{"leading_keyword_is_title", []string{"due", "diligence"}, "due diligence", "", false},
		{"second_keyword_in_due", []string{"a", "due", "by", "friday"}, "a", "by friday", true},
		{"keyword_without_value", []string{"a", "due"}, "a", "", true},
		{"blank_args_skipped", []string{" ", "a", ""}, "a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseTodoArgs(tt.args)
			assert.Equal(t, tt.title, result.Title)
			assert.Equal(t, tt.rawDue, result.RawDue)
			assert.Equal(t, tt.hasDue, result.HasDue)
		})
	}
}

func TestTodoArgsMerge(t *testing.T) {
	t.Run("flag_overrides", func(t *testing.T) {
		a := ParseTodoArgs([]string{"a", "due", "friday"})
		a.Merge("2026-03-05")
		assert.Equal(t, "2026-03-05", a.RawDue)
		assert.True(t, a.HasDue)
	})

	t.Run("empty_flag_keeps_inline", func(t *testing.T) {
		a := ParseTodoArgs([]string{"a", "due", "friday"})
		a.Merge("")
		assert.Equal(t, "friday", a.RawDue)
	})

	t.Run("flag_without_inline", func(t *testing.T) {
		a := ParseTodoArgs([]string{"a"})
		a.Merge("+1d")
		assert.True(t, a.HasDue)
	})
}
