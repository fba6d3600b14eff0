package strings

import (
	"testing"
)

func TestTruncateDetail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "missing key path",
			maxLen:   20,
			expected: "missing key path",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "invocation failed: connection reset by peer",
			maxLen:   25,
			expected: "invocation failed: con...",
		},
		{
			name:     "newlines collapsed",
			input:    "line one\n\nline two",
			maxLen:   30,
			expected: "line one line two",
		},
		{
			name:     "tabs and repeated spaces collapsed",
			input:    "a\t\tb    c",
			maxLen:   10,
			expected: "a b c",
		},
		{
			name:     "leading and trailing whitespace trimmed",
			input:    "  padded  ",
			maxLen:   10,
			expected: "padded",
		},
		{
			name:     "rune-safe truncation",
			input:    "日本語テスト文字列",
			maxLen:   6,
			expected: "日本語...",
		},
		{
			name:     "empty string",
			input:    "",
			maxLen:   10,
			expected: "",
		},
		{
			name:     "whitespace only becomes empty",
			input:    "   \n\t  ",
			maxLen:   10,
			expected: "",
		},
		{
			name:     "maxLen below minimum clamped",
			input:    "hello",
			maxLen:   2,
			expected: "h...",
		},
		{
			name:     "negative maxLen clamped",
			input:    "hello",
			maxLen:   -5,
			expected: "h...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateDetail(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("TruncateDetail(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestTruncateDetailRuneLength(t *testing.T) {
	// 6 characters but 18 bytes in UTF-8; the cut must count runes
	result := TruncateDetail("日本語テスト", 5)
	if result != "日本..." {
		t.Errorf("expected %q but got %q", "日本...", result)
	}
	runeCount := 0
	for range result {
		runeCount++
	}
	if runeCount != 5 {
		t.Errorf("expected 5 runes but got %d", runeCount)
	}
}
