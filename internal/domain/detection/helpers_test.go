package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "No URLs",
			text:     "just plain text",
			expected: nil,
		},
		{
			name:     "Single URL",
			text:     "see https://example.com/page for details",
			expected: []string{"https://example.com/page"},
		},
		{
			name:     "Multiple URLs keep order",
			text:     "first http://a.example.com then https://b.example.com",
			expected: []string{"http://a.example.com", "https://b.example.com"},
		},
		{
			name:     "Duplicates collapse",
			text:     "http://x.test http://x.test",
			expected: []string{"http://x.test"},
		},
		{
			name:     "Trailing punctuation stripped",
			text:     "read this: https://example.com/a, then reply",
			expected: []string{"https://example.com/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractURLs(tt.text))
		})
	}
}

func TestMatchKeywords(t *testing.T) {
	matched := matchKeywords("the quick brown fox", []string{"quick", "slow", "fox"})
	assert.Equal(t, []string{"quick", "fox"}, matched)

	assert.Empty(t, matchKeywords("anything", nil))
}
