package detection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManipulationScan_Scan(t *testing.T) {
	scan := NewManipulationScan()
	lex := DefaultLexicon()

	tests := []struct {
		name          string
		text          string
		expectedScore float64
	}{
		{
			name:          "Clean text",
			text:          "movie night on friday?",
			expectedScore: 0,
		},
		{
			name:          "Single social engineering phrase",
			text:          "keep this between us, ok?",
			expectedScore: 1.5,
		},
		{
			name:          "Urgency alone adds one flat bump",
			text:          "urgent! reply immediately! asap!",
			expectedScore: 0.5,
		},
		{
			name:          "Phrase plus urgency",
			text:          "you can trust me, but act now",
			expectedScore: 2.0,
		},
		{
			name:          "Five distinct emoji is below the flood floor",
			text:          "party 😱🚨💰🎁🔥",
			expectedScore: 0,
		},
		{
			name:          "Six distinct emoji add one flat bump",
			text:          "party 😱🚨💰🎁🔥🤑",
			expectedScore: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := scan.Scan(tt.text, lex)
			assert.InDelta(t, tt.expectedScore, finding.Score, 0.001)
		})
	}
}

func TestManipulationScan_Scan_UrgencyDoesNotScaleWithCount(t *testing.T) {
	scan := NewManipulationScan()
	lex := DefaultLexicon()

	one := scan.Scan("urgent", lex)
	many := scan.Scan(strings.Repeat("urgent immediately asap ", 10), lex)

	assert.Equal(t, one.Score, many.Score)
}

func TestManipulationScan_Scan_RepeatedEmojiDoNotCountTwice(t *testing.T) {
	scan := NewManipulationScan()
	lex := DefaultLexicon()

	// Five distinct emoji repeated many times stay below the flood floor
	finding := scan.Scan(strings.Repeat("😱🚨💰🎁🔥", 4), lex)

	assert.Equal(t, 0.0, finding.Score)
}
