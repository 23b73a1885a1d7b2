package detection

import (
	"testing"

	"github.com/sentrychat/message-security/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPhishingScan_Scan(t *testing.T) {
	scan := NewPhishingScan()
	lex := DefaultLexicon()

	tests := []struct {
		name          string
		text          string
		expectedScore float64
	}{
		{
			name:          "No phishing language",
			text:          "see you at the gym later",
			expectedScore: 0,
		},
		{
			name:          "Single high-risk phrase",
			text:          "we noticed you must verify your account",
			expectedScore: 3.0,
		},
		{
			name:          "Single medium-risk phrase",
			text:          "security alert for your device",
			expectedScore: 1.5,
		},
		{
			name:          "High plus medium plus financial context",
			text:          "verify your account, confirm your identity and send your credit card number",
			expectedScore: 5.5,
		},
		{
			name:          "Two high-risk phrases stack",
			text:          "verify your account because your account has been suspended",
			expectedScore: 6.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := scan.Scan(tt.text, lex)
			assert.InDelta(t, tt.expectedScore, finding.Score, 0.001)
			if tt.expectedScore > 0 {
				assert.Equal(t, domain.ThreatPhishing, finding.Type)
				assert.NotEmpty(t, finding.Indicators)
			} else {
				assert.Empty(t, finding.Indicators)
			}
		})
	}
}

func TestPhishingScan_Scan_EmptyLexiconCategory(t *testing.T) {
	scan := NewPhishingScan()
	empty := &Lexicon{lists: map[string][]string{}}

	finding := scan.Scan("verify your account", empty)

	assert.Equal(t, 0.0, finding.Score)
}
