package detection

import (
	"testing"

	"github.com/sentrychat/message-security/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMaliciousPatternScan_Scan(t *testing.T) {
	scan := NewMaliciousPatternScan()
	lex := DefaultLexicon()

	tests := []struct {
		name          string
		text          string
		expectedScore float64
	}{
		{
			name:          "Clean text",
			text:          "lunch at noon works for me",
			expectedScore: 0,
		},
		{
			name:          "Dangerous file extension",
			text:          "download the update from invoice.exe",
			expectedScore: 2.5,
		},
		{
			name:          "Tracker domain",
			text:          "check this out https://grabify.link/abc",
			expectedScore: 2.0,
		},
		{
			name:          "SQL injection payload",
			text:          "'; drop table users; --",
			expectedScore: 4.0,
		},
		{
			name:          "XSS payload",
			text:          "<script>document.location='http://evil'</script>",
			expectedScore: 3.5,
		},
		{
			name:          "Stacked extension and injection",
			text:          "run payload.bat after union select password from users",
			expectedScore: 6.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := scan.Scan(tt.text, lex)
			assert.InDelta(t, tt.expectedScore, finding.Score, 0.001)
			if tt.expectedScore > 0 {
				assert.Equal(t, domain.ThreatMalware, finding.Type)
				assert.Equal(t, "malicious patterns detected", finding.Phrase)
			}
		})
	}
}

func TestMaliciousPatternScan_Scan_IndicatorsNameTheMatch(t *testing.T) {
	scan := NewMaliciousPatternScan()

	finding := scan.Scan("grab payload.exe now", DefaultLexicon())

	assert.Contains(t, finding.Indicators, ".exe")
}
