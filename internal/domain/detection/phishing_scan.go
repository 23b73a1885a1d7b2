package detection

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Per-tier weights for phishing keyword hits
const (
	phishingHighWeight   = 3.0
	phishingMediumWeight = 1.5
	financialWeight      = 1.0
)

// PhishingScan detects credential-harvesting language: high-risk phrases,
// softer medium-risk phrases, and financial-context terms that sharpen both
type PhishingScan struct{}

// NewPhishingScan creates the phishing keyword scan
func NewPhishingScan() *PhishingScan {
	return &PhishingScan{}
}

// Name returns the scan name
func (s *PhishingScan) Name() string {
	return "Phishing Keywords"
}

// Scan scores phishing keyword hits against the lexicon tiers
func (s *PhishingScan) Scan(text string, lex *Lexicon) Finding {
	high := matchKeywords(text, lex.List(CatPhishingHigh))
	medium := matchKeywords(text, lex.List(CatPhishingMedium))
	financial := matchKeywords(text, lex.List(CatFinancial))

	score := float64(len(high))*phishingHighWeight +
		float64(len(medium))*phishingMediumWeight +
		float64(len(financial))*financialWeight
	if score == 0 {
		return Finding{}
	}

	indicators := make([]string, 0, len(high)+len(medium)+len(financial))
	indicators = append(indicators, high...)
	indicators = append(indicators, medium...)
	indicators = append(indicators, financial...)

	return Finding{
		Score:      score,
		Indicators: indicators,
		Type:       domain.ThreatPhishing,
		Phrase:     "phishing language detected",
	}
}
