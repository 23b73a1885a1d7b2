package detection

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Weights for URL heuristics. These are dictionary checks only; the reputation
// lookup that consults an external service runs outside the scoring engine.
const (
	urlPatternWeight = 2.0
	shortenerWeight  = 1.5
)

// SuspiciousURLScan flags URLs that look hostile on their face: raw-IP or
// punycode links, credential-bait paths on throwaway TLDs, and link shorteners
// that hide the real destination
type SuspiciousURLScan struct{}

// NewSuspiciousURLScan creates the URL heuristics scan
func NewSuspiciousURLScan() *SuspiciousURLScan {
	return &SuspiciousURLScan{}
}

// Name returns the scan name
func (s *SuspiciousURLScan) Name() string {
	return "Suspicious URLs"
}

// Scan scores URL pattern and shortener hits
func (s *SuspiciousURLScan) Scan(text string, lex *Lexicon) Finding {
	patterns := matchPatterns(text, lex.Patterns(CatURLPatterns))
	shorteners := matchKeywords(text, lex.List(CatShorteners))

	score := float64(len(patterns))*urlPatternWeight +
		float64(len(shorteners))*shortenerWeight
	if score == 0 {
		return Finding{}
	}

	indicators := make([]string, 0, len(patterns)+len(shorteners))
	indicators = append(indicators, patterns...)
	indicators = append(indicators, shorteners...)

	return Finding{
		Score:      score,
		Indicators: indicators,
		Type:       domain.ThreatSuspiciousURL,
		Phrase:     "suspicious url detected",
	}
}
