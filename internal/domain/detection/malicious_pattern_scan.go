package detection

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Weights for the malicious-pattern families
const (
	fileExtensionWeight    = 2.5
	suspiciousDomainWeight = 2.0
	injectionWeight        = 4.0
	xssWeight              = 3.5
)

// MaliciousPatternScan detects delivery vectors rather than language: dangerous
// file extensions, known tracker/logger domains, and injection or cross-site
// scripting payloads smuggled into message text
type MaliciousPatternScan struct{}

// NewMaliciousPatternScan creates the malicious pattern scan
func NewMaliciousPatternScan() *MaliciousPatternScan {
	return &MaliciousPatternScan{}
}

// Name returns the scan name
func (s *MaliciousPatternScan) Name() string {
	return "Malicious Patterns"
}

// Scan scores file-extension, domain, and payload-pattern hits
func (s *MaliciousPatternScan) Scan(text string, lex *Lexicon) Finding {
	extensions := matchKeywords(text, lex.List(CatFileExtensions))
	domains := matchKeywords(text, lex.List(CatSuspiciousDomains))
	injections := matchPatterns(text, lex.Patterns(CatInjectionPatterns))
	xss := matchPatterns(text, lex.Patterns(CatXSSPatterns))

	score := float64(len(extensions))*fileExtensionWeight +
		float64(len(domains))*suspiciousDomainWeight +
		float64(len(injections))*injectionWeight +
		float64(len(xss))*xssWeight
	if score == 0 {
		return Finding{}
	}

	indicators := make([]string, 0, len(extensions)+len(domains)+len(injections)+len(xss))
	indicators = append(indicators, extensions...)
	indicators = append(indicators, domains...)
	indicators = append(indicators, injections...)
	indicators = append(indicators, xss...)

	return Finding{
		Score:      score,
		Indicators: indicators,
		Type:       domain.ThreatMalware,
		Phrase:     "malicious patterns detected",
	}
}
