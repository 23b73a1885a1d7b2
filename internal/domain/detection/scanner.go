package detection

import (
	"math"
	"strings"

	"github.com/sentrychat/message-security/internal/domain"
)

// threatFloor is the fixed detection threshold. It is independent of the
// configurable SecurityConfig threshold, which governs enforcement, not
// detection.
const threatFloor = 0.3

// scoreCeiling is the raw score that maps to full confidence
const scoreCeiling = 10.0

// Finding is the partial result one category scan contributes
type Finding struct {
	Score      float64
	Indicators []string
	Type       domain.ThreatType
	Phrase     string // fixed per-category explanation fragment
}

// CategoryScan analyzes already-lowercased text against the lexicon and
// returns a partial score with the indicators that matched.
//
// This follows the same pluggable-strategy layout as the rest of the scanning
// code: each category is independently developed and tested, and the scanner
// runs them in a fixed order.
type CategoryScan interface {
	Scan(text string, lex *Lexicon) Finding
	Name() string
}

// Scanner is the threat scoring engine. Scan is a pure function of the input
// text and the read-only lexicon snapshot, so a single Scanner is safe for
// concurrent use across messages.
type Scanner struct {
	lex   *Lexicon
	scans []CategoryScan
}

// NewScanner creates a scanner with the standard category scans in evaluation order
func NewScanner(lex *Lexicon) *Scanner {
	return &Scanner{
		lex: lex,
		scans: []CategoryScan{
			NewPhishingScan(),
			NewMaliciousPatternScan(),
			NewScamScan(),
			NewSuspiciousURLScan(),
			NewManipulationScan(),
		},
	}
}

// Scan scores a message text. Category scores sum into a raw total;
// confidence = min(total/10, 1). The threat type reports the last category
// that contributed in evaluation order, or safe if none did.
func (s *Scanner) Scan(text string) domain.ScanResult {
	if strings.TrimSpace(text) == "" {
		return domain.ScanResult{ThreatType: domain.ThreatSafe, Level: domain.LevelSafe}
	}

	lower := strings.ToLower(text)

	total := 0.0
	threatType := domain.ThreatSafe
	seen := make(map[string]struct{})
	var indicators []string
	var reasons []string

	for _, cs := range s.scans {
		finding := cs.Scan(lower, s.lex)
		if finding.Score <= 0 {
			continue
		}
		total += finding.Score
		threatType = finding.Type
		reasons = append(reasons, finding.Phrase)
		for _, ind := range finding.Indicators {
			if _, dup := seen[ind]; dup {
				continue
			}
			seen[ind] = struct{}{}
			indicators = append(indicators, ind)
		}
	}

	confidence := math.Min(total/scoreCeiling, 1.0)

	return domain.ScanResult{
		IsThreat:   confidence >= threatFloor,
		Confidence: confidence,
		ThreatType: threatType,
		Level:      domain.LevelForScore(confidence),
		Indicators: indicators,
		Reason:     strings.Join(reasons, "; "),
	}
}
