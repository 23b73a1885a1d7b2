package detection

import (
	"github.com/sentrychat/message-security/internal/domain"
)

const (
	socialEngineeringWeight = 1.5
	// Urgency words and emoji flooding add flat bumps regardless of count:
	// they sharpen other signals but should not dominate the score on their own
	urgencyFlatBonus = 0.5
	emojiFlatBonus   = 0.5
	// Distinct manipulative emoji needed before the flat bonus applies
	emojiFloodFloor = 5
)

// ManipulationScan detects emotional-manipulation pressure: social-engineering
// phrases, urgency vocabulary, and emoji flooding
type ManipulationScan struct{}

// NewManipulationScan creates the emotional manipulation scan
func NewManipulationScan() *ManipulationScan {
	return &ManipulationScan{}
}

// Name returns the scan name
func (s *ManipulationScan) Name() string {
	return "Emotional Manipulation"
}

// Scan scores manipulation signals. Social-engineering phrases score per hit;
// urgency and emoji flooding each add one flat bonus at most.
func (s *ManipulationScan) Scan(text string, lex *Lexicon) Finding {
	phrases := matchKeywords(text, lex.List(CatSocialEngineering))
	urgency := matchKeywords(text, lex.List(CatUrgencyWords))
	emojiCount := countDistinctRunes(text, lex.List(CatManipulativeEmoji))

	score := float64(len(phrases)) * socialEngineeringWeight
	indicators := append([]string(nil), phrases...)

	if len(urgency) > 0 {
		score += urgencyFlatBonus
		indicators = append(indicators, urgency...)
	}
	if emojiCount > emojiFloodFloor {
		score += emojiFlatBonus
		indicators = append(indicators, "excessive manipulative emoji")
	}
	if score == 0 {
		return Finding{}
	}

	return Finding{
		Score:      score,
		Indicators: indicators,
		Type:       domain.ThreatScam,
		Phrase:     "emotional manipulation detected",
	}
}
