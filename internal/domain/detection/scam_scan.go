package detection

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Per-family weights for scam keyword hits. Families with higher payout per
// victim carry higher weight.
const (
	romanceWeight    = 2.0
	emergencyWeight  = 2.5
	lotteryWeight    = 2.0
	investmentWeight = 3.0
	governmentWeight = 3.5
)

// ScamScan detects the classic confidence-scam families: romance, urgent
// financial emergencies, lottery and prize claims, investment fraud, and
// government impersonation
type ScamScan struct{}

// NewScamScan creates the scam keyword scan
func NewScamScan() *ScamScan {
	return &ScamScan{}
}

// Name returns the scan name
func (s *ScamScan) Name() string {
	return "Scam Keywords"
}

// Scan scores scam keyword hits per family
func (s *ScamScan) Scan(text string, lex *Lexicon) Finding {
	families := []struct {
		category string
		weight   float64
	}{
		{CatScamRomance, romanceWeight},
		{CatScamEmergency, emergencyWeight},
		{CatScamLottery, lotteryWeight},
		{CatScamInvestment, investmentWeight},
		{CatScamGovernment, governmentWeight},
	}

	score := 0.0
	var indicators []string
	for _, family := range families {
		matched := matchKeywords(text, lex.List(family.category))
		score += float64(len(matched)) * family.weight
		indicators = append(indicators, matched...)
	}
	if score == 0 {
		return Finding{}
	}

	return Finding{
		Score:      score,
		Indicators: indicators,
		Type:       domain.ThreatScam,
		Phrase:     "scam indicators detected",
	}
}
