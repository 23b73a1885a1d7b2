package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected ThreatLevel
	}{
		{"Zero score is safe", 0.0, LevelSafe},
		{"Just below low boundary", 0.19, LevelSafe},
		{"Low boundary", 0.2, LevelLow},
		{"Medium boundary", 0.4, LevelMedium},
		{"High boundary", 0.6, LevelHigh},
		{"Critical boundary", 0.8, LevelCritical},
		{"Maximum score", 1.0, LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelForScore(tt.score))
		})
	}
}

func TestThreatLevel_Rank_Ordering(t *testing.T) {
	ordered := []ThreatLevel{LevelSafe, LevelLow, LevelMedium, LevelHigh, LevelCritical}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(),
			"%s should rank above %s", ordered[i], ordered[i-1])
	}
}

func TestSecurityConfig_Normalize(t *testing.T) {
	def := DefaultSecurityConfig()

	t.Run("Zero value falls back to defaults", func(t *testing.T) {
		got := SecurityConfig{}.Normalize()
		assert.Equal(t, def.Mode, got.Mode)
		assert.Equal(t, def.ThreatThreshold, got.ThreatThreshold)
		assert.Equal(t, def.MaxLedgerEntries, got.MaxLedgerEntries)
		assert.Equal(t, def.ReputationTTL, got.ReputationTTL)
		assert.Equal(t, def.ReputationCap, got.ReputationCap)
	})

	t.Run("Out-of-range threshold is replaced", func(t *testing.T) {
		cfg := def
		cfg.ThreatThreshold = 1.5
		assert.Equal(t, def.ThreatThreshold, cfg.Normalize().ThreatThreshold)
	})

	t.Run("Valid values survive", func(t *testing.T) {
		cfg := def
		cfg.Mode = ModeBasic
		cfg.ThreatThreshold = 0.7
		cfg.ReputationTTL = time.Hour
		got := cfg.Normalize()
		assert.Equal(t, ModeBasic, got.Mode)
		assert.Equal(t, 0.7, got.ThreatThreshold)
		assert.Equal(t, time.Hour, got.ReputationTTL)
	})
}
