// Package policy maps a scan result and the active security configuration to
// an enforcement action. Decide is a total function: every combination of
// threat level and configuration yields exactly one action.
package policy

import (
	"github.com/sentrychat/message-security/internal/domain"
)

// Decide returns the enforcement action for a scan result.
//
// Rules are evaluated in order. A critical result blocks unconditionally:
// no configuration flag can downgrade it.
func Decide(result domain.ScanResult, cfg domain.SecurityConfig) domain.Action {
	if !cfg.Enabled || !result.IsThreat {
		return domain.ActionAllow
	}

	switch result.Level {
	case domain.LevelCritical:
		return domain.ActionBlock
	case domain.LevelHigh:
		if cfg.BlockHighRisk {
			return domain.ActionBlock
		}
		return domain.ActionWarn
	case domain.LevelMedium:
		if cfg.AutoBlockMedium {
			return domain.ActionQuarantine
		}
		return domain.ActionWarn
	case domain.LevelLow:
		if cfg.ShowWarnings {
			return domain.ActionWarn
		}
		return domain.ActionAllow
	default:
		// A threat flagged below the low boundary carries no enforceable
		// severity; treat it like a low-level finding without warnings.
		return domain.ActionAllow
	}
}
