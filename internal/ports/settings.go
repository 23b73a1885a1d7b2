package ports

import (
	"context"

	"github.com/sentrychat/message-security/internal/domain"
)

// SettingsStore persists the security configuration and ledger snapshots
// across restarts. The core calls it only at defined lifecycle points (init,
// explicit save), never on the hot path of a single scan.
type SettingsStore interface {
	LoadConfig(ctx context.Context) (domain.SecurityConfig, error)
	SaveConfig(ctx context.Context, cfg domain.SecurityConfig) error

	LoadLedger(ctx context.Context) ([]domain.LedgerEntry, error)
	SaveLedger(ctx context.Context, entries []domain.LedgerEntry) error

	// Lifecycle
	Close() error
}
