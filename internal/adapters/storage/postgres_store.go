package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sentrychat/message-security/internal/domain"
)

// PostgresStore implements ports.SettingsStore for PostgreSQL. It is touched
// only at lifecycle points (startup load, explicit save), never on the scan
// hot path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL settings store
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Lifecycle-only workload: a small pool is plenty
	db.SetMaxOpenConns(3)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables if they don't exist
func (s *PostgresStore) InitSchema() error {
	schema := `
	-- Single-row table holding the active security configuration as JSON.
	-- The whole struct is replaced on save, matching the config update
	-- contract (no partial field mutation).
	CREATE TABLE IF NOT EXISTS security_config (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		config JSONB NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW()
	);

	-- Ledger snapshot. Rewritten wholesale on explicit save; the in-memory
	-- ledger owns ordering and eviction, this is just durable evidence.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id UUID PRIMARY KEY,
		recorded_at TIMESTAMP NOT NULL,
		room_id VARCHAR(128) NOT NULL,
		sender_id VARCHAR(128) NOT NULL,
		content TEXT NOT NULL,
		scan JSONB NOT NULL,
		false_positive BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_recorded_at ON ledger_entries(recorded_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// LoadConfig returns the stored configuration, or defaults when none exists
func (s *PostgresStore) LoadConfig(ctx context.Context) (domain.SecurityConfig, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM security_config WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSecurityConfig(), nil
	}
	if err != nil {
		return domain.DefaultSecurityConfig(), fmt.Errorf("failed to load config: %w", err)
	}

	var cfg domain.SecurityConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.DefaultSecurityConfig(), fmt.Errorf("failed to decode stored config: %w", err)
	}
	return cfg.Normalize(), nil
}

// SaveConfig replaces the stored configuration
func (s *PostgresStore) SaveConfig(ctx context.Context, cfg domain.SecurityConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO security_config (id, config, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET config = $1, updated_at = NOW()`,
		raw)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// LoadLedger returns the persisted ledger snapshot, oldest first
func (s *PostgresStore) LoadLedger(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, room_id, sender_id, content, scan, false_positive
		FROM ledger_entries
		ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		var scanRaw []byte
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.RoomID,
			&entry.SenderID, &entry.Content, &scanRaw, &entry.FalsePositive); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		if err := json.Unmarshal(scanRaw, &entry.Scan); err != nil {
			return nil, fmt.Errorf("failed to decode scan result: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveLedger replaces the persisted snapshot with the given entries
func (s *PostgresStore) SaveLedger(ctx context.Context, entries []domain.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries`); err != nil {
		return fmt.Errorf("failed to clear old snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_entries (id, recorded_at, room_id, sender_id, content, scan, false_positive)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		scanRaw, err := json.Marshal(entry.Scan)
		if err != nil {
			return fmt.Errorf("failed to encode scan result: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, entry.ID, entry.Timestamp, entry.RoomID,
			entry.SenderID, entry.Content, scanRaw, entry.FalsePositive); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger save: %w", err)
	}
	return nil
}
