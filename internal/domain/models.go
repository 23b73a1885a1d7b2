package domain

import (
	"time"

	"github.com/google/uuid"
)

// ThreatType classifies what kind of threat a scan detected
type ThreatType string

const (
	ThreatSafe          ThreatType = "safe"
	ThreatPhishing      ThreatType = "phishing"
	ThreatMalware       ThreatType = "malware"
	ThreatScam          ThreatType = "scam"
	ThreatSuspiciousURL ThreatType = "suspicious_url"
	ThreatPhishingURL   ThreatType = "phishing_url"
)

// ThreatLevel is the ordered severity classification derived from a confidence score
type ThreatLevel string

const (
	LevelSafe     ThreatLevel = "safe"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

// Rank returns the ordinal position of a level so levels can be compared
func (l ThreatLevel) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return 0
	}
}

// LevelForScore converts a confidence score to a categorical threat level
func LevelForScore(score float64) ThreatLevel {
	switch {
	case score >= 0.8:
		return LevelCritical
	case score >= 0.6:
		return LevelHigh
	case score >= 0.4:
		return LevelMedium
	case score >= 0.2:
		return LevelLow
	default:
		return LevelSafe
	}
}

// MessageState tracks where a message is in its delivery lifecycle.
// A message transitions exactly once out of StateSending.
type MessageState string

const (
	StateSending MessageState = "sending"
	StateSent    MessageState = "sent"
	StateWarning MessageState = "warning"
	StateBlocked MessageState = "blocked"
	StateFailed  MessageState = "failed"
)

// Action is the enforcement outcome the decision policy assigns to a scan result
type Action string

const (
	ActionAllow      Action = "allow"
	ActionWarn       Action = "warn"
	ActionBlock      Action = "block"
	ActionQuarantine Action = "quarantine"
)

// MaxContentBytes bounds the size of a single message body
const MaxContentBytes = 4096

// Message represents a chat message moving through the security pipeline.
// ID is caller-supplied and doubles as the idempotency key: the pipeline makes
// at most one authoritative decision per ID.
type Message struct {
	ID          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	SenderToken string       `json:"sender_token"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Nickname    string       `json:"nickname,omitempty"`
	Seq         int          `json:"seq,omitempty"`
	State       MessageState `json:"state"`
	Scan        *ScanResult  `json:"scan,omitempty"`
}

// ScanResult is the immutable outcome of scanning one message.
// It is attached to a Message as an annotation and never mutates its identity.
type ScanResult struct {
	IsThreat   bool        `json:"is_threat"`
	Confidence float64     `json:"confidence"` // 0.0 to 1.0
	ThreatType ThreatType  `json:"threat_type"`
	Level      ThreatLevel `json:"threat_level"`
	Indicators []string    `json:"indicators,omitempty"` // matched strings, deduplicated
	Reason     string      `json:"reason,omitempty"`     // human-readable explanation
}

// SecurityMode selects which scan stages the pipeline runs
type SecurityMode string

const (
	// ModeBasic runs the lexicon scan only, no network lookups
	ModeBasic SecurityMode = "basic"
	// ModeReputation runs URL reputation lookups only
	ModeReputation SecurityMode = "reputation"
	// ModeHybrid runs the lexicon scan plus URL reputation lookups
	ModeHybrid SecurityMode = "hybrid"
)

// SecurityConfig controls the decision policy and pipeline behavior.
// It is replaced as a whole on update, never field-mutated in place.
type SecurityConfig struct {
	Enabled          bool          `json:"enabled"`
	Mode             SecurityMode  `json:"mode"`
	ThreatThreshold  float64       `json:"threat_threshold"` // in (0,1)
	BlockHighRisk    bool          `json:"block_high_risk"`
	ShowWarnings     bool          `json:"show_warnings"`
	AutoBlockMedium  bool          `json:"auto_block_medium"`
	LogAllMessages   bool          `json:"log_all_messages"`
	MaxLedgerEntries int           `json:"max_ledger_entries"`
	ReputationTTL    time.Duration `json:"reputation_ttl"`
	ReputationCap    int           `json:"reputation_cap"`
}

// DefaultSecurityConfig returns the documented defaults used when no stored
// configuration exists or stored values are out of range
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Enabled:          true,
		Mode:             ModeHybrid,
		ThreatThreshold:  0.5,
		BlockHighRisk:    true,
		ShowWarnings:     true,
		AutoBlockMedium:  false,
		LogAllMessages:   false,
		MaxLedgerEntries: 500,
		ReputationTTL:    24 * time.Hour,
		ReputationCap:    1000,
	}
}

// Normalize replaces out-of-range or missing fields with defaults so a
// partially populated stored config never disables the pipeline by accident
func (c SecurityConfig) Normalize() SecurityConfig {
	def := DefaultSecurityConfig()
	if c.Mode != ModeBasic && c.Mode != ModeReputation && c.Mode != ModeHybrid {
		c.Mode = def.Mode
	}
	if c.ThreatThreshold <= 0 || c.ThreatThreshold >= 1 {
		c.ThreatThreshold = def.ThreatThreshold
	}
	if c.MaxLedgerEntries <= 0 {
		c.MaxLedgerEntries = def.MaxLedgerEntries
	}
	if c.ReputationTTL <= 0 {
		c.ReputationTTL = def.ReputationTTL
	}
	if c.ReputationCap <= 0 {
		c.ReputationCap = def.ReputationCap
	}
	return c
}

// LedgerEntry is one audited scan outcome kept by the security ledger
type LedgerEntry struct {
	ID            uuid.UUID  `json:"id"`
	Timestamp     time.Time  `json:"timestamp"`
	Content       string     `json:"content"`
	Scan          ScanResult `json:"scan"`
	SenderID      string     `json:"sender_id"`
	RoomID        string     `json:"room_id"`
	FalsePositive bool       `json:"false_positive,omitempty"`
}

// ReputationVerdict is a cached malicious/clean classification for a URL
type ReputationVerdict struct {
	URL       string    `json:"url"` // normalized
	Malicious bool      `json:"malicious"`
	CheckedAt time.Time `json:"checked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
