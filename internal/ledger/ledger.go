// Package ledger keeps the append-only, size-bounded audit log of scan
// outcomes. Entries are evidence: reporting a false positive marks the entry
// and bumps a counter but never deletes it.
package ledger

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sentrychat/message-security/internal/domain"
	"github.com/sentrychat/message-security/internal/metrics"
)

// Filter narrows a ledger query. Zero values mean "no constraint".
type Filter struct {
	From      time.Time
	To        time.Time
	MinLevel  domain.ThreatLevel
	Type      domain.ThreatType
	Search    string // free text over content, reason, and indicators
	Ascending bool   // default sort is newest first
}

// Ledger is a bounded FIFO store of scan outcomes
type Ledger struct {
	mu             sync.RWMutex
	entries        []domain.LedgerEntry // chronological, oldest first
	max            int
	falsePositives int64
}

// New creates a ledger bounded to max entries
func New(max int) *Ledger {
	if max <= 0 {
		max = domain.DefaultSecurityConfig().MaxLedgerEntries
	}
	return &Ledger{max: max}
}

// Append records one scan outcome, evicting the oldest entries once the bound
// is exceeded
func (l *Ledger) Append(entry domain.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.max; overflow > 0 {
		l.entries = append([]domain.LedgerEntry(nil), l.entries[overflow:]...)
	}
}

// SetMax rebounds the ledger, evicting oldest entries if the new bound is smaller
func (l *Ledger) SetMax(max int) {
	if max <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = max
	if overflow := len(l.entries) - l.max; overflow > 0 {
		l.entries = append([]domain.LedgerEntry(nil), l.entries[overflow:]...)
	}
}

// Query returns the entries matching the filter, sorted by timestamp
// descending unless the filter asks for ascending order
func (l *Ledger) Query(filter Filter) []domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.LedgerEntry
	for _, entry := range l.entries {
		if !matches(entry, filter) {
			continue
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func matches(entry domain.LedgerEntry, filter Filter) bool {
	if !filter.From.IsZero() && entry.Timestamp.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && entry.Timestamp.After(filter.To) {
		return false
	}
	if filter.MinLevel != "" && entry.Scan.Level.Rank() < filter.MinLevel.Rank() {
		return false
	}
	if filter.Type != "" && entry.Scan.ThreatType != filter.Type {
		return false
	}
	if filter.Search != "" && !matchesSearch(entry, filter.Search) {
		return false
	}
	return true
}

func matchesSearch(entry domain.LedgerEntry, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(entry.Content), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Scan.Reason), needle) {
		return true
	}
	for _, indicator := range entry.Scan.Indicators {
		if strings.Contains(strings.ToLower(indicator), needle) {
			return true
		}
	}
	return false
}

// ReportFalsePositive marks the entry and increments the false-positive
// counter. The entry itself is kept.
func (l *Ledger) ReportFalsePositive(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			if !l.entries[i].FalsePositive {
				l.entries[i].FalsePositive = true
				l.falsePositives++
				metrics.FalsePositivesReported.Inc()
			}
			return true
		}
	}
	return false
}

// Clear discards all entries. The false-positive counter survives: it counts
// reports, not retained evidence.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Len returns the current number of entries
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// FalsePositives returns the number of false-positive reports
func (l *Ledger) FalsePositives() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.falsePositives
}

// Snapshot copies all entries, oldest first, for persistence
func (l *Ledger) Snapshot() []domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.LedgerEntry(nil), l.entries...)
}

// Restore replaces the ledger content from a persisted snapshot, trimming to
// the bound if the snapshot is larger
func (l *Ledger) Restore(entries []domain.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	if overflow := len(entries) - l.max; overflow > 0 {
		entries = entries[overflow:]
	}
	l.entries = append([]domain.LedgerEntry(nil), entries...)

	l.falsePositives = 0
	for _, entry := range l.entries {
		if entry.FalsePositive {
			l.falsePositives++
		}
	}
}
