package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sentrychat/message-security/internal/domain"
	"github.com/sentrychat/message-security/internal/domain/detection"
	"github.com/sentrychat/message-security/internal/domain/policy"
	"github.com/sentrychat/message-security/internal/ledger"
	"github.com/sentrychat/message-security/internal/metrics"
	"github.com/sentrychat/message-security/internal/ports"
)

// dedupeLimit is the size at which the duplicate-suppression set is pruned
// back to the ids still visible in active conversation state
const dedupeLimit = 1000

// previewCacheSize bounds the advisory scan memo cache
const previewCacheSize = 256

// TextScanner scores message text against the lexicon
type TextScanner interface {
	Scan(text string) domain.ScanResult
}

// URLChecker resolves the reputation of the URLs in a message
type URLChecker interface {
	CheckURLs(ctx context.Context, urls []string) (malicious bool, offender string)
}

// scanOutcome carries a finished scan back to the pipeline-owning goroutine
type scanOutcome struct {
	msg *domain.Message
	res domain.ScanResult
	cfg domain.SecurityConfig
}

// Pipeline orchestrates scan, decision, and delivery for every message. All
// room state, the duplicate-suppression set, and the ledger are mutated only
// by the single goroutine started by Start, so there is at most one
// authoritative decision per message id and no torn ledger writes.
type Pipeline struct {
	scanner   TextScanner
	checker   URLChecker
	ledger    *ledger.Ledger
	transport ports.Transport
	logger    *slog.Logger

	cfgMu sync.RWMutex
	cfg   domain.SecurityConfig

	submitCh  chan *domain.Message
	opsCh     chan func()
	outcomeCh chan scanOutcome
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// Owned by the run goroutine
	seen    map[string]struct{}
	pending map[string]struct{}
	rooms   map[string]map[string]*domain.Message
	blocked map[string]*domain.Message

	previewCache *lru.Cache[string, domain.ScanResult]

	totalScanned    atomic.Int64
	threatsDetected atomic.Int64
	blockedCount    atomic.Int64
	warningCount    atomic.Int64
	duplicateCount  atomic.Int64
}

// NewPipeline creates a pipeline with its dependencies injected. Call Start
// before submitting messages.
func NewPipeline(
	scanner TextScanner,
	checker URLChecker,
	auditLog *ledger.Ledger,
	transport ports.Transport,
	cfg domain.SecurityConfig,
	logger *slog.Logger,
) *Pipeline {
	previewCache, _ := lru.New[string, domain.ScanResult](previewCacheSize)

	return &Pipeline{
		scanner:      scanner,
		checker:      checker,
		ledger:       auditLog,
		transport:    transport,
		logger:       logger,
		cfg:          cfg.Normalize(),
		submitCh:     make(chan *domain.Message, 64),
		opsCh:        make(chan func(), 16),
		outcomeCh:    make(chan scanOutcome, 64),
		stopCh:       make(chan struct{}),
		seen:         make(map[string]struct{}),
		pending:      make(map[string]struct{}),
		rooms:        make(map[string]map[string]*domain.Message),
		blocked:      make(map[string]*domain.Message),
		previewCache: previewCache,
	}
}

// Start launches the pipeline-owning goroutine
func (p *Pipeline) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop shuts the pipeline down. In-flight scans complete and their results
// are discarded.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.submitCh:
			p.handleSubmit(msg)
		case outcome := <-p.outcomeCh:
			p.handleOutcome(outcome)
		case op := <-p.opsCh:
			op()
		case <-p.stopCh:
			return
		}
	}
}

// Submit enqueues a message for scanning. The message id is the idempotency
// key: a second submission with an already-processed id is dropped with no
// side effects.
func (p *Pipeline) Submit(msg *domain.Message) error {
	if msg.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.State = domain.StateSending

	select {
	case p.submitCh <- msg:
		return nil
	case <-p.stopCh:
		return fmt.Errorf("pipeline stopped")
	}
}

func (p *Pipeline) handleSubmit(msg *domain.Message) {
	if _, dup := p.seen[msg.ID]; dup {
		p.duplicateCount.Add(1)
		metrics.DuplicatesSuppressed.Inc()
		p.logger.Debug("Dropped duplicate message", "message_id", msg.ID)
		return
	}
	p.seen[msg.ID] = struct{}{}
	p.pending[msg.ID] = struct{}{}
	p.pruneSeen()

	if len(msg.Content) > domain.MaxContentBytes {
		msg.State = domain.StateFailed
		delete(p.pending, msg.ID)
		if err := p.transport.Reject(msg, "message exceeds size limit"); err != nil {
			p.logger.Warn("Failed to notify sender of oversized message", "error", err)
		}
		return
	}

	if _, ok := p.rooms[msg.RoomID]; !ok {
		p.rooms[msg.RoomID] = make(map[string]*domain.Message)
	}

	cfg := p.Config()
	p.wg.Add(1)
	go p.scanWorker(msg, cfg)
}

// scanWorker runs the CPU-bound scan plus any network-bound reputation checks
// off the owner goroutine, so slow lookups never stall unrelated messages
func (p *Pipeline) scanWorker(msg *domain.Message, cfg domain.SecurityConfig) {
	defer p.wg.Done()

	res := p.scanWithConfig(msg.Content, cfg)

	select {
	case p.outcomeCh <- scanOutcome{msg: msg, res: res, cfg: cfg}:
	case <-p.stopCh:
		// Result discarded: the pipeline is shutting down
	}
}

func (p *Pipeline) scanWithConfig(text string, cfg domain.SecurityConfig) domain.ScanResult {
	var res domain.ScanResult
	if cfg.Mode == domain.ModeReputation {
		res = domain.ScanResult{ThreatType: domain.ThreatSafe, Level: domain.LevelSafe}
	} else {
		res = p.safeScan(text)
	}

	if cfg.Mode == domain.ModeBasic || !cfg.Enabled {
		return res
	}

	urls := detection.ExtractURLs(text)
	if len(urls) == 0 {
		return res
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	malicious, offender := p.checker.CheckURLs(ctx, urls)
	if !malicious {
		return res
	}

	// Any malicious URL maximizes the verdict regardless of the text score
	indicators := append(append([]string(nil), res.Indicators...), offender)
	reason := "malicious url confirmed by reputation service"
	if res.Reason != "" {
		reason = res.Reason + "; " + reason
	}
	return domain.ScanResult{
		IsThreat:   true,
		Confidence: 1.0,
		ThreatType: domain.ThreatPhishingURL,
		Level:      domain.LevelCritical,
		Indicators: indicators,
		Reason:     reason,
	}
}

// safeScan shields the pipeline from a bug in scoring: a panic is converted
// into a safe default result so a scoring defect cannot silently drop messages
func (p *Pipeline) safeScan(text string) (res domain.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Scan panicked, message allowed with default result", "panic", r)
			res = domain.ScanResult{
				ThreatType: domain.ThreatSafe,
				Level:      domain.LevelSafe,
				Reason:     "scan failed internally; content not classified",
			}
		}
	}()
	return p.scanner.Scan(text)
}

func (p *Pipeline) handleOutcome(outcome scanOutcome) {
	msg, res := outcome.msg, outcome.res
	delete(p.pending, msg.ID)

	room, active := p.rooms[msg.RoomID]
	if !active {
		// The room was closed while the scan was in flight; discard the
		// result without touching the ledger
		p.logger.Debug("Discarded scan result for closed room",
			"message_id", msg.ID, "room_id", msg.RoomID)
		return
	}

	p.totalScanned.Add(1)
	metrics.MessagesScanned.Inc()
	if res.IsThreat {
		p.threatsDetected.Add(1)
		metrics.ThreatsDetected.WithLabelValues(string(res.ThreatType)).Inc()
	}

	msg.Scan = &res
	action := policy.Decide(res, outcome.cfg)

	if res.IsThreat || outcome.cfg.LogAllMessages {
		p.ledger.Append(domain.LedgerEntry{
			ID:        uuid.New(),
			Timestamp: msg.CreatedAt,
			Content:   msg.Content,
			Scan:      res,
			SenderID:  msg.SenderToken,
			RoomID:    msg.RoomID,
		})
	}

	switch action {
	case domain.ActionAllow:
		p.deliver(msg, room, domain.StateSent)
	case domain.ActionWarn:
		p.warningCount.Add(1)
		metrics.WarningsIssued.Inc()
		p.deliver(msg, room, domain.StateWarning)
	case domain.ActionBlock, domain.ActionQuarantine:
		p.blockedCount.Add(1)
		metrics.MessagesBlocked.Inc()
		msg.State = domain.StateBlocked
		p.blocked[msg.ID] = msg
		if err := p.transport.Reject(msg, res.Reason); err != nil {
			p.logger.Warn("Failed to notify sender of blocked message",
				"message_id", msg.ID, "error", err)
		}
	}
}

// deliver fans the message out. Warnings still reach other participants,
// annotated so the UI can render them distinctly.
func (p *Pipeline) deliver(msg *domain.Message, room map[string]*domain.Message, state domain.MessageState) {
	msg.State = state
	if err := p.transport.Deliver(msg); err != nil {
		// Failure after a passed security check is a transport concern, not a
		// security one: no automatic retry
		msg.State = domain.StateFailed
		p.logger.Warn("Transport delivery failed", "message_id", msg.ID, "error", err)
		return
	}
	room[msg.ID] = msg
}

// pruneSeen bounds the duplicate-suppression set: past the limit it is rebuilt
// from the ids still visible in active conversation state plus in-flight ids
func (p *Pipeline) pruneSeen() {
	if len(p.seen) <= dedupeLimit {
		return
	}
	rebuilt := make(map[string]struct{}, dedupeLimit)
	for _, room := range p.rooms {
		for id := range room {
			rebuilt[id] = struct{}{}
		}
	}
	for id := range p.pending {
		rebuilt[id] = struct{}{}
	}
	p.seen = rebuilt
}

// Retry resubmits a blocked message as a brand-new submission with a fresh id.
// The previously blocked payload is never forced through: the new content goes
// through the full scan again. An empty newContent resubmits the original.
func (p *Pipeline) Retry(messageID, newContent string) (string, error) {
	type reply struct {
		id  string
		err error
	}
	replyCh := make(chan reply, 1)

	op := func() {
		old, ok := p.blocked[messageID]
		if !ok {
			replyCh <- reply{err: fmt.Errorf("no blocked message with id %s", messageID)}
			return
		}
		delete(p.blocked, messageID)

		content := newContent
		if content == "" {
			content = old.Content
		}
		fresh := &domain.Message{
			ID:          uuid.NewString(),
			RoomID:      old.RoomID,
			SenderToken: old.SenderToken,
			Content:     content,
			CreatedAt:   time.Now(),
			Nickname:    old.Nickname,
			State:       domain.StateSending,
		}
		p.handleSubmit(fresh)
		replyCh <- reply{id: fresh.ID}
	}

	select {
	case p.opsCh <- op:
	case <-p.stopCh:
		return "", fmt.Errorf("pipeline stopped")
	}
	select {
	case r := <-replyCh:
		return r.id, r.err
	case <-p.stopCh:
		// The enqueue can win the race against shutdown; the op then never
		// runs, so give the buffered reply one last look before bailing
		select {
		case r := <-replyCh:
			return r.id, r.err
		default:
			return "", fmt.Errorf("pipeline stopped")
		}
	}
}

// CloseRoom abandons a room. Scans still in flight for it complete and are
// discarded, and its blocked messages are dropped so they cannot accumulate
// past the room's lifetime.
func (p *Pipeline) CloseRoom(roomID string) {
	op := func() {
		delete(p.rooms, roomID)
		for id, msg := range p.blocked {
			if msg.RoomID == roomID {
				delete(p.blocked, id)
			}
		}
	}
	select {
	case p.opsCh <- op:
	case <-p.stopCh:
	}
}

// RoomMessages returns the delivered messages of a room, for backlog loads
func (p *Pipeline) RoomMessages(roomID string) []*domain.Message {
	replyCh := make(chan []*domain.Message, 1)
	select {
	case p.opsCh <- func() {
		room := p.rooms[roomID]
		out := make([]*domain.Message, 0, len(room))
		for _, msg := range room {
			out = append(out, msg)
		}
		replyCh <- out
	}:
	case <-p.stopCh:
		return nil
	}
	select {
	case out := <-replyCh:
		return out
	case <-p.stopCh:
		select {
		case out := <-replyCh:
			return out
		default:
			return nil
		}
	}
}

// Preview runs the advisory author-facing scan. It shares the authoritative
// scanner so client and server verdicts cannot drift, but its result is
// UX-only: enforcement happens at submission.
func (p *Pipeline) Preview(text string) domain.ScanResult {
	if res, ok := p.previewCache.Get(text); ok {
		return res
	}
	res := p.safeScan(text)
	p.previewCache.Add(text, res)
	return res
}

// RescanBacklog re-annotates a room's delivered messages, pacing the scans so
// a large backlog cannot saturate the reputation service's rate limits
func (p *Pipeline) RescanBacklog(ctx context.Context, roomID string, pace time.Duration) int {
	msgs := p.RoomMessages(roomID)
	cfg := p.Config()

	count := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			break
		}
		res := p.scanWithConfig(msg.Content, cfg)
		id := msg.ID
		select {
		case p.opsCh <- func() {
			if room, ok := p.rooms[roomID]; ok {
				if m, ok := room[id]; ok {
					m.Scan = &res
				}
			}
		}:
		case <-p.stopCh:
			return count
		}
		count++
		if pace > 0 {
			select {
			case <-time.After(pace):
			case <-ctx.Done():
				return count
			}
		}
	}
	return count
}

// Config returns the active configuration snapshot
func (p *Pipeline) Config() domain.SecurityConfig {
	p.cfgMu.RLock()
	defer p.cfgMu.RUnlock()
	return p.cfg
}

// UpdateConfig replaces the whole configuration. There is no partial
// field-level mutation visible to other components.
func (p *Pipeline) UpdateConfig(cfg domain.SecurityConfig) {
	normalized := cfg.Normalize()
	p.cfgMu.Lock()
	p.cfg = normalized
	p.cfgMu.Unlock()
	p.ledger.SetMax(normalized.MaxLedgerEntries)
}

// Stats is the diagnostics snapshot of the pipeline's own counters
type Stats struct {
	TotalScanned    int64 `json:"total_scanned"`
	ThreatsDetected int64 `json:"threats_detected"`
	Blocked         int64 `json:"blocked"`
	Warnings        int64 `json:"warnings"`
	Duplicates      int64 `json:"duplicates_suppressed"`
	FalsePositives  int64 `json:"false_positives"`
	LedgerEntries   int   `json:"ledger_entries"`
}

// Stats returns the pipeline counters for external display
func (p *Pipeline) Stats() Stats {
	return Stats{
		TotalScanned:    p.totalScanned.Load(),
		ThreatsDetected: p.threatsDetected.Load(),
		Blocked:         p.blockedCount.Load(),
		Warnings:        p.warningCount.Load(),
		Duplicates:      p.duplicateCount.Load(),
		FalsePositives:  p.ledger.FalsePositives(),
		LedgerEntries:   p.ledger.Len(),
	}
}
