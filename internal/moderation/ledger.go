package moderation

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
	"github.com/wardenbot/discord-warden/internal/store"
)

// RetentionWindow is how long a violation stays "active" and counts toward
// the escalation tier. Older records are invisible to tier computation and
// are pruned by the janitor.
const RetentionWindow = 30 * 24 * time.Hour

// Ledger is the append-only violation history, keyed by guild then user. The
// in-memory map is the source of truth; the persisted document is a mirror
// rebuilt on every save.
type Ledger struct {
	mu         sync.RWMutex
	store      store.Store
	logger     *zap.Logger
	violations map[string]map[string][]models.ViolationRecord
}

func NewLedger(st store.Store, logger *zap.Logger) *Ledger {
	l := &Ledger{
		store:      st,
		logger:     logger.Named("ledger"),
		violations: make(map[string]map[string][]models.ViolationRecord),
	}
	if err := st.Load(store.DocViolations, &l.violations); err != nil {
		l.logger.Error("failed to load violation ledger", zap.Error(err))
	}
	if l.violations == nil {
		l.violations = make(map[string]map[string][]models.ViolationRecord)
	}
	return l
}

// Record appends one violation. Severity outside [1,5] falls back to 1
// rather than being rejected, matching the documented clamping behavior.
func (l *Ledger) Record(guildID, userID string, vtype models.ViolationType, severity int, now time.Time) models.ViolationRecord {
	if severity < 1 || severity > 5 {
		severity = 1
	}
	rec := models.ViolationRecord{Type: vtype, Severity: severity, Timestamp: now}

	l.mu.Lock()
	defer l.mu.Unlock()

	users, ok := l.violations[guildID]
	if !ok {
		users = make(map[string][]models.ViolationRecord)
		l.violations[guildID] = users
	}
	users[userID] = append(users[userID], rec)
	return rec
}

// Active returns the user's violations younger than the retention window.
// Reads never prune; stale records stay until the janitor sweeps them.
func (l *Ledger) Active(guildID, userID string, now time.Time) []models.ViolationRecord {
	cutoff := now.Add(-RetentionWindow)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var active []models.ViolationRecord
	for _, rec := range l.violations[guildID][userID] {
		if rec.Timestamp.After(cutoff) {
			active = append(active, rec)
		}
	}
	return active
}

// TierFor derives the escalation tier from the active violation count,
// capped at MaxTier.
func (l *Ledger) TierFor(guildID, userID string, now time.Time) int {
	return min(MaxTier, len(l.Active(guildID, userID, now)))
}

// Clear removes the user's entire history and reports whether anything was
// removed.
func (l *Ledger) Clear(guildID, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, ok := l.violations[guildID]
	if !ok {
		return false
	}
	if _, ok := users[userID]; !ok {
		return false
	}
	delete(users, userID)
	return true
}

// Prune drops records older than the retention window and returns how many
// were removed.
func (l *Ledger) Prune(now time.Time) int {
	cutoff := now.Add(-RetentionWindow)
	removed := 0

	l.mu.Lock()
	defer l.mu.Unlock()

	for guildID, users := range l.violations {
		for userID, records := range users {
			kept := slices.DeleteFunc(slices.Clone(records), func(r models.ViolationRecord) bool {
				return !r.Timestamp.After(cutoff)
			})
			removed += len(records) - len(kept)
			if len(kept) == 0 {
				delete(users, userID)
			} else {
				users[userID] = kept
			}
		}
		if len(users) == 0 {
			delete(l.violations, guildID)
		}
	}
	return removed
}

// Save mirrors the ledger to its persisted document.
func (l *Ledger) Save() error {
	l.mu.RLock()
	snapshot := make(map[string]map[string][]models.ViolationRecord, len(l.violations))
	for guildID, users := range l.violations {
		userCopy := make(map[string][]models.ViolationRecord, len(users))
		for userID, records := range users {
			userCopy[userID] = slices.Clone(records)
		}
		snapshot[guildID] = userCopy
	}
	l.mu.RUnlock()

	return l.store.Save(store.DocViolations, snapshot)
}
