package moderation

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
	"github.com/wardenbot/discord-warden/internal/store"
)

// Warnings is the append-only manual-warning audit trail, kept separately
// from the violation ledger: a human-issued warning is recorded here in
// addition to contributing one violation entry.
type Warnings struct {
	mu       sync.RWMutex
	store    store.Store
	logger   *zap.Logger
	warnings map[string]map[string][]models.WarningRecord
}

func NewWarnings(st store.Store, logger *zap.Logger) *Warnings {
	w := &Warnings{
		store:    st,
		logger:   logger.Named("warnings"),
		warnings: make(map[string]map[string][]models.WarningRecord),
	}
	if err := st.Load(store.DocWarnings, &w.warnings); err != nil {
		w.logger.Error("failed to load warnings", zap.Error(err))
	}
	if w.warnings == nil {
		w.warnings = make(map[string]map[string][]models.WarningRecord)
	}
	return w
}

func (w *Warnings) Add(guildID, userID, reason, moderatorID string, now time.Time) models.WarningRecord {
	if reason == "" {
		reason = "No reason provided"
	}
	rec := models.WarningRecord{Reason: reason, Moderator: moderatorID, Timestamp: now}

	w.mu.Lock()
	defer w.mu.Unlock()

	users, ok := w.warnings[guildID]
	if !ok {
		users = make(map[string][]models.WarningRecord)
		w.warnings[guildID] = users
	}
	users[userID] = append(users[userID], rec)
	return rec
}

func (w *Warnings) List(guildID, userID string) []models.WarningRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.warnings[guildID][userID])
}

// Prune drops warnings older than the retention window and returns how
// many were removed.
func (w *Warnings) Prune(now time.Time) int {
	cutoff := now.Add(-RetentionWindow)
	removed := 0

	w.mu.Lock()
	defer w.mu.Unlock()

	for guildID, users := range w.warnings {
		for userID, records := range users {
			kept := slices.DeleteFunc(slices.Clone(records), func(r models.WarningRecord) bool {
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
			delete(w.warnings, guildID)
		}
	}
	return removed
}

func (w *Warnings) Save() error {
	w.mu.RLock()
	snapshot := make(map[string]map[string][]models.WarningRecord, len(w.warnings))
	for guildID, users := range w.warnings {
		userCopy := make(map[string][]models.WarningRecord, len(users))
		for userID, records := range users {
			userCopy[userID] = slices.Clone(records)
		}
		snapshot[guildID] = userCopy
	}
	w.mu.RUnlock()

	return w.store.Save(store.DocWarnings, snapshot)
}
