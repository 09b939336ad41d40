// Package reputation adjusts member reputation in response to sanction
// events. It subscribes to the sanction bus; failures here are logged and
// never roll back the sanction that triggered them.
package reputation

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/store"
)

// pointsPerSeverity is the reputation cost of one severity point.
const pointsPerSeverity = -10

// historyLimit caps how many adjustment entries are kept per member.
const historyLimit = 50

// Entry is one reputation adjustment.
type Entry struct {
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// UserReputation is a member's reputation standing in one guild.
type UserReputation struct {
	Points  int     `json:"points"`
	Level   int     `json:"level"`
	History []Entry `json:"history"`
}

// Adjuster owns the reputation document, keyed by guild then user.
type Adjuster struct {
	mu         sync.Mutex
	store      store.Store
	logger     *zap.Logger
	reputation map[string]map[string]*UserReputation
	now        func() time.Time
}

func New(st store.Store, logger *zap.Logger) *Adjuster {
	a := &Adjuster{
		store:      st,
		logger:     logger.Named("reputation"),
		reputation: make(map[string]map[string]*UserReputation),
		now:        time.Now,
	}
	if err := st.Load(store.DocReputation, &a.reputation); err != nil {
		a.logger.Error("failed to load reputation data", zap.Error(err))
	}
	if a.reputation == nil {
		a.reputation = make(map[string]map[string]*UserReputation)
	}
	return a
}

// HandleSanction is the bus subscriber: every sanction costs the target
// 10 points per severity point.
func (a *Adjuster) HandleSanction(ev events.SanctionApplied) {
	if ev.Severity <= 0 {
		return
	}
	a.UpdatePoints(ev.GuildID, ev.UserID, pointsPerSeverity*ev.Severity, "Violation: "+string(ev.Violation))
}

// UpdatePoints applies a delta to a member's points, recomputes their
// level and persists the document.
func (a *Adjuster) UpdatePoints(guildID, userID string, delta int, reason string) {
	a.mu.Lock()

	users, ok := a.reputation[guildID]
	if !ok {
		users = make(map[string]*UserReputation)
		a.reputation[guildID] = users
	}
	rep, ok := users[userID]
	if !ok {
		rep = &UserReputation{Level: 1}
		users[userID] = rep
	}

	rep.Points += delta
	rep.Level = levelFor(rep.Points)
	rep.History = append(rep.History, Entry{Delta: delta, Reason: reason, Timestamp: a.now()})
	if len(rep.History) > historyLimit {
		rep.History = rep.History[len(rep.History)-historyLimit:]
	}

	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	if err := a.store.Save(store.DocReputation, snapshot); err != nil {
		a.logger.Error("failed to save reputation data", zap.Error(err))
	}
}

// Get returns a copy of a member's reputation, zero-valued at level 1 when
// the member has no record.
func (a *Adjuster) Get(guildID, userID string) UserReputation {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rep, ok := a.reputation[guildID][userID]; ok {
		out := *rep
		out.History = append([]Entry(nil), rep.History...)
		return out
	}
	return UserReputation{Level: 1}
}

// levelFor derives level from points: one level per 100 points, floored
// at 1 so violations can never push a member below the starting level.
func levelFor(points int) int {
	level := 1 + points/100
	if level < 1 {
		return 1
	}
	return level
}

func (a *Adjuster) snapshotLocked() map[string]map[string]UserReputation {
	snapshot := make(map[string]map[string]UserReputation, len(a.reputation))
	for guildID, users := range a.reputation {
		userCopy := make(map[string]UserReputation, len(users))
		for userID, rep := range users {
			userCopy[userID] = *rep
		}
		snapshot[guildID] = userCopy
	}
	return snapshot
}
