// Package events carries sanction outcomes from the executor to interested
// side channels (reputation, audit log). Delivery is best-effort and
// decoupled: a failing or panicking subscriber never reaches the sanction
// path.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
)

// SanctionApplied is published after a punishment has been applied and
// persisted.
type SanctionApplied struct {
	GuildID   string
	UserID    string
	Violation models.ViolationType
	Severity  int
	Tier      int
	Action    models.Action
	Duration  time.Duration // zero for permanent or instantaneous actions
	Reason    string
	Moderator string // empty when the service identity acted
}

// Handler consumes one sanction event.
type Handler func(SanctionApplied)

// Bus fans sanction events out to subscribers, each on its own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger.Named("events")}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish dispatches ev to every subscriber without blocking the caller.
func (b *Bus) Publish(ev SanctionApplied) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("sanction event handler panicked",
						zap.Any("panic", r),
						zap.String("guild_id", ev.GuildID),
						zap.String("user_id", ev.UserID),
					)
				}
			}()
			h(ev)
		}()
	}
}
