// Package automod detects rule violations in inbound messages and feeds
// them into the escalation executor.
package automod

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/models"
)

// MessageDeleter removes a flagged message from the platform.
type MessageDeleter interface {
	DeleteMessage(channelID, messageID string) error
}

// Escalator applies the tier-mapped punishment for one recorded violation.
// Implemented by the moderation executor.
type Escalator interface {
	ApplyEscalation(guildID, userID string, vtype models.ViolationType, severity int) (int, models.Action, error)
}

// AutoMod ties detection to escalation for inbound messages.
type AutoMod struct {
	detector *Detector
	deleter  MessageDeleter
	executor Escalator
	locks    *locks.Registry
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(detector *Detector, deleter MessageDeleter, executor Escalator, registry *locks.Registry, logger *zap.Logger) *AutoMod {
	return &AutoMod{
		detector: detector,
		deleter:  deleter,
		executor: executor,
		locks:    registry,
		logger:   logger.Named("automod"),
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// HandleMessage runs detection on one message and, when a rule is broken,
// deletes the message and escalates the highest-severity finding. The
// whole sequence runs under the author's user lock so that the spam-window
// update, tier computation, punishment and persistence are atomic with
// respect to other operations on the same member.
func (a *AutoMod) HandleMessage(msg Message) {
	unlock := a.locks.Lock(locks.User(msg.GuildID, msg.AuthorID))
	defer unlock()

	findings := a.detector.Evaluate(msg, a.now())
	worst, ok := Worst(findings)
	if !ok {
		return
	}

	// Cap automated actions at one per guild per second. Detection above
	// still ran, so rate-limited messages keep counting toward the spam
	// window.
	if !a.allowAction(msg.GuildID) {
		return
	}

	// Deletion failures (already deleted, missing permission) are
	// swallowed, not retried.
	if err := a.deleter.DeleteMessage(msg.ChannelID, msg.MessageID); err != nil {
		a.logger.Debug("could not delete flagged message",
			zap.String("guild_id", msg.GuildID),
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}

	tier, action, err := a.executor.ApplyEscalation(msg.GuildID, msg.AuthorID, worst.Type, worst.Severity)
	if err != nil {
		a.logger.Warn("auto-escalation failed",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.AuthorID),
			zap.String("violation", string(worst.Type)),
			zap.Error(err),
		)
		return
	}

	a.logger.Info("auto-moderation action applied",
		zap.String("guild_id", msg.GuildID),
		zap.String("user_id", msg.AuthorID),
		zap.String("violation", string(worst.Type)),
		zap.Int("tier", tier),
		zap.String("action", string(action)),
	)
}

func (a *AutoMod) allowAction(guildID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	lim, ok := a.limiters[guildID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Second), 1)
		a.limiters[guildID] = lim
	}
	return lim.Allow()
}
