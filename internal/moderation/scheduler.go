package moderation

import (
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/models"
)

// Scheduler reverses time-bounded sanctions at or after their expiry,
// exactly once each.
type Scheduler struct {
	sanctions *Sanctions
	platform  Platform
	locks     *locks.Registry
	logger    *zap.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewScheduler(sanctions *Sanctions, platform Platform, registry *locks.Registry, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sanctions: sanctions,
		platform:  platform,
		locks:     registry,
		logger:    logger.Named("scheduler"),
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps on a fixed period until stop is closed.
func (s *Scheduler) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}

// Sweep reverses every expired sanction. Each record gets one reversal
// attempt and is deleted regardless of the outcome, so a dead guild or a
// departed member can never grow the backlog. The existence re-check under
// the sanction lock makes the sweep idempotent against concurrent manual
// removal.
func (s *Scheduler) Sweep() {
	now := s.now()

	for key := range s.sanctions.Expired(now) {
		unlock := s.locks.Lock(locks.Sanction(key))

		current, ok := s.sanctions.Get(key)
		if !ok || current.Expires.After(now) {
			unlock()
			continue
		}

		s.reverse(key, current)
		s.sanctions.Delete(key)
		if err := s.sanctions.Save(); err != nil {
			s.logger.Error("failed to persist temporary sanctions", zap.Error(err))
		}

		unlock()
	}
}

func (s *Scheduler) reverse(key string, sanction models.TempSanction) {
	userID, roleID := models.ParseSanctionKey(key)
	if roleID == "" {
		roleID = sanction.RoleID
	}

	var err error
	switch sanction.Action {
	case models.SanctionBan:
		err = s.platform.UnbanMember(sanction.GuildID, userID)
	case models.SanctionRole:
		err = s.platform.RemoveRole(sanction.GuildID, userID, roleID)
	}

	if err != nil {
		s.logger.Warn("failed to reverse expired sanction",
			zap.String("key", key),
			zap.String("guild_id", sanction.GuildID),
			zap.String("action", string(sanction.Action)),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("reversed expired sanction",
		zap.String("key", key),
		zap.String("guild_id", sanction.GuildID),
		zap.String("action", string(sanction.Action)),
	)
}
