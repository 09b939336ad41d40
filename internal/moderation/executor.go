package moderation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/models"
)

// Executor maps escalation tiers to punishments and applies them against
// the platform. Manual moderator actions funnel through the same executor
// so manual and automatic warnings share one escalation ledger.
type Executor struct {
	ledger    *Ledger
	warnings  *Warnings
	sanctions *Sanctions
	platform  Platform
	caps      Capabilities
	bus       *events.Bus
	locks     *locks.Registry
	logger    *zap.Logger
	now       func() time.Time

	// serviceID is the bot's own user ID, recorded as the moderator on
	// auto-issued warnings. Set once when the gateway session is ready.
	serviceID string
}

func NewExecutor(
	ledger *Ledger,
	warnings *Warnings,
	sanctions *Sanctions,
	platform Platform,
	caps Capabilities,
	bus *events.Bus,
	registry *locks.Registry,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		ledger:    ledger,
		warnings:  warnings,
		sanctions: sanctions,
		platform:  platform,
		caps:      caps,
		bus:       bus,
		locks:     registry,
		logger:    logger.Named("executor"),
		now:       time.Now,
	}
}

// SetServiceIdentity records the bot's own user ID once the session is up.
func (e *Executor) SetServiceIdentity(userID string) {
	e.serviceID = userID
}

// ApplyEscalation records the violation, derives the escalation tier from
// the rolling 30-day window and applies the mapped punishment as the
// service identity. Callers must hold the user's lock so that record,
// tier computation, action and persistence form one atomic sequence.
//
// Auto-escalation is exempt from role-hierarchy checks but still fails
// closed when the service identity lacks the required capability; the
// violation stays recorded either way.
func (e *Executor) ApplyEscalation(guildID, userID string, vtype models.ViolationType, severity int) (int, models.Action, error) {
	now := e.now()

	e.ledger.Record(guildID, userID, vtype, severity, now)
	tier := e.ledger.TierFor(guildID, userID, now)
	spec := PunishmentForTier(tier)
	reason := fmt.Sprintf("Auto-escalation: %s (violation tier %d)", vtype, tier)

	actionErr := e.execute(guildID, userID, spec, reason, now)

	if err := e.ledger.Save(); err != nil {
		e.logger.Error("failed to persist violation ledger", zap.Error(err))
	}

	if actionErr != nil {
		return tier, spec.Action, actionErr
	}

	e.bus.Publish(events.SanctionApplied{
		GuildID:   guildID,
		UserID:    userID,
		Violation: vtype,
		Severity:  severity,
		Tier:      tier,
		Action:    spec.Action,
		Duration:  spec.Duration,
		Reason:    reason,
	})
	return tier, spec.Action, nil
}

func (e *Executor) execute(guildID, userID string, spec PunishmentSpec, reason string, now time.Time) error {
	switch spec.Action {
	case models.ActionWarn:
		// A tier-1 sanction has no platform action; the warning ledger
		// entry is the punishment.
		e.warnings.Add(guildID, userID, reason, e.serviceID, now)
		if err := e.warnings.Save(); err != nil {
			e.logger.Error("failed to persist warnings", zap.Error(err))
		}
		return nil

	case models.ActionTimeout:
		if !e.caps.HasCapability(guildID, CapModerate) {
			return fmt.Errorf("timeout member: %w", ErrMissingCapability)
		}
		return e.platform.TimeoutMember(guildID, userID, now.Add(spec.Duration), reason)

	case models.ActionBan:
		if !e.caps.HasCapability(guildID, CapBan) {
			return fmt.Errorf("ban member: %w", ErrMissingCapability)
		}
		return e.platform.BanMember(guildID, userID, reason)
	}
	return nil
}

// Warn records a manual warning and feeds it into the shared escalation
// ledger as a severity-1 violation. Callers must hold the user's lock.
func (e *Executor) Warn(guildID, userID, moderatorID, reason string) (int, models.Action, error) {
	e.warnings.Add(guildID, userID, reason, moderatorID, e.now())
	if err := e.warnings.Save(); err != nil {
		e.logger.Error("failed to persist warnings", zap.Error(err))
	}
	return e.ApplyEscalation(guildID, userID, models.ViolationManualWarning, 1)
}

// Warnings returns the manual-warning history for a member.
func (e *Executor) Warnings(guildID, userID string) []models.WarningRecord {
	return e.warnings.List(guildID, userID)
}

// Violations returns a member's active violations.
func (e *Executor) Violations(guildID, userID string) []models.ViolationRecord {
	return e.ledger.Active(guildID, userID, e.now())
}

// ClearViolations wipes a member's violation history. Callers must hold
// the user's lock.
func (e *Executor) ClearViolations(guildID, userID string) bool {
	cleared := e.ledger.Clear(guildID, userID)
	if cleared {
		if err := e.ledger.Save(); err != nil {
			e.logger.Error("failed to persist violation ledger", zap.Error(err))
		}
	}
	return cleared
}

// Kick removes a member permanently. Hierarchy checks against the acting
// moderator happen in the command layer; the capability check happens
// here.
func (e *Executor) Kick(guildID, userID, moderatorID, reason string) error {
	if !e.caps.HasCapability(guildID, CapKick) {
		return fmt.Errorf("kick member: %w", ErrMissingCapability)
	}
	if err := e.platform.KickMember(guildID, userID, reason); err != nil {
		return err
	}
	e.bus.Publish(events.SanctionApplied{
		GuildID:   guildID,
		UserID:    userID,
		Action:    models.ActionKick,
		Reason:    reason,
		Moderator: moderatorID,
	})
	return nil
}

// Ban permanently bans a member.
func (e *Executor) Ban(guildID, userID, moderatorID, reason string) error {
	if !e.caps.HasCapability(guildID, CapBan) {
		return fmt.Errorf("ban member: %w", ErrMissingCapability)
	}
	if err := e.platform.BanMember(guildID, userID, reason); err != nil {
		return err
	}
	e.bus.Publish(events.SanctionApplied{
		GuildID:   guildID,
		UserID:    userID,
		Action:    models.ActionBan,
		Reason:    reason,
		Moderator: moderatorID,
	})
	return nil
}

// TempBan bans a member and schedules the reversal. The sanction record is
// created, persisted and announced under its own sanction lock.
func (e *Executor) TempBan(guildID, userID, moderatorID, reason string, duration time.Duration) error {
	if !e.caps.HasCapability(guildID, CapBan) {
		return fmt.Errorf("ban member: %w", ErrMissingCapability)
	}

	key := models.SanctionKeyBan(userID)
	unlock := e.locks.Lock(locks.Sanction(key))
	defer unlock()

	if err := e.platform.BanMember(guildID, userID, reason); err != nil {
		return err
	}

	e.sanctions.Put(key, models.TempSanction{
		Action:  models.SanctionBan,
		GuildID: guildID,
		Expires: e.now().Add(duration),
		Reason:  reason,
	})
	if err := e.sanctions.Save(); err != nil {
		e.logger.Error("failed to persist temporary sanctions", zap.Error(err))
	}

	e.bus.Publish(events.SanctionApplied{
		GuildID:   guildID,
		UserID:    userID,
		Action:    models.ActionBan,
		Duration:  duration,
		Reason:    reason,
		Moderator: moderatorID,
	})
	return nil
}

// TempRole grants a role and schedules its removal.
func (e *Executor) TempRole(guildID, userID, roleID, moderatorID string, duration time.Duration) error {
	if !e.caps.HasCapability(guildID, CapManageRoles) {
		return fmt.Errorf("assign role: %w", ErrMissingCapability)
	}

	key := models.SanctionKeyRole(userID, roleID)
	unlock := e.locks.Lock(locks.Sanction(key))
	defer unlock()

	if err := e.platform.AddRole(guildID, userID, roleID); err != nil {
		return err
	}

	e.sanctions.Put(key, models.TempSanction{
		Action:  models.SanctionRole,
		GuildID: guildID,
		RoleID:  roleID,
		Expires: e.now().Add(duration),
	})
	if err := e.sanctions.Save(); err != nil {
		e.logger.Error("failed to persist temporary sanctions", zap.Error(err))
	}

	e.bus.Publish(events.SanctionApplied{
		GuildID:   guildID,
		UserID:    userID,
		Action:    models.ActionTempRole,
		Duration:  duration,
		Moderator: moderatorID,
	})
	return nil
}
