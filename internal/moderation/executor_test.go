package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/models"
)

func TestEscalationProgression(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	type step struct {
		tier     int
		action   models.Action
		duration time.Duration
	}
	steps := []step{
		{1, models.ActionWarn, 0},
		{2, models.ActionTimeout, 30 * time.Minute},
		{3, models.ActionTimeout, 2 * time.Hour},
		{4, models.ActionTimeout, 24 * time.Hour},
		{5, models.ActionBan, 0},
		// Past tier 5 the punishment stays at ban.
		{5, models.ActionBan, 0},
	}

	for n, want := range steps {
		tier, action, err := rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
		require.NoError(t, err, "violation %d", n+1)
		assert.Equal(t, want.tier, tier, "violation %d", n+1)
		assert.Equal(t, want.action, action, "violation %d", n+1)
	}

	ops := rig.platform.ops()
	assert.Equal(t, []string{"timeout", "timeout", "timeout", "ban", "ban"}, ops)

	// Timeout expiries reflect the tier durations.
	assert.Equal(t, rig.clock.Add(30*time.Minute), rig.platform.calls[0].until)
	assert.Equal(t, rig.clock.Add(2*time.Hour), rig.platform.calls[1].until)
	assert.Equal(t, rig.clock.Add(24*time.Hour), rig.platform.calls[2].until)
}

func TestTierOneRecordsWarningOnly(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	tier, action, err := rig.executor.ApplyEscalation("g", "u", models.ViolationExcessiveCaps, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tier)
	assert.Equal(t, models.ActionWarn, action)

	// No platform action, but the warning trail records the bot identity.
	assert.Empty(t, rig.platform.ops())
	warnings := rig.executor.Warnings("g", "u")
	require.Len(t, warnings, 1)
	assert.Equal(t, "bot-id", warnings[0].Moderator)
}

func TestEscalationFailsClosedWithoutCapability(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.platform.deny[CapModerate] = true

	rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	_, _, err := rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	require.ErrorIs(t, err, ErrMissingCapability)

	// The member was not touched, but both violations stay recorded.
	assert.Empty(t, rig.platform.ops())
	assert.Len(t, rig.executor.Violations("g", "u"), 2)
}

func TestEscalationPublishesSanctionEvent(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	got := make(chan events.SanctionApplied, 1)
	rig.bus.Subscribe(func(ev events.SanctionApplied) { got <- ev })

	_, _, err := rig.executor.ApplyEscalation("g", "u", models.ViolationBlockedWords, 3)
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, "g", ev.GuildID)
		assert.Equal(t, "u", ev.UserID)
		assert.Equal(t, models.ViolationBlockedWords, ev.Violation)
		assert.Equal(t, 3, ev.Severity)
		assert.Equal(t, 1, ev.Tier)
		assert.Equal(t, models.ActionWarn, ev.Action)
		assert.Empty(t, ev.Moderator)
	case <-time.After(time.Second):
		t.Fatal("no sanction event published")
	}
}

func TestFailedActionPublishesNoEvent(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.platform.deny[CapModerate] = true

	published := make(chan struct{}, 2)
	rig.bus.Subscribe(func(events.SanctionApplied) { published <- struct{}{} })

	rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)

	// Drain the tier-1 event, then verify the failed tier-2 action stays
	// silent.
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("tier-1 event not published")
	}

	_, _, err := rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	require.Error(t, err)

	select {
	case <-published:
		t.Fatal("event published for failed action")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManualWarnFeedsEscalation(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	tier, action, err := rig.executor.Warn("g", "u", "mod-1", "being rude")
	require.NoError(t, err)
	assert.Equal(t, 1, tier)
	assert.Equal(t, models.ActionWarn, action)

	// One manual record plus the tier-1 auto warning.
	warnings := rig.executor.Warnings("g", "u")
	require.Len(t, warnings, 2)
	assert.Equal(t, "mod-1", warnings[0].Moderator)
	assert.Equal(t, "being rude", warnings[0].Reason)
	assert.Equal(t, "bot-id", warnings[1].Moderator)

	violations := rig.executor.Violations("g", "u")
	require.Len(t, violations, 1)
	assert.Equal(t, models.ViolationManualWarning, violations[0].Type)
	assert.Equal(t, 1, violations[0].Severity)
}

func TestClearViolationsResetsTier(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	require.Len(t, rig.executor.Violations("g", "u"), 2)

	assert.True(t, rig.executor.ClearViolations("g", "u"))
	assert.False(t, rig.executor.ClearViolations("g", "u"))
	assert.Empty(t, rig.executor.Violations("g", "u"))

	// Escalation starts over at tier 1.
	tier, _, err := rig.executor.ApplyEscalation("g", "u", models.ViolationSpam, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tier)
}

func TestKickRequiresCapability(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.platform.deny[CapKick] = true

	err := rig.executor.Kick("g", "u", "mod-1", "bye")
	require.ErrorIs(t, err, ErrMissingCapability)
	assert.Empty(t, rig.platform.ops())
}

func TestTempBanRecordsSanction(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	require.NoError(t, rig.executor.TempBan("g", "u", "mod-1", "raid", 2*time.Hour))
	assert.Equal(t, []string{"ban"}, rig.platform.ops())

	sanction, ok := rig.sanctions.Get(models.SanctionKeyBan("u"))
	require.True(t, ok)
	assert.Equal(t, models.SanctionBan, sanction.Action)
	assert.Equal(t, "g", sanction.GuildID)
	assert.Equal(t, rig.clock.Add(2*time.Hour), sanction.Expires)
}

func TestTempRoleRecordsSanction(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	require.NoError(t, rig.executor.TempRole("g", "u", "muted-role", "mod-1", time.Hour))
	assert.Equal(t, []string{"add_role"}, rig.platform.ops())

	sanction, ok := rig.sanctions.Get(models.SanctionKeyRole("u", "muted-role"))
	require.True(t, ok)
	assert.Equal(t, models.SanctionRole, sanction.Action)
	assert.Equal(t, "muted-role", sanction.RoleID)
}

func TestTempBanPlatformFailureRecordsNothing(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.platform.errs["ban"] = assert.AnError

	err := rig.executor.TempBan("g", "u", "mod-1", "raid", time.Hour)
	require.Error(t, err)

	_, ok := rig.sanctions.Get(models.SanctionKeyBan("u"))
	assert.False(t, ok)
}
