package moderation

import (
	"time"

	"github.com/wardenbot/discord-warden/internal/models"
)

// MaxTier caps escalation; every violation past the fifth keeps the user
// at tier 5.
const MaxTier = 5

// PunishmentSpec is the punishment applied at one escalation tier.
type PunishmentSpec struct {
	Action   models.Action
	Duration time.Duration // zero means permanent or not applicable
}

// punishmentTiers maps tier (index) to punishment. Index 0 is unused; the
// lowest tier is 1.
var punishmentTiers = [MaxTier + 1]PunishmentSpec{
	1: {Action: models.ActionWarn},
	2: {Action: models.ActionTimeout, Duration: 30 * time.Minute},
	3: {Action: models.ActionTimeout, Duration: 2 * time.Hour},
	4: {Action: models.ActionTimeout, Duration: 24 * time.Hour},
	5: {Action: models.ActionBan},
}

// PunishmentForTier returns the punishment for a tier, clamping out-of-range
// tiers into [1, MaxTier].
func PunishmentForTier(tier int) PunishmentSpec {
	if tier < 1 {
		tier = 1
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return punishmentTiers[tier]
}
