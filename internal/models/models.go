package models

import (
	"strings"
	"time"
)

// ViolationType identifies which rule a message (or moderator) flagged.
type ViolationType string

const (
	ViolationSpam          ViolationType = "spam"
	ViolationExcessiveCaps ViolationType = "excessive_caps"
	ViolationMentionSpam   ViolationType = "mention_spam"
	ViolationLineSpam      ViolationType = "line_spam"
	ViolationEmojiSpam     ViolationType = "emoji_spam"
	ViolationBlockedWords  ViolationType = "blocked_words"
	ViolationManualWarning ViolationType = "manual_warning"
)

// Action is the punishment applied to a member.
type Action string

const (
	ActionWarn     Action = "warn"
	ActionTimeout  Action = "timeout"
	ActionBan      Action = "ban"
	ActionKick     Action = "kick"
	ActionTempRole Action = "temprole"
)

// GuildConfig holds the per-guild detection thresholds.
type GuildConfig struct {
	MaxMentions   int      `json:"max_mentions"`
	MaxMessages   int      `json:"max_messages"`
	Timeframe     int      `json:"timeframe"` // seconds
	BlockedWords  []string `json:"blocked_words"`
	LinkWhitelist []string `json:"link_whitelist"`
	MaxLines      int      `json:"max_lines"`
	MaxEmojis     int      `json:"max_emojis"`
	CapsThreshold float64  `json:"caps_threshold"`
}

// DefaultGuildConfig returns the thresholds a guild starts with.
func DefaultGuildConfig() GuildConfig {
	return GuildConfig{
		MaxMentions:   5,
		MaxMessages:   5,
		Timeframe:     5,
		BlockedWords:  []string{},
		LinkWhitelist: []string{},
		MaxLines:      10,
		MaxEmojis:     10,
		CapsThreshold: 0.7,
	}
}

// Valid reports whether every threshold is inside its allowed range.
func (c GuildConfig) Valid() bool {
	if c.CapsThreshold < 0 || c.CapsThreshold > 1 {
		return false
	}
	for _, v := range []int{c.MaxMentions, c.MaxMessages, c.Timeframe, c.MaxLines, c.MaxEmojis} {
		if v < 0 {
			return false
		}
	}
	return true
}

// ViolationRecord is one entry in a user's violation ledger. Records are
// immutable once appended.
type ViolationRecord struct {
	Type      ViolationType `json:"type"`
	Severity  int           `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`
}

// WarningRecord is one entry in the manual-warning audit trail.
type WarningRecord struct {
	Reason    string    `json:"reason"`
	Moderator string    `json:"moderator"`
	Timestamp time.Time `json:"timestamp"`
}

// SanctionAction distinguishes the two reversible sanction kinds.
type SanctionAction string

const (
	SanctionBan  SanctionAction = "ban"
	SanctionRole SanctionAction = "role"
)

// TempSanction is a time-bounded punishment awaiting automatic reversal.
type TempSanction struct {
	Action  SanctionAction `json:"action"`
	GuildID string         `json:"guild_id"`
	RoleID  string         `json:"role_id,omitempty"`
	Expires time.Time      `json:"expires"`
	Reason  string         `json:"reason,omitempty"`
}

// SanctionKeyBan is the persisted map key for a temporary ban.
func SanctionKeyBan(userID string) string { return userID }

// SanctionKeyRole is the persisted map key for a temporary role grant.
func SanctionKeyRole(userID, roleID string) string { return userID + "_" + roleID }

// ParseSanctionKey splits a persisted sanction key back into its parts.
// Role grants carry both IDs; bans carry only the user ID.
func ParseSanctionKey(key string) (userID, roleID string) {
	if idx := strings.IndexByte(key, '_'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}
