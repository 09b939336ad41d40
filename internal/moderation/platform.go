package moderation

import (
	"errors"
	"time"
)

// Platform is the subset of chat-platform operations the engine invokes.
// The bot package implements it over the gateway session; tests substitute
// fakes.
type Platform interface {
	DeleteMessage(channelID, messageID string) error
	TimeoutMember(guildID, userID string, until time.Time, reason string) error
	BanMember(guildID, userID, reason string) error
	UnbanMember(guildID, userID string) error
	KickMember(guildID, userID, reason string) error
	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
}

// Capability names a platform permission the acting identity must hold
// before attempting the matching action.
type Capability int

const (
	CapModerate Capability = iota
	CapKick
	CapBan
	CapManageRoles
	CapManageMessages
)

// Capabilities reports whether the service identity holds a permission in
// a guild.
type Capabilities interface {
	HasCapability(guildID string, cap Capability) bool
}

// ErrMissingCapability means the acting identity lacks the platform
// permission an action requires. The action fails closed: no retry, no
// further escalation.
var ErrMissingCapability = errors.New("missing required platform capability")

// ErrHierarchy means the target's highest role is at or above the acting
// moderator's. Only raised for direct moderator commands; auto-escalation
// by the service identity is exempt.
var ErrHierarchy = errors.New("target outranks the acting moderator")
