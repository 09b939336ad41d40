package bot

import (
	"fmt"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenbot/discord-warden/internal/health"
	"github.com/wardenbot/discord-warden/internal/moderation"
)

// Platform adapts the gateway session to the moderation interfaces and
// records every outbound call in the health aggregator.
type Platform struct {
	session *discordgo.Session
	health  *health.Aggregator
}

func NewPlatform(session *discordgo.Session, aggregator *health.Aggregator) *Platform {
	return &Platform{session: session, health: aggregator}
}

func (p *Platform) record(err error) error {
	if p.health != nil {
		p.health.RecordCall(err == nil)
	}
	return err
}

func (p *Platform) DeleteMessage(channelID, messageID string) error {
	return p.record(p.session.ChannelMessageDelete(channelID, messageID))
}

func (p *Platform) TimeoutMember(guildID, userID string, until time.Time, reason string) error {
	return p.record(p.session.GuildMemberTimeout(guildID, userID, &until))
}

func (p *Platform) BanMember(guildID, userID, reason string) error {
	return p.record(p.session.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

func (p *Platform) UnbanMember(guildID, userID string) error {
	return p.record(p.session.GuildBanDelete(guildID, userID))
}

func (p *Platform) KickMember(guildID, userID, reason string) error {
	return p.record(p.session.GuildMemberDeleteWithReason(guildID, userID, reason))
}

func (p *Platform) AddRole(guildID, userID, roleID string) error {
	return p.record(p.session.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (p *Platform) RemoveRole(guildID, userID, roleID string) error {
	return p.record(p.session.GuildMemberRoleRemove(guildID, userID, roleID))
}

// HasCapability reports whether the bot itself holds the permission in the
// guild. Used by the executor to fail closed before attempting an action.
func (p *Platform) HasCapability(guildID string, cap moderation.Capability) bool {
	perms, err := p.botPermissions(guildID)
	if err != nil {
		return false
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	var needed int64
	switch cap {
	case moderation.CapModerate:
		needed = discordgo.PermissionModerateMembers
	case moderation.CapKick:
		needed = discordgo.PermissionKickMembers
	case moderation.CapBan:
		needed = discordgo.PermissionBanMembers
	case moderation.CapManageRoles:
		needed = discordgo.PermissionManageRoles
	case moderation.CapManageMessages:
		needed = discordgo.PermissionManageMessages
	}
	return perms&needed != 0
}

func (p *Platform) botPermissions(guildID string) (int64, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return 0, err
	}

	me := p.session.State.User
	if me == nil {
		return 0, fmt.Errorf("session not ready")
	}
	if guild.OwnerID == me.ID {
		return discordgo.PermissionAdministrator, nil
	}

	member, err := p.session.State.Member(guildID, me.ID)
	if err != nil {
		member, err = p.session.GuildMember(guildID, me.ID)
		if err != nil {
			return 0, err
		}
	}

	var perms int64
	for _, role := range guild.Roles {
		// The @everyone role shares the guild's ID.
		if role.ID == guildID || slices.Contains(member.Roles, role.ID) {
			perms |= role.Permissions
		}
	}
	return perms, nil
}
