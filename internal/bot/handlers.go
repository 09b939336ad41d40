package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/automod"
	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/moderation"
	"github.com/wardenbot/discord-warden/pkg/utils"
)

func (b *Bot) ready(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("bot is ready", zap.String("user_id", s.State.User.ID))
	b.Executor.SetServiceIdentity(s.State.User.ID)
	b.registerCommands()
	b.updateBotStatus()
}

func (b *Bot) guildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.logger.Info("joined guild",
		zap.String("guild_id", event.Guild.ID),
		zap.String("name", event.Guild.Name),
	)
	b.Configs.Initialize(event.Guild.ID)
	b.updateBotStatus()
}

func (b *Bot) guildDelete(s *discordgo.Session, event *discordgo.GuildDelete) {
	if !event.Unavailable {
		// Ledgers and config are kept; the guild may re-add the bot.
		b.logger.Info("removed from guild", zap.String("guild_id", event.ID))
	} else {
		b.logger.Warn("guild became unavailable", zap.String("guild_id", event.ID))
	}
	b.updateBotStatus()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}

	var roleIDs []string
	if m.Member != nil {
		roleIDs = m.Member.Roles
	}

	b.AutoMod.HandleMessage(automod.Message{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
		Mentions:  len(m.Mentions),
		RoleIDs:   roleIDs,
	})
}

// requiredPermissions gates each command at dispatch time in addition to
// the command-level default permissions.
var requiredPermissions = map[string]int64{
	"warn":            discordgo.PermissionManageMessages,
	"warnings":        discordgo.PermissionManageMessages,
	"violations":      discordgo.PermissionManageMessages,
	"clearviolations": discordgo.PermissionAdministrator,
	"kick":            discordgo.PermissionKickMembers,
	"ban":             discordgo.PermissionBanMembers,
	"temprole":        discordgo.PermissionManageRoles,
	"automod":         discordgo.PermissionManageGuild,
	"blockword":       discordgo.PermissionManageGuild,
	"whitelist":       discordgo.PermissionManageGuild,
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		b.respond(s, i, "This command can only be used in a server.", true)
		return
	}

	name := i.ApplicationCommandData().Name
	if needed, ok := requiredPermissions[name]; ok {
		if i.Member.Permissions&(needed|discordgo.PermissionAdministrator) == 0 {
			b.respond(s, i, "You do not have permission to use this command.", true)
			return
		}
	}

	switch name {
	case "warn":
		b.handleWarn(s, i)
	case "kick":
		b.handleKick(s, i)
	case "ban":
		b.handleBan(s, i)
	case "temprole":
		b.handleTemprole(s, i)
	case "violations":
		b.handleViolations(s, i)
	case "clearviolations":
		b.handleClearViolations(s, i)
	case "warnings":
		b.handleWarnings(s, i)
	case "automod":
		b.handleAutomod(s, i)
	case "blockword":
		b.handleBlockword(s, i)
	case "whitelist":
		b.handleWhitelist(s, i)
	}
}

func (b *Bot) handleWarn(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	target := opts[0].UserValue(s)
	reason := ""
	if len(opts) > 1 {
		reason = opts[1].StringValue()
	}

	if target.Bot {
		b.respond(s, i, "Cannot warn bot accounts.", true)
		return
	}
	if len(reason) > 1000 {
		b.respond(s, i, "Warning reason cannot exceed 1000 characters.", true)
		return
	}
	if !b.hierarchyAllows(s, i.GuildID, i.Member, target.ID) {
		b.respondError(s, i, moderation.ErrHierarchy)
		return
	}

	unlock := b.locks.Lock(locks.User(i.GuildID, target.ID))
	tier, action, err := b.Executor.Warn(i.GuildID, target.ID, i.Member.User.ID, reason)
	unlock()
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	if reason == "" {
		reason = "No reason provided"
	}
	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "⚠️ Warning Issued",
		Description: fmt.Sprintf("Warning issued to <@%s>", target.ID),
		Color:       0xFEE75C,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: reason},
			{Name: "Escalation", Value: fmt.Sprintf("Tier %d: %s", tier, action), Inline: true},
			{Name: "Moderator", Value: fmt.Sprintf("<@%s>", i.Member.User.ID), Inline: true},
		},
	})
}

func (b *Bot) handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	target := opts[0].UserValue(s)
	reason := ""
	if len(opts) > 1 {
		reason = opts[1].StringValue()
	}

	if target.ID == s.State.User.ID {
		b.respond(s, i, "I cannot kick myself.", true)
		return
	}
	if !b.hierarchyAllows(s, i.GuildID, i.Member, target.ID) {
		b.respondError(s, i, moderation.ErrHierarchy)
		return
	}

	kickReason := fmt.Sprintf("Kicked by %s (%s)", i.Member.User.Username, i.Member.User.ID)
	if reason != "" {
		kickReason += " - " + reason
	}

	if err := b.Executor.Kick(i.GuildID, target.ID, i.Member.User.ID, kickReason); err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(s, i, fmt.Sprintf("Kicked <@%s>. Reason: %s", target.ID, orDefault(reason)), false)
}

func (b *Bot) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	target := opts[0].UserValue(s)
	reason := ""
	durationStr := ""
	for _, opt := range opts[1:] {
		switch opt.Name {
		case "reason":
			reason = opt.StringValue()
		case "duration":
			durationStr = opt.StringValue()
		}
	}

	if !b.hierarchyAllows(s, i.GuildID, i.Member, target.ID) {
		b.respondError(s, i, moderation.ErrHierarchy)
		return
	}

	if durationStr != "" {
		duration, err := utils.ParseDuration(durationStr)
		if err != nil {
			b.respond(s, i, "Invalid duration format! Use e.g. 30m, 2h, 7d.", true)
			return
		}
		if err := b.Executor.TempBan(i.GuildID, target.ID, i.Member.User.ID, reason, duration); err != nil {
			b.respondError(s, i, err)
			return
		}
		b.respond(s, i, fmt.Sprintf("Banned <@%s> for %s. Reason: %s",
			target.ID, utils.FormatDuration(duration), orDefault(reason)), false)
		return
	}

	if err := b.Executor.Ban(i.GuildID, target.ID, i.Member.User.ID, reason); err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(s, i, fmt.Sprintf("Banned <@%s> permanently. Reason: %s", target.ID, orDefault(reason)), false)
}

func (b *Bot) handleTemprole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	target := opts[0].UserValue(s)
	role := opts[1].RoleValue(s, i.GuildID)
	durationStr := opts[2].StringValue()

	duration, err := utils.ParseDuration(durationStr)
	if err != nil {
		b.respond(s, i, "Invalid duration format! Use e.g. 30m, 2h, 7d.", true)
		return
	}
	if !b.roleAssignable(s, i.GuildID, i.Member, role.ID) {
		b.respond(s, i, "You cannot assign this role!", true)
		return
	}

	if err := b.Executor.TempRole(i.GuildID, target.ID, role.ID, i.Member.User.ID, duration); err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(s, i, fmt.Sprintf("Gave <@%s> the role %s for %s",
		target.ID, role.Name, utils.FormatDuration(duration)), false)
}

func (b *Bot) handleViolations(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := i.ApplicationCommandData().Options[0].UserValue(s)

	active := b.Executor.Violations(i.GuildID, target.ID)
	if len(active) == 0 {
		b.respond(s, i, fmt.Sprintf("<@%s> has no violations.", target.ID), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Violation History for %s", target.Username),
		Color: 0xE67E22,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total violations in last 30 days: %d", len(active)),
		},
	}
	for n, v := range active {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("Violation #%d", n+1),
			Value: fmt.Sprintf("Type: %s\nSeverity: %d\nWhen: <t:%d:R>",
				v.Type, v.Severity, v.Timestamp.Unix()),
		})
	}
	b.respondEmbed(s, i, embed)
}

func (b *Bot) handleClearViolations(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := i.ApplicationCommandData().Options[0].UserValue(s)

	unlock := b.locks.Lock(locks.User(i.GuildID, target.ID))
	cleared := b.Executor.ClearViolations(i.GuildID, target.ID)
	unlock()

	if cleared {
		b.respond(s, i, fmt.Sprintf("Cleared violation history for <@%s>", target.ID), false)
	} else {
		b.respond(s, i, fmt.Sprintf("<@%s> has no violations to clear.", target.ID), false)
	}
}

func (b *Bot) handleWarnings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := i.ApplicationCommandData().Options[0].UserValue(s)

	warnings := b.Executor.Warnings(i.GuildID, target.ID)
	if len(warnings) == 0 {
		b.respond(s, i, fmt.Sprintf("<@%s> has no warnings.", target.ID), false)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Warnings for %s", target.Username),
		Color: 0xFEE75C,
	}
	for n, w := range warnings {
		moderator := "Unknown"
		if w.Moderator != "" {
			moderator = fmt.Sprintf("<@%s>", w.Moderator)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("Warning %d", n+1),
			Value: fmt.Sprintf("Reason: %s\nModerator: %s\nWhen: <t:%d:R>",
				w.Reason, moderator, w.Timestamp.Unix()),
		})
	}
	b.respondEmbed(s, i, embed)
}

func (b *Bot) handleAutomod(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	setting := opts[0].StringValue()
	value := opts[1].FloatValue()

	if err := b.Configs.SetThreshold(i.GuildID, setting, value); err != nil {
		b.respond(s, i, err.Error(), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Automod setting `%s` updated to %g.", setting, value), false)
}

func (b *Bot) handleBlockword(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	word := opts[0].StringValue()
	action := opts[1].StringValue()

	switch action {
	case "add":
		if err := b.Configs.AddBlockedWord(i.GuildID, word); err != nil {
			b.respond(s, i, err.Error(), true)
			return
		}
		b.respond(s, i, "Word added to the blocked list.", true)
	case "remove":
		if b.Configs.RemoveBlockedWord(i.GuildID, word) {
			b.respond(s, i, "Word removed from the blocked list.", true)
		} else {
			b.respond(s, i, "That word is not on the blocked list.", true)
		}
	}
}

func (b *Bot) handleWhitelist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	role := opts[0].RoleValue(s, i.GuildID)
	action := opts[1].StringValue()

	switch action {
	case "add":
		b.Configs.WhitelistRole(i.GuildID, role.ID)
		b.respond(s, i, fmt.Sprintf("Role %s added to the automod whitelist.", role.Name), false)
	case "remove":
		if b.Configs.UnwhitelistRole(i.GuildID, role.ID) {
			b.respond(s, i, fmt.Sprintf("Role %s removed from the automod whitelist.", role.Name), false)
		} else {
			b.respond(s, i, fmt.Sprintf("Role %s is not on the whitelist.", role.Name), false)
		}
	}
}

// hierarchyAllows reports whether the acting moderator outranks the
// target. The guild owner outranks everyone; nobody outranks the owner.
func (b *Bot) hierarchyAllows(s *discordgo.Session, guildID string, actor *discordgo.Member, targetID string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return false
	}
	if targetID == guild.OwnerID {
		return false
	}
	if actor.User.ID == guild.OwnerID {
		return true
	}

	target, err := s.State.Member(guildID, targetID)
	if err != nil {
		target, err = s.GuildMember(guildID, targetID)
		if err != nil {
			// Target not in the guild (e.g. banning by ID); nothing to
			// outrank.
			return true
		}
	}
	return topRolePosition(guild, actor.Roles) > topRolePosition(guild, target.Roles)
}

// roleAssignable reports whether the actor's top role sits above the role
// being granted.
func (b *Bot) roleAssignable(s *discordgo.Session, guildID string, actor *discordgo.Member, roleID string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return false
	}
	if actor.User.ID == guild.OwnerID {
		return true
	}
	return rolePosition(guild, roleID) < topRolePosition(guild, actor.Roles)
}

func topRolePosition(guild *discordgo.Guild, roleIDs []string) int {
	top := 0
	for _, id := range roleIDs {
		if pos := rolePosition(guild, id); pos > top {
			top = pos
		}
	}
	return top
}

func rolePosition(guild *discordgo.Guild, roleID string) int {
	for _, role := range guild.Roles {
		if role.ID == roleID {
			return role.Position
		}
	}
	return 0
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		b.logger.Warn("failed to respond to interaction", zap.Error(err))
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		b.logger.Warn("failed to respond to interaction", zap.Error(err))
	}
}

// respondError maps the moderation error taxonomy to user-facing replies.
// Interactive paths surface errors to the requester; nothing is retried.
func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	var content string
	switch {
	case errors.Is(err, moderation.ErrMissingCapability):
		content = "I don't have the required permissions to perform this action."
	case errors.Is(err, moderation.ErrHierarchy):
		content = "You cannot moderate a member with a role equal to or higher than yours."
	case strings.Contains(err.Error(), "Unknown Member"), strings.Contains(err.Error(), "Unknown User"):
		content = "The target member could not be found. They may have left the server."
	default:
		content = "The platform rejected the action. Please try again later."
		b.logger.Error("moderation command failed", zap.Error(err))
	}
	b.respond(s, i, content, true)
}

func orDefault(reason string) string {
	if reason == "" {
		return "No reason provided"
	}
	return reason
}
