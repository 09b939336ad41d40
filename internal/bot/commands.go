package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	permManageMessages = int64(discordgo.PermissionManageMessages)
	permKickMembers    = int64(discordgo.PermissionKickMembers)
	permBanMembers     = int64(discordgo.PermissionBanMembers)
	permManageRoles    = int64(discordgo.PermissionManageRoles)
	permManageGuild    = int64(discordgo.PermissionManageGuild)
	permAdministrator  = int64(discordgo.PermissionAdministrator)
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:                     "warn",
		Description:              "Warn a member and escalate their violation tier",
		DefaultMemberPermissions: &permManageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to warn",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Reason for the warning",
			},
		},
	},
	{
		Name:                     "kick",
		Description:              "Kick a member from the server",
		DefaultMemberPermissions: &permKickMembers,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to kick",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Reason for the kick",
			},
		},
	},
	{
		Name:                     "ban",
		Description:              "Ban a member, permanently or for a duration",
		DefaultMemberPermissions: &permBanMembers,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to ban",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Reason for the ban",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "duration",
				Description: "Ban duration (e.g. 30m, 2h, 7d); omit for permanent",
			},
		},
	},
	{
		Name:                     "temprole",
		Description:              "Give a member a role for a limited time",
		DefaultMemberPermissions: &permManageRoles,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to give the role to",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The role to give",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "duration",
				Description: "How long to keep the role (e.g. 30m, 2h, 7d)",
				Required:    true,
			},
		},
	},
	{
		Name:                     "violations",
		Description:              "Show a member's active violations",
		DefaultMemberPermissions: &permManageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to look up",
				Required:    true,
			},
		},
	},
	{
		Name:                     "clearviolations",
		Description:              "Clear a member's violation history",
		DefaultMemberPermissions: &permAdministrator,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member whose history to clear",
				Required:    true,
			},
		},
	},
	{
		Name:                     "warnings",
		Description:              "Show a member's warning history",
		DefaultMemberPermissions: &permManageMessages,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The member to look up",
				Required:    true,
			},
		},
	},
	{
		Name:                     "automod",
		Description:              "Tune an automod threshold for this server",
		DefaultMemberPermissions: &permManageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "setting",
				Description: "Which threshold to change",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Max mentions per message", Value: "mentions"},
					{Name: "Max messages per timeframe", Value: "messages"},
					{Name: "Spam timeframe (seconds)", Value: "timeframe"},
					{Name: "Max lines per message", Value: "lines"},
					{Name: "Max emojis per message", Value: "emojis"},
					{Name: "Caps ratio threshold (0-1)", Value: "caps"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "value",
				Description: "New value for the setting",
				Required:    true,
			},
		},
	},
	{
		Name:                     "blockword",
		Description:              "Add or remove a blocked word for this server",
		DefaultMemberPermissions: &permManageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "word",
				Description: "The word to block or unblock",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "Add or remove the word",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Add", Value: "add"},
					{Name: "Remove", Value: "remove"},
				},
			},
		},
	},
	{
		Name:                     "whitelist",
		Description:              "Exempt a role from automod checks",
		DefaultMemberPermissions: &permManageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The role to whitelist",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "Add or remove the role",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Add", Value: "add"},
					{Name: "Remove", Value: "remove"},
				},
			},
		},
	},
}

func (b *Bot) registerCommands() {
	_, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, "", commands)
	if err != nil {
		b.logger.Error("failed to register commands", zap.Error(err))
		return
	}
	b.logger.Info("registered commands", zap.Int("count", len(commands)))
}
