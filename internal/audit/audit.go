// Package audit mirrors sanction events to the guild's mod-log channel and
// the relational audit trail.
package audit

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/database"
	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/pkg/utils"
)

const embedColorRed = 0xED4245

// Logger consumes sanction events from the bus. Both sinks are
// best-effort: a failed embed or database insert is logged and dropped.
type Logger struct {
	session     *discordgo.Session
	repo        *database.Repository
	channelName string
	logger      *zap.Logger
}

func New(session *discordgo.Session, repo *database.Repository, channelName string, logger *zap.Logger) *Logger {
	return &Logger{
		session:     session,
		repo:        repo,
		channelName: channelName,
		logger:      logger.Named("audit"),
	}
}

// HandleSanction is the bus subscriber.
func (l *Logger) HandleSanction(ev events.SanctionApplied) {
	row := &database.ModAction{
		GuildID:   ev.GuildID,
		UserID:    ev.UserID,
		Moderator: ev.Moderator,
		Action:    string(ev.Action),
		Violation: string(ev.Violation),
		Severity:  ev.Severity,
		Tier:      ev.Tier,
		Reason:    ev.Reason,
	}
	if err := l.repo.InsertModAction(row); err != nil {
		l.logger.Error("failed to record audit row",
			zap.String("guild_id", ev.GuildID),
			zap.Error(err),
		)
	}

	l.sendEmbed(ev)
}

func (l *Logger) sendEmbed(ev events.SanctionApplied) {
	channelID := l.findLogChannel(ev.GuildID)
	if channelID == "" {
		return
	}

	title := "🛡️ Auto-Moderation Action"
	if ev.Moderator != "" {
		title = "🔨 Moderator Action"
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Action taken against <@%s>", ev.UserID),
		Color:       embedColorRed,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "User ID: " + ev.UserID},
	}

	if ev.Violation != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Violation", Value: string(ev.Violation), Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Action", Value: string(ev.Action), Inline: true,
	})
	if ev.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: utils.FormatDuration(ev.Duration), Inline: true,
		})
	}
	if ev.Tier > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Tier", Value: fmt.Sprintf("%d", ev.Tier), Inline: true,
		})
	}
	if ev.Moderator != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Moderator", Value: fmt.Sprintf("<@%s>", ev.Moderator), Inline: true,
		})
	}
	if ev.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Reason", Value: ev.Reason,
		})
	}

	if _, err := l.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		l.logger.Warn("failed to send mod-log embed",
			zap.String("guild_id", ev.GuildID),
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
	}
}

// findLogChannel locates the guild's mod-log channel by name. Guilds
// without one simply skip the embed.
func (l *Logger) findLogChannel(guildID string) string {
	guild, err := l.session.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == l.channelName {
			return ch.ID
		}
	}
	return ""
}
