package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/audit"
	"github.com/wardenbot/discord-warden/internal/automod"
	"github.com/wardenbot/discord-warden/internal/config"
	"github.com/wardenbot/discord-warden/internal/database"
	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/health"
	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/moderation"
	"github.com/wardenbot/discord-warden/internal/reputation"
	"github.com/wardenbot/discord-warden/internal/store"
)

// Deps are the shared collaborators the bot is wired with.
type Deps struct {
	Store  store.Store
	Locks  *locks.Registry
	Bus    *events.Bus
	Repo   *database.Repository
	Health *health.Aggregator
	Logger *zap.Logger
}

type Bot struct {
	Session  *discordgo.Session
	Executor *moderation.Executor
	AutoMod  *automod.AutoMod
	Configs  *automod.ConfigStore

	locks     *locks.Registry
	repo      *database.Repository
	scheduler *moderation.Scheduler
	janitor   *moderation.Janitor
	logger    *zap.Logger
	stop      chan struct{}
}

func New(deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	logger := deps.Logger
	platform := NewPlatform(session, deps.Health)

	ledger := moderation.NewLedger(deps.Store, logger)
	warnings := moderation.NewWarnings(deps.Store, logger)
	sanctions := moderation.NewSanctions(deps.Store, logger)

	executor := moderation.NewExecutor(ledger, warnings, sanctions, platform, platform, deps.Bus, deps.Locks, logger)

	configs := automod.NewConfigStore(deps.Store, deps.Locks, logger)
	detector := automod.NewDetector(configs, automod.NewSpamTracker(0), logger)
	autoMod := automod.New(detector, platform, executor, deps.Locks, logger)

	scheduler := moderation.NewScheduler(sanctions, platform, deps.Locks,
		time.Duration(config.SchedulerIntervalSeconds)*time.Second, logger)
	janitor := moderation.NewJanitor(ledger, warnings,
		time.Duration(config.CleanupIntervalSeconds)*time.Second, logger)

	// Side channels subscribe to the sanction bus; their failures never
	// reach the sanction path.
	deps.Bus.Subscribe(reputation.New(deps.Store, logger).HandleSanction)
	deps.Bus.Subscribe(audit.New(session, deps.Repo, config.ModLogChannelName, logger).HandleSanction)

	b := &Bot{
		Session:   session,
		Executor:  executor,
		AutoMod:   autoMod,
		Configs:   configs,
		locks:     deps.Locks,
		repo:      deps.Repo,
		scheduler: scheduler,
		janitor:   janitor,
		logger:    logger.Named("bot"),
		stop:      make(chan struct{}),
	}
	b.registerHandlers()

	return b, nil
}

func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}

	go b.scheduler.Run(b.stop)
	go b.janitor.Run(b.stop)
	go b.heartbeat()

	return nil
}

func (b *Bot) Stop() {
	close(b.stop)
	b.Session.Close()
}

func (b *Bot) registerHandlers() {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.messageCreate)
	b.Session.AddHandler(b.interactionCreate)
	b.Session.AddHandler(b.guildCreate)
	b.Session.AddHandler(b.guildDelete)
}

func (b *Bot) heartbeat() {
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()

	for {
		status := &database.ServiceStatus{
			ServiceName:   "discord_bot",
			Status:        "operational",
			LastHeartbeat: time.Now(),
		}
		if err := b.repo.UpsertServiceStatus(status); err != nil {
			b.logger.Error("failed to send heartbeat", zap.Error(err))
		}

		select {
		case <-ticker.C:
		case <-b.stop:
			return
		}
	}
}

func (b *Bot) updateBotStatus() {
	serverCount := len(b.Session.State.Guilds)
	err := b.Session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: fmt.Sprintf("over %d servers", serverCount),
				Type: discordgo.ActivityTypeWatching,
			},
		},
	})
	if err != nil {
		b.logger.Warn("failed to update status", zap.Error(err))
	}
}
