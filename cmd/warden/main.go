package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/bot"
	"github.com/wardenbot/discord-warden/internal/config"
	"github.com/wardenbot/discord-warden/internal/database"
	"github.com/wardenbot/discord-warden/internal/events"
	"github.com/wardenbot/discord-warden/internal/health"
	"github.com/wardenbot/discord-warden/internal/locks"
	"github.com/wardenbot/discord-warden/internal/store"
)

const version = "1.1.0"

func main() {
	config.Load()
	logger := newLogger()
	defer logger.Sync()

	logger.Info("starting warden", zap.String("version", version))

	if config.DiscordToken == "" {
		logger.Fatal("DISCORD_TOKEN is not set")
	}

	if err := database.Init(config.DatabaseType, config.GetDatabaseConnectionString()); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	repo := database.NewRepository()

	fileStore, err := store.NewFileStore(config.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open data directory", zap.Error(err))
	}

	aggregator := health.NewAggregator(repo, "discord_api", logger)
	aggregator.Start(time.Duration(config.HealthFlushIntervalSeconds) * time.Second)

	b, err := bot.New(bot.Deps{
		Store:  fileStore,
		Locks:  locks.NewRegistry(),
		Bus:    events.NewBus(logger),
		Repo:   repo,
		Health: aggregator,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	if err := b.Start(); err != nil {
		logger.Fatal("failed to start bot", zap.Error(err))
	}
	logger.Info("bot is running, press Ctrl+C to exit")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	b.Stop()
	aggregator.Flush()
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
