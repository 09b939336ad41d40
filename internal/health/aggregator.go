// Package health tracks platform API call outcomes in memory and flushes
// them to the database on a fixed interval, keeping the hot path free of
// database writes.
package health

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/database"
)

// Aggregator holds API health stats in memory to reduce database writes.
type Aggregator struct {
	repo               *database.Repository
	serviceName        string
	logger             *zap.Logger
	totalRequests      atomic.Uint64
	successfulRequests atomic.Uint64
}

func NewAggregator(repo *database.Repository, serviceName string, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		repo:        repo,
		serviceName: serviceName,
		logger:      logger.Named("health"),
	}
}

// RecordCall increments the in-memory counters for one API call. Fast and
// non-blocking; safe from any goroutine.
func (a *Aggregator) RecordCall(success bool) {
	a.totalRequests.Add(1)
	if success {
		a.successfulRequests.Add(1)
	}
}

// Flush writes the aggregated counts to the database and resets the
// counters.
func (a *Aggregator) Flush() {
	total := a.totalRequests.Swap(0)
	successful := a.successfulRequests.Swap(0)

	if total == 0 {
		return
	}

	if err := a.repo.UpdateAPIHealthBulk(a.serviceName, total, successful); err != nil {
		a.logger.Error("failed to flush API health stats",
			zap.String("service", a.serviceName),
			zap.Error(err),
		)
	}
}

// Start launches a background goroutine that periodically flushes stats.
func (a *Aggregator) Start(interval time.Duration) {
	a.logger.Info("health aggregator started",
		zap.String("service", a.serviceName),
		zap.Duration("flush_interval", interval),
	)
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			a.Flush()
		}
	}()
}
