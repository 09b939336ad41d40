package moderation

import (
	"time"

	"go.uber.org/zap"
)

// Janitor is the data-retention sweep: it prunes violation and warning
// records older than the retention window. Pruning is best-effort and
// never blocks the hot path; tier computation already ignores stale
// records at query time.
type Janitor struct {
	ledger   *Ledger
	warnings *Warnings
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func NewJanitor(ledger *Ledger, warnings *Warnings, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		ledger:   ledger,
		warnings: warnings,
		logger:   logger.Named("janitor"),
		interval: interval,
		now:      time.Now,
	}
}

func (j *Janitor) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-stop:
			return
		}
	}
}

// Sweep prunes expired records and persists whichever documents changed.
func (j *Janitor) Sweep() {
	now := j.now()

	if n := j.ledger.Prune(now); n > 0 {
		if err := j.ledger.Save(); err != nil {
			j.logger.Error("failed to persist violation ledger after prune", zap.Error(err))
		}
		j.logger.Info("pruned expired violations", zap.Int("removed", n))
	}

	if n := j.warnings.Prune(now); n > 0 {
		if err := j.warnings.Save(); err != nil {
			j.logger.Error("failed to persist warnings after prune", zap.Error(err))
		}
		j.logger.Info("pruned expired warnings", zap.Int("removed", n))
	}
}
