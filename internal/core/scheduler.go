package core

// scheduler.go runs background maintenance for the activity log.
//
// The pruner removes entries older than the retention period. It is
// long-running and context-aware so it stops on shutdown.

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig holds configuration for the audit pruner.
type PruneConfig struct {
	Retention     time.Duration // Age after which entries are removed (default: 24h)
	CheckInterval time.Duration // How often to run (default: 1h)
}

func (c PruneConfig) withDefaults() PruneConfig {
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Hour
	}
	return c
}

// StartAuditPruner prunes expired audit entries immediately, then every
// CheckInterval until ctx is cancelled.
func (s *Service) StartAuditPruner(ctx context.Context, cfg PruneConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit pruner started",
		"retention", cfg.Retention,
		"interval", cfg.CheckInterval,
	)

	s.runPruneJob(cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit pruner stopped")
			return
		case <-ticker.C:
			s.runPruneJob(cfg)
		}
	}
}

// runPruneJob performs one prune cycle and returns the number removed.
func (s *Service) runPruneJob(cfg PruneConfig) int {
	start := time.Now()
	removed := s.audit.Prune(s.now().Add(-cfg.Retention))
	if removed > 0 {
		slog.Info("pruned audit log entries",
			"entries_removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return removed
}
