package bootstrap

import (
	"context"
	"time"

	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Pruner deletes sync log rows older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartSyncLogPruner prunes once immediately and then every interval until
// ctx is done. retention <= 0 disables pruning.
func StartSyncLogPruner(ctx context.Context, p Pruner, retention, interval time.Duration, logger *logging.Logger) {
	if p == nil || retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}

	prune := func() {
		n, err := p.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("sync log prune failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("sync log pruned", "deleted", n)
		}
	}

	go func() {
		prune()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prune()
			}
		}
	}()
}
