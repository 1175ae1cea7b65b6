package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/chairline/chairline/internal/shared"
)

// RunIdempotencyCleanup prunes idempotency keys older than the retention
// window. Keys only need to outlive plausible client retries.
func RunIdempotencyCleanup(ctx context.Context, logger *slog.Logger, store *shared.IdempotencyStore, retention time.Duration) error {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if err := store.Cleanup(ctx, retention); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("idempotency keys pruned", slog.String("job", "idempotency_cleanup"), slog.Duration("retention", retention))
	}
	return nil
}
