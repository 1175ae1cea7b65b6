package jobs

import (
	"context"
	"log/slog"

	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/tasks"
)

// RunReminderScan lists pending tasks past their due date, publishes the
// count as a gauge and logs each one so supervisors can chase them up.
func RunReminderScan(ctx context.Context, logger *slog.Logger, svc *tasks.Service, metrics *observability.Metrics) error {
	delayed, err := svc.Delayed(ctx)
	if err != nil {
		return err
	}
	metrics.SetDelayedTasks(len(delayed))
	for _, task := range delayed {
		if logger != nil {
			logger.Warn("task overdue",
				slog.String("job", "reminder_scan"),
				slog.Int64("task_id", task.ID),
				slog.Int64("assigned_to", task.AssignedTo),
				slog.String("department", task.Department),
				slog.Time("due_at", *task.DueAt),
			)
		}
	}
	return nil
}
