package scheduler

import (
	"context"
	"log/slog"

	"github.com/dukerupert/tally/internal/model"
)

// Reconciler is the part of the ledger the rollover job needs.
type Reconciler interface {
	Today() string
	EnsureDaily(date string) ([]model.DailyInstance, error)
}

// Backuper is the part of the backup manager the nightly job needs.
type Backuper interface {
	RunNow(ctx context.Context, passphrase string) (*model.Backup, error)
	Cleanup(ctx context.Context) error
}

// Rollover reconciles the new day's task list, then calls notify with the
// date so connected screens can refresh.
func Rollover(r Reconciler, notify func(date string), logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		date := r.Today()
		list, err := r.EnsureDaily(date)
		if err != nil {
			logger.Error("rollover", "date", date, "error", err)
			return
		}
		logger.Info("rollover", "date", date, "tasks", len(list))
		if notify != nil {
			notify(date)
		}
	}
}

// NightlyBackup uploads a backup with the configured passphrase, then
// prunes backups past retention.
func NightlyBackup(b Backuper, logger *slog.Logger) func(context.Context) {
	return func(ctx context.Context) {
		if _, err := b.RunNow(ctx, ""); err != nil {
			logger.Error("scheduled backup failed", "error", err)
		}
		if err := b.Cleanup(ctx); err != nil {
			logger.Error("backup cleanup failed", "error", err)
		}
	}
}
