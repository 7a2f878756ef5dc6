package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/scheduler"
	"github.com/dukerupert/tally/internal/server"
	"github.com/dukerupert/tally/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket hub and daily jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(db, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Hub().Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sched := scheduler.New(loc, logger.With("component", "scheduler"))

	l := srv.Ledger()
	notify := func(date string) {
		srv.Hub().Broadcast(websocket.NewMessage("daily", "rolled_over", "", map[string]any{"date": date}))
	}
	jobLogger := logger.With("component", "jobs")
	rolloverID, err := sched.ScheduleDaily("rollover", cfg.RolloverTime, scheduler.Rollover(l, notify, jobLogger))
	if err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}
	if srv.BackupManager().Enabled() {
		id, err := sched.ScheduleDaily("backup", cfg.Backup.Time, scheduler.NightlyBackup(srv.BackupManager(), jobLogger))
		if err != nil {
			return fmt.Errorf("schedule backup: %w", err)
		}
		logger.Info("backups enabled", "next", sched.Next(id))
	}

	if r := srv.Reminder(); r != nil {
		id, err := sched.ScheduleDaily("reminder", cfg.Push.ReminderTime, r.Run)
		if err != nil {
			return fmt.Errorf("schedule reminder: %w", err)
		}
		logger.Info("push reminders enabled", "next", sched.Next(id))
	}

	// Today's list exists before the first client asks for it.
	if _, err := l.EnsureDaily(l.Today()); err != nil {
		logger.Warn("startup reconcile", "error", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tally running", "addr", httpServer.Addr, "document", cfg.DocumentKey, "next_rollover", sched.Next(rolloverID))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
