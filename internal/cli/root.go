package cli

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tally/internal/config"
	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/logging"
	"github.com/dukerupert/tally/internal/store"
)

// RootOptions holds global flags for all commands. Flags that are set
// override the matching TALLY_* variables.
type RootOptions struct {
	DBPath    string
	LogLevel  string
	LogFormat string

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCommand creates the root command for the tally CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Household points and chore tracker",
		Long: `Tally tracks recurring chores per household member, credits points
when a task is done and lets members spend them on rewards.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides TALLY_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides TALLY_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format: text|json (overrides TALLY_LOG_FORMAT)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewVAPIDKeysCommand())

	return cmd
}

func (o *RootOptions) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	o.cfg = cfg
	o.logger = logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}

// openLedger opens the database and loads the configured document. The
// caller closes the returned database.
func (o *RootOptions) openLedger() (*sql.DB, *ledger.Ledger, error) {
	loc, err := o.cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(o.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	docs := store.NewDocumentStore(db, o.cfg.DocumentKey)
	return db, ledger.New(docs, o.logger.With("component", "ledger"), ledger.WithLocation(loc)), nil
}
