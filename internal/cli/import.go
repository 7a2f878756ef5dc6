package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tally/internal/backup"
)

type importOptions struct {
	Passphrase string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored document with a JSON file",
		Long: `Replace the stored document with the contents of <file> ("-" for stdin).

Stop the server first: a running server keeps its own copy in memory and
overwrites the import on its next change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if opts.Passphrase != "" {
				if data, err = backup.Decrypt(data, opts.Passphrase); err != nil {
					return fmt.Errorf("decrypt: %w", err)
				}
			}

			db, l, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := l.ReplaceDocument(data); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			doc := l.ExportDocument()
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d roles, %d task definitions, %d dates, %d rewards\n",
				len(doc.Roles), len(doc.TaskDefs), len(doc.DailyTasks), len(doc.Rewards))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Passphrase, "passphrase", "", "decrypt an encrypted export with this passphrase")

	return cmd
}
