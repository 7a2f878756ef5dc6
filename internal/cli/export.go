package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tally/internal/backup"
)

type exportOptions struct {
	Output     string
	Passphrase string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored document as JSON",
		Long: `Write the stored document as JSON to stdout or --output.

With --passphrase the output is encrypted in the same format as the
remote backups and can be read back with "tally import --passphrase".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, l, err := rootOpts.openLedger()
			if err != nil {
				return err
			}
			defer db.Close()

			data, err := l.EncodeDocument()
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			if opts.Passphrase != "" {
				if data, err = backup.Encrypt(data, opts.Passphrase); err != nil {
					return fmt.Errorf("encrypt: %w", err)
				}
			}

			if opts.Output == "" || opts.Output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(opts.Output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", opts.Output, err)
			}
			rootOpts.logger.Info("document exported", "path", opts.Output, "bytes", len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Passphrase, "passphrase", "", "encrypt the output with this passphrase")

	return cmd
}
