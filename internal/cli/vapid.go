package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tally/internal/push"
)

// NewVAPIDKeysCommand creates the vapid-keys command. It needs no
// configuration or database.
func NewVAPIDKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for push reminders",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "TALLY_PUSH_VAPID_PUBLIC_KEY=%s\nTALLY_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	}
}
