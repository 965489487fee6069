package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <external_id>...",
	Short: "Remove accounts with their edges, labels and crawl cursors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		for _, a := range args {
			ext, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid external id %q: %w", a, err)
			}
			acct, err := d.AccountByExternalID(ctx, ext)
			if err != nil {
				return err
			}
			if acct == nil {
				return fmt.Errorf("account not found: %d", ext)
			}
			if _, err := d.DeleteAccount(ctx, acct.ID); err != nil {
				return err
			}
			fmt.Printf("[delete] %d @%s\n", acct.ExternalID, acct.ScreenName)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
