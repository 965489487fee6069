package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every account, edge, label and crawl cursor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("[reset] Cleared %s\n", d.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
