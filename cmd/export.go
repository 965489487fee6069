package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tweetgraph/hunter/internal/export"
)

var exportMinWeight float64

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write labeled accounts at or above a weight cutoff as CSV, heaviest first",
	Long:  "Writes ID, ScreenName, DisplayName, Description, CreationDate, #Follower, #Following and Weight columns. Use - for stdout.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		minWeight := cfg.Export.MinWeight
		if cmd.Flags().Changed("min-weight") {
			minWeight = exportMinWeight
		}
		if minWeight < 0 {
			return fmt.Errorf("--min-weight must not be negative")
		}

		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		rows, err := d.LabeledAccounts(cmd.Context(), minWeight)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			w = f
		}
		if err := export.WriteCSV(w, rows); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		if args[0] != "-" {
			fmt.Printf("[export] %d account(s) with weight >= %.2f written to %s\n", len(rows), minWeight, args[0])
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().Float64Var(&exportMinWeight, "min-weight", 1.0, "Lowest weight to export (default from export.min_weight)")
	rootCmd.AddCommand(exportCmd)
}
