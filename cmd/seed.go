package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tweetgraph/hunter/internal/db"
	"tweetgraph/hunter/internal/provider"
	"tweetgraph/hunter/internal/retry"
)

var seedCmd = &cobra.Command{
	Use:   "seed <external_id>...",
	Short: "Label known coordinated accounts to start the search from",
	Long:  "Fetches each account from the provider and labels it for crawling. Seeds bypass the admission filter; accounts that cannot be found are skipped.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, a := range args {
			id, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid external id %q: %w", a, err)
			}
			ids[i] = id
		}

		fetcher, err := newFetcher()
		if err != nil {
			return err
		}
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		policy := newRetryPolicy()
		labeled := 0
		for _, ext := range ids {
			s, err := retry.Do(ctx, policy, "seed", func(ctx context.Context) (*provider.AccountSummary, error) {
				return fetcher.FetchAccount(ctx, ext)
			})
			if err != nil {
				return fmt.Errorf("fetching %d: %w", ext, err)
			}
			if s == nil {
				logger.Warn("seed account not found, skipping", zap.Int64("external_id", ext))
				continue
			}
			n, err := seedAccount(ctx, d, *s)
			if err != nil {
				return err
			}
			labeled += n
			fmt.Printf("[seed] %d @%s\n", s.ExternalID, s.ScreenName)
		}
		fmt.Printf("[seed] %d new label(s), %d requested\n", labeled, len(ids))
		return nil
	},
}

// seedAccount stores s and labels it for crawling. Returns 1 if the label is new.
func seedAccount(ctx context.Context, d *db.DB, s provider.AccountSummary) (int, error) {
	var inserted int
	err := d.InTx(ctx, func(q *db.Queries) error {
		id, err := q.UpsertAccount(ctx, s.Account())
		if err != nil {
			return err
		}
		inserted, err = q.AddLabels(ctx, []int64{id}, true)
		return err
	})
	return inserted, err
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
