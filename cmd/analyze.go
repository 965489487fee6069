package cmd

import (
	"fmt"
	"math"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"tweetgraph/hunter/internal/graph"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	analyzeJSON bool
	analyzeTopN int
)

// storeCounts summarizes what is persisted, independent of the graph analysis.
type storeCounts struct {
	Accounts      int `json:"accounts"`
	Edges         int `json:"edges"`
	Labeled       int `json:"labeled"`
	PendingLabels int `json:"pending_labels"`
	OpenCursors   int `json:"open_cursors"`
}

type analyzeReport struct {
	Store   storeCounts          `json:"store"`
	Cluster *graph.ClusterReport `json:"cluster"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the labeled cluster: components, hubs, degree distribution, strongest candidates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		var report analyzeReport
		counters := []struct {
			dst *int
			fn  func() (int, error)
		}{
			{&report.Store.Accounts, func() (int, error) { return d.CountAccounts(ctx) }},
			{&report.Store.Edges, func() (int, error) { return d.CountEdges(ctx) }},
			{&report.Store.Labeled, func() (int, error) { return d.CountLabels(ctx) }},
			{&report.Store.PendingLabels, func() (int, error) { return d.CountNewLabels(ctx) }},
			{&report.Store.OpenCursors, func() (int, error) { return d.CountCursors(ctx) }},
		}
		for _, c := range counters {
			if *c.dst, err = c.fn(); err != nil {
				return err
			}
		}

		snap, err := graph.SnapshotFromDB(ctx, d)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}
		report.Cluster = graph.ComputeCluster(snap, analyzeTopN)

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		accounts, err := d.AllAccounts(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(accounts))
		for _, a := range accounts {
			names[a.ID] = "@" + a.ScreenName
		}
		printHumanReadable(&report, names)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	rootCmd.AddCommand(analyzeCmd)
}

func printHumanReadable(report *analyzeReport, names map[int64]string) {
	s := report.Store
	fmt.Println("\n  STORE")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Accounts: %d  Edges: %d  Labeled: %d\n", s.Accounts, s.Edges, s.Labeled)
	fmt.Printf("  Pending crawls: %d labels, %d open cursors\n", s.PendingLabels, s.OpenCursors)

	c := report.Cluster
	if c.Labeled == 0 {
		fmt.Println("\n  No labeled accounts. Run `hunter seed` first.")
		fmt.Println()
		return
	}

	// Share of the labeled set in the largest component
	share := float64(c.LargestComponent) / float64(c.Labeled)
	barLen := min(int(share*20), 20)
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Cohesion: %.0f%%  [%s]\n\n", share*100, bar)

	fmt.Println("  CLUSTER")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Labeled: %d  Components: %d  Candidates: %d\n", c.Labeled, c.NumComponents, c.Candidates)
	fmt.Printf("  Largest component: %d  Smallest: %d\n", c.LargestComponent, c.SmallestComponent)

	if c.IsolatedCount > 0 {
		fmt.Printf("  Isolated: %d labeled accounts without a labeled neighbor\n", c.IsolatedCount)
		for _, id := range c.IsolatedIDs {
			fmt.Printf("    - %d %s\n", id, accountName(names, id))
		}
		if c.IsolatedCount > len(c.IsolatedIDs) {
			fmt.Printf("    ... and %d more\n", c.IsolatedCount-len(c.IsolatedIDs))
		}
	}

	fmt.Println("\n  Degree distribution (labeled):")
	for _, b := range c.DegreeHistogram {
		if b.Count > 0 {
			barWidth := max(int(math.Log2(float64(b.Count)))+2, 1)
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(c.Hubs) > 0 {
		fmt.Println("\n  Top hubs by center score:")
		for _, h := range c.Hubs {
			fmt.Printf("    %-20s center=%.0f weight=%.2f (in=%d, out=%d)\n",
				truncName(accountName(names, h.AccountID), 20), h.CenterScore, h.Weight, h.InDegree, h.OutDegree)
		}
	}

	if len(c.TopCandidates) > 0 {
		fmt.Println("\n  STRONGEST CANDIDATES")
		fmt.Println("  ────────────────────────────────────────")
		for _, cand := range c.TopCandidates {
			fmt.Printf("    %-20s score=%.2f\n", truncName(accountName(names, cand.AccountID), 20), cand.Score)
		}
	}

	fmt.Println()
}

func accountName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
