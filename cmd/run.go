package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tweetgraph/hunter/internal/automaton"
)

var (
	runMaxRounds   int
	runMetricsAddr string
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl labeled accounts and promote the strongest candidates until the cluster converges",
	Long: `Runs rounds of crawl, score and promote. Pending crawls from an interrupted
run are finished first. Stops when no candidate remains, when the best
candidate scores below half the labeled set, or after --max-rounds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxRounds := cfg.Automaton.MaxRounds
		if cmd.Flags().Changed("max-rounds") {
			maxRounds = runMaxRounds
		}
		if maxRounds < 0 {
			return fmt.Errorf("--max-rounds must not be negative")
		}
		metricsAddr := cfg.Metrics.Addr
		if cmd.Flags().Changed("metrics-addr") {
			metricsAddr = runMetricsAddr
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

		sched, err := newScheduler(d, fetcher)
		if err != nil {
			return err
		}
		a := automaton.New(d, sched, automaton.Config{MaxRounds: maxRounds}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var res *automaton.Result
		g, gctx := errgroup.WithContext(ctx)
		done := make(chan struct{})
		g.Go(func() error {
			defer close(done)
			var err error
			res, err = a.Run(gctx)
			return err
		})
		if metricsAddr != "" {
			srv := &http.Server{Addr: metricsAddr, Handler: metricsHandler(), ReadHeaderTimeout: 10 * time.Second}
			g.Go(func() error {
				logger.Info("serving metrics", zap.String("addr", metricsAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				select {
				case <-done:
				case <-gctx.Done():
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}
		runErr := g.Wait()

		if res != nil {
			printRunResult(res)
		}
		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				return fmt.Errorf("interrupted; progress is saved, rerun to resume: %w", runErr)
			}
			return runErr
		}
		return nil
	},
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func printRunResult(res *automaton.Result) {
	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}
	for _, r := range res.Rounds {
		fmt.Printf("[run] round %d: labeled=%d threshold=%.1f crawled=%d candidates=%d max_score=%.2f promoted=%d\n",
			r.Round, r.Labeled, r.Threshold, r.Crawled, r.Candidates, r.MaxScore, len(r.Promoted))
	}
	if res.Stop != "" {
		fmt.Printf("[run] stopped: %s after %d round(s), %d labeled (run %s)\n",
			res.Stop, len(res.Rounds), res.Labeled, res.RunID)
	}
}

func init() {
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 0, "Stop after this many rounds, 0 for no limit (default from automaton.max_rounds)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :9090")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the run result as JSON")
	rootCmd.AddCommand(runCmd)
}
