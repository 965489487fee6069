// Package automaton grows the labeled set by alternating crawls of newly
// labeled accounts with promotion of the best-connected candidates, until
// no candidate is strong enough.
package automaton

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tweetgraph/hunter/internal/db"
	"tweetgraph/hunter/internal/graph"
)

// Crawler drives the crawl of one account to completion.
type Crawler interface {
	Drive(ctx context.Context, accountID int64) error
}

// Config controls the loop.
type Config struct {
	MaxRounds int // 0 runs until convergence
}

// StopReason is why Run returned.
type StopReason string

const (
	StopNoCandidates StopReason = "no_candidates"
	StopConverged    StopReason = "converged"
	StopMaxRounds    StopReason = "max_rounds"
)

// Round summarizes one iteration.
type Round struct {
	Round      int     `json:"round"`
	Threshold  float64 `json:"threshold"`
	Labeled    int     `json:"labeled"` // size of the labeled set when the round started
	Crawled    int     `json:"crawled"`
	Candidates int     `json:"candidates"`
	MaxScore   float64 `json:"max_score"`
	Promoted   []int64 `json:"promoted,omitempty"`
}

// Result is the outcome of a Run.
type Result struct {
	RunID   string     `json:"run_id"`
	Rounds  []Round    `json:"rounds"`
	Stop    StopReason `json:"stop"`
	Labeled int        `json:"labeled"`
}

type Automaton struct {
	db      *db.DB
	crawler Crawler
	cfg     Config
	runID   string
	logger  *zap.Logger
}

func New(d *db.DB, crawler Crawler, cfg Config, logger *zap.Logger) *Automaton {
	runID := uuid.NewString()
	return &Automaton{
		db:      d,
		crawler: crawler,
		cfg:     cfg,
		runID:   runID,
		logger:  logger.Named("automaton").With(zap.String("run_id", runID)),
	}
}

// RunID identifies this automaton in logs and results.
func (a *Automaton) RunID() string { return a.runID }

// Run iterates until no candidate remains, the strongest candidate falls
// below half the labeled set, or MaxRounds is reached. Every iteration that
// does not stop promotes at least one account, so the loop is bounded by
// the number of discovered accounts. Any error ends the run.
func (a *Automaton) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: a.runID}

	for n := 1; ; n++ {
		if a.cfg.MaxRounds > 0 && n > a.cfg.MaxRounds {
			res.Stop = StopMaxRounds
			break
		}

		r, stop, err := a.round(ctx, n)
		if err != nil {
			return res, fmt.Errorf("round %d: %w", n, err)
		}
		res.Rounds = append(res.Rounds, *r)
		roundsCompleted.Inc()
		if stop != "" {
			res.Stop = stop
			break
		}
	}

	labeled, err := a.db.CountLabels(ctx)
	if err != nil {
		return res, err
	}
	res.Labeled = labeled
	labeledAccounts.Set(float64(labeled))
	a.logger.Info("stopped",
		zap.String("reason", string(res.Stop)),
		zap.Int("rounds", len(res.Rounds)),
		zap.Int("labeled", labeled))
	return res, nil
}

func (a *Automaton) round(ctx context.Context, n int) (*Round, StopReason, error) {
	labeled, err := a.db.CountLabels(ctx)
	if err != nil {
		return nil, "", err
	}
	labeledAccounts.Set(float64(labeled))
	r := &Round{Round: n, Labeled: labeled, Threshold: float64(labeled) / 2}

	r.Crawled, err = a.crawlPending(ctx)
	if err != nil {
		return nil, "", err
	}

	snap, err := graph.SnapshotFromDB(ctx, a.db)
	if err != nil {
		return nil, "", fmt.Errorf("loading graph: %w", err)
	}
	candidates := snap.Scores()
	r.Candidates = len(candidates)
	if len(candidates) == 0 {
		a.logRound(r, StopNoCandidates)
		return r, StopNoCandidates, nil
	}

	// Everything scoring at least the floored maximum is promoted together.
	r.MaxScore = math.Floor(candidates[0].Score)
	if r.MaxScore < r.Threshold {
		a.logRound(r, StopConverged)
		return r, StopConverged, nil
	}

	for _, c := range candidates {
		if c.Score < r.MaxScore {
			break
		}
		r.Promoted = append(r.Promoted, c.AccountID)
	}
	if err := a.promote(ctx, snap, r.Promoted); err != nil {
		return nil, "", err
	}
	a.logRound(r, "")
	return r, "", nil
}

// crawlPending drives every interrupted crawl, then every labeled account
// that has not been crawled yet. Returns the number of accounts crawled.
func (a *Automaton) crawlPending(ctx context.Context) (int, error) {
	crawled := 0
	for {
		var next int64
		cur, err := a.db.AnyCursor(ctx)
		if err != nil {
			return crawled, err
		}
		if cur != nil {
			next = cur.AccountID
		} else {
			l, err := a.db.AnyNewLabel(ctx)
			if err != nil {
				return crawled, err
			}
			if l == nil {
				return crawled, nil
			}
			next = l.AccountID
		}

		if err := a.crawler.Drive(ctx, next); err != nil {
			return crawled, fmt.Errorf("crawling account %d: %w", next, err)
		}
		crawled++
	}
}

// promote labels ids and stores the weights recomputed over the enlarged
// labeled set in one transaction.
func (a *Automaton) promote(ctx context.Context, snap *graph.GraphSnapshot, ids []int64) error {
	snap.Label(ids...)
	weights := snap.RefreshWeights()

	err := a.db.InTx(ctx, func(q *db.Queries) error {
		if _, err := q.AddLabels(ctx, ids, true); err != nil {
			return err
		}
		return q.SetWeights(ctx, weights)
	})
	if err != nil {
		return fmt.Errorf("promoting %d candidates: %w", len(ids), err)
	}
	promotions.Add(float64(len(ids)))
	return nil
}

func (a *Automaton) logRound(r *Round, stop StopReason) {
	fields := []zap.Field{
		zap.Int("round", r.Round),
		zap.Float64("threshold", r.Threshold),
		zap.Int("labeled", r.Labeled),
		zap.Int("crawled", r.Crawled),
		zap.Int("candidates", r.Candidates),
		zap.Float64("max_score", r.MaxScore),
		zap.Int("promoted", len(r.Promoted)),
	}
	if stop != "" {
		fields = append(fields, zap.String("stop", string(stop)))
	}
	a.logger.Info("round", fields...)
}
