// Package crawl walks the following and followers listings of labeled
// accounts one page at a time, persisting progress after every page.
package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tweetgraph/hunter/internal/db"
	"tweetgraph/hunter/internal/provider"
	"tweetgraph/hunter/internal/retry"
)

// DefaultPageSize is the largest page the listing endpoints serve.
const DefaultPageSize = 200

// Config controls paging.
type Config struct {
	PageSize int // accounts requested per page (default 200)
}

// StepResult describes one crawled page.
type StepResult struct {
	AccountID  int64
	Direction  db.Direction
	Cursor     int64 // cursor the page was requested with
	NextCursor int64 // 0 when the listing is exhausted
	Listed     int
	Admitted   int
	Rejected   int
	State      State // state after the step
}

type pageFunc func(ctx context.Context, externalID, cursor int64, pageSize int) (provider.Page, error)

// Scheduler advances the crawl of one account at a time. It is not safe
// for concurrent use on the same account.
type Scheduler struct {
	db       *db.DB
	retry    retry.Policy
	filter   Filter
	pageSize int
	logger   *zap.Logger
	pages    map[db.Direction]pageFunc
}

func NewScheduler(d *db.DB, fetcher provider.Fetcher, policy retry.Policy, filter Filter, cfg Config, logger *zap.Logger) *Scheduler {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Scheduler{
		db:       d,
		retry:    policy,
		filter:   filter,
		pageSize: pageSize,
		logger:   logger.Named("crawl"),
		pages: map[db.Direction]pageFunc{
			db.DirectionFollowing: fetcher.FetchFollowing,
			db.DirectionFollowers: fetcher.FetchFollowers,
		},
	}
}

// Step fetches the next page for accountID, admits its candidates and
// advances the cursor, all in one transaction. An account without a cursor
// starts at the first page of its following list.
func (s *Scheduler) Step(ctx context.Context, accountID int64) (*StepResult, error) {
	acct, err := s.db.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, &db.ReferentialIntegrityError{Table: "crawl_cursors", AccountID: accountID}
	}

	cur, err := s.db.GetCursor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = &db.CrawlCursor{AccountID: accountID, Direction: db.DirectionFollowing, Cursor: db.StartCursor}
	}
	fetch, ok := s.pages[cur.Direction]
	if !ok {
		return nil, fmt.Errorf("account %d has invalid crawl direction %q", accountID, cur.Direction)
	}

	op := fmt.Sprintf("%s/%d", cur.Direction, acct.ExternalID)
	page, err := retry.Do(ctx, s.retry, op, func(ctx context.Context) (provider.Page, error) {
		return fetch(ctx, acct.ExternalID, cur.Cursor, s.pageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s of %d: %w", cur.Direction, acct.ExternalID, err)
	}
	pagesFetched.WithLabelValues(string(cur.Direction)).Inc()

	res := &StepResult{
		AccountID:  accountID,
		Direction:  cur.Direction,
		Cursor:     cur.Cursor,
		NextCursor: page.NextCursor,
		Listed:     len(page.Accounts),
	}
	var admitted []provider.AccountSummary
	for _, c := range page.Accounts {
		if ok, reason := s.filter.Admit(c); !ok {
			candidatesRejected.WithLabelValues(string(reason)).Inc()
			res.Rejected++
			continue
		}
		admitted = append(admitted, c)
	}
	res.Admitted = len(admitted)
	candidatesAdmitted.Add(float64(len(admitted)))

	err = s.db.InTx(ctx, func(q *db.Queries) error {
		ids := make([]int64, 0, len(admitted))
		for _, c := range admitted {
			id, err := q.UpsertAccount(ctx, c.Account())
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		var err error
		if cur.Direction == db.DirectionFollowing {
			err = q.BulkFollow(ctx, accountID, ids)
		} else {
			err = q.BulkAttract(ctx, accountID, ids)
		}
		if err != nil {
			return err
		}

		switch {
		case page.NextCursor != 0:
			res.State = crawlingState(cur.Direction)
			return q.SaveCursor(ctx, db.CrawlCursor{AccountID: accountID, Direction: cur.Direction, Cursor: page.NextCursor})
		case cur.Direction == db.DirectionFollowing:
			res.State = CrawlingFollowers
			return q.SaveCursor(ctx, db.CrawlCursor{AccountID: accountID, Direction: db.DirectionFollowers, Cursor: db.StartCursor})
		default:
			res.State = Done
			if err := q.MarkCrawled(ctx, accountID); err != nil {
				return err
			}
			_, err := q.DeleteCursor(ctx, accountID)
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("saving %s page of %d: %w", cur.Direction, acct.ExternalID, err)
	}

	s.logger.Debug("page",
		zap.Int64("account", acct.ExternalID),
		zap.String("direction", string(cur.Direction)),
		zap.Int64("cursor", cur.Cursor),
		zap.Int64("next_cursor", page.NextCursor),
		zap.Int("listed", res.Listed),
		zap.Int("admitted", res.Admitted),
		zap.Stringer("state", res.State))
	return res, nil
}

// Drive steps accountID until its crawl is Done.
func (s *Scheduler) Drive(ctx context.Context, accountID int64) error {
	pages, admitted := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.Step(ctx, accountID)
		if err != nil {
			return err
		}
		pages++
		admitted += res.Admitted
		if res.State == Done {
			s.logger.Info("account crawled",
				zap.Int64("account_id", accountID),
				zap.Int("pages", pages),
				zap.Int("admitted", admitted))
			return nil
		}
	}
}
