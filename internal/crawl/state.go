package crawl

import (
	"context"
	"fmt"

	"tweetgraph/hunter/internal/db"
)

// State is where an account is in its crawl.
type State int

const (
	NotStarted State = iota
	CrawlingFollowing
	CrawlingFollowers
	Done
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case CrawlingFollowing:
		return "crawling_following"
	case CrawlingFollowers:
		return "crawling_followers"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func crawlingState(dir db.Direction) State {
	if dir == db.DirectionFollowers {
		return CrawlingFollowers
	}
	return CrawlingFollowing
}

// StateOf derives the crawl state of an account from its cursor and label.
// Only labeled accounts are crawled, so an unlabeled account without a
// cursor is NotStarted.
func StateOf(ctx context.Context, d *db.DB, accountID int64) (State, error) {
	cur, err := d.GetCursor(ctx, accountID)
	if err != nil {
		return NotStarted, err
	}
	if cur != nil {
		return crawlingState(cur.Direction), nil
	}
	l, err := d.GetLabel(ctx, accountID)
	if err != nil {
		return NotStarted, err
	}
	if l != nil && !l.IsNew {
		return Done, nil
	}
	return NotStarted, nil
}
