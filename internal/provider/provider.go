// Package provider defines the paged social-graph listing interface the
// crawler consumes, its error taxonomy, and an HTTP client for the Twitter
// v1.1 API.
package provider

import (
	"context"
	"time"

	"tweetgraph/hunter/internal/db"
)

// StartCursor requests the first page of a listing.
const StartCursor int64 = -1

// AccountSummary is the provider's view of one account.
type AccountSummary struct {
	ExternalID    int64
	ScreenName    string
	DisplayName   string
	Description   string
	CreatedAt     time.Time
	FollowerCount int
	FriendCount   int
	Protected     bool
}

// Account converts the summary into a store row.
func (s AccountSummary) Account() db.Account {
	return db.Account{
		ExternalID:    s.ExternalID,
		ScreenName:    s.ScreenName,
		DisplayName:   s.DisplayName,
		Description:   s.Description,
		CreatedAt:     s.CreatedAt,
		FollowerCount: s.FollowerCount,
		FriendCount:   s.FriendCount,
	}
}

// Page is one slice of a following or followers listing. NextCursor is 0
// on the last page.
type Page struct {
	NextCursor int64
	PrevCursor int64
	Accounts   []AccountSummary
}

// Fetcher lists the accounts an account follows and the accounts following it.
type Fetcher interface {
	FetchFollowing(ctx context.Context, externalID, cursor int64, pageSize int) (Page, error)
	FetchFollowers(ctx context.Context, externalID, cursor int64, pageSize int) (Page, error)
	// FetchAccount returns a single account. Used only for seeding.
	FetchAccount(ctx context.Context, externalID int64) (*AccountSummary, error)
}
