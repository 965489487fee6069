package db

import (
	"fmt"
	"time"
)

// Account represents a row in the accounts table
type Account struct {
	ID            int64     `json:"id"`
	ExternalID    int64     `json:"external_id"` // provider identifier
	ScreenName    string    `json:"screen_name"`
	DisplayName   string    `json:"display_name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"` // stored as unix seconds
	FollowerCount int       `json:"follower_count"`
	FriendCount   int       `json:"friend_count"`
}

// Edge is a directed "follows" relationship: FollowerID follows AuthorID.
type Edge struct {
	AuthorID   int64 `json:"author_id"`
	FollowerID int64 `json:"follower_id"`
}

// Label marks an account as part of the discovered cluster.
type Label struct {
	AccountID int64   `json:"account_id"`
	Weight    float64 `json:"weight"`
	IsNew     bool    `json:"is_new"` // true until its crawl completes
}

// Direction selects which follow list of an account is being paged.
type Direction string

const (
	DirectionFollowing Direction = "following"
	DirectionFollowers Direction = "followers"
)

func (d Direction) String() string { return string(d) }

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionFollowing || d == DirectionFollowers
}

// StartCursor is the provider's "first page" pagination token.
const StartCursor int64 = -1

// CrawlCursor is the persisted pagination position of an in-progress crawl.
type CrawlCursor struct {
	AccountID int64     `json:"account_id"`
	Direction Direction `json:"direction"`
	Cursor    int64     `json:"cursor"`
}

// LabeledAccount is an account joined with its label, used for export.
type LabeledAccount struct {
	Account
	Weight float64 `json:"weight"`
}

// ReferentialIntegrityError is returned when a write would make an Edge,
// Label or CrawlCursor reference an account that does not exist.
type ReferentialIntegrityError struct {
	Table     string
	AccountID int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s references missing account %d", e.Table, e.AccountID)
}
