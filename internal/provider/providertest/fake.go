// Package providertest provides an in-memory provider.Fetcher for tests.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tweetgraph/hunter/internal/provider"
)

// Call records one request made to a Fake.
type Call struct {
	Method     string
	ExternalID int64
	Cursor     int64
}

// Fake serves following/followers listings from maps. Cursors are offsets
// into the listing: StartCursor reads from 0 and the last page reports 0.
// Errors queued with FailNext are returned, in order, before any listing is
// served.
type Fake struct {
	mu sync.Mutex

	accounts     map[int64]provider.AccountSummary
	following    map[int64][]int64
	followers    map[int64][]int64
	inaccessible map[int64]bool
	errs         []error
	calls        []Call
}

func New() *Fake {
	return &Fake{
		accounts:     make(map[int64]provider.AccountSummary),
		following:    make(map[int64][]int64),
		followers:    make(map[int64][]int64),
		inaccessible: make(map[int64]bool),
	}
}

// Summary returns a plausible, admissible account summary for id.
func Summary(id int64) provider.AccountSummary {
	return provider.AccountSummary{
		ExternalID:    id,
		ScreenName:    fmt.Sprintf("user_%d", id),
		DisplayName:   fmt.Sprintf("User %d", id),
		CreatedAt:     time.Date(2020, 3, 29, 0, 0, 0, 0, time.UTC),
		FollowerCount: 50,
		FriendCount:   500,
	}
}

// AddAccount registers summaries, replacing any with the same id.
func (f *Fake) AddAccount(accounts ...provider.AccountSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range accounts {
		f.accounts[a.ExternalID] = a
	}
}

// Follow records that follower follows each of authors, registering a
// default summary for any id not yet known.
func (f *Fake) Follow(follower int64, authors ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure(follower)
	for _, a := range authors {
		f.ensure(a)
		f.following[follower] = append(f.following[follower], a)
		f.followers[a] = append(f.followers[a], follower)
	}
}

func (f *Fake) ensure(id int64) {
	if _, ok := f.accounts[id]; !ok {
		f.accounts[id] = Summary(id)
	}
}

// SetInaccessible makes every request about id fail with TargetInaccessibleError.
func (f *Fake) SetInaccessible(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inaccessible[id] = true
}

// FailNext queues errors returned by the next requests.
func (f *Fake) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

// Calls returns a copy of the request log.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) FetchFollowing(ctx context.Context, externalID, cursor int64, pageSize int) (provider.Page, error) {
	return f.page(ctx, "following", f.following, externalID, cursor, pageSize)
}

func (f *Fake) FetchFollowers(ctx context.Context, externalID, cursor int64, pageSize int) (provider.Page, error) {
	return f.page(ctx, "followers", f.followers, externalID, cursor, pageSize)
}

func (f *Fake) FetchAccount(ctx context.Context, externalID int64) (*provider.AccountSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, "account", externalID, 0); err != nil {
		return nil, err
	}
	a, ok := f.accounts[externalID]
	if !ok {
		return nil, &provider.TargetInaccessibleError{ExternalID: externalID, Reason: "User not found."}
	}
	return &a, nil
}

func (f *Fake) page(ctx context.Context, method string, lists map[int64][]int64, externalID, cursor int64, pageSize int) (provider.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, method, externalID, cursor); err != nil {
		return provider.Page{}, err
	}

	list := lists[externalID]
	offset := 0
	if cursor != provider.StartCursor {
		offset = int(cursor)
	}
	if offset < 0 || offset > len(list) {
		return provider.Page{}, &provider.UnclassifiedProviderError{Status: 400, Code: 44, Message: "cursor parameter is invalid"}
	}
	end := min(offset+pageSize, len(list))

	page := provider.Page{PrevCursor: -int64(offset)}
	if end < len(list) {
		page.NextCursor = int64(end)
	}
	for _, id := range list[offset:end] {
		page.Accounts = append(page.Accounts, f.accounts[id])
	}
	return page, nil
}

// begin logs the call and returns any queued or scripted failure. f.mu must be held.
func (f *Fake) begin(ctx context.Context, method string, externalID, cursor int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls = append(f.calls, Call{Method: method, ExternalID: externalID, Cursor: cursor})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	if f.inaccessible[externalID] {
		return &provider.TargetInaccessibleError{ExternalID: externalID, Reason: "Not authorized."}
	}
	return nil
}

var _ provider.Fetcher = (*Fake)(nil)
