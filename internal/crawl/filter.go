package crawl

import (
	"time"

	"tweetgraph/hunter/internal/provider"
)

// Rejection names the reason a candidate was not admitted.
type Rejection string

const (
	Admitted         Rejection = ""
	RejectProtected  Rejection = "protected"
	RejectTooOld     Rejection = "created_before_cutoff"
	RejectTooPopular Rejection = "too_many_followers"
)

// Filter decides whether a freshly listed account is worth keeping as a
// candidate. Coordinated accounts tend to be young, public and small.
type Filter struct {
	CreatedAfter time.Time // accounts created before this are rejected
	MaxFollowers int       // 0 disables the ceiling
}

// DefaultFilter returns the stock admission thresholds.
func DefaultFilter() Filter {
	return Filter{
		CreatedAfter: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxFollowers: 5000,
	}
}

// Admit reports whether s passes the filter and, if not, why.
func (f Filter) Admit(s provider.AccountSummary) (bool, Rejection) {
	switch {
	case s.Protected:
		return false, RejectProtected
	case s.CreatedAt.Before(f.CreatedAfter):
		return false, RejectTooOld
	case f.MaxFollowers > 0 && s.FollowerCount > f.MaxFollowers:
		return false, RejectTooPopular
	}
	return true, Admitted
}
