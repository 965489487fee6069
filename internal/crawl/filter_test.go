package crawl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tweetgraph/hunter/internal/provider"
	"tweetgraph/hunter/internal/provider/providertest"
)

func TestFilterAdmit(t *testing.T) {
	f := DefaultFilter()

	tests := []struct {
		name   string
		modify func(s *provider.AccountSummary)
		ok     bool
		reason Rejection
	}{
		{"plain", func(s *provider.AccountSummary) {}, true, Admitted},
		{"protected", func(s *provider.AccountSummary) { s.Protected = true }, false, RejectProtected},
		{"protected beats everything", func(s *provider.AccountSummary) {
			s.Protected = true
			s.FollowerCount = 1_000_000
		}, false, RejectProtected},
		{"created before cutoff", func(s *provider.AccountSummary) {
			s.CreatedAt = time.Date(2010, 12, 31, 23, 59, 59, 0, time.UTC)
		}, false, RejectTooOld},
		{"created on cutoff", func(s *provider.AccountSummary) {
			s.CreatedAt = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
		}, true, Admitted},
		{"at ceiling", func(s *provider.AccountSummary) { s.FollowerCount = 5000 }, true, Admitted},
		{"above ceiling", func(s *provider.AccountSummary) { s.FollowerCount = 5001 }, false, RejectTooPopular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := providertest.Summary(1)
			tt.modify(&s)
			ok, reason := f.Admit(s)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestFilterNoCeiling(t *testing.T) {
	f := Filter{CreatedAfter: time.Time{}}
	s := providertest.Summary(1)
	s.FollowerCount = 10_000_000
	ok, _ := f.Admit(s)
	assert.True(t, ok)
}
