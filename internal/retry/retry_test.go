package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tweetgraph/hunter/internal/provider"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, Success},
		{"transient", &provider.TransientNetworkError{Err: errors.New("connection reset")}, Transient},
		{"wrapped transient", fmt.Errorf("page: %w", &provider.TransientNetworkError{Err: errors.New("eof")}), Transient},
		{"request timeout", &provider.TransientNetworkError{Err: fmt.Errorf("get: %w", context.DeadlineExceeded)}, Transient},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, Transient},
		{"rate limit", &provider.RateLimitError{}, RateLimited},
		{"inaccessible", &provider.TargetInaccessibleError{ExternalID: 1, Reason: "Not authorized."}, TerminalEmpty},
		{"unclassified", &provider.UnclassifiedProviderError{Status: 400}, Fatal},
		{"plain", errors.New("boom"), Fatal},
		{"canceled", context.Canceled, Fatal},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), Fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

// recorder is an injected Sleep that returns immediately.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testPolicy(r *recorder, logger *zap.Logger) Policy {
	return Policy{
		TransientDelay: 5 * time.Minute,
		RateLimitDelay: 6 * time.Minute,
		Sleep:          r.sleep,
		Logger:         logger,
	}
}

// scripted returns the given errors in turn, then value.
func scripted[T any](value T, errs ...error) (func(context.Context) (T, error), *int) {
	calls := 0
	return func(ctx context.Context) (T, error) {
		calls++
		if calls <= len(errs) {
			var zero T
			return zero, errs[calls-1]
		}
		return value, nil
	}, &calls
}

func TestDo_RetriesWithFixedDelays(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := &recorder{}
	fn, calls := scripted(42,
		&provider.TransientNetworkError{Err: errors.New("reset")},
		&provider.RateLimitError{Message: "Rate limit exceeded"},
		&provider.TransientNetworkError{Err: errors.New("reset")},
	)

	got, err := Do(context.Background(), testPolicy(r, zap.New(core)), "following", fn)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 4, *calls)
	assert.Equal(t, []time.Duration{5 * time.Minute, 6 * time.Minute, 5 * time.Minute}, r.delays)
	assert.Equal(t, 3, logs.FilterMessage("backing off").Len())
}

func TestDo_InaccessibleIsEmpty(t *testing.T) {
	r := &recorder{}
	fn, calls := scripted(provider.Page{NextCursor: 9},
		&provider.TargetInaccessibleError{ExternalID: 5, Reason: "Not authorized."})

	page, err := Do(context.Background(), testPolicy(r, nil), "followers", fn)
	require.NoError(t, err)
	assert.Equal(t, provider.Page{}, page)
	assert.Zero(t, page.NextCursor, "an empty page completes the listing")
	assert.Equal(t, 1, *calls)
	assert.Empty(t, r.delays)
}

func TestDo_FatalPropagates(t *testing.T) {
	r := &recorder{}
	fatal := &provider.UnclassifiedProviderError{Status: 400, Code: 44, Message: "cursor parameter is invalid"}
	fn, calls := scripted("x", fatal)

	_, err := Do(context.Background(), testPolicy(r, nil), "following", fn)
	var ue *provider.UnclassifiedProviderError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, *calls)
	assert.Empty(t, r.delays)
}

func TestDo_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		TransientDelay: time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return SleepContext(ctx, d)
		},
	}
	fn, calls := scripted(1, &provider.TransientNetworkError{Err: errors.New("reset")})

	_, err := Do(ctx, p, "following", fn)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_RetriesSlowResponse(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, `{"users": [], "next_cursor": 0}`)
	}))
	defer srv.Close()

	client := provider.NewTwitterClient(provider.TwitterConfig{
		BaseURL:     srv.URL,
		BearerToken: "t",
		Timeout:     50 * time.Millisecond,
		HTTPClient:  srv.Client(),
	}, zap.NewNop())

	r := &recorder{}
	page, err := Do(context.Background(), testPolicy(r, zap.NewNop()), "following/1", func(ctx context.Context) (provider.Page, error) {
		return client.FetchFollowing(ctx, 1, provider.StartCursor, 200)
	})
	require.NoError(t, err)
	assert.Zero(t, page.NextCursor)
	assert.Equal(t, []time.Duration{5 * time.Minute}, r.delays)
	assert.Equal(t, int32(2), requests.Load())
}
