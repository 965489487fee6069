package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	friendsListPath   = "/1.1/friends/list.json"
	followersListPath = "/1.1/followers/list.json"
	usersShowPath     = "/1.1/users/show.json"
	tokenPath         = "/oauth2/token"
)

// Twitter API error codes
const (
	codeCouldNotAuth       = 32
	codeUserNotFound       = 50
	codeUserSuspended      = 63
	codeAccountSuspended   = 64
	codeRateLimitExceeded  = 88
	codeInvalidToken       = 89
	codeBadAuthData        = 215
	codeNotAuthorizedToSee = 179
)

// TwitterConfig configures a TwitterClient. Either BearerToken or the
// ConsumerKey/ConsumerSecret pair must be set.
type TwitterConfig struct {
	BaseURL        string
	BearerToken    string
	ConsumerKey    string
	ConsumerSecret string

	// RequestsPerWindow requests are allowed every Window.
	RequestsPerWindow int
	Window            time.Duration
	Timeout           time.Duration

	// HTTPClient is the base client wrapped with authentication. Timeout
	// applies per request on top of it.
	HTTPClient *http.Client
}

// TwitterClient implements Fetcher against the Twitter v1.1 REST API.
type TwitterClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// NewTwitterClient builds a client that authenticates every request and
// paces them to the configured request budget.
func NewTwitterClient(cfg TwitterConfig, logger *zap.Logger) *TwitterClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	var ts oauth2.TokenSource
	if cfg.BearerToken != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
	} else {
		cc := clientcredentials.Config{
			ClientID:     cfg.ConsumerKey,
			ClientSecret: cfg.ConsumerSecret,
			TokenURL:     baseURL + tokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ts = cc.TokenSource(ctx)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerWindow > 0 && cfg.Window > 0 {
		limit = rate.Every(cfg.Window / time.Duration(cfg.RequestsPerWindow))
		burst = cfg.RequestsPerWindow
	}

	return &TwitterClient{
		client:  oauth2.NewClient(ctx, ts),
		baseURL: baseURL,
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.Timeout,
		logger:  logger.Named("twitter"),
	}
}

type twitterUser struct {
	ID             int64  `json:"id"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
	Protected      bool   `json:"protected"`
}

type cursoredUsers struct {
	Users          []twitterUser `json:"users"`
	NextCursor     int64         `json:"next_cursor"`
	PreviousCursor int64         `json:"previous_cursor"`
}

type twitterErrors struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchFollowing returns one page of the accounts externalID follows.
func (c *TwitterClient) FetchFollowing(ctx context.Context, externalID, cursor int64, pageSize int) (Page, error) {
	return c.fetchList(ctx, friendsListPath, externalID, cursor, pageSize)
}

// FetchFollowers returns one page of the accounts following externalID.
func (c *TwitterClient) FetchFollowers(ctx context.Context, externalID, cursor int64, pageSize int) (Page, error) {
	return c.fetchList(ctx, followersListPath, externalID, cursor, pageSize)
}

func (c *TwitterClient) fetchList(ctx context.Context, path string, externalID, cursor int64, pageSize int) (Page, error) {
	params := url.Values{}
	params.Set("user_id", strconv.FormatInt(externalID, 10))
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("count", strconv.Itoa(pageSize))
	params.Set("skip_status", "true")
	params.Set("include_user_entities", "false")

	var body cursoredUsers
	if err := c.get(ctx, path, params, externalID, &body); err != nil {
		return Page{}, err
	}

	page := Page{
		NextCursor: body.NextCursor,
		PrevCursor: body.PreviousCursor,
		Accounts:   make([]AccountSummary, 0, len(body.Users)),
	}
	for _, u := range body.Users {
		s, err := u.summary()
		if err != nil {
			return Page{}, err
		}
		page.Accounts = append(page.Accounts, s)
	}
	return page, nil
}

// FetchAccount looks up a single account.
func (c *TwitterClient) FetchAccount(ctx context.Context, externalID int64) (*AccountSummary, error) {
	params := url.Values{}
	params.Set("user_id", strconv.FormatInt(externalID, 10))
	params.Set("include_entities", "false")

	var u twitterUser
	if err := c.get(ctx, usersShowPath, params, externalID, &u); err != nil {
		return nil, err
	}
	s, err := u.summary()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *TwitterClient) get(ctx context.Context, path string, params url.Values, externalID int64, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("waiting for request budget: %w", err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransientNetworkError{Err: fmt.Errorf("reading response: %w", err)}
	}
	c.logger.Debug("request",
		zap.String("path", path),
		zap.Int64("user_id", externalID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := classifyResponse(resp.StatusCode, body, externalID); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UnclassifiedProviderError{Status: resp.StatusCode, Message: "decoding response: " + err.Error()}
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		if status >= 500 {
			return &TransientNetworkError{Err: err}
		}
		return &UnclassifiedProviderError{Status: status, Message: "token request failed: " + re.Error()}
	}
	return &TransientNetworkError{Err: err}
}

// classifyResponse maps a non-2xx response onto the provider error taxonomy.
func classifyResponse(status int, body []byte, externalID int64) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var te twitterErrors
	_ = json.Unmarshal(body, &te)
	code, msg := 0, strings.TrimSpace(string(body))
	if len(te.Errors) > 0 {
		code, msg = te.Errors[0].Code, te.Errors[0].Message
	}

	switch {
	case status == http.StatusTooManyRequests || code == codeRateLimitExceeded:
		return &RateLimitError{Message: msg}
	case code == codeCouldNotAuth || code == codeInvalidToken || code == codeBadAuthData:
		return &UnclassifiedProviderError{Status: status, Code: code, Message: "credentials rejected: " + msg}
	case status == http.StatusUnauthorized && code == 0,
		status == http.StatusNotFound,
		code == codeUserNotFound,
		status == http.StatusForbidden && (code == codeUserSuspended || code == codeAccountSuspended || code == codeNotAuthorizedToSee):
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &TargetInaccessibleError{ExternalID: externalID, Reason: msg}
	case status >= 500:
		return &TransientNetworkError{Err: fmt.Errorf("server error %d: %s", status, msg)}
	default:
		return &UnclassifiedProviderError{Status: status, Code: code, Message: msg}
	}
}

func (u twitterUser) summary() (AccountSummary, error) {
	created, err := parseCreatedAt(u.CreatedAt)
	if err != nil {
		return AccountSummary{}, &UnclassifiedProviderError{
			Message: fmt.Sprintf("account %d: bad created_at %q: %v", u.ID, u.CreatedAt, err),
		}
	}
	return AccountSummary{
		ExternalID:    u.ID,
		ScreenName:    u.ScreenName,
		DisplayName:   u.Name,
		Description:   u.Description,
		CreatedAt:     created,
		FollowerCount: u.FollowersCount,
		FriendCount:   u.FriendsCount,
		Protected:     u.Protected,
	}, nil
}

// parseCreatedAt reads Twitter's "Wed Oct 10 20:19:24 +0000 2018" layout,
// falling back to dateparse for anything else.
func parseCreatedAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RubyDate, s); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
