package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leadscout/internal/logging"
	"leadscout/internal/model"
)

const (
	defaultPublicBase = "https://www.reddit.com"
	defaultOAuthBase  = "https://oauth.reddit.com"
)

// ClientConfig holds fetcher settings.
type ClientConfig struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// Base URL overrides, used by tests. Empty means the real
	// endpoints.
	PublicBaseURL string
	OAuthBaseURL  string
}

// Client fetches posts and comment trees from the Reddit API. It
// switches between the oauth and public endpoints depending on whether
// the token source yields a credential.
type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	limiter    *hostLimiter
	robots     *RobotsChecker
	userAgent  string
	publicBase string
	oauthBase  string
	logger     logging.Logger
}

// NewClient creates a fetcher. robots may be nil to disable the
// robots.txt check for the public endpoint.
func NewClient(tokens *TokenSource, robots *RobotsChecker, cfg ClientConfig, logger logging.Logger) *Client {
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = defaultPublicBase
	}
	oauthBase := cfg.OAuthBaseURL
	if oauthBase == "" {
		oauthBase = defaultOAuthBase
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    newHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
		robots:     robots,
		userAgent:  cfg.UserAgent,
		publicBase: publicBase,
		oauthBase:  oauthBase,
		logger:     logger,
	}
}

// FetchPosts retrieves up to limit newest posts for a subreddit.
// Transport and decode failures surface as a FetchError identifying
// the subreddit.
func (c *Client) FetchPosts(ctx context.Context, subreddit string, limit int) ([]model.Post, error) {
	token := c.tokens.Token(ctx)
	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.base(token), subreddit, limit)

	if token == "" && c.robots != nil && !c.robots.Allowed(ctx, endpoint) {
		return nil, &FetchError{Subreddit: subreddit, Err: fmt.Errorf("blocked by robots.txt")}
	}

	var page listing
	if err := c.get(ctx, endpoint, token, &page); err != nil {
		return nil, &FetchError{Subreddit: subreddit, Err: err}
	}

	posts := make([]model.Post, 0, len(page.Data.Children))
	for _, ch := range page.Data.Children {
		var pd postData
		if err := json.Unmarshal(ch.Data, &pd); err != nil {
			return nil, &FetchError{Subreddit: subreddit, Err: fmt.Errorf("decode post: %w", err)}
		}
		posts = append(posts, model.Post{
			RedditID:    pd.ID,
			Title:       pd.Title,
			Content:     pd.Selftext,
			Author:      pd.Author,
			URL:         "https://reddit.com" + pd.Permalink,
			Score:       pd.Score,
			NumComments: pd.NumComments,
			CreatedAt:   time.Unix(int64(pd.CreatedUTC), 0).UTC(),
		})
	}
	return posts, nil
}

// FetchComments retrieves the flattened comment tree of one post,
// keeping only comments created at or after windowStart. Nested
// replies are visited at every depth; a reply inside the window is
// kept even when its ancestors are not.
//
// Errors are soft: a post with no extractable comments is a valid
// outcome, so failures are logged and an empty slice is returned.
func (c *Client) FetchComments(ctx context.Context, postRedditID, subreddit string, windowStart time.Time) []model.Comment {
	token := c.tokens.Token(ctx)
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s.json", c.base(token), subreddit, postRedditID)

	if token == "" && c.robots != nil && !c.robots.Allowed(ctx, endpoint) {
		c.logger.WithFields(logging.Fields{"post": postRedditID, "subreddit": subreddit}).
			Warn("Comment fetch blocked by robots.txt")
		return nil
	}

	// The comments endpoint answers with a two-element array: the post
	// listing, then the comment listing.
	var payload []json.RawMessage
	if err := c.get(ctx, endpoint, token, &payload); err != nil {
		c.logger.WithError(err).WithFields(logging.Fields{"post": postRedditID, "subreddit": subreddit}).
			Error("Failed to fetch comments")
		return nil
	}
	if len(payload) < 2 {
		return nil
	}

	var commentPage listing
	if err := json.Unmarshal(payload[1], &commentPage); err != nil {
		c.logger.WithError(err).WithFields(logging.Fields{"post": postRedditID}).
			Error("Failed to decode comment listing")
		return nil
	}

	return flattenComments(commentPage.Data.Children, windowStart)
}

// flattenComments walks the reply tree iteratively with an explicit
// work list, so arbitrarily deep threads cannot grow the call stack.
// Traversal is bounded by the structure actually returned upstream.
func flattenComments(children []child, windowStart time.Time) []model.Comment {
	stack := append([]child(nil), children...)

	var out []model.Comment
	for len(stack) > 0 {
		ch := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if ch.Kind != "t1" || len(ch.Data) == 0 {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(ch.Data, &cd); err != nil {
			continue
		}

		created := time.Unix(int64(cd.CreatedUTC), 0).UTC()
		if !created.Before(windowStart) {
			out = append(out, model.Comment{
				RedditID:  cd.ID,
				Content:   cd.Body,
				Author:    cd.Author,
				Score:     cd.Score,
				CreatedAt: created,
			})
		}

		// Replies is "" when the thread ends; a nested listing object
		// otherwise. Push its children regardless of this comment's
		// own timestamp.
		if len(cd.Replies) > 0 && cd.Replies[0] == '{' {
			var nested listing
			if err := json.Unmarshal(cd.Replies, &nested); err == nil {
				stack = append(stack, nested.Data.Children...)
			}
		}
	}
	return out
}

func (c *Client) base(token string) string {
	if token != "" {
		return c.oauthBase
	}
	return c.publicBase
}

func (c *Client) get(ctx context.Context, endpoint, token string, target interface{}) error {
	if err := c.limiter.wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
