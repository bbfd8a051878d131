package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"leadscout/internal/logging"
)

const defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// expiryMargin absorbs clock skew and request latency: a token is
// refreshed this long before its announced expiry.
const expiryMargin = 60 * time.Second

// TokenSource obtains and caches a bearer token for the Reddit API via
// the client-credentials grant.
//
// When no client id/secret is configured, or the upstream exchange
// fails, Token returns the empty string and callers fall back to the
// public, unauthenticated endpoint. The read-check-refresh cycle is
// serialized so concurrent callers cannot trigger duplicate token
// requests.
type TokenSource struct {
	clientID     string
	clientSecret string
	userAgent    string
	tokenURL     string
	httpClient   *http.Client
	logger       logging.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

// NewTokenSource creates a token source. Empty credentials are valid
// and put the source in unauthenticated mode.
func NewTokenSource(clientID, clientSecret, userAgent string, timeout time.Duration, logger logging.Logger) *TokenSource {
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a cached bearer token, refreshing it when needed. The
// empty string signals unauthenticated access.
func (t *TokenSource) Token(ctx context.Context) string {
	if t.clientID == "" || t.clientSecret == "" {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiry) {
		return t.token
	}

	token, expiresIn, err := t.exchange(ctx)
	if err != nil {
		t.logger.WithError(err).Error("Failed to get Reddit access token")
		return ""
	}

	t.token = token
	t.expiry = t.now().Add(time.Duration(expiresIn)*time.Second - expiryMargin)
	return t.token
}

func (t *TokenSource) exchange(ctx context.Context) (string, int, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(t.clientID, t.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned empty token")
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return payload.AccessToken, expiresIn, nil
}
