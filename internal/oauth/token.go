// Package oauth caches bearer tokens obtained from OAuth2 token endpoints.
package oauth

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

	"github.com/jonboulle/clockwork"
)

// refreshLeeway is how long before expiry a cached token stops being handed out.
const refreshLeeway = 30 * time.Second

// Token is an access token and its lifetime as reported by the issuer.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// FetchFunc obtains a fresh token from the issuer.
type FetchFunc func(ctx context.Context) (Token, error)

// TokenCache hands out a cached token until shortly before it expires and
// fetches a new one through FetchFunc otherwise.
type TokenCache struct {
	fetch FetchFunc
	clock clockwork.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache(fetch FetchFunc, clock clockwork.Clock) *TokenCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenCache{fetch: fetch, clock: clock}
}

// Token returns a valid access token, fetching one when the cache is empty or stale.
// Concurrent callers share a single fetch.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.clock.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access_token")
	}

	c.token = tok.AccessToken
	c.expiresAt = c.clock.Now().Add(tok.ExpiresIn - refreshLeeway)
	return c.token, nil
}

// Invalidate drops the cached token, typically after the resource server answered 401.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// StatusError is returned by FormGrant when the token endpoint answers non-2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// FormGrant returns a FetchFunc that posts an application/x-www-form-urlencoded
// grant (client_credentials, refresh_token, ...) to tokenURL.
func FormGrant(client *http.Client, tokenURL string, form url.Values) FetchFunc {
	return func(ctx context.Context) (Token, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return Token{}, fmt.Errorf("build token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return Token{}, fmt.Errorf("token request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Token{}, fmt.Errorf("read token response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Token{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		return DecodeToken(body)
	}
}

// DecodeToken parses a standard OAuth2 token response body.
func DecodeToken(body []byte) (Token, error) {
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token response has no access_token")
	}
	return Token{AccessToken: tr.AccessToken, ExpiresIn: time.Duration(tr.ExpiresIn) * time.Second}, nil
}
