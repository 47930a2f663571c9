// Package auth keeps the process-wide bearer token for the marketplace API
// and refreshes it against the identity endpoint when it is missing or
// expired.
package auth

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"deal-scout/pkg/models"
)

// ExpiryMargin is subtracted from the upstream lifetime so a token is never
// handed out moments before it expires mid-flight.
const ExpiryMargin = 60 * time.Second

// Credentials configure the grant. A non-empty RefreshToken selects the
// refresh_token grant, otherwise client_credentials is used.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scope        string
}

func (c Credentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GrantForm builds the form body for the configured grant type.
func (c Credentials) GrantForm() url.Values {
	form := url.Values{}
	if c.RefreshToken != "" {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", c.RefreshToken)
	} else {
		form.Set("grant_type", "client_credentials")
	}
	form.Set("scope", c.Scope)
	return form
}

// TokenResponse is the identity endpoint's success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Exchanger performs one credential exchange. Implementations return a
// *models.Error of KindUpstreamAuth on rejected or malformed replies.
type Exchanger interface {
	Exchange(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenCache hands out a valid bearer token, exchanging credentials only when
// the cached one is absent or expired.
//
// The cached pair is published through an atomic pointer. Concurrent misses
// are not coalesced: each may run its own exchange and the last one to finish
// wins.
type TokenCache struct {
	creds     Credentials
	exchanger Exchanger
	now       func() time.Time
	token     atomic.Pointer[cachedToken]
}

type Option func(*TokenCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) { c.now = now }
}

func NewTokenCache(creds Credentials, exchanger Exchanger, opts ...Option) *TokenCache {
	c := &TokenCache{
		creds:     creds,
		exchanger: exchanger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token implements the search package's TokenSource.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	return c.EnsureToken(ctx)
}

// EnsureToken returns the cached token if it is still valid, otherwise it
// performs one exchange and caches the result. A failed exchange leaves the
// cache as it was.
func (c *TokenCache) EnsureToken(ctx context.Context) (string, error) {
	if tok := c.token.Load(); tok != nil && tok.value != "" && c.now().Before(tok.expiresAt) {
		return tok.value, nil
	}

	if !c.creds.configured() {
		return "", &models.Error{
			Kind:    models.KindConfiguration,
			Message: "EBAY_CLIENT_ID or EBAY_CLIENT_SECRET not set",
			Err:     models.ErrMissingCredentials,
		}
	}

	log := zerolog.Ctx(ctx)
	form := c.creds.GrantForm()
	log.Info().Str("grant_type", form.Get("grant_type")).Msg("Requesting new eBay token")

	resp, err := c.exchanger.Exchange(ctx, c.creds.ClientID, c.creds.ClientSecret, form)
	if err != nil {
		return "", err
	}

	issuedAt := c.now()
	tok := &cachedToken{
		value:     resp.AccessToken,
		expiresAt: issuedAt.Add(time.Duration(resp.ExpiresIn)*time.Second - ExpiryMargin),
	}
	c.token.Store(tok)

	log.Info().Int64("expires_in", resp.ExpiresIn).Time("expires_at", tok.expiresAt).Msg("New eBay token obtained")
	return tok.value, nil
}

// ExpiresAt reports the expiry of the cached token and whether one is cached.
func (c *TokenCache) ExpiresAt() (time.Time, bool) {
	tok := c.token.Load()
	if tok == nil {
		return time.Time{}, false
	}
	return tok.expiresAt, true
}
