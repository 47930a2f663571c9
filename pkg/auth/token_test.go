package auth

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-scout/pkg/models"
)

type stubExchanger struct {
	mu        sync.Mutex
	calls     int
	forms     []url.Values
	expiresIn int64
	token     string
	err       error
}

func (s *stubExchanger) Exchange(_ context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.forms = append(s.forms, form)
	if s.err != nil {
		return nil, s.err
	}
	return &TokenResponse{AccessToken: s.token, ExpiresIn: s.expiresIn}, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

var testCreds = Credentials{ClientID: "id", ClientSecret: "secret", Scope: "scope"}

func TestEnsureToken_ExchangesOnceThenServesFromCache(t *testing.T) {
	ex := &stubExchanger{token: "tok-1", expiresIn: 7200}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewTokenCache(testCreds, ex, WithClock(clock.now))

	tok, err := cache.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, ex.calls)

	clock.t = clock.t.Add(time.Hour)
	tok, err = cache.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, ex.calls, "warm cache must not exchange again")
}

func TestEnsureToken_ExpiryHasSafetyMargin(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ex := &stubExchanger{token: "tok", expiresIn: 7200}
	clock := &fakeClock{t: issued}
	cache := NewTokenCache(testCreds, ex, WithClock(clock.now))

	_, err := cache.EnsureToken(context.Background())
	require.NoError(t, err)

	expiry, ok := cache.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, issued.Add(7200*time.Second-60*time.Second), expiry)

	clock.t = expiry.Add(-time.Second)
	_, err = cache.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls, "token is still valid one second before expiry")

	clock.t = expiry.Add(time.Second)
	_, err = cache.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ex.calls, "token is invalid one second after expiry")
}

func TestEnsureToken_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{name: "no id", creds: Credentials{ClientSecret: "secret"}},
		{name: "no secret", creds: Credentials{ClientID: "id"}},
		{name: "nothing", creds: Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &stubExchanger{token: "tok", expiresIn: 3600}
			cache := NewTokenCache(tt.creds, ex)

			_, err := cache.EnsureToken(context.Background())
			require.Error(t, err)
			assert.Equal(t, models.KindConfiguration, models.KindOf(err))
			assert.ErrorIs(t, err, models.ErrMissingCredentials)
			assert.Zero(t, ex.calls)
		})
	}
}

func TestEnsureToken_FailureKeepsPreviousState(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ex := &stubExchanger{token: "tok-1", expiresIn: 120}
	cache := NewTokenCache(testCreds, ex, WithClock(clock.now))

	_, err := cache.EnsureToken(context.Background())
	require.NoError(t, err)
	before, _ := cache.ExpiresAt()

	clock.t = clock.t.Add(2 * time.Minute)
	ex.err = &models.Error{Kind: models.KindUpstreamAuth, Message: "Failed to obtain eBay token"}

	_, err = cache.EnsureToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.KindUpstreamAuth, models.KindOf(err))

	after, ok := cache.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, before, after)

	ex.err = nil
	ex.token = "tok-2"
	tok, err := cache.EnsureToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 3, ex.calls)
}

func TestGrantForm(t *testing.T) {
	t.Run("client credentials", func(t *testing.T) {
		form := testCreds.GrantForm()
		assert.Equal(t, "client_credentials", form.Get("grant_type"))
		assert.Equal(t, "scope", form.Get("scope"))
		assert.Empty(t, form.Get("refresh_token"))
	})

	t.Run("refresh token preferred when configured", func(t *testing.T) {
		creds := testCreds
		creds.RefreshToken = "refresh"
		form := creds.GrantForm()
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "refresh", form.Get("refresh_token"))
		assert.Equal(t, "scope", form.Get("scope"))
	})
}

func TestEnsureToken_ConcurrentMissesMayEachExchange(t *testing.T) {
	ex := &stubExchanger{token: "tok", expiresIn: 3600}
	cache := NewTokenCache(testCreds, ex)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cache.EnsureToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", tok)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, ex.calls, 1)
	assert.LessOrEqual(t, ex.calls, 8)
}
