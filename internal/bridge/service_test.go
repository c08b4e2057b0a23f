package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/synkhq/authbridge/internal/metrics"
	"github.com/synkhq/authbridge/internal/provider"
)

func TestMain(m *testing.M) {
	metrics.InitCustomMetrics(nil)
	log.Logger = zerolog.Nop()
	m.Run()
}

// fakeTokenEndpoint answers the oauth2 token exchange. A code of "BAD"
// produces a provider-side failure.
func fakeTokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") == "BAD" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","refresh_token":"rt-456","token_type":"Bearer","expires_in":3600}`))
	}))
}

func newTestService(t *testing.T, tokenURL string) (*Service, *MemoryStore) {
	t.Helper()

	p, err := provider.New("google", &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/oauth2callback",
		Scopes:       []string{"scope-a"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "http://provider.invalid/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	require.NoError(t, err)

	registry := provider.NewRegistry()
	registry.Register(p)

	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })

	return NewService(store, registry, 5*time.Second), store
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	require.NoError(t, err)
	second, err := GenerateState()
	require.NoError(t, err)

	// 32 random bytes, base64url without padding.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

func TestAuthorizationURLGeneratesStateWhenAbsent(t *testing.T) {
	svc, store := newTestService(t, "http://provider.invalid/token")

	authURL, state, err := svc.AuthorizationURL("google", "")
	require.NoError(t, err)
	require.NotEmpty(t, state)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, state, query.Get("state"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "force", query.Get("approval_prompt"))

	// Building the URL must not create a correlation entry.
	assert.Equal(t, 0, store.Count(context.Background()))
}

func TestAuthorizationURLKeepsClientState(t *testing.T) {
	svc, _ := newTestService(t, "http://provider.invalid/token")

	authURL, state, err := svc.AuthorizationURL("google", "client-chosen")
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", state)
	assert.Contains(t, authURL, "state=client-chosen")
}

func TestAuthorizationURLUnknownProvider(t *testing.T) {
	svc, _ := newTestService(t, "http://provider.invalid/token")

	_, _, err := svc.AuthorizationURL("dropbox", "")
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestCompleteAuthorizationStoresReadyResult(t *testing.T) {
	endpoint := fakeTokenEndpoint(t)
	defer endpoint.Close()

	svc, store := newTestService(t, endpoint.URL)
	ctx := context.Background()

	res, err := svc.CompleteAuthorization(ctx, "google", "GOOD", "state-ok")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, "at-123", res.Tokens.AccessToken)
	assert.Equal(t, "rt-456", res.Tokens.RefreshToken)
	assert.NotEmpty(t, res.ID)

	stored, err := store.Take(ctx, "state-ok")
	require.NoError(t, err)
	assert.Equal(t, res.ID, stored.ID)
}

func TestCompleteAuthorizationFailureStoresMarker(t *testing.T) {
	endpoint := fakeTokenEndpoint(t)
	defer endpoint.Close()

	svc, store := newTestService(t, endpoint.URL)
	ctx := context.Background()

	_, err := svc.CompleteAuthorization(ctx, "google", "BAD", "state-bad")
	require.Error(t, err)

	// The failure is observable to the poller instead of pending forever.
	res, takeErr := store.Take(ctx, "state-bad")
	require.NoError(t, takeErr)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "exchange_failed", res.Error)
	assert.Nil(t, res.Tokens)
}

func TestPollResultConsumesEntry(t *testing.T) {
	endpoint := fakeTokenEndpoint(t)
	defer endpoint.Close()

	svc, _ := newTestService(t, endpoint.URL)
	ctx := context.Background()

	_, err := svc.CompleteAuthorization(ctx, "google", "GOOD", "state-poll")
	require.NoError(t, err)

	res, err := svc.PollResult(ctx, "state-poll")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)

	_, err = svc.PollResult(ctx, "state-poll")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestPollResultPendingForUnknownState(t *testing.T) {
	svc, _ := newTestService(t, "http://provider.invalid/token")

	_, err := svc.PollResult(context.Background(), "never-completed")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestRefreshToken(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "rt-old", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-new","token_type":"Bearer","expires_in":3600}`))
	}))
	defer endpoint.Close()

	svc, _ := newTestService(t, endpoint.URL)

	tokens, err := svc.RefreshToken(context.Background(), "google", "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-new", tokens.AccessToken)
	assert.True(t, strings.EqualFold("Bearer", tokens.TokenType))
}
