package provider

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("incomplete", &oauth2.Config{
		ClientID:    "id-only",
		RedirectURL: "http://localhost/cb",
	})
	assert.ErrorIs(t, err, ErrProviderMisconfigured)
}

func TestGoogleAuthCodeURL(t *testing.T) {
	p, err := NewGoogle("client-id", "client-secret", "https://bridge.synk.app/oauth2callback")
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	parsed, err := url.Parse(p.AuthCodeURL("state-token"))
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "state-token", query.Get("state"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, GoogleCalendarScope, query.Get("scope"))
	assert.Equal(t, "https://bridge.synk.app/oauth2callback", query.Get("redirect_uri"))
	// Offline access and forced re-consent are always requested.
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "force", query.Get("approval_prompt"))
}

func TestNotionAuthCodeURL(t *testing.T) {
	p, err := NewNotion("client-id", "client-secret", "https://bridge.synk.app/oauth2callback?provider=notion")
	require.NoError(t, err)
	assert.Equal(t, "notion", p.Name())

	parsed, err := url.Parse(p.AuthCodeURL("state-token"))
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "api.notion.com", parsed.Host)
	assert.Equal(t, "user", query.Get("owner"))
	assert.Equal(t, "state-token", query.Get("state"))
	assert.Empty(t, query.Get("scope"))
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Lookup("google")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	p, err := NewGoogle("client-id", "client-secret", "http://localhost/cb")
	require.NoError(t, err)
	registry.Register(p)

	found, err := registry.Lookup("google")
	require.NoError(t, err)
	assert.Same(t, p, found)
	assert.ElementsMatch(t, []string{"google"}, registry.Names())
}
