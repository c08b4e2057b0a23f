package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	ErrProviderNotFound      = errors.New("provider not found or not enabled")
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
)

// Provider is one external OAuth2 identity provider the bridge can drive
// through the authorization-code flow. Provider-specific behavior lives
// entirely in the oauth2.Config endpoints and the extra authorization URL
// options supplied at construction.
type Provider struct {
	name     string
	config   *oauth2.Config
	authOpts []oauth2.AuthCodeOption
}

// New creates a Provider from a fully populated oauth2.Config. The opts are
// appended to every authorization URL (consent prompts, owner hints, PKCE).
func New(name string, config *oauth2.Config, opts ...oauth2.AuthCodeOption) (*Provider, error) {
	if config.ClientID == "" || config.ClientSecret == "" || config.RedirectURL == "" {
		return nil, fmt.Errorf("%w: %s requires client id, client secret and redirect URL", ErrProviderMisconfigured, name)
	}
	return &Provider{
		name:     name,
		config:   config,
		authOpts: opts,
	}, nil
}

// Name returns the unique identifier for the provider (e.g. "google").
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL builds the authorization URL the user's browser is redirected
// to. The state parameter is round-tripped by the provider and is the only
// thing correlating the redirect flow with the polling client.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, p.authOpts...)
}

// Exchange trades an authorization code for tokens. The redirect URI sent in
// the exchange is the one the config was built with, byte-for-byte, as the
// provider requires.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange with %s failed: %w", p.name, err)
	}
	return tok, nil
}

// Refresh obtains a fresh access token from a refresh token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ts := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh with %s failed: %w", p.name, err)
	}
	return tok, nil
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]*Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Register adds a provider to the registry, replacing any prior entry with
// the same name.
func (r *Registry) Register(p *Provider) {
	r.providers[p.Name()] = p
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
