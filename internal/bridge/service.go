package bridge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/synkhq/authbridge/internal/metrics"
	"github.com/synkhq/authbridge/internal/provider"
)

// Service drives the authorization handoff: it builds provider consent URLs,
// completes callbacks by exchanging the code and publishing the outcome into
// the correlation store, and serves the polling client.
type Service struct {
	store           Store
	providers       *provider.Registry
	exchangeTimeout time.Duration
}

// NewService creates a bridge service. exchangeTimeout bounds the wall-clock
// time of a single code-for-token exchange.
func NewService(store Store, providers *provider.Registry, exchangeTimeout time.Duration) *Service {
	return &Service{
		store:           store,
		providers:       providers,
		exchangeTimeout: exchangeTimeout,
	}
}

// GenerateState mints a fresh state token: 32 bytes from crypto/rand,
// base64url encoded. Collision over the TTL window is negligible at this
// size.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthorizationURL resolves the provider and returns the consent URL for the
// given state token, generating one when the client did not supply its own.
// The store is not touched here: the state rides purely as a URL parameter
// until the provider echoes it back at the callback.
func (s *Service) AuthorizationURL(providerName, state string) (string, string, error) {
	p, err := s.providers.Lookup(providerName)
	if err != nil {
		return "", "", err
	}

	if state == "" {
		state, err = GenerateState()
		if err != nil {
			return "", "", err
		}
	}

	metrics.AuthFlowsStartedTotal.Inc()
	return p.AuthCodeURL(state), state, nil
}

// CompleteAuthorization performs the code-for-token exchange and publishes
// the outcome under the state token. A failed exchange stores a terminal
// failure marker instead of leaving the correlation dangling, so the poller
// can report "failed" rather than "pending" forever. The returned error
// still reflects the exchange failure.
//
// The exchange runs under its own deadline and no store lock is held while
// it is in flight; the store is only touched once the exchange has resolved.
func (s *Service) CompleteAuthorization(ctx context.Context, providerName, code, state string) (*Result, error) {
	p, err := s.providers.Lookup(providerName)
	if err != nil {
		return nil, err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()

	tok, err := p.Exchange(exchangeCtx, code)
	if err != nil {
		metrics.ExchangeFailureTotal.Inc()
		failed := &Result{
			ID:        uuid.NewString(),
			State:     state,
			Provider:  providerName,
			Status:    StatusFailed,
			Error:     "exchange_failed",
			CreatedAt: time.Now().UTC(),
		}
		if putErr := s.store.Put(ctx, state, failed); putErr != nil {
			log.Error().Err(putErr).Str("provider", providerName).Msg("Failed to store failure marker")
		}
		return nil, err
	}

	res := &Result{
		ID:        uuid.NewString(),
		State:     state,
		Provider:  providerName,
		Status:    StatusReady,
		Tokens:    NewTokenSet(tok),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(ctx, state, res); err != nil {
		return nil, fmt.Errorf("failed to store authorization result: %w", err)
	}

	metrics.ExchangeSuccessTotal.Inc()
	log.Info().Str("provider", providerName).Str("result_id", res.ID).Msg("Authorization completed")

	return res, nil
}

// PollResult consumes and returns the result for a state token. Absence is
// ErrResultNotFound; the caller maps it to a "pending" status. Consumption
// is one-shot: a second poll for the same state lands in the not-found case
// again.
func (s *Service) PollResult(ctx context.Context, state string) (*Result, error) {
	res, err := s.store.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	metrics.ResultsDeliveredTotal.Inc()
	return res, nil
}

// RefreshToken trades a refresh token for a fresh access token at the named
// provider. This is a plain passthrough, not a refresh policy: the desktop
// client owns when and how often to refresh.
func (s *Service) RefreshToken(ctx context.Context, providerName, refreshToken string) (*TokenSet, error) {
	p, err := s.providers.Lookup(providerName)
	if err != nil {
		return nil, err
	}

	refreshCtx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()

	tok, err := p.Refresh(refreshCtx, refreshToken)
	if err != nil {
		metrics.TokenRefreshFailedTotal.Inc()
		return nil, err
	}

	metrics.TokenRefreshTotal.Inc()
	return NewTokenSet(tok), nil
}

// SweepExpired runs one TTL sweep pass and refreshes the pending gauge.
func (s *Service) SweepExpired(ctx context.Context) {
	if err := s.store.DeleteExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("TTL sweep failed")
	}
	metrics.PendingResultsGauge.Set(float64(s.store.Count(ctx)))
}
