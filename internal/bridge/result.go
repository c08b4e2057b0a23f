package bridge

import (
	"time"

	"golang.org/x/oauth2"
)

// Status is the terminal state of one authorization attempt.
type Status string

const (
	// StatusReady means the code exchange succeeded and tokens are waiting
	// to be collected.
	StatusReady Status = "ready"
	// StatusFailed means the code exchange failed. The marker is stored so
	// the polling client can distinguish a dead flow from one still in
	// flight.
	StatusFailed Status = "failed"
)

// TokenSet is the provider token payload delivered to the desktop client.
// The bridge treats it as opaque beyond serialization.
type TokenSet struct {
	AccessToken  string    `json:"access_token"              bson:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"   bson:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"      bson:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"          bson:"expiry,omitempty"`
}

// NewTokenSet converts an oauth2 token into the wire payload.
func NewTokenSet(tok *oauth2.Token) *TokenSet {
	return &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// Result is the outcome of one authorization attempt, keyed in the store by
// its state token. Entries are written once by the callback handler and
// consumed exactly once by the poller; they are never mutated in place.
type Result struct {
	ID        string    `json:"id"               bson:"id"`
	State     string    `json:"state"            bson:"state"`
	Provider  string    `json:"provider"         bson:"provider"`
	Status    Status    `json:"status"           bson:"status"`
	Tokens    *TokenSet `json:"tokens,omitempty" bson:"tokens,omitempty"`
	Error     string    `json:"error,omitempty"  bson:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"       bson:"created_at"`
}
