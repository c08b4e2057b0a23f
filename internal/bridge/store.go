package bridge

import (
	"context"
	"errors"
)

// ErrResultNotFound is returned by Take when no entry exists for a state
// token. The poller maps it to a "pending" response, so an expired, consumed
// or never-created entry are all indistinguishable to the client.
var ErrResultNotFound = errors.New("authorization result not found")

// Store is the correlation table mapping a state token to the result of one
// authorization attempt. Implementations must make Put and Take linearizable
// per key: Take removes and returns the entry in one step, and under
// concurrent Take calls for the same key exactly one caller wins.
//
// Put overwrites any prior entry for the same state (last writer wins, which
// keeps retried flows working). Entries older than the configured TTL must
// become unobservable, either through native expiry or DeleteExpired.
type Store interface {
	Put(ctx context.Context, state string, res *Result) error
	Take(ctx context.Context, state string) (*Result, error)
	DeleteExpired(ctx context.Context) error
	Count(ctx context.Context) int
	Close() error
}
