package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/synkhq/authbridge/internal/bridge"
)

// Store implements bridge.Store on Redis, for deployments running more than
// one bridge instance behind a load balancer.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a new Redis-backed store. All keys carry the prefix so a
// shared Redis can host multiple environments.
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) redisKey(state string) string {
	return fmt.Sprintf("%s:result:%s", s.prefix, state)
}

// Put stores a result under its state token with the store TTL. SET
// overwrites any prior entry, which keeps the last-writer-wins semantics of
// retried flows.
func (s *Store) Put(ctx context.Context, state string, res *bridge.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(state), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set result in Redis: %w", err)
	}
	return nil
}

// Take removes and returns the result for a state token. GETDEL is a single
// Redis command, so concurrent pollers for the same state see exactly one
// winner.
func (s *Store) Take(ctx context.Context, state string) (*bridge.Result, error) {
	val, err := s.client.GetDel(ctx, s.redisKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, bridge.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take result from Redis: %w", err)
	}

	var res bridge.Result
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &res, nil
}

// DeleteExpired is a no-op: Redis evicts keys itself once their TTL lapses.
func (s *Store) DeleteExpired(_ context.Context) error {
	return nil
}

// Count returns the number of live entries under the store prefix.
func (s *Store) Count(ctx context.Context) int {
	var (
		count  int
		cursor uint64
	)
	pattern := s.redisKey("*")

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Warn().Err(err).Msg("Error scanning result keys")
			break
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ bridge.Store = (*Store)(nil)
