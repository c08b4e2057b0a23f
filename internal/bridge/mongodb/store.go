package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"

	"github.com/synkhq/authbridge/internal/bridge"
)

// ResultsCollection holds pending authorization results.
const ResultsCollection = "oauth_results"

// Connect establishes an instrumented MongoDB client and verifies the
// connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	log.Info().Msgf("Initializing MongoDB client with URI: %s", uri)

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetConnectTimeout(10 * time.Second)
	clientOptions.SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}

	return client, nil
}

// Store implements bridge.Store on MongoDB. Atomicity of Take comes from
// FindOneAndDelete; a TTL index on created_at reclaims abandoned entries
// even if the sweeper never runs.
type Store struct {
	results *mongo.Collection
	ttl     time.Duration
}

// NewStore creates the MongoDB-backed store and ensures its indexes.
func NewStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*Store, error) {
	s := &Store{
		results: db.Collection(ResultsCollection),
		ttl:     ttl,
	}

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.results.Indexes().CreateMany(indexCtx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes for %s: %w", ResultsCollection, err)
	}

	return s, nil
}

// Put upserts the result for a state token. The upsert keeps overwrite
// semantics for retried flows instead of failing on the unique index.
func (s *Store) Put(ctx context.Context, state string, res *bridge.Result) error {
	_, err := s.results.ReplaceOne(ctx,
		bson.M{"state": state},
		res,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		log.Error().Err(err).Str("provider", res.Provider).Msg("Error saving authorization result")
		return fmt.Errorf("failed to save authorization result: %w", err)
	}
	return nil
}

// Take removes and returns the result for a state token. FindOneAndDelete is
// atomic on the server, so concurrent pollers see exactly one winner.
func (s *Store) Take(ctx context.Context, state string) (*bridge.Result, error) {
	var res bridge.Result
	err := s.results.FindOneAndDelete(ctx, bson.M{"state": state}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bridge.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to take authorization result: %w", err)
	}
	return &res, nil
}

// DeleteExpired removes entries older than the TTL. The TTL index does this
// too, but with up to a minute of slack; the sweep keeps the bound tight.
func (s *Store) DeleteExpired(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.ttl)
	_, err := s.results.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lte": cutoff}})
	return err
}

// Count returns the number of live entries.
func (s *Store) Count(ctx context.Context) int {
	n, err := s.results.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Warn().Err(err).Msg("Error counting authorization results")
		return 0
	}
	return int(n)
}

// Close is a no-op; the mongo client is owned and closed by the caller.
func (s *Store) Close() error {
	return nil
}

var _ bridge.Store = (*Store)(nil)
