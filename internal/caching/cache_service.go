package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "invoicedesk"

// StoredResponse is a replayable HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers the first successful response for an
// (actor, Idempotency-Key) pair
type IdempotencyStore interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, actorID, key string) (*StoredResponse, error)
	Set(ctx context.Context, actorID, key string, resp *StoredResponse, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type redisIdempotencyStore struct {
	client redis.UniversalClient
}

// NewRedisClient builds a client from a host:port or redis:// address
func NewRedisClient(addr, password string, db int) *redis.Client {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if password != "" {
				opts.Password = password
			}
			return redis.NewClient(opts)
		}
		addr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	log := logger.WithComponent("redis")
	log.Debug().Str("addr", addr).Int("db", db).Msg("Creating Redis client")

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisIdempotencyStore(client redis.UniversalClient) IdempotencyStore {
	return &redisIdempotencyStore{client: client}
}

func idempotencyKey(actorID, key string) string {
	return fmt.Sprintf("%s:idempotency:%s:%s", keyPrefix, actorID, key)
}

func (r *redisIdempotencyStore) Get(ctx context.Context, actorID, key string) (*StoredResponse, error) {
	data, err := r.client.Get(ctx, idempotencyKey(actorID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var resp StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("corrupt idempotency entry: %w", err)
	}
	return &resp, nil
}

// Set keeps the first stored response; later writes for the same key are
// ignored
func (r *redisIdempotencyStore) Set(ctx context.Context, actorID, key string, resp *StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.client.SetNX(ctx, idempotencyKey(actorID, key), data, ttl).Err()
}

func (r *redisIdempotencyStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
