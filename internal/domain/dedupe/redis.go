package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petspace/petemotion/internal/domain/model"
)

const (
	defaultKeyPrefix = "petemotion:idem:"
	defaultRedisTTL  = 24 * time.Hour
)

// RedisStore implements Store on Redis so replays work across instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	o := newOptions(opts)
	prefix := o.prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := o.ttl
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects and pings a Redis server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Lookup implements Store.
func (s *RedisStore) Lookup(ctx context.Context, key string) (model.AnalysisRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.AnalysisRecord{}, false, nil
	}
	if err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	var rec model.AnalysisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("decode remembered record: %w", err)
	}
	return rec, true, nil
}

// Remember implements Store. SETNX keeps the first record for a key.
func (s *RedisStore) Remember(ctx context.Context, key string, rec model.AnalysisRecord) error { //nolint:gocritic // hugeParam: records are values
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.SetNX(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
