package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// draftKeyTTL bounds how long an abandoned session lingers in Redis. The
// form-level expiry is enforced by Accumulator.Init.
const draftKeyTTL = 24 * time.Hour

// RedisStore keeps one session's keys under draft:<session>:<key>.
type RedisStore struct {
	redis   *redis.Client
	session string
	tracer  trace.Tracer
}

// NewRedisStore creates a store for one session.
func NewRedisStore(client *redis.Client, sessionID string) *RedisStore {
	if client == nil {
		panic("draft: redis client cannot be nil")
	}
	return &RedisStore{
		redis:   client,
		session: sessionID,
		tracer:  otel.Tracer("stixn.internal.draft.redis"),
	}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("draft:%s:%s", s.session, k)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "draft.get", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("draft: failed to load %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	ctx, span := s.tracer.Start(ctx, "draft.set", trace.WithAttributes(attribute.String("draft.key", key)))
	defer span.End()

	if err := s.redis.Set(ctx, s.key(key), value, draftKeyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("draft: failed to persist %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "draft.delete")
	defer span.End()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.redis.Del(ctx, full...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("draft: failed to delete keys: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "draft.clear")
	defer span.End()

	var cursor uint64
	pattern := s.key("*")
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("draft: failed to scan session keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				span.RecordError(err)
				return fmt.Errorf("draft: failed to clear session: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// RedisSessions hands out RedisStores sharing one client.
type RedisSessions struct {
	redis *redis.Client
}

// NewRedisSessions creates a Sessions backed by Redis.
func NewRedisSessions(client *redis.Client) *RedisSessions {
	if client == nil {
		panic("draft: redis client cannot be nil")
	}
	return &RedisSessions{redis: client}
}

func (r *RedisSessions) Session(id string) Store {
	return NewRedisStore(r.redis, id)
}
