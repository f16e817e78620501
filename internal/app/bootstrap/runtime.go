package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/het-labo/stixn-dewi/internal/config"
	"github.com/het-labo/stixn-dewi/internal/draft"
	"github.com/het-labo/stixn-dewi/internal/synclog"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, session drafts stay in memory", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessions keeps session drafts in Redis when a client is available and
// in process memory otherwise.
func BuildSessions(redisClient *redis.Client) draft.Sessions {
	if redisClient == nil {
		return draft.NewMemorySessions()
	}
	return draft.NewRedisSessions(redisClient)
}

// BuildPostgresPool connects to DATABASE_URL, or returns nil when it is unset
// or unreachable.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		logger.Warn("postgres unavailable, sync log stays in memory", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Warn("postgres ping failed, sync log stays in memory", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildSyncLog returns the Postgres-backed sync log when a pool is available.
func BuildSyncLog(pool *pgxpool.Pool) synclog.Repository {
	if pool == nil {
		return synclog.NewInMemoryRepository()
	}
	return synclog.NewPostgresRepository(pool)
}
