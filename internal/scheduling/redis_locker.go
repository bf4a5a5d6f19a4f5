package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/pkg/circuitbreaker"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLockerConfig struct {
	URL        string
	KeyPrefix  string
	TTL        time.Duration
	RetryEvery time.Duration
}

// RedisLocker is a Locker shared by every process pointed at the same Redis,
// for deployments where several servers write one durable database. A lock
// expires after TTL if its holder dies.
type RedisLocker struct {
	client     redis.UniversalClient
	cb         *circuitbreaker.CircuitBreaker
	logger     zerolog.Logger
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
}

func NewRedisLocker(cfg RedisLockerConfig, logger zerolog.Logger) (*RedisLocker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.MaxRetries = -1
	return newRedisLocker(redis.NewClient(opts), cfg, logger), nil
}

func newRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger zerolog.Logger) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "clinic:slot-lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = 25 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-locker",
			MaxFailures: 3,
			Timeout:     5 * time.Second,
		}),
		logger:     logger.With().Str("component", "redis-locker").Logger(),
		prefix:     cfg.KeyPrefix,
		ttl:        cfg.TTL,
		retryEvery: cfg.RetryEvery,
	}
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		var acquired bool
		err := l.cb.Execute(func() error {
			ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
			acquired = ok
			return err
		})
		if err != nil {
			if errors.Is(err, circuitbreaker.ErrOpen) {
				return nil, fmt.Errorf("redis lock unavailable: %w", err)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			break
		}

		timer := time.NewTimer(l.retryEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the caller's context is already done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
			}
		})
	}, nil
}
