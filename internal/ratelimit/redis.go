package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Commands is the subset of go-redis used by RedisStore.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore counts failures in Redis so every server instance shares the count.
// The expiry is set after the INCR that creates the counter. A counter left without
// expiry (EXPIRE failed) gets one on the next limited Check.
type RedisStore struct {
	cmd     Commands
	policy  Policy
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisStore creates a Redis-backed store. Each command is bounded by timeout.
func NewRedisStore(cmd Commands, policy Policy, timeout time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{cmd: cmd, policy: policy, timeout: timeout, logger: logger}
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

// Check implements Store.
func (s *RedisStore) Check(ctx context.Context, key string) (Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.cmd.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if n < s.policy.MaxAttempts {
		return Result{}, nil
	}
	wait := s.policy.Window
	ttl, err := s.cmd.TTL(ctx, key).Result()
	switch {
	case err != nil:
	case ttl > 0:
		wait = ttl
	case ttl == -2:
		// The counter expired between GET and TTL.
		return Result{}, nil
	case ttl == -1:
		// go-redis reports a key without expiry as -1.
		if err := s.cmd.Expire(ctx, key, s.policy.Window).Err(); err != nil {
			s.logger.Warn("rate limit counter expiry not set", zap.String("key", key), zap.Error(err))
		}
	}
	return Result{Limited: true, RetryAfterSeconds: retryAfter(wait)}, nil
}

// RecordFailure implements Store.
func (s *RedisStore) RecordFailure(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.cmd.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return s.cmd.Expire(ctx, key, s.policy.Window).Err()
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.cmd.Del(ctx, key).Err()
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
