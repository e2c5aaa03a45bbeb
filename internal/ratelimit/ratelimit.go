// Package ratelimit throttles failed admin logins per client with a fixed-window counter.
//
// The limiter consults an ordered list of stores: Redis first when configured, the
// in-process memory store last. A Redis error or timeout falls through to memory.
// A client can make up to 2x MaxAttempts attempts across a window boundary.
package ratelimit

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/fallback"
)

// Policy configures the window and the number of failures allowed in it.
type Policy struct {
	Window      time.Duration
	MaxAttempts int
}

// DefaultPolicy is 5 failures per 15 minutes.
var DefaultPolicy = Policy{Window: 900 * time.Second, MaxAttempts: 5}

// Result is the outcome of a rate limit check.
type Result struct {
	Limited           bool `json:"limited"`
	RetryAfterSeconds int  `json:"retry_after_seconds,omitempty"`
}

// Store is one counting backend. All stores share the same external behaviour.
type Store interface {
	Name() string
	Check(ctx context.Context, key string) (Result, error)
	RecordFailure(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
}

// Limiter applies the policy through its stores in order.
type Limiter struct {
	stores []Store
	prefix string
	logger *zap.Logger
}

// NewLimiter creates a limiter over stores, tried in the given order.
func NewLimiter(logger *zap.Logger, stores ...Store) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{stores: stores, prefix: "login:fail:", logger: logger}
}

// Check reports whether key is currently limited.
func (l *Limiter) Check(ctx context.Context, key string) Result {
	res, _, err := fallback.First(ctx, providers(l, "check", key, func(ctx context.Context, s Store, k string) (Result, error) {
		return s.Check(ctx, k)
	})...)
	if err != nil {
		l.logger.Error("rate limit check failed on every store", zap.String("key", key), zap.Error(err))
		return Result{}
	}
	return res
}

// RecordFailure counts one failed attempt for key.
func (l *Limiter) RecordFailure(ctx context.Context, key string) {
	_, _, err := fallback.First(ctx, providers(l, "record", key, func(ctx context.Context, s Store, k string) (struct{}, error) {
		return struct{}{}, s.RecordFailure(ctx, k)
	})...)
	if err != nil {
		l.logger.Error("rate limit record failed on every store", zap.String("key", key), zap.Error(err))
	}
}

// ClearFailures forgets key in every store, so a record written during a remote outage
// does not outlive a successful login.
func (l *Limiter) ClearFailures(ctx context.Context, key string) {
	for _, s := range l.stores {
		if err := s.Clear(ctx, l.prefix+key); err != nil {
			l.logger.Warn("rate limit clear failed", zap.String("store", s.Name()), zap.String("key", key), zap.Error(err))
		}
	}
}

func providers[T any](l *Limiter, op, key string, call func(context.Context, Store, string) (T, error)) []fallback.Provider[T] {
	out := make([]fallback.Provider[T], 0, len(l.stores))
	for _, s := range l.stores {
		s := s
		out = append(out, fallback.Provider[T]{
			Name: s.Name(),
			Fetch: func(ctx context.Context) (T, error) {
				v, err := call(ctx, s, l.prefix+key)
				if err != nil {
					l.logger.Warn("rate limit store unavailable, falling back",
						zap.String("store", s.Name()), zap.String("op", op), zap.String("key", key), zap.Error(err))
				}
				return v, err
			},
		})
	}
	return out
}

func retryAfter(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
