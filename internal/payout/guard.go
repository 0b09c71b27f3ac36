package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConfirmGuard makes payout execution once-only per request even when two
// confirmations race.
type ConfirmGuard interface {
	Acquire(ctx context.Context, requestID int64) (bool, error)
	Release(ctx context.Context, requestID int64) error
}

// RedisGuard implements ConfirmGuard with SETNX. The key has no expiry on
// purpose: a completed payout must never run again.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func guardKey(requestID int64) string {
	return fmt.Sprintf("payout:confirmed:%d", requestID)
}

func (g *RedisGuard) Acquire(ctx context.Context, requestID int64) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(requestID), time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire payout guard: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, requestID int64) error {
	if err := g.client.Del(ctx, guardKey(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to release payout guard: %w", err)
	}
	return nil
}
