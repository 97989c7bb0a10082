package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockmeta/api/internal/model"
)

// RedisLedger tracks usage in redis with one counter per user per UTC day.
// INCRBY makes the deduct atomic across concurrent sessions and server
// instances, which closes the cross-instance race a purely client-side
// check-then-write ledger would have.
type RedisLedger struct {
	redis      *redis.Client
	dailyLimit int64
	now        func() time.Time
}

// NewRedisLedger creates a ledger with the given daily free-tier limit.
func NewRedisLedger(redisClient *redis.Client, dailyLimit int64) *RedisLedger {
	if dailyLimit <= 0 {
		dailyLimit = DailyFreeCredits
	}
	return &RedisLedger{
		redis:      redisClient,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Remaining returns the credits left today for the profile.
func (l *RedisLedger) Remaining(ctx context.Context, profile *model.UserProfile) (int64, bool, error) {
	if profile.Unlimited() {
		return 0, true, nil
	}
	used, err := l.redis.Get(ctx, l.key(profile.ID)).Int64()
	if err != nil && err != redis.Nil {
		return 0, false, fmt.Errorf("failed to read credit counter: %w", err)
	}
	remaining := l.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, false, nil
}

// Sufficient reports whether the profile can spend amount credits now.
func (l *RedisLedger) Sufficient(ctx context.Context, profile *model.UserProfile, amount int64) (bool, error) {
	if profile.Unlimited() {
		return true, nil
	}
	remaining, _, err := l.Remaining(ctx, profile)
	if err != nil {
		return false, err
	}
	return remaining >= amount, nil
}

// Deduct consumes amount credits. The counter expires after two days; the
// day key alone makes stale counters unreachable, the TTL just reclaims them.
func (l *RedisLedger) Deduct(ctx context.Context, profile *model.UserProfile, amount int64) error {
	if profile.Unlimited() {
		return nil
	}
	key := l.key(profile.ID)
	used, err := l.redis.IncrBy(ctx, key, amount).Result()
	if err != nil {
		return fmt.Errorf("failed to deduct credits: %w", err)
	}
	if used == amount {
		l.redis.Expire(ctx, key, 48*time.Hour)
	}
	return nil
}

func (l *RedisLedger) key(userID string) string {
	return fmt.Sprintf("credits:%s:%s", userID, DayKey(l.now()))
}
