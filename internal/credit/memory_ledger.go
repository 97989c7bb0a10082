package credit

import (
	"context"
	"sync"
	"time"

	"github.com/stockmeta/api/internal/model"
)

// MemoryLedger is an in-process ledger for tests and single-node setups
// without redis. Same day-keyed semantics as RedisLedger.
type MemoryLedger struct {
	mu         sync.Mutex
	used       map[string]int64
	dailyLimit int64
	now        func() time.Time
}

// NewMemoryLedger creates an in-memory ledger with the given daily limit.
func NewMemoryLedger(dailyLimit int64) *MemoryLedger {
	if dailyLimit <= 0 {
		dailyLimit = DailyFreeCredits
	}
	return &MemoryLedger{
		used:       make(map[string]int64),
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// SetClock overrides the clock, for day-rollover tests.
func (l *MemoryLedger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Remaining returns the credits left today for the profile.
func (l *MemoryLedger) Remaining(_ context.Context, profile *model.UserProfile) (int64, bool, error) {
	if profile.Unlimited() {
		return 0, true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.dailyLimit - l.used[l.key(profile.ID)]
	if remaining < 0 {
		remaining = 0
	}
	return remaining, false, nil
}

// Sufficient reports whether the profile can spend amount credits now.
func (l *MemoryLedger) Sufficient(ctx context.Context, profile *model.UserProfile, amount int64) (bool, error) {
	if profile.Unlimited() {
		return true, nil
	}
	remaining, _, err := l.Remaining(ctx, profile)
	if err != nil {
		return false, err
	}
	return remaining >= amount, nil
}

// Deduct consumes amount credits.
func (l *MemoryLedger) Deduct(_ context.Context, profile *model.UserProfile, amount int64) error {
	if profile.Unlimited() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used[l.key(profile.ID)] += amount
	return nil
}

func (l *MemoryLedger) key(userID string) string {
	return userID + ":" + DayKey(l.now())
}
