package credit

import (
	"context"
	"testing"
	"time"

	"github.com/stockmeta/api/internal/model"
)

func free(id string) *model.UserProfile {
	return &model.UserProfile{ID: id, Role: model.RoleFree}
}

func TestMemoryLedger_DeductAndRemaining(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(5)
	p := free("u1")

	remaining, unlimited, err := l.Remaining(ctx, p)
	if err != nil || unlimited || remaining != 5 {
		t.Fatalf("expected fresh allowance of 5, got remaining=%d unlimited=%v err=%v", remaining, unlimited, err)
	}

	for i := 0; i < 5; i++ {
		ok, err := l.Sufficient(ctx, p, 1)
		if err != nil || !ok {
			t.Fatalf("deduction %d: expected sufficient, got ok=%v err=%v", i, ok, err)
		}
		if err := l.Deduct(ctx, p, 1); err != nil {
			t.Fatalf("deduction %d failed: %v", i, err)
		}
	}

	ok, err := l.Sufficient(ctx, p, 1)
	if err != nil || ok {
		t.Errorf("expected allowance exhausted, got ok=%v err=%v", ok, err)
	}
	remaining, _, _ = l.Remaining(ctx, p)
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}
}

func TestMemoryLedger_DayRolloverResets(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(2)
	p := free("u1")

	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return day })

	l.Deduct(ctx, p, 2)
	if ok, _ := l.Sufficient(ctx, p, 1); ok {
		t.Fatal("expected day's allowance spent")
	}

	// Advance past UTC midnight.
	l.SetClock(func() time.Time { return day.Add(2 * time.Hour) })
	remaining, _, _ := l.Remaining(ctx, p)
	if remaining != 2 {
		t.Errorf("expected allowance reset on new UTC day, got %d", remaining)
	}
}

func TestMemoryLedger_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(3)

	l.Deduct(ctx, free("u1"), 3)
	if ok, _ := l.Sufficient(ctx, free("u2"), 1); !ok {
		t.Error("one user's spending should not affect another")
	}
}

func TestMemoryLedger_PremiumUnlimited(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(1)
	p := &model.UserProfile{ID: "vip", Role: model.RolePremium}

	if ok, err := l.Sufficient(ctx, p, 1000); err != nil || !ok {
		t.Errorf("premium should always be sufficient, got ok=%v err=%v", ok, err)
	}
	_, unlimited, err := l.Remaining(ctx, p)
	if err != nil || !unlimited {
		t.Errorf("expected unlimited remaining, got unlimited=%v err=%v", unlimited, err)
	}
	if err := l.Deduct(ctx, p, 5); err != nil {
		t.Errorf("premium deduct should be a no-op, got %v", err)
	}
}

func TestDayKey_UTCNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 02:00 on the 2nd in UTC+9 is still the 1st in UTC.
	local := time.Date(2026, 3, 2, 2, 0, 0, 0, loc)
	if got := DayKey(local); got != "2026-03-01" {
		t.Errorf("expected 2026-03-01, got %s", got)
	}
}
