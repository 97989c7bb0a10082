// Package credit implements the daily generation quota. Usage is keyed by
// user and rolling UTC day, so a new day is an implicit reset.
package credit

import (
	"context"
	"time"

	"github.com/stockmeta/api/internal/model"
)

// DailyFreeCredits is the per-day allowance for free-tier accounts.
const DailyFreeCredits = 50

// Ledger exposes remaining-quota queries and an atomic deduct operation.
// Premium profiles are unlimited and never consume quota.
type Ledger interface {
	// Remaining returns the credits left today. unlimited is true for
	// premium profiles, in which case the count is meaningless.
	Remaining(ctx context.Context, profile *model.UserProfile) (remaining int64, unlimited bool, err error)

	// Sufficient reports whether the profile can spend amount credits now.
	Sufficient(ctx context.Context, profile *model.UserProfile, amount int64) (bool, error)

	// Deduct consumes amount credits. Callers treat a failure after a
	// successful generation as non-fatal.
	Deduct(ctx context.Context, profile *model.UserProfile, amount int64) error
}

// DayKey formats the rolling UTC day used to key usage counters.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
