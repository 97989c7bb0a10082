// Package scheduler walks the batch store as a single cooperative loop: one
// outstanding gateway call at a time, a rate-limit delay between attempts,
// credential/model failover delegated to the gateway, and credit checks
// before every dispatch. It never holds an item across a suspension point;
// each tick re-reads the store by id.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/stockmeta/api/internal/batch"
	"github.com/stockmeta/api/internal/credit"
	"github.com/stockmeta/api/internal/gateway"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/notify"
)

var (
	// ErrMissingKey means no credential is configured for the active provider.
	ErrMissingKey = errors.New("no API key configured for the active provider")
	// ErrNothingToDo means no item is in a state a run would pick up.
	ErrNothingToDo = errors.New("no idle or errored items to process")
	// ErrInsufficientCredits means the daily quota is exhausted.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrQueueBusy means a loop is already active for this session.
	ErrQueueBusy = errors.New("queue is already processing")
	// ErrItemNotFound means the requested item id is not in the store.
	ErrItemNotFound = errors.New("item not found")
)

// Settings is the immutable-per-run snapshot of generation configuration the
// loop reads. Keys are the credentials stored for the active provider, in
// stored order.
type Settings struct {
	Provider         model.Provider
	ModelID          string
	Keys             []string
	AutoKeySwitch    bool
	SelectedKeyIndex int
	AutoModelSwitch  bool
	Customization    model.CustomizationConfig
}

// SettingsFunc resolves the current settings snapshot at run start.
type SettingsFunc func(ctx context.Context) (Settings, error)

// ProfileFunc resolves the acting user's profile. A nil profile skips credit
// accounting entirely.
type ProfileFunc func(ctx context.Context) *model.UserProfile

// Runner is the per-session queue state machine: idle until Start or
// RegenerateSingle flips it to running, back to idle when Run returns.
type Runner struct {
	sessionID string
	store     *batch.Store
	gateway   gateway.Gateway
	ledger    credit.Ledger
	notifier  notify.Notifier
	settings  SettingsFunc
	profile   ProfileFunc

	running atomic.Bool
	stopped atomic.Bool

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner wires a runner for one session.
func NewRunner(sessionID string, store *batch.Store, gw gateway.Gateway, ledger credit.Ledger, notifier notify.Notifier, settings SettingsFunc, profile ProfileFunc) *Runner {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Runner{
		sessionID: sessionID,
		store:     store,
		gateway:   gw,
		ledger:    ledger,
		notifier:  notifier,
		settings:  settings,
		profile:   profile,
		sleep:     sleepCtx,
	}
}

// IsProcessing reports whether the loop is active.
func (r *Runner) IsProcessing() bool {
	return r.running.Load()
}

// Start validates preconditions, transitions every idle and errored item to
// pending, and flips the runner to running. The caller dispatches Run
// afterwards; on dispatch failure it must call Abort.
func (r *Runner) Start(ctx context.Context) error {
	if r.running.Load() {
		return ErrQueueBusy
	}

	set, err := r.settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if len(set.Keys) == 0 {
		r.notifier.Notify(r.sessionID, "Missing API Key",
			fmt.Sprintf("Please add a %s API key in your settings.", set.Provider), notify.SeverityWarning)
		return ErrMissingKey
	}
	if r.store.EligibleCount() == 0 {
		return ErrNothingToDo
	}
	if err := r.checkCredits(ctx); err != nil {
		r.notifier.Notify(r.sessionID, "Insufficient Credits",
			"You do not have enough credits to start generation.", notify.SeverityError)
		return err
	}

	if !r.running.CompareAndSwap(false, true) {
		return ErrQueueBusy
	}
	r.stopped.Store(false)
	r.store.MarkPending()
	r.notifier.QueueState(r.sessionID, true)
	return nil
}

// RegenerateSingle validates the same preconditions as Start but re-queues
// exactly one item. Disallowed while a loop is running.
func (r *Runner) RegenerateSingle(ctx context.Context, id string) error {
	if r.running.Load() {
		return ErrQueueBusy
	}
	if _, ok := r.store.Get(id); !ok {
		return ErrItemNotFound
	}

	set, err := r.settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if len(set.Keys) == 0 {
		r.notifier.Notify(r.sessionID, "Missing API Key",
			fmt.Sprintf("Please add a %s API key in your settings.", set.Provider), notify.SeverityWarning)
		return ErrMissingKey
	}
	if err := r.checkCredits(ctx); err != nil {
		r.notifier.Notify(r.sessionID, "Insufficient Credits",
			"You do not have enough credits to regenerate.", notify.SeverityError)
		return err
	}

	if !r.running.CompareAndSwap(false, true) {
		return ErrQueueBusy
	}
	r.stopped.Store(false)
	r.store.Requeue(id)
	r.notifier.QueueState(r.sessionID, true)
	return nil
}

// Abort returns the runner to idle without running the loop. For callers
// whose dispatch failed after a successful Start.
func (r *Runner) Abort() {
	r.running.Store(false)
	r.notifier.QueueState(r.sessionID, false)
}

// Stop raises the cooperative stop signal. The in-flight gateway call is
// allowed to finish; remaining items stay pending so the run is resumable.
func (r *Runner) Stop() bool {
	if !r.running.Load() {
		return false
	}
	r.stopped.Store(true)
	r.notifier.Notify(r.sessionID, "Stopped",
		"Processing queue stopped by user.", notify.SeverityInfo)
	return true
}

// Run executes the loop until no pending items remain, credits run out, or a
// stop is observed. Call only after a successful Start or RegenerateSingle.
func (r *Runner) Run(ctx context.Context) {
	defer func() {
		r.running.Store(false)
		r.stopped.Store(false)
		r.notifier.QueueState(r.sessionID, false)
	}()

	set, err := r.settings(ctx)
	if err != nil {
		log.Printf("Queue run aborted, settings unavailable: %v", err)
		return
	}

	// The delay derives from the configured active model's RPM even when a
	// fallback model services a request.
	rpm := 10
	if mc, ok := model.ModelByID(set.ModelID); ok && mc.RPM > 0 {
		rpm = mc.RPM
	}
	delay := time.Duration(float64(time.Minute) / float64(rpm) * 1.1)

	for {
		if r.stopped.Load() || ctx.Err() != nil {
			return
		}

		item, ok := r.store.FirstPending()
		if !ok {
			r.notifier.Notify(r.sessionID, "Batch Complete",
				"All items in the queue have been processed.", notify.SeveritySuccess)
			return
		}

		// Balance may have moved since the previous tick's deduction.
		if err := r.checkCredits(ctx); err != nil {
			r.notifier.Notify(r.sessionID, "Insufficient Credits",
				"You have run out of daily credits.", notify.SeverityError)
			return
		}

		r.store.SetProcessing(item.ID)
		r.store.Select(item.ID)
		r.notifier.ItemStatus(r.sessionID, item.ID, model.StatusProcessing)

		r.processOne(ctx, set, item)

		if r.stopped.Load() {
			return
		}
		if !r.store.HasPending() {
			r.notifier.Notify(r.sessionID, "Batch Complete",
				"Queue processing finished.", notify.SeveritySuccess)
			return
		}
		if err := r.sleep(ctx, delay); err != nil {
			return
		}
	}
}

// processOne runs a single generation attempt. Gateway errors never escape;
// they become item state.
func (r *Runner) processOne(ctx context.Context, set Settings, item model.BatchItem) {
	keys := set.Keys
	if !set.AutoKeySwitch {
		if set.SelectedKeyIndex >= 0 && set.SelectedKeyIndex < len(set.Keys) {
			keys = []string{set.Keys[set.SelectedKeyIndex]}
		} else {
			keys = nil
		}
	}
	if len(keys) == 0 {
		r.store.Fail(item.ID, "no valid API key available")
		r.notifier.ItemStatus(r.sessionID, item.ID, model.StatusError)
		return
	}

	modelIDs := []string{set.ModelID}
	if set.AutoModelSwitch {
		for _, mc := range model.ModelsForProvider(set.Provider) {
			if mc.ID != set.ModelID {
				modelIDs = append(modelIDs, mc.ID)
			}
		}
	}

	payload := gateway.Payload{FileName: item.FileName}
	if set.Customization.GenerationSource != model.SourceFilename {
		// Video items always use their extracted still frame; images use
		// the bounded, opaque-composited preview produced at ingestion.
		payload.ImageJPEG = item.Preview
	}

	md, err := r.gateway.Generate(ctx, set.Provider, keys, payload, modelIDs, set.Customization, item.MediaKind)
	if err != nil {
		r.store.Fail(item.ID, err.Error())
		r.notifier.ItemStatus(r.sessionID, item.ID, model.StatusError)
		return
	}

	// Deduction is best-effort: a ledger failure is logged and the
	// completed generation stands.
	if profile := r.profile(ctx); profile != nil && r.ledger != nil {
		if derr := r.ledger.Deduct(ctx, profile, 1); derr != nil {
			log.Printf("Credit deduction failed for user %s: %v", profile.ID, derr)
		}
	}

	// A concurrent remove makes this a no-op; the next tick simply finds
	// the next pending item.
	if r.store.Complete(item.ID, md) {
		r.notifier.ItemStatus(r.sessionID, item.ID, model.StatusCompleted)
	}
}

// checkCredits returns ErrInsufficientCredits when a non-unlimited profile
// cannot spend one credit. Ledger errors fail open with a log line, matching
// how the API rate limiter treats a down redis.
func (r *Runner) checkCredits(ctx context.Context) error {
	profile := r.profile(ctx)
	if profile == nil || r.ledger == nil || profile.Unlimited() {
		return nil
	}
	ok, err := r.ledger.Sufficient(ctx, profile, 1)
	if err != nil {
		log.Printf("Credit check failed, allowing generation: %v", err)
		return nil
	}
	if !ok {
		return ErrInsufficientCredits
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
