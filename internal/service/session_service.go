package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockmeta/api/internal/batch"
	"github.com/stockmeta/api/internal/credit"
	"github.com/stockmeta/api/internal/gateway"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/notify"
	"github.com/stockmeta/api/internal/scheduler"
)

// TaskTypeGenerate is the asynq task that hosts one batch run.
const TaskTypeGenerate = "generate:batch"

// GenerateTaskPayload identifies the session a run belongs to.
type GenerateTaskPayload struct {
	UserID string `json:"userId"`
}

// Session is one user's live batch: the in-memory store and its runner.
// The session id doubles as the hub routing key.
type Session struct {
	ID     string
	UserID string
	Store  *batch.Store
	Runner *scheduler.Runner
}

// Dispatcher hands a validated run off for execution.
type Dispatcher func(sess *Session) error

// SessionService owns the per-user sessions and the lifecycle of their
// queue runs.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gw       gateway.Gateway
	ledger   credit.Ledger
	notifier notify.Notifier
	settings *SettingsService
	profiles *ProfileService
	dispatch Dispatcher
}

// NewSessionService creates the session registry. A nil dispatcher runs the
// loop on a fresh goroutine; production wires AsynqDispatcher instead.
func NewSessionService(gw gateway.Gateway, ledger credit.Ledger, notifier notify.Notifier, settings *SettingsService, profiles *ProfileService, dispatch Dispatcher) *SessionService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &SessionService{
		sessions: make(map[string]*Session),
		gw:       gw,
		ledger:   ledger,
		notifier: notifier,
		settings: settings,
		profiles: profiles,
		dispatch: dispatch,
	}
	if s.dispatch == nil {
		s.dispatch = func(sess *Session) error {
			go sess.Runner.Run(context.Background())
			return nil
		}
	}
	return s
}

// AsynqDispatcher enqueues runs on the generate queue. MaxRetry is zero: a
// crashed run leaves items pending and the user restarts it, which is safer
// than an automatic second pass spending credits.
func AsynqDispatcher(client *asynq.Client) Dispatcher {
	return func(sess *Session) error {
		payload, err := json.Marshal(GenerateTaskPayload{UserID: sess.UserID})
		if err != nil {
			return fmt.Errorf("failed to marshal task payload: %w", err)
		}
		task := asynq.NewTask(TaskTypeGenerate, payload)
		if _, err := client.Enqueue(task,
			asynq.Queue("generate"),
			asynq.MaxRetry(0),
			asynq.Retention(24*time.Hour),
		); err != nil {
			return fmt.Errorf("failed to enqueue generate task: %w", err)
		}
		return nil
	}
}

// Session returns the user's session, creating it on first access.
func (s *SessionService) Session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}

	store := batch.NewStore()
	settingsFn := func(ctx context.Context) (scheduler.Settings, error) {
		return s.settings.SchedulerSettings(ctx, userID)
	}
	profileFn := func(ctx context.Context) *model.UserProfile {
		profile, err := s.profiles.Ensure(ctx, userID, "")
		if err != nil {
			log.Printf("Failed to load profile for %s, skipping credit checks: %v", userID, err)
			return nil
		}
		return profile
	}

	sess := &Session{
		ID:     userID,
		UserID: userID,
		Store:  store,
		Runner: scheduler.NewRunner(userID, store, s.gw, s.ledger, s.notifier, settingsFn, profileFn),
	}
	s.sessions[userID] = sess
	return sess
}

// StartQueue validates and starts a batch run, then dispatches the loop.
func (s *SessionService) StartQueue(ctx context.Context, userID string) error {
	sess := s.Session(userID)
	if err := sess.Runner.Start(ctx); err != nil {
		return err
	}
	if err := s.dispatch(sess); err != nil {
		sess.Runner.Abort()
		return fmt.Errorf("failed to dispatch queue run: %w", err)
	}
	return nil
}

// StopQueue raises the stop signal. Returns false if nothing was running.
func (s *SessionService) StopQueue(userID string) bool {
	return s.Session(userID).Runner.Stop()
}

// Regenerate re-queues one item and dispatches a run for it.
func (s *SessionService) Regenerate(ctx context.Context, userID, itemID string) error {
	sess := s.Session(userID)
	if err := sess.Runner.RegenerateSingle(ctx, itemID); err != nil {
		return err
	}
	if err := s.dispatch(sess); err != nil {
		sess.Runner.Abort()
		return fmt.Errorf("failed to dispatch queue run: %w", err)
	}
	return nil
}
