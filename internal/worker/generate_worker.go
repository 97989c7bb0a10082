// Package worker hosts batch runs on the in-process asynq server. The
// generate queue runs with concurrency 1, so at most one loop - and
// therefore one outstanding provider call - exists per process.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/stockmeta/api/internal/service"
)

// GenerateWorker executes queued batch runs.
type GenerateWorker struct {
	sessions *service.SessionService
}

// NewGenerateWorker creates a worker bound to the session registry.
func NewGenerateWorker(sessions *service.SessionService) *GenerateWorker {
	return &GenerateWorker{sessions: sessions}
}

// ProcessTask runs one batch generation loop to completion.
func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.GenerateTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Starting batch run for user %s", payload.UserID)
	sess := w.sessions.Session(payload.UserID)
	sess.Runner.Run(ctx)
	log.Printf("Batch run finished for user %s", payload.UserID)
	return nil
}
