// Package ingest turns raw uploads into normalized batch items: id
// assignment, MIME classification, preview generation, and video frame
// extraction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockmeta/api/internal/batch"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/notify"
)

// ErrBatchLimit is returned when an upload would push the store past the
// batch cap. Nothing is enqueued in that case.
var ErrBatchLimit = errors.New("batch size limit exceeded")

// File is one uploaded file before ingestion.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Options configures an Ingestor.
type Options struct {
	MaxBatchSize int
	MaxDimension int
	// MinLatency pads fast batch adds up to a perceived-latency floor so
	// the upload state does not flicker in the UI.
	MinLatency time.Duration
	FFmpegPath string
	Notifier   notify.Notifier
}

// Ingestor processes uploads sequentially into a batch store.
type Ingestor struct {
	maxBatch   int
	maxDim     int
	minLatency time.Duration
	ffmpeg     string
	notifier   notify.Notifier

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Ingestor.
func New(opts Options) *Ingestor {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 800
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 800
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	return &Ingestor{
		maxBatch:   opts.MaxBatchSize,
		maxDim:     opts.MaxDimension,
		minLatency: opts.MinLatency,
		ffmpeg:     opts.FFmpegPath,
		notifier:   opts.Notifier,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// AddFiles ingests files into the store. The whole call is rejected when it
// would exceed the batch cap; otherwise per-file failures are skipped with a
// warning and the rest proceed. Returns how many items were enqueued.
func (ing *Ingestor) AddFiles(ctx context.Context, sessionID string, store *batch.Store, files []File) (int, error) {
	if store.Len()+len(files) > ing.maxBatch {
		ing.notifier.Notify(sessionID, "Limit Reached",
			fmt.Sprintf("You can only upload up to %d files.", ing.maxBatch), notify.SeverityWarning)
		return 0, ErrBatchLimit
	}

	start := ing.now()

	var newItems []*model.BatchItem
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		kind := Classify(f.Name, f.ContentType)

		var preview []byte
		var err error
		switch kind {
		case model.MediaVideo:
			preview, err = ExtractFrame(ctx, ing.ffmpeg, f.Data, ing.maxDim)
		default:
			preview, err = ResizeJPEG(f.Data, ing.maxDim)
		}
		if err != nil {
			log.Printf("Failed to process file %s: %v", f.Name, err)
			ing.notifier.Notify(sessionID, "Upload Error",
				"Failed to process "+f.Name, notify.SeverityError)
			continue
		}

		newItems = append(newItems, &model.BatchItem{
			ID:        uuid.New().String(),
			FileName:  f.Name,
			FileSize:  f.Size,
			MediaKind: kind,
			Source:    f.Data,
			Preview:   preview,
			Metadata:  model.Metadata{Keywords: []string{}},
			Status:    model.StatusIdle,
			CreatedAt: ing.now(),
		})
	}

	// UX smoothing, not a correctness rule: hold the upload state for at
	// least the latency floor.
	if elapsed := ing.now().Sub(start); elapsed < ing.minLatency {
		if err := ing.sleep(ctx, ing.minLatency-elapsed); err != nil {
			return 0, err
		}
	}

	store.Add(newItems...)
	return len(newItems), nil
}

// Classify determines the media kind from content type, falling back to the
// file extension.
func Classify(name, contentType string) model.MediaKind {
	if strings.HasPrefix(contentType, "video/") {
		return model.MediaVideo
	}
	if strings.HasPrefix(contentType, "image/") {
		return model.MediaImage
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v":
		return model.MediaVideo
	}
	return model.MediaImage
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

