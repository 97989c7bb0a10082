package model

import "time"

// ProcessStatus tracks an item through one generation attempt.
type ProcessStatus string

const (
	StatusIdle       ProcessStatus = "idle"
	StatusPending    ProcessStatus = "pending"
	StatusProcessing ProcessStatus = "processing"
	StatusCompleted  ProcessStatus = "completed"
	StatusError      ProcessStatus = "error"
)

// MediaKind classifies an asset at ingestion. It is fixed for the item's
// lifetime and determines preview generation and prompt strategy.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// BatchItem is one queued asset. Source holds the original bytes; Preview is
// a JPEG still (decoded image or extracted video frame) set once at ingestion.
type BatchItem struct {
	ID        string        `json:"id"`
	FileName  string        `json:"fileName"`
	FileSize  int64         `json:"fileSize"`
	MediaKind MediaKind     `json:"mediaKind"`
	Source    []byte        `json:"-"`
	Preview   []byte        `json:"-"`
	Metadata  Metadata      `json:"metadata"`
	Status    ProcessStatus `json:"status"`
	LastError string        `json:"lastError,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`

	// Edit history for undo/redo. History is never empty once the item
	// exists; History[HistoryIndex] is the last committed snapshot.
	History      []Metadata `json:"-"`
	HistoryIndex int        `json:"historyIndex"`
}

// CanUndo reports whether the history cursor can move back.
func (i *BatchItem) CanUndo() bool { return i.HistoryIndex > 0 }

// CanRedo reports whether the history cursor can move forward.
func (i *BatchItem) CanRedo() bool { return i.HistoryIndex < len(i.History)-1 }

// Eligible reports whether the item can be picked up by a new queue run.
func (i *BatchItem) Eligible() bool {
	return i.Status == StatusIdle || i.Status == StatusError
}
