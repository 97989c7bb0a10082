// Package batch owns the authoritative in-memory collection of queue items
// and each item's edit history. All operations are synchronous; the scheduler
// re-reads items by id through this store on every tick instead of holding
// copies across its suspension points.
package batch

import (
	"sync"

	"github.com/stockmeta/api/internal/model"
)

// HistoryLimit caps per-item history; the oldest snapshot is dropped when a
// new one would exceed it.
const HistoryLimit = 50

// Field names accepted by UpdateField.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldKeywords    = "keywords"
	FieldCategory    = "category"
)

// Store holds one user session's batch items in insertion order.
type Store struct {
	mu         sync.Mutex
	items      []*model.BatchItem
	selectedID string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add appends items to the end of the store. Each item's history is seeded
// with its initial metadata. If nothing is selected, the first added item
// becomes selected.
func (s *Store) Add(items ...*model.BatchItem) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if len(it.History) == 0 {
			it.History = []model.Metadata{it.Metadata.Clone()}
			it.HistoryIndex = 0
		}
		s.items = append(s.items, it)
	}
	if s.selectedID == "" {
		s.selectedID = items[0].ID
	}
}

// Get returns a copy of the item, so callers never observe concurrent
// mutation. Returns false if the id is unknown.
func (s *Store) Get(id string) (model.BatchItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return model.BatchItem{}, false
	}
	return copyItem(it), true
}

// Items returns copies of all items in insertion order.
func (s *Store) Items() []model.BatchItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BatchItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyItem(it))
	}
	return out
}

// Len returns the current item count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Remove deletes one item. If it was selected, the selection becomes unset.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			if s.selectedID == id {
				s.selectedID = ""
			}
			return true
		}
	}
	return false
}

// Clear removes every item and unsets the selection. The caller is expected
// to have confirmed the action with the user.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.selectedID = ""
}

// Select sets the UI focus pointer. An unknown id unsets it.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.find(id) == nil {
		id = ""
	}
	s.selectedID = id
}

// Selected returns the focused item id, or empty.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// UpdateField replaces one metadata field on the live value without
// snapshotting, so keystroke-level edits coalesce until Snapshot is called.
func (s *Store) UpdateField(id, field string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	switch field {
	case FieldTitle:
		if v, ok := value.(string); ok {
			it.Metadata.Title = v
			return true
		}
	case FieldDescription:
		if v, ok := value.(string); ok {
			it.Metadata.Description = v
			return true
		}
	case FieldCategory:
		if v, ok := value.(string); ok {
			it.Metadata.Category = v
			return true
		}
	case FieldKeywords:
		if v, ok := value.([]string); ok {
			it.Metadata.Keywords = model.DedupeKeywords(v)
			return true
		}
	}
	return false
}

// Snapshot commits the live metadata to history. If the live value equals
// the entry at the cursor the call is a no-op, so it is idempotent. A commit
// after an undo discards the redo entries past the cursor, and the oldest
// entry is evicted once the history exceeds HistoryLimit.
func (s *Store) Snapshot(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	s.appendHistory(it, it.Metadata)
	return true
}

// Undo moves the history cursor back one entry and restores that metadata.
// No-op at the oldest entry.
func (s *Store) Undo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil || it.HistoryIndex <= 0 {
		return false
	}
	it.HistoryIndex--
	it.Metadata = it.History[it.HistoryIndex].Clone()
	return true
}

// Redo moves the history cursor forward one entry and restores that
// metadata. No-op at the newest entry.
func (s *Store) Redo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil || it.HistoryIndex >= len(it.History)-1 {
		return false
	}
	it.HistoryIndex++
	it.Metadata = it.History[it.HistoryIndex].Clone()
	return true
}

// MarkPending transitions every idle or error item to pending, clearing
// lastError, and returns how many items were transitioned.
func (s *Store) MarkPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.Eligible() {
			it.Status = model.StatusPending
			it.LastError = ""
			n++
		}
	}
	return n
}

// Requeue transitions a single item to pending regardless of its current
// terminal state, clearing lastError.
func (s *Store) Requeue(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	it.Status = model.StatusPending
	it.LastError = ""
	return true
}

// FirstPending returns a copy of the first pending item in insertion order.
func (s *Store) FirstPending() (model.BatchItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Status == model.StatusPending {
			return copyItem(it), true
		}
	}
	return model.BatchItem{}, false
}

// HasPending reports whether any item is still pending.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Status == model.StatusPending {
			return true
		}
	}
	return false
}

// EligibleCount counts items a new run would pick up (idle or error).
func (s *Store) EligibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.Eligible() {
			n++
		}
	}
	return n
}

// SetProcessing marks the item as the in-flight job.
func (s *Store) SetProcessing(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	it.Status = model.StatusProcessing
	return true
}

// Complete records a successful generation: the returned metadata becomes the
// live value, is appended to history under the same branch/cap rules as a
// manual snapshot, and the item is marked completed. A no-op if the item was
// removed while the generation was in flight.
func (s *Store) Complete(id string, md model.Metadata) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	it.Metadata = md.Clone()
	s.appendHistory(it, md)
	it.Status = model.StatusCompleted
	it.LastError = ""
	return true
}

// Fail records a failed generation, leaving metadata untouched.
func (s *Store) Fail(id, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return false
	}
	it.Status = model.StatusError
	it.LastError = msg
	return true
}

// HistoryState returns the item's history cursor and length, for the editor
// to decide whether undo/redo are available.
func (s *Store) HistoryState(id string) (index, length int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return 0, 0, false
	}
	return it.HistoryIndex, len(it.History), true
}

// appendHistory implements the snapshot rules. Caller holds the lock.
func (s *Store) appendHistory(it *model.BatchItem, md model.Metadata) {
	if len(it.History) > 0 && it.History[it.HistoryIndex].Equal(md) {
		return
	}
	history := append(it.History[:it.HistoryIndex+1:it.HistoryIndex+1], md.Clone())
	if len(history) > HistoryLimit {
		history = history[1:]
	}
	it.History = history
	it.HistoryIndex = len(history) - 1
}

func (s *Store) find(id string) *model.BatchItem {
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func copyItem(it *model.BatchItem) model.BatchItem {
	out := *it
	out.Metadata = it.Metadata.Clone()
	out.History = nil
	return out
}
