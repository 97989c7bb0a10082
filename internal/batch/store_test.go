package batch

import (
	"fmt"
	"testing"

	"github.com/stockmeta/api/internal/model"
)

func newItem(id, title string) *model.BatchItem {
	return &model.BatchItem{
		ID:       id,
		FileName: id + ".jpg",
		Metadata: model.Metadata{Title: title},
		Status:   model.StatusIdle,
	}
}

func TestAdd_SeedsHistoryAndSelection(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "first"), newItem("b", "second"))

	if s.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", s.Len())
	}
	if s.Selected() != "a" {
		t.Errorf("expected first item selected, got %q", s.Selected())
	}

	idx, length, ok := s.HistoryState("a")
	if !ok || idx != 0 || length != 1 {
		t.Errorf("expected history seeded at (0,1), got (%d,%d,%v)", idx, length, ok)
	}
}

func TestUpdateField_NoHistoryAppend(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "first"))

	if !s.UpdateField("a", FieldTitle, "edited") {
		t.Fatal("update should succeed")
	}
	if !s.UpdateField("a", FieldKeywords, []string{"sky", "Sky", "sea"}) {
		t.Fatal("keyword update should succeed")
	}

	it, _ := s.Get("a")
	if it.Metadata.Title != "edited" {
		t.Errorf("expected live title updated, got %q", it.Metadata.Title)
	}
	if len(it.Metadata.Keywords) != 2 {
		t.Errorf("expected duplicate keywords collapsed, got %v", it.Metadata.Keywords)
	}

	// Keystroke edits coalesce until Snapshot.
	if _, length, _ := s.HistoryState("a"); length != 1 {
		t.Errorf("expected history untouched by field edits, length %d", length)
	}
}

func TestSnapshot_NoOpWhenUnchanged(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "first"))

	s.Snapshot("a")
	s.Snapshot("a")

	if _, length, _ := s.HistoryState("a"); length != 1 {
		t.Errorf("snapshot of unchanged metadata should not grow history, length %d", length)
	}

	s.UpdateField("a", FieldTitle, "edited")
	s.Snapshot("a")
	s.Snapshot("a")

	if _, length, _ := s.HistoryState("a"); length != 2 {
		t.Errorf("expected exactly one new entry after edit, length %d", length)
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "v0"))
	s.UpdateField("a", FieldTitle, "v1")
	s.Snapshot("a")
	s.UpdateField("a", FieldTitle, "v2")
	s.Snapshot("a")

	if !s.Undo("a") {
		t.Fatal("undo should succeed")
	}
	if it, _ := s.Get("a"); it.Metadata.Title != "v1" {
		t.Errorf("expected v1 after undo, got %q", it.Metadata.Title)
	}

	s.Undo("a")
	if it, _ := s.Get("a"); it.Metadata.Title != "v0" {
		t.Errorf("expected v0 after second undo, got %q", it.Metadata.Title)
	}
	if s.Undo("a") {
		t.Error("undo at oldest entry should be a no-op")
	}

	s.Redo("a")
	s.Redo("a")
	if it, _ := s.Get("a"); it.Metadata.Title != "v2" {
		t.Errorf("expected v2 after redos, got %q", it.Metadata.Title)
	}
	if s.Redo("a") {
		t.Error("redo at newest entry should be a no-op")
	}
}

func TestSnapshot_BranchTruncatesRedo(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "v0"))
	s.UpdateField("a", FieldTitle, "v1")
	s.Snapshot("a")
	s.UpdateField("a", FieldTitle, "v2")
	s.Snapshot("a")

	s.Undo("a")
	s.Undo("a") // back at v0

	s.UpdateField("a", FieldTitle, "branch")
	s.Snapshot("a")

	idx, length, _ := s.HistoryState("a")
	if length != 2 || idx != 1 {
		t.Fatalf("expected redo entries discarded, got (index=%d, length=%d)", idx, length)
	}
	if s.Redo("a") {
		t.Error("redo should be unavailable after branching")
	}
	if it, _ := s.Get("a"); it.Metadata.Title != "branch" {
		t.Errorf("expected branch title, got %q", it.Metadata.Title)
	}
}

func TestSnapshot_CapEvictsOldest(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "v0"))

	for i := 1; i <= HistoryLimit+10; i++ {
		s.UpdateField("a", FieldTitle, fmt.Sprintf("v%d", i))
		s.Snapshot("a")
	}

	idx, length, _ := s.HistoryState("a")
	if length != HistoryLimit {
		t.Fatalf("expected history capped at %d, got %d", HistoryLimit, length)
	}
	if idx != length-1 {
		t.Errorf("expected cursor at newest entry, got %d", idx)
	}

	// Walk back to the oldest surviving entry; v0 must have been evicted.
	for s.Undo("a") {
	}
	it, _ := s.Get("a")
	if it.Metadata.Title == "v0" {
		t.Error("oldest entry should have been evicted")
	}
	if it.Metadata.Title != fmt.Sprintf("v%d", 11) {
		t.Errorf("expected oldest surviving entry v11, got %q", it.Metadata.Title)
	}
}

func TestRemove_UnsetsSelection(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "first"), newItem("b", "second"))

	if !s.Remove("a") {
		t.Fatal("remove should succeed")
	}
	if s.Selected() != "" {
		t.Errorf("removing the selected item should unset selection, got %q", s.Selected())
	}
	if s.Remove("a") {
		t.Error("removing an unknown id should fail")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 item left, got %d", s.Len())
	}
}

func TestSelect_UnknownIDUnsets(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", "first"))

	s.Select("nope")
	if s.Selected() != "" {
		t.Errorf("expected selection unset for unknown id, got %q", s.Selected())
	}
}

func TestMarkPending_OnlyEligible(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", ""), newItem("b", ""), newItem("c", ""))
	s.SetProcessing("b")
	s.Complete("c", model.Metadata{Title: "done"})

	if n := s.MarkPending(); n != 1 {
		t.Fatalf("expected only the idle item transitioned, got %d", n)
	}

	it, _ := s.FirstPending()
	if it.ID != "a" {
		t.Errorf("expected item a pending, got %q", it.ID)
	}

	// Error items are eligible again.
	s.Fail("a", "boom")
	if n := s.MarkPending(); n != 1 {
		t.Errorf("expected errored item re-eligible, got %d", n)
	}
}

func TestComplete_AppendsHistoryAndClearsError(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", ""))
	s.Fail("a", "boom")

	md := model.Metadata{Title: "generated", Keywords: []string{"x"}}
	if !s.Complete("a", md) {
		t.Fatal("complete should succeed")
	}

	it, _ := s.Get("a")
	if it.Status != model.StatusCompleted || it.LastError != "" {
		t.Errorf("expected completed with no error, got %v %q", it.Status, it.LastError)
	}
	if it.Metadata.Title != "generated" {
		t.Errorf("expected generated metadata live, got %q", it.Metadata.Title)
	}
	if _, length, _ := s.HistoryState("a"); length != 2 {
		t.Errorf("expected generation snapshotted, length %d", length)
	}
}

func TestComplete_RemovedItemIsNoOp(t *testing.T) {
	s := NewStore()
	s.Add(newItem("a", ""))
	s.Remove("a")

	if s.Complete("a", model.Metadata{Title: "late"}) {
		t.Error("completing a removed item should be a no-op")
	}
	if s.Fail("a", "late") {
		t.Error("failing a removed item should be a no-op")
	}
}
