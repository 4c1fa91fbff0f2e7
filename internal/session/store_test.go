package session

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	questions := []string{"What is dynamic programming?", "What is a hash table and how does it work?"}

	if _, err := s.CreateSession("sess-1", questions); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := s.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetSession returned nil")
	}
	if got.Status != StatusActive {
		t.Errorf("Status = %q, want %q", got.Status, StatusActive)
	}
	if len(got.Questions) != 2 || got.Questions[1] != questions[1] {
		t.Errorf("Questions = %v, want %v", got.Questions, questions)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetSession("missing")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetSession = %+v, want nil", got)
	}
}

func TestEntriesInQuestionOrder(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateSession("sess-1", []string{"q0", "q1"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := s.AddEntry(Entry{SessionID: "sess-1", Index: 1, Question: "q1", Score: "70"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if err := s.AddEntry(Entry{SessionID: "sess-1", Index: 0, Question: "q0", Score: "85"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	entries, err := s.GetEntries("sess-1")
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("GetEntries returned %d, want 2", len(entries))
	}
	if entries[0].Question != "q0" || entries[0].Score != "85" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestAddEntryRejectsDuplicateIndex(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateSession("sess-1", []string{"q0"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := s.AddEntry(Entry{SessionID: "sess-1", Index: 0, Question: "q0"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if err := s.AddEntry(Entry{SessionID: "sess-1", Index: 0, Question: "q0"}); err == nil {
		t.Error("second AddEntry for the same index should fail")
	}
}

func TestListSessionsCountsAnswers(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateSession("sess-1", []string{"q0", "q1", "q2"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := s.AddEntry(Entry{SessionID: "sess-1", Index: 0, Question: "q0"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if err := s.SetStatus("sess-1", StatusComplete); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	list, err := s.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListSessions returned %d, want 1", len(list))
	}
	if list[0].Questions != 3 || list[0].Answered != 1 || list[0].Status != StatusComplete {
		t.Errorf("summary = %+v, want 3 questions, 1 answered, complete", list[0])
	}

	latest, err := s.GetLatest()
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest == nil || latest.ID != "sess-1" {
		t.Errorf("GetLatest = %+v, want sess-1", latest)
	}
}
