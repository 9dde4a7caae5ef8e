package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	return l, dir
}

func TestAppendAndReadAll(t *testing.T) {
	l, _ := newTestLogger(t)

	events := []LogEvent{
		{Event: EventLoginSucceeded, User: "op@lab.example"},
		{Event: EventImportUploaded, FileName: "results.xlsx", JobID: "job-1"},
		{Event: EventImportFinished, JobID: "job-1", Status: "completed", Records: 120, Failed: 3},
	}
	for _, e := range events {
		if err := l.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("read %d events, want %d", len(got), len(events))
	}
	for i, e := range events {
		if got[i].Event != e.Event {
			t.Errorf("event %d = %q, want %q", i, got[i].Event, e.Event)
		}
		if got[i].Time.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if got[2].Records != 120 || got[2].Failed != 3 {
		t.Errorf("counts = %d/%d, want 120/3", got[2].Records, got[2].Failed)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l, _ := newTestLogger(t)

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("read %d events from a missing log", len(events))
	}
}

func TestAppendKeepsExplicitTimestamp(t *testing.T) {
	l, _ := newTestLogger(t)

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := l.Append(LogEvent{Time: ts, Event: EventLogout}); err != nil {
		t.Fatal(err)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].Time.Equal(ts) {
		t.Errorf("time = %v, want %v preserved", events[0].Time, ts)
	}
}

func TestAppendDoesNotTruncate(t *testing.T) {
	dir := t.TempDir()
	l1, err := NewLogger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l1.Append(LogEvent{Event: EventLoginSucceeded}); err != nil {
		t.Fatal(err)
	}

	// A second logger over the same directory appends to the same file.
	l2, err := NewLogger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l2.Append(LogEvent{Event: EventLogout}); err != nil {
		t.Fatal(err)
	}

	events, err := l2.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("read %d events, want 2", len(events))
	}

	if _, err := os.Stat(filepath.Join(dir, ".pvlab", "log.jsonl")); err != nil {
		t.Errorf("log file missing: %v", err)
	}
}
