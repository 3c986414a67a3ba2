package calendar

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleCalendar = `
events:
  - name: "US CPI"
    country: "US"
    importance: "high"
    scheduled: 2024-02-05T13:30:00Z
  - name: "FOMC Minutes"
    country: "US"
    importance: "high"
    scheduled: 2024-02-07T19:00:00Z
  - name: "DE Factory Orders"
    country: "DE"
    importance: "low"
    scheduled: 2024-02-05T07:00:00Z
`

func writeCalendar(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "calendar.yaml")
	if err := os.WriteFile(path, []byte(sampleCalendar), 0o644); err != nil {
		t.Fatalf("write calendar: %v", err)
	}
	return path
}

func TestUpcomingWindow(t *testing.T) {
	src := New(writeCalendar(t))
	src.now = func() time.Time { return time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC) }

	events, err := src.Upcoming(context.Background(), 4*time.Hour)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in window, got %d", len(events))
	}
	if events[0].Name != "US CPI" {
		t.Fatalf("unexpected event %q", events[0].Name)
	}
}

func TestUpcomingIncludesJustPast(t *testing.T) {
	src := New(writeCalendar(t))
	src.now = func() time.Time { return time.Date(2024, 2, 5, 14, 0, 0, 0, time.UTC) }

	events, err := src.Upcoming(context.Background(), 1*time.Hour)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(events) != 1 || events[0].Name != "US CPI" {
		t.Fatalf("expected just-past CPI event, got %v", events)
	}
}

func TestUpcomingMissingFile(t *testing.T) {
	src := New("/nonexistent/calendar.yaml")
	if _, err := src.Upcoming(context.Background(), time.Hour); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
