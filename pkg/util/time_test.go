package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-02-05T14:30:00Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 2, 5, 14, 30, 0, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseWindowDefault(t *testing.T) {
	def := time.Hour
	if got := ParseWindow("", def); got != def {
		t.Fatalf("expected default, got %v", got)
	}
	if got := ParseWindow("bogus", def); got != def {
		t.Fatalf("expected default for invalid input, got %v", got)
	}
	if got := ParseWindow("15m", def); got != 15*time.Minute {
		t.Fatalf("expected 15m, got %v", got)
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Fatalf("saturday should be weekend")
	}
	if IsWeekend(mon) {
		t.Fatalf("monday should not be weekend")
	}
}
