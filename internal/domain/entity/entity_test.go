package entity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tracker-service/pkg/calendar"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestResponsibilityWindow(t *testing.T) {
	tracker := &Tracker{
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-01-31"),
	}

	tests := []struct {
		name      string
		joined    time.Time
		today     string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{"joined before start", mustDate(t, "2024-12-20"), "2025-01-10", "2025-01-01", "2025-01-10", true},
		{"joined mid period", time.Date(2025, 1, 5, 15, 0, 0, 0, time.UTC), "2025-01-10", "2025-01-05", "2025-01-10", true},
		{"after end", mustDate(t, "2025-01-05"), "2025-02-15", "2025-01-05", "2025-01-31", true},
		{"not started", mustDate(t, "2024-12-20"), "2024-12-25", "2025-01-01", "2024-12-25", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Participant{JoinedAt: tt.joined}
			start, end, ok := p.ResponsibilityWindow(tracker, mustDate(t, tt.today))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if calendar.Format(start) != tt.wantStart || calendar.Format(end) != tt.wantEnd {
				t.Fatalf("window = %s..%s, want %s..%s",
					calendar.Format(start), calendar.Format(end), tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestGraceCutoff(t *testing.T) {
	tracker := &Tracker{GracePeriodDays: 2}
	got := tracker.GraceCutoff(mustDate(t, "2025-01-10"))
	if calendar.Format(got) != "2025-01-08" {
		t.Fatalf("cutoff = %s, want 2025-01-08", calendar.Format(got))
	}
}

func TestValidationErrorsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("join: %w", ErrEmojiTaken)
	if !IsValidation(err) {
		t.Fatal("wrapped validation error not recognised")
	}
	if !errors.Is(err, ErrEmojiTaken) {
		t.Fatal("errors.Is must match the sentinel")
	}
	reason, ok := ReasonOf(err)
	if !ok || reason != ReasonEmojiTaken {
		t.Fatalf("reason = %q", reason)
	}
	if IsValidation(errors.New("connection refused")) {
		t.Fatal("plain error classified as validation")
	}
}

func TestParseFrequencyAndType(t *testing.T) {
	if _, err := ParseFrequency("monthly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("err = %v", err)
	}
	if f, err := ParseFrequency("weekly"); err != nil || f != FrequencyWeekly {
		t.Fatalf("f = %q, err = %v", f, err)
	}
	if _, err := ParseCheckinType("skip"); !errors.Is(err, ErrInvalidCheckinType) {
		t.Fatalf("err = %v", err)
	}
}

func TestTrackerEmojiSet(t *testing.T) {
	if !IsTrackerEmoji("🦊") {
		t.Fatal("fox must be a tracker emoji")
	}
	if IsTrackerEmoji("not-an-emoji") {
		t.Fatal("arbitrary text accepted as emoji")
	}
	if len(TrackerEmojis) < MaxParticipants {
		t.Fatalf("only %d emojis for %d slots", len(TrackerEmojis), MaxParticipants)
	}
}
