package app

import (
	"testing"
	"time"

	"tracker-service/internal/config"
)

func TestSettingsFromConfig(t *testing.T) {
	settings, err := settingsFromConfig(&config.TrackerConfig{
		MaxParticipants:        10,
		DefaultGracePeriodDays: 0,
		LiveWindowDays:         7,
		SnapshotOnDaily:        true,
		SnapshotWeekday:        "Saturday",
	})
	if err != nil {
		t.Fatalf("settingsFromConfig() error = %v", err)
	}

	if settings.MaxParticipants != 10 || settings.LiveWindowDays != 7 {
		t.Fatalf("settings = %+v", settings)
	}
	if settings.DefaultGracePeriodDays != 0 {
		t.Fatalf("grace = %d, an explicit zero must be kept", settings.DefaultGracePeriodDays)
	}
	if settings.MaxGracePeriodDays != 30 || settings.DisplayLimit != 4000 {
		t.Fatalf("unset values should keep defaults: %+v", settings)
	}
	if settings.SnapshotWeekday != time.Saturday {
		t.Fatalf("weekday = %v", settings.SnapshotWeekday)
	}

	if _, err := settingsFromConfig(&config.TrackerConfig{SnapshotWeekday: "someday"}); err == nil {
		t.Fatal("expected an error for an unknown weekday")
	}
}
