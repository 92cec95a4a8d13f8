package service

import (
	"time"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"
)

// Clock returns the current time; injected so tests can pin "today"
type Clock func() time.Time

// Stores groups the tracker collections
type Stores struct {
	Trackers     repository.TrackerRepository
	Participants repository.ParticipantRepository
	Checkins     repository.CheckinRepository
	Bans         repository.BanRepository
	Snapshots    repository.SnapshotLedger
}

// Settings holds tunables shared by the tracker services
type Settings struct {
	MaxParticipants        int
	DefaultGracePeriodDays int32
	MaxGracePeriodDays     int32
	LiveWindowDays         int
	DisplayLimit           int

	// Daily maintenance also posts snapshots when it runs on this weekday
	SnapshotOnDaily bool
	SnapshotWeekday time.Weekday
}

// DefaultSettings returns the production defaults
func DefaultSettings() Settings {
	return Settings{
		MaxParticipants:        entity.MaxParticipants,
		DefaultGracePeriodDays: entity.DefaultGracePeriodDays,
		MaxGracePeriodDays:     entity.MaxGracePeriodDays,
		LiveWindowDays:         14,
		DisplayLimit:           4000,
		SnapshotOnDaily:        true,
		SnapshotWeekday:        time.Sunday,
	}
}
