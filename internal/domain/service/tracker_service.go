package service

import (
	"context"
	"time"

	"tracker-service/internal/domain/entity"
)

// CreateTrackerInput carries the moderator's tracker configuration
type CreateTrackerInput struct {
	ChannelID        string
	DisplayName      string // defaults to the channel name
	StartDate        time.Time
	EndDate          time.Time
	Frequency        entity.Frequency
	GracePeriodDays  *int32 // nil means the default of 7
	MaxBreaksPerWeek *int32
	MaxMisses        *int32
	CreatedBy        string
}

// CheckinInput carries one check-in request
type CheckinInput struct {
	ChannelID string
	UserID    string
	Type      entity.CheckinType
	Date      *time.Time // nil means today
	MessageID string     // optional: the message that triggered the check-in, reacted to on success
}

// CheckinResult reports what was stored
type CheckinResult struct {
	Checkin *entity.Checkin
	Created bool // false when an existing row for the date was overwritten
}

// EnrollmentService manages tracker lifecycle and membership
type EnrollmentService interface {
	// CreateTracker creates a tracker in a thread and pins its info message
	CreateTracker(ctx context.Context, input CreateTrackerInput) (*entity.Tracker, error)

	// EndTracker tears down a tracker and all of its data
	EndTracker(ctx context.Context, channelID, actorID string) (*entity.Tracker, error)

	// Join enrolls a user under an emoji
	Join(ctx context.Context, channelID, userID, emoji string) (*entity.Participant, error)

	// Leave removes the caller and purges their check-ins
	Leave(ctx context.Context, channelID, userID string) (*entity.Participant, error)

	// Remove is a moderator-forced leave; it does not ban
	Remove(ctx context.Context, channelID, userID, actorID string) (*entity.Participant, error)

	// Unban lifts a ban so the user may rejoin
	Unban(ctx context.Context, channelID, userID, actorID string) error
}

// CheckinService validates and records check-ins
type CheckinService interface {
	// CheckIn validates the request and upserts the check-in for its date
	CheckIn(ctx context.Context, input CheckinInput) (*CheckinResult, error)
}

// MaintenanceReport summarises one scheduled run
type MaintenanceReport struct {
	Trackers  int
	Banned    int
	Refreshed int
	Snapshots int
	Err       error // per-tracker and per-participant failures, combined
}

// MaintenanceService runs the scheduled reconciliation entry points
type MaintenanceService interface {
	// RunDaily finalizes misses, enforces bans and refreshes live grids for all active trackers,
	// then posts weekly snapshots if today is the snapshot day
	RunDaily(ctx context.Context) *MaintenanceReport

	// RunWeeklySnapshots posts one immutable snapshot per active daily tracker
	RunWeeklySnapshots(ctx context.Context) *MaintenanceReport
}

// RendererService derives and publishes tracker grids
type RendererService interface {
	// BuildGrid derives the current grid from stored state
	BuildGrid(ctx context.Context, tracker *entity.Tracker) (*entity.Grid, error)

	// RenderText returns the grid of an active tracker as display text
	RenderText(ctx context.Context, channelID string) (string, error)

	// RefreshLiveGrid edits the pinned live message or creates and pins a new one
	RefreshLiveGrid(ctx context.Context, tracker *entity.Tracker) error

	// PostSnapshot posts a new, never-edited copy of the current grid
	PostSnapshot(ctx context.Context, tracker *entity.Tracker) error
}

// EventPublisher publishes tracker lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event *entity.TrackerEvent) error
}

// AlertService turns tracker events into moderator alerts
type AlertService interface {
	// HandleEvent reacts to one event; events it does not care about are ignored
	HandleEvent(ctx context.Context, event *entity.TrackerEvent) error
}

// AlertMailer delivers moderator alerts by email
type AlertMailer interface {
	SendBanAlert(ctx context.Context, recipients []string, event *entity.TrackerEvent) error
}
