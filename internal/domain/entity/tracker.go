package entity

import (
	"time"

	"tracker-service/pkg/calendar"
)

// Frequency represents the check-in cadence of a tracker
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"  // One check-in per day
	FrequencyWeekly Frequency = "weekly" // One check-in per tracker week
)

// ParseFrequency validates a frequency string
func ParseFrequency(value string) (Frequency, error) {
	switch Frequency(value) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	default:
		return "", ErrInvalidFrequency
	}
}

const (
	// DefaultGracePeriodDays applies when a tracker is created without a grace period
	DefaultGracePeriodDays int32 = 7

	// MaxGracePeriodDays is the upper bound for the grace period
	MaxGracePeriodDays int32 = 30

	// MaxParticipants caps how many emoji slots a tracker has
	MaxParticipants = 25
)

// Tracker represents a time-boxed accountability campaign bound to one thread
type Tracker struct {
	// ChannelID is the thread the tracker lives in; at most one tracker per thread
	ChannelID   string
	DisplayName string

	// Period, both dates inclusive and normalized to UTC midnight
	StartDate time.Time
	EndDate   time.Time

	// Rules
	Frequency        Frequency
	GracePeriodDays  int32
	MaxBreaksPerWeek *int32 // nil means unbounded; daily trackers only
	MaxMisses        *int32 // nil means no ban enforcement; days for daily, weeks for weekly

	// Pinned messages
	LiveMessageID *string
	InfoMessageID *string

	// Metadata
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDaily returns true if the tracker expects a check-in every day
func (t *Tracker) IsDaily() bool {
	return t.Frequency == FrequencyDaily
}

// IsWeekly returns true if the tracker expects a check-in every tracker week
func (t *Tracker) IsWeekly() bool {
	return t.Frequency == FrequencyWeekly
}

// Start returns the normalized start date
func (t *Tracker) Start() time.Time {
	return calendar.StartOfDay(t.StartDate)
}

// End returns the normalized end date
func (t *Tracker) End() time.Time {
	return calendar.StartOfDay(t.EndDate)
}

// Contains reports whether date lies inside the tracker period
func (t *Tracker) Contains(date time.Time) bool {
	return calendar.InPeriod(date, t.StartDate, t.EndDate)
}

// HasEnded reports whether today is past the end date
func (t *Tracker) HasEnded(today time.Time) bool {
	return calendar.StartOfDay(today).After(t.End())
}

// GraceCutoff returns the latest date whose miss is final as of today
func (t *Tracker) GraceCutoff(today time.Time) time.Time {
	return calendar.AddDays(today, -int(t.GracePeriodDays))
}
