package entity

import (
	"time"

	"tracker-service/pkg/calendar"
)

// Participant represents a user enrolled in a tracker under an emoji
type Participant struct {
	TrackerID string
	UserID    string
	Emoji     string
	JoinedAt  time.Time
}

// JoinDate returns the normalized day the participant joined
func (p *Participant) JoinDate() time.Time {
	return calendar.StartOfDay(p.JoinedAt)
}

// ResponsibilityWindow returns the days the participant owes check-ins for as of today.
// ok is false when nothing is owed yet.
func (p *Participant) ResponsibilityWindow(tracker *Tracker, today time.Time) (start, end time.Time, ok bool) {
	start = calendar.Max(p.JoinDate(), tracker.Start())
	end = calendar.Min(calendar.StartOfDay(today), tracker.End())
	if start.After(end) {
		return start, end, false
	}
	return start, end, true
}
