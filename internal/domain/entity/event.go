package entity

import "time"

// EventType identifies a tracker lifecycle event published to the event stream
type EventType string

const (
	EventTrackerCreated      EventType = "tracker_created"
	EventTrackerEnded        EventType = "tracker_ended"
	EventParticipantJoined   EventType = "participant_joined"
	EventParticipantLeft     EventType = "participant_left"
	EventParticipantRemoved  EventType = "participant_removed"
	EventParticipantBanned   EventType = "participant_banned"
	EventParticipantUnbanned EventType = "participant_unbanned"
	EventCheckinRecorded     EventType = "checkin_recorded"
)

// TrackerEvent is the payload consumed by downstream services (alerts, analytics)
type TrackerEvent struct {
	EventID     string
	Type        EventType
	TrackerID   string
	TrackerName string
	UserID      string
	ActorID     string
	Emoji       string
	Reason      string
	Date        string // YYYY-MM-DD for check-in events
	Checkin     CheckinType
	OccurredAt  time.Time
}
