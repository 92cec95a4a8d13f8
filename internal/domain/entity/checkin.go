package entity

import "time"

// CheckinType represents what a participant reported for a day
type CheckinType string

const (
	CheckinTypeDone  CheckinType = "done"
	CheckinTypeBreak CheckinType = "break"
)

// ParseCheckinType validates a check-in type string
func ParseCheckinType(value string) (CheckinType, error) {
	switch CheckinType(value) {
	case CheckinTypeDone:
		return CheckinTypeDone, nil
	case CheckinTypeBreak:
		return CheckinTypeBreak, nil
	default:
		return "", ErrInvalidCheckinType
	}
}

// Checkin is the record of one participant's activity on one date.
// (TrackerID, UserID, Date) is unique.
type Checkin struct {
	TrackerID string
	UserID    string
	Date      time.Time // normalized to UTC midnight
	Type      CheckinType

	// TrackerWeek is set for weekly trackers and is authoritative for weekly accounting
	TrackerWeek *int32

	CreatedAt time.Time
	UpdatedAt time.Time
}
