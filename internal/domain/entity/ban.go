package entity

import "time"

// BanReasonMaxMisses is recorded when maintenance removes a participant
const BanReasonMaxMisses = "max_misses_exceeded"

// Ban blocks a user from rejoining a tracker until explicitly lifted
type Ban struct {
	TrackerID string
	UserID    string
	Reason    string
	BannedAt  time.Time
}
