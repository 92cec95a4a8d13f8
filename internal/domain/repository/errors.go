package repository

import "errors"

var (
	// ErrNotFound is returned by point lookups that match no row
	ErrNotFound = errors.New("record not found")

	// ErrTrackerExists is returned when a channel already has a tracker
	ErrTrackerExists = errors.New("tracker already exists for channel")

	// ErrDuplicateParticipant is returned when (tracker, user) is already enrolled
	ErrDuplicateParticipant = errors.New("participant already exists")

	// ErrDuplicateEmoji is returned when (tracker, emoji) is already held
	ErrDuplicateEmoji = errors.New("emoji already taken in tracker")
)
