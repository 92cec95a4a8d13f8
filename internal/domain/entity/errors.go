package entity

import "errors"

// Reason is a stable code identifying why a user action was rejected
type Reason string

const (
	ReasonNotAThread               Reason = "NotAThread"
	ReasonNoActiveTracker          Reason = "NoActiveTracker"
	ReasonTrackerNotFound          Reason = "TrackerNotFound"
	ReasonTrackerExists            Reason = "TrackerExists"
	ReasonAlreadyParticipant       Reason = "AlreadyParticipant"
	ReasonBanned                   Reason = "Banned"
	ReasonTrackerFull              Reason = "TrackerFull"
	ReasonInvalidEmoji             Reason = "InvalidEmoji"
	ReasonEmojiTaken               Reason = "EmojiTaken"
	ReasonNotAParticipant          Reason = "NotAParticipant"
	ReasonNotBanned                Reason = "NotBanned"
	ReasonFutureDate               Reason = "FutureDate"
	ReasonOutsideTrackerPeriod     Reason = "OutsideTrackerPeriod"
	ReasonBeforeJoin               Reason = "BeforeJoin"
	ReasonGraceExpired             Reason = "GraceExpired"
	ReasonBreaksNotSupportedWeekly Reason = "BreaksNotSupportedWeekly"
	ReasonBreakLimitReached        Reason = "BreakLimitReached"
	ReasonInvalidCheckinType       Reason = "InvalidCheckinType"
	ReasonInvalidFrequency         Reason = "InvalidFrequency"
	ReasonInvalidDateRange         Reason = "InvalidDateRange"
	ReasonInvalidGracePeriod       Reason = "InvalidGracePeriod"
	ReasonInvalidLimit             Reason = "InvalidLimit"
	ReasonBreakLimitOnWeekly       Reason = "BreakLimitOnWeekly"
)

// ValidationError is a user-caused rejection. Its message is safe to show to users.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any validation error with the same reason, so errors.Is works on copies
// produced by WithMessage
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

// WithMessage returns a copy of the error with a more specific user-facing message
func (e *ValidationError) WithMessage(message string) *ValidationError {
	return &ValidationError{Reason: e.Reason, Message: message}
}

func newValidation(reason Reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

var (
	ErrNotAThread               = newValidation(ReasonNotAThread, "Trackers can only be used in threads.")
	ErrNoActiveTracker          = newValidation(ReasonNoActiveTracker, "There is no active tracker in this thread.")
	ErrTrackerNotFound          = newValidation(ReasonTrackerNotFound, "There is no tracker in this thread.")
	ErrTrackerExists            = newValidation(ReasonTrackerExists, "This thread already has a tracker. End it before creating a new one.")
	ErrAlreadyParticipant       = newValidation(ReasonAlreadyParticipant, "You are already participating in this tracker.")
	ErrBanned                   = newValidation(ReasonBanned, "You are banned from this tracker due to exceeding the maximum number of misses.")
	ErrTrackerFull              = newValidation(ReasonTrackerFull, "This tracker has reached the maximum of 25 participants.")
	ErrInvalidEmoji             = newValidation(ReasonInvalidEmoji, "The selected emoji is not available for trackers.")
	ErrEmojiTaken               = newValidation(ReasonEmojiTaken, "That emoji is already in use by another participant. Please choose a different emoji.")
	ErrNotAParticipant          = newValidation(ReasonNotAParticipant, "You are not participating in this tracker.")
	ErrNotBanned                = newValidation(ReasonNotBanned, "That user is not banned from this tracker.")
	ErrFutureDate               = newValidation(ReasonFutureDate, "Cannot check in for future dates.")
	ErrOutsideTrackerPeriod     = newValidation(ReasonOutsideTrackerPeriod, "Date is outside the tracker period.")
	ErrBeforeJoin               = newValidation(ReasonBeforeJoin, "Cannot check in for dates before you joined the tracker.")
	ErrGraceExpired             = newValidation(ReasonGraceExpired, "Cannot backfill check-ins older than the grace period.")
	ErrBreaksNotSupportedWeekly = newValidation(ReasonBreaksNotSupportedWeekly, "Break check-ins are not supported for weekly trackers.")
	ErrBreakLimitReached        = newValidation(ReasonBreakLimitReached, "Break limit reached for this week. Use done if you completed the task.")
	ErrInvalidCheckinType       = newValidation(ReasonInvalidCheckinType, "Check-in type must be done or break.")
	ErrInvalidFrequency         = newValidation(ReasonInvalidFrequency, "Frequency must be daily or weekly.")
	ErrInvalidDateRange         = newValidation(ReasonInvalidDateRange, "End date must be after start date.")
	ErrInvalidGracePeriod       = newValidation(ReasonInvalidGracePeriod, "Grace period must be between 0 and 30 days.")
	ErrInvalidLimit             = newValidation(ReasonInvalidLimit, "Limits cannot be negative.")
	ErrBreakLimitOnWeekly       = newValidation(ReasonBreakLimitOnWeekly, "Break limits only apply to daily trackers.")
)

// IsValidation reports whether err is (or wraps) a user-facing validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ReasonOf extracts the validation reason from err, if any
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
