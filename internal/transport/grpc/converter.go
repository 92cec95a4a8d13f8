package grpc

import (
	"math"
	"time"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"
	"tracker-service/pkg/calendar"

	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var errBadDate = entity.ErrInvalidDateRange.WithMessage("Dates must use the YYYY-MM-DD format.")

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func requiredString(req *structpb.Struct, key string) (string, error) {
	value := stringField(req, key)
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return value, nil
}

// optionalInt32 reads a whole number; absent or null yields nil
func optionalInt32(req *structpb.Struct, key string) (*int32, error) {
	value, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
		}
		v := int32(n)
		return &v, nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
}

func dateField(req *structpb.Struct, key string) (time.Time, error) {
	value, err := requiredString(req, key)
	if err != nil {
		return time.Time{}, err
	}
	date, err := calendar.Parse(value)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return date, nil
}

func optionalDate(req *structpb.Struct, key string) (*time.Time, error) {
	value := stringField(req, key)
	if value == "" {
		return nil, nil
	}
	date, err := calendar.Parse(value)
	if err != nil {
		return nil, errBadDate
	}
	return &date, nil
}

func optionalNumber(v *int32) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func optionalString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func trackerToMap(t *entity.Tracker) map[string]interface{} {
	return map[string]interface{}{
		"channel_id":          t.ChannelID,
		"display_name":        t.DisplayName,
		"start_date":          calendar.Format(t.StartDate),
		"end_date":            calendar.Format(t.EndDate),
		"frequency":           string(t.Frequency),
		"grace_period_days":   int64(t.GracePeriodDays),
		"max_breaks_per_week": optionalNumber(t.MaxBreaksPerWeek),
		"max_misses":          optionalNumber(t.MaxMisses),
		"live_message_id":     optionalString(t.LiveMessageID),
		"info_message_id":     optionalString(t.InfoMessageID),
		"is_active":           t.IsActive,
		"created_by":          t.CreatedBy,
	}
}

func participantToMap(p *entity.Participant) map[string]interface{} {
	return map[string]interface{}{
		"tracker_id": p.TrackerID,
		"user_id":    p.UserID,
		"emoji":      p.Emoji,
		"joined_at":  p.JoinedAt.UTC().Format(time.RFC3339),
	}
}

func checkinToMap(c *entity.Checkin) map[string]interface{} {
	return map[string]interface{}{
		"tracker_id":   c.TrackerID,
		"user_id":      c.UserID,
		"date":         calendar.Format(c.Date),
		"type":         string(c.Type),
		"tracker_week": optionalNumber(c.TrackerWeek),
	}
}

func reportToMap(r *service.MaintenanceReport) map[string]interface{} {
	failures := len(multierr.Errors(r.Err))
	return map[string]interface{}{
		"trackers":  r.Trackers,
		"banned":    r.Banned,
		"refreshed": r.Refreshed,
		"snapshots": r.Snapshots,
		"failures":  failures,
	}
}
