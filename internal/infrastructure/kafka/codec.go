package kafka

import (
	"fmt"
	"time"

	"tracker-service/internal/domain/entity"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeEvent serialises an event as a protobuf Struct envelope
func EncodeEvent(event *entity.TrackerEvent) ([]byte, error) {
	envelope, err := structpb.NewStruct(map[string]interface{}{
		"event_id":     event.EventID,
		"event_type":   string(event.Type),
		"tracker_id":   event.TrackerID,
		"tracker_name": event.TrackerName,
		"user_id":      event.UserID,
		"actor_id":     event.ActorID,
		"emoji":        event.Emoji,
		"reason":       event.Reason,
		"date":         event.Date,
		"checkin_type": string(event.Checkin),
		"occurred_at":  event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build event envelope: %w", err)
	}

	data, err := proto.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// DecodeEvent reverses EncodeEvent
func DecodeEvent(data []byte) (*entity.TrackerEvent, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	fields := envelope.GetFields()
	str := func(key string) string {
		return fields[key].GetStringValue()
	}

	event := &entity.TrackerEvent{
		EventID:     str("event_id"),
		Type:        entity.EventType(str("event_type")),
		TrackerID:   str("tracker_id"),
		TrackerName: str("tracker_name"),
		UserID:      str("user_id"),
		ActorID:     str("actor_id"),
		Emoji:       str("emoji"),
		Reason:      str("reason"),
		Date:        str("date"),
		Checkin:     entity.CheckinType(str("checkin_type")),
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}

	if raw := str("occurred_at"); raw != "" {
		occurredAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid occurred_at: %w", err)
		}
		event.OccurredAt = occurredAt
	}

	return event, nil
}
