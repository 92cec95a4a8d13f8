package service

import (
	"context"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event, used when Kafka is disabled
func NewNopPublisher() service.EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, *entity.TrackerEvent) error {
	return nil
}

func newEvent(eventType entity.EventType, tracker *entity.Tracker, now time.Time) *entity.TrackerEvent {
	return &entity.TrackerEvent{
		EventID:     uuid.New().String(),
		Type:        eventType,
		TrackerID:   tracker.ChannelID,
		TrackerName: tracker.DisplayName,
		OccurredAt:  now.UTC(),
	}
}

// publishEvent never fails the caller: the state change already happened
func publishEvent(ctx context.Context, publisher service.EventPublisher, logger *zap.Logger, event *entity.TrackerEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("tracker_id", event.TrackerID),
			zap.Error(err),
		)
	}
}
