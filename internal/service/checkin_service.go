package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/gateway"
	"tracker-service/internal/domain/repository"
	"tracker-service/internal/domain/service"
	"tracker-service/pkg/calendar"

	"go.uber.org/zap"
)

const checkinReaction = "✅"

type checkinService struct {
	stores    Stores
	messenger gateway.Messenger
	renderer  service.RendererService
	publisher service.EventPublisher
	logger    *zap.Logger
	now       Clock
}

// NewCheckinService creates a new check-in service
func NewCheckinService(
	stores Stores,
	messenger gateway.Messenger,
	renderer service.RendererService,
	publisher service.EventPublisher,
	logger *zap.Logger,
	now Clock,
) service.CheckinService {
	if now == nil {
		now = time.Now
	}
	return &checkinService{
		stores:    stores,
		messenger: messenger,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}

// CheckIn validates the request in a fixed order and upserts the check-in for its date.
// Resubmitting a date overwrites the type.
func (s *checkinService) CheckIn(ctx context.Context, input service.CheckinInput) (*service.CheckinResult, error) {
	if _, err := entity.ParseCheckinType(string(input.Type)); err != nil {
		return nil, err
	}

	tracker, err := s.stores.Trackers.GetActiveByChannelID(ctx, input.ChannelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.ErrNoActiveTracker
		}
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}

	participant, err := s.stores.Participants.Get(ctx, tracker.ChannelID, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.ErrNotAParticipant
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	today := calendar.StartOfDay(s.now())
	date := today
	if input.Date != nil {
		date = calendar.StartOfDay(*input.Date)
	}

	if err := validateDate(tracker, participant, date, today); err != nil {
		return nil, err
	}

	strategy := cadenceFor(tracker)
	if err := strategy.validateCheckin(ctx, s.stores.Checkins, tracker, input.UserID, input.Type, date); err != nil {
		return nil, err
	}

	checkin := &entity.Checkin{
		TrackerID:   tracker.ChannelID,
		UserID:      input.UserID,
		Date:        date,
		Type:        input.Type,
		TrackerWeek: strategy.trackerWeek(tracker, date, input.Type),
	}

	created, err := s.stores.Checkins.Upsert(ctx, checkin)
	if err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	s.logger.Info("Check-in recorded",
		zap.String("tracker_id", tracker.ChannelID),
		zap.String("user_id", input.UserID),
		zap.String("date", calendar.Format(date)),
		zap.String("type", string(input.Type)),
		zap.Bool("created", created),
	)

	if input.MessageID != "" {
		if err := s.messenger.React(ctx, tracker.ChannelID, input.MessageID, checkinReaction); err != nil {
			s.logger.Warn("Failed to react to check-in message",
				zap.String("tracker_id", tracker.ChannelID),
				zap.String("message_id", input.MessageID),
				zap.Error(err),
			)
		}
	}

	event := newEvent(entity.EventCheckinRecorded, tracker, s.now())
	event.UserID = input.UserID
	event.Emoji = participant.Emoji
	event.Date = calendar.Format(date)
	event.Checkin = input.Type
	publishEvent(ctx, s.publisher, s.logger, event)

	if err := s.renderer.RefreshLiveGrid(ctx, tracker); err != nil {
		s.logger.Warn("Failed to refresh live grid", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
	}

	return &service.CheckinResult{Checkin: checkin, Created: created}, nil
}

// validateDate applies the rules shared by every frequency
func validateDate(tracker *entity.Tracker, participant *entity.Participant, date, today time.Time) error {
	if date.After(today) {
		return entity.ErrFutureDate
	}
	if !tracker.Contains(date) {
		return entity.ErrOutsideTrackerPeriod
	}
	if date.Before(participant.JoinDate()) {
		return entity.ErrBeforeJoin
	}
	if calendar.DaysSince(today, date) > int(tracker.GracePeriodDays) {
		return entity.ErrGraceExpired.WithMessage(fmt.Sprintf(
			"Cannot backfill check-ins older than %d days.", tracker.GracePeriodDays,
		))
	}
	return nil
}
