package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/gateway"
	"tracker-service/internal/domain/repository"
	"tracker-service/internal/domain/service"
	"tracker-service/pkg/calendar"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type enrollmentService struct {
	stores    Stores
	messenger gateway.Messenger
	renderer  service.RendererService
	publisher service.EventPublisher
	settings  Settings
	policy    *bluemonday.Policy
	logger    *zap.Logger
	now       Clock
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	stores Stores,
	messenger gateway.Messenger,
	renderer service.RendererService,
	publisher service.EventPublisher,
	settings Settings,
	logger *zap.Logger,
	now Clock,
) service.EnrollmentService {
	if now == nil {
		now = time.Now
	}
	return &enrollmentService{
		stores:    stores,
		messenger: messenger,
		renderer:  renderer,
		publisher: publisher,
		settings:  settings,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger,
		now:       now,
	}
}

// CreateTracker validates the configuration, stores the tracker and pins its info message
func (s *enrollmentService) CreateTracker(ctx context.Context, input service.CreateTrackerInput) (*entity.Tracker, error) {
	channel, err := s.requireThread(ctx, input.ChannelID)
	if err != nil {
		return nil, err
	}

	if _, err := s.stores.Trackers.GetByChannelID(ctx, input.ChannelID); err == nil {
		return nil, entity.ErrTrackerExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}

	tracker, err := s.buildTracker(input, channel)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Trackers.Create(ctx, tracker); err != nil {
		if errors.Is(err, repository.ErrTrackerExists) {
			return nil, entity.ErrTrackerExists
		}
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	s.logger.Info("Tracker created",
		zap.String("tracker_id", tracker.ChannelID),
		zap.String("name", tracker.DisplayName),
		zap.String("frequency", string(tracker.Frequency)),
		zap.String("created_by", tracker.CreatedBy),
	)

	s.postInfoMessage(ctx, tracker)

	event := newEvent(entity.EventTrackerCreated, tracker, s.now())
	event.ActorID = tracker.CreatedBy
	publishEvent(ctx, s.publisher, s.logger, event)

	return tracker, nil
}

func (s *enrollmentService) buildTracker(input service.CreateTrackerInput, channel *gateway.Channel) (*entity.Tracker, error) {
	start := calendar.StartOfDay(input.StartDate)
	end := calendar.StartOfDay(input.EndDate)
	if input.StartDate.IsZero() || input.EndDate.IsZero() || !start.Before(end) {
		return nil, entity.ErrInvalidDateRange
	}

	grace := s.settings.DefaultGracePeriodDays
	if input.GracePeriodDays != nil {
		grace = *input.GracePeriodDays
	}
	if grace < 0 || grace > s.settings.MaxGracePeriodDays {
		return nil, entity.ErrInvalidGracePeriod.WithMessage(fmt.Sprintf(
			"Grace period must be between 0 and %d days.", s.settings.MaxGracePeriodDays,
		))
	}

	if input.Frequency == entity.FrequencyWeekly && input.MaxBreaksPerWeek != nil {
		return nil, entity.ErrBreakLimitOnWeekly
	}
	if (input.MaxBreaksPerWeek != nil && *input.MaxBreaksPerWeek < 0) || (input.MaxMisses != nil && *input.MaxMisses < 0) {
		return nil, entity.ErrInvalidLimit
	}
	if _, err := entity.ParseFrequency(string(input.Frequency)); err != nil {
		return nil, err
	}

	name := s.sanitizeName(input.DisplayName)
	if name == "" {
		name = s.sanitizeName(channel.Name)
	}

	now := s.now().UTC()
	return &entity.Tracker{
		ChannelID:        input.ChannelID,
		DisplayName:      name,
		StartDate:        start,
		EndDate:          end,
		Frequency:        input.Frequency,
		GracePeriodDays:  grace,
		MaxBreaksPerWeek: copyLimit(input.MaxBreaksPerWeek),
		MaxMisses:        copyLimit(input.MaxMisses),
		IsActive:         true,
		CreatedBy:        input.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// sanitizeName strips markup and leaves plain text
func (s *enrollmentService) sanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
}

func (s *enrollmentService) postInfoMessage(ctx context.Context, tracker *entity.Tracker) {
	msg := gateway.Message{Embed: &gateway.Embed{
		Title:       fmt.Sprintf("📋 %s - Tracker Info", tracker.DisplayName),
		Description: "Use `/tracker-join` to participate and `/checkin` to record your progress.",
		Color:       embedColor,
		Fields:      infoFields(tracker),
	}}

	messageID, err := s.messenger.SendMessage(ctx, tracker.ChannelID, msg)
	if err != nil {
		s.logger.Warn("Failed to send tracker info", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
		return
	}
	if err := s.messenger.PinMessage(ctx, tracker.ChannelID, messageID); err != nil {
		s.logger.Warn("Failed to pin tracker info", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
	}
	if err := s.stores.Trackers.SetInfoMessageID(ctx, tracker.ChannelID, messageID); err != nil {
		s.logger.Warn("Failed to save info message id", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
		return
	}
	tracker.InfoMessageID = &messageID
}

func infoFields(tracker *entity.Tracker) []gateway.EmbedField {
	fields := []gateway.EmbedField{
		{Name: "Period", Value: fmt.Sprintf("%s → %s", calendar.Format(tracker.StartDate), calendar.Format(tracker.EndDate))},
		{Name: "Frequency", Value: string(tracker.Frequency), Inline: true},
		{Name: "Grace Period", Value: fmt.Sprintf("%d days", tracker.GracePeriodDays), Inline: true},
	}
	if tracker.MaxBreaksPerWeek != nil {
		fields = append(fields, gateway.EmbedField{Name: "Max Breaks / Week", Value: fmt.Sprintf("%d", *tracker.MaxBreaksPerWeek), Inline: true})
	}
	if tracker.MaxMisses != nil {
		fields = append(fields, gateway.EmbedField{Name: "Max Misses", Value: fmt.Sprintf("%d", *tracker.MaxMisses), Inline: true})
	}
	return fields
}

// EndTracker removes the tracker with all of its participants, check-ins and bans
func (s *enrollmentService) EndTracker(ctx context.Context, channelID, actorID string) (*entity.Tracker, error) {
	if _, err := s.requireThread(ctx, channelID); err != nil {
		return nil, err
	}

	tracker, err := s.stores.Trackers.GetByChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.ErrTrackerNotFound
		}
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}

	if err := s.stores.Trackers.Teardown(ctx, channelID); err != nil {
		return nil, fmt.Errorf("failed to tear down tracker: %w", err)
	}
	tracker.IsActive = false

	s.logger.Info("Tracker ended",
		zap.String("tracker_id", channelID),
		zap.String("actor_id", actorID),
	)

	event := newEvent(entity.EventTrackerEnded, tracker, s.now())
	event.ActorID = actorID
	publishEvent(ctx, s.publisher, s.logger, event)

	return tracker, nil
}

// Join enrolls a user; checks run in a fixed order so the first failing rule is reported
func (s *enrollmentService) Join(ctx context.Context, channelID, userID, emoji string) (*entity.Participant, error) {
	tracker, err := s.activeTracker(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if _, err := s.stores.Participants.Get(ctx, channelID, userID); err == nil {
		return nil, entity.ErrAlreadyParticipant
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	banned, err := s.stores.Bans.Exists(ctx, channelID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban: %w", err)
	}
	if banned {
		return nil, entity.ErrBanned
	}

	count, err := s.stores.Participants.CountByTracker(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	if count >= s.settings.MaxParticipants {
		return nil, entity.ErrTrackerFull.WithMessage(fmt.Sprintf(
			"This tracker has reached the maximum of %d participants.", s.settings.MaxParticipants,
		))
	}

	if !entity.IsTrackerEmoji(emoji) {
		return nil, entity.ErrInvalidEmoji
	}

	if _, err := s.stores.Participants.GetByEmoji(ctx, channelID, emoji); err == nil {
		return nil, entity.ErrEmojiTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check emoji: %w", err)
	}

	participant := &entity.Participant{
		TrackerID: channelID,
		UserID:    userID,
		Emoji:     emoji,
		JoinedAt:  s.now().UTC(),
	}

	// The unique constraints decide races between concurrent joins
	if err := s.stores.Participants.Create(ctx, participant); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateParticipant):
			return nil, entity.ErrAlreadyParticipant
		case errors.Is(err, repository.ErrDuplicateEmoji):
			return nil, entity.ErrEmojiTaken
		default:
			return nil, fmt.Errorf("failed to create participant: %w", err)
		}
	}

	s.logger.Info("Participant joined",
		zap.String("tracker_id", channelID),
		zap.String("user_id", userID),
		zap.String("emoji", emoji),
	)

	event := newEvent(entity.EventParticipantJoined, tracker, s.now())
	event.UserID = userID
	event.Emoji = emoji
	publishEvent(ctx, s.publisher, s.logger, event)

	s.refresh(ctx, tracker)
	return participant, nil
}

// Leave removes the caller and purges their history
func (s *enrollmentService) Leave(ctx context.Context, channelID, userID string) (*entity.Participant, error) {
	return s.removeParticipant(ctx, channelID, userID, userID, entity.EventParticipantLeft)
}

// Remove is a moderator-initiated leave; the user may rejoin at once
func (s *enrollmentService) Remove(ctx context.Context, channelID, userID, actorID string) (*entity.Participant, error) {
	return s.removeParticipant(ctx, channelID, userID, actorID, entity.EventParticipantRemoved)
}

func (s *enrollmentService) removeParticipant(ctx context.Context, channelID, userID, actorID string, eventType entity.EventType) (*entity.Participant, error) {
	tracker, err := s.activeTracker(ctx, channelID)
	if err != nil {
		return nil, err
	}

	participant, err := s.stores.Participants.Get(ctx, channelID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.ErrNotAParticipant
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	if err := s.stores.Participants.Remove(ctx, channelID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove participant: %w", err)
	}

	s.logger.Info("Participant removed",
		zap.String("tracker_id", channelID),
		zap.String("user_id", userID),
		zap.String("actor_id", actorID),
		zap.String("emoji", participant.Emoji),
		zap.String("event", string(eventType)),
	)

	event := newEvent(eventType, tracker, s.now())
	event.UserID = userID
	event.ActorID = actorID
	event.Emoji = participant.Emoji
	publishEvent(ctx, s.publisher, s.logger, event)

	s.refresh(ctx, tracker)
	return participant, nil
}

// Unban lifts a ban; the user still has to join again
func (s *enrollmentService) Unban(ctx context.Context, channelID, userID, actorID string) error {
	tracker, err := s.activeTracker(ctx, channelID)
	if err != nil {
		return err
	}

	deleted, err := s.stores.Bans.Delete(ctx, channelID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}
	if !deleted {
		return entity.ErrNotBanned
	}

	s.logger.Info("Participant unbanned",
		zap.String("tracker_id", channelID),
		zap.String("user_id", userID),
		zap.String("actor_id", actorID),
	)

	event := newEvent(entity.EventParticipantUnbanned, tracker, s.now())
	event.UserID = userID
	event.ActorID = actorID
	publishEvent(ctx, s.publisher, s.logger, event)

	return nil
}

func (s *enrollmentService) requireThread(ctx context.Context, channelID string) (*gateway.Channel, error) {
	channel, err := s.messenger.FetchChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, entity.ErrNotAThread
		}
		return nil, fmt.Errorf("failed to fetch channel: %w", err)
	}
	if !channel.IsThread {
		return nil, entity.ErrNotAThread
	}
	return channel, nil
}

func (s *enrollmentService) activeTracker(ctx context.Context, channelID string) (*entity.Tracker, error) {
	if _, err := s.requireThread(ctx, channelID); err != nil {
		return nil, err
	}

	tracker, err := s.stores.Trackers.GetActiveByChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.ErrNoActiveTracker
		}
		return nil, fmt.Errorf("failed to get tracker: %w", err)
	}
	return tracker, nil
}

// refresh updates the live grid after a membership change; failures are only logged
func (s *enrollmentService) refresh(ctx context.Context, tracker *entity.Tracker) {
	if err := s.renderer.RefreshLiveGrid(ctx, tracker); err != nil {
		s.logger.Warn("Failed to refresh live grid", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
	}
}

func copyLimit(limit *int32) *int32 {
	if limit == nil {
		return nil
	}
	v := *limit
	return &v
}
