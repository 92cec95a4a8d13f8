package service

import (
	"context"
	"fmt"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"

	"go.uber.org/zap"
)

type alertService struct {
	mailer     service.AlertMailer
	recipients []string
	logger     *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(mailer service.AlertMailer, recipients []string, logger *zap.Logger) service.AlertService {
	return &alertService{
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
	}
}

func (s *alertService) HandleEvent(ctx context.Context, event *entity.TrackerEvent) error {
	switch event.Type {
	case entity.EventParticipantBanned:
		return s.banAlert(ctx, event)
	default:
		s.logger.Debug("Ignoring event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", string(event.Type)),
		)
		return nil
	}
}

func (s *alertService) banAlert(ctx context.Context, event *entity.TrackerEvent) error {
	if len(s.recipients) == 0 {
		s.logger.Warn("No alert recipients configured, dropping ban alert", zap.String("tracker_id", event.TrackerID))
		return nil
	}

	if err := s.mailer.SendBanAlert(ctx, s.recipients, event); err != nil {
		return fmt.Errorf("failed to send ban alert: %w", err)
	}

	s.logger.Info("Ban alert sent",
		zap.String("tracker_id", event.TrackerID),
		zap.String("user_id", event.UserID),
		zap.Int("recipients", len(s.recipients)),
	)
	return nil
}
