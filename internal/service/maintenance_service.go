package service

import (
	"context"
	"fmt"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/gateway"
	"tracker-service/internal/domain/service"
	"tracker-service/pkg/calendar"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type maintenanceService struct {
	stores    Stores
	messenger gateway.Messenger
	renderer  service.RendererService
	publisher service.EventPublisher
	settings  Settings
	logger    *zap.Logger
	now       Clock
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	stores Stores,
	messenger gateway.Messenger,
	renderer service.RendererService,
	publisher service.EventPublisher,
	settings Settings,
	logger *zap.Logger,
	now Clock,
) service.MaintenanceService {
	if now == nil {
		now = time.Now
	}
	return &maintenanceService{
		stores:    stores,
		messenger: messenger,
		renderer:  renderer,
		publisher: publisher,
		settings:  settings,
		logger:    logger,
		now:       now,
	}
}

// RunDaily reconciles every active tracker. A failing tracker is recorded in the report
// and the run moves on to the next one.
func (s *maintenanceService) RunDaily(ctx context.Context) *service.MaintenanceReport {
	report := &service.MaintenanceReport{}
	today := calendar.StartOfDay(s.now())

	trackers, err := s.stores.Trackers.ListActive(ctx)
	if err != nil {
		report.Err = fmt.Errorf("failed to list active trackers: %w", err)
		return report
	}

	s.logger.Info("Running daily maintenance",
		zap.Int("trackers", len(trackers)),
		zap.String("today", calendar.Format(today)),
	)

	for _, tracker := range trackers {
		if ctx.Err() != nil {
			report.Err = multierr.Append(report.Err, ctx.Err())
			break
		}
		report.Trackers++

		err := safely(func() error {
			return s.reconcileTracker(ctx, tracker, today, report)
		})
		if err != nil {
			s.logger.Error("Tracker maintenance failed", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
			report.Err = multierr.Append(report.Err, fmt.Errorf("tracker %s: %w", tracker.ChannelID, err))
		}
	}

	if s.settings.SnapshotOnDaily && today.Weekday() == s.settings.SnapshotWeekday {
		snapshots := s.RunWeeklySnapshots(ctx)
		report.Snapshots = snapshots.Snapshots
		report.Err = multierr.Append(report.Err, snapshots.Err)
	}

	s.logger.Info("Daily maintenance finished",
		zap.Int("trackers", report.Trackers),
		zap.Int("banned", report.Banned),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("snapshots", report.Snapshots),
		zap.Int("errors", len(multierr.Errors(report.Err))),
	)
	return report
}

// reconcileTracker enforces bans when the tracker has a miss limit, then always refreshes the live grid
func (s *maintenanceService) reconcileTracker(ctx context.Context, tracker *entity.Tracker, today time.Time, report *service.MaintenanceReport) error {
	var errs error

	if tracker.MaxMisses != nil {
		participants, err := s.stores.Participants.ListByTracker(ctx, tracker.ChannelID)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}

		for _, participant := range participants {
			banned, err := s.enforce(ctx, tracker, participant, today)
			if err != nil {
				s.logger.Error("Failed to check participant",
					zap.String("tracker_id", tracker.ChannelID),
					zap.String("user_id", participant.UserID),
					zap.Error(err),
				)
				errs = multierr.Append(errs, fmt.Errorf("participant %s: %w", participant.UserID, err))
				continue
			}
			if banned {
				report.Banned++
			}
		}
	}

	if err := s.renderer.RefreshLiveGrid(ctx, tracker); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to refresh live grid: %w", err))
	} else {
		report.Refreshed++
	}
	return errs
}

// enforce counts the participant's final misses and bans when they exceed the limit
func (s *maintenanceService) enforce(ctx context.Context, tracker *entity.Tracker, participant *entity.Participant, today time.Time) (bool, error) {
	start, end, ok := participant.ResponsibilityWindow(tracker, today)
	if !ok {
		return false, nil
	}

	checkins, err := s.stores.Checkins.ListByParticipant(ctx, tracker.ChannelID, participant.UserID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to list check-ins: %w", err)
	}

	misses := cadenceFor(tracker).finalMisses(tracker, start, end, today, checkins)
	limit := int(*tracker.MaxMisses)
	if misses <= limit {
		return false, nil
	}

	ban := &entity.Ban{
		TrackerID: tracker.ChannelID,
		UserID:    participant.UserID,
		Reason:    entity.BanReasonMaxMisses,
		BannedAt:  s.now().UTC(),
	}
	if err := s.stores.Bans.BanParticipant(ctx, ban); err != nil {
		return false, fmt.Errorf("failed to ban participant: %w", err)
	}

	s.logger.Info("Participant banned",
		zap.String("tracker_id", tracker.ChannelID),
		zap.String("user_id", participant.UserID),
		zap.Int("final_misses", misses),
		zap.Int("max_misses", limit),
	)

	s.notifyBan(ctx, tracker, participant, limit)

	event := newEvent(entity.EventParticipantBanned, tracker, s.now())
	event.UserID = participant.UserID
	event.Emoji = participant.Emoji
	event.Reason = entity.BanReasonMaxMisses
	publishEvent(ctx, s.publisher, s.logger, event)

	return true, nil
}

func (s *maintenanceService) notifyBan(ctx context.Context, tracker *entity.Tracker, participant *entity.Participant, limit int) {
	now := s.now().UTC()
	msg := gateway.Message{Embed: &gateway.Embed{
		Title: "🚫 Participant Removed",
		Description: fmt.Sprintf(
			"<@%s> has been removed from the tracker for exceeding the maximum number of misses (%d). Their emoji %s is now available for others.",
			participant.UserID, limit, participant.Emoji,
		),
		Color:     0xed4245,
		Timestamp: &now,
	}}

	if _, err := s.messenger.SendMessage(ctx, tracker.ChannelID, msg); err != nil {
		s.logger.Warn("Failed to send ban notification",
			zap.String("tracker_id", tracker.ChannelID),
			zap.String("user_id", participant.UserID),
			zap.Error(err),
		)
	}
}

// RunWeeklySnapshots posts one snapshot per active daily tracker per ISO week.
// The ledger makes repeated triggers within a week no-ops.
func (s *maintenanceService) RunWeeklySnapshots(ctx context.Context) *service.MaintenanceReport {
	report := &service.MaintenanceReport{}

	trackers, err := s.stores.Trackers.ListActiveByFrequency(ctx, entity.FrequencyDaily)
	if err != nil {
		report.Err = fmt.Errorf("failed to list daily trackers: %w", err)
		return report
	}

	period := snapshotPeriod(s.now())
	for _, tracker := range trackers {
		if ctx.Err() != nil {
			report.Err = multierr.Append(report.Err, ctx.Err())
			break
		}
		report.Trackers++

		posted, err := s.snapshot(ctx, tracker, period)
		if err != nil {
			s.logger.Error("Snapshot failed", zap.String("tracker_id", tracker.ChannelID), zap.Error(err))
			report.Err = multierr.Append(report.Err, fmt.Errorf("tracker %s: %w", tracker.ChannelID, err))
			continue
		}
		if posted {
			report.Snapshots++
		}
	}

	s.logger.Info("Weekly snapshots finished",
		zap.String("period", period),
		zap.Int("trackers", report.Trackers),
		zap.Int("snapshots", report.Snapshots),
	)
	return report
}

func (s *maintenanceService) snapshot(ctx context.Context, tracker *entity.Tracker, period string) (bool, error) {
	claimed, err := s.stores.Snapshots.MarkPosted(ctx, tracker.ChannelID, period)
	if err != nil {
		return false, fmt.Errorf("failed to claim snapshot: %w", err)
	}
	if !claimed {
		return false, nil
	}

	err = safely(func() error {
		return s.renderer.PostSnapshot(ctx, tracker)
	})
	if err != nil {
		if releaseErr := s.stores.Snapshots.Release(ctx, tracker.ChannelID, period); releaseErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to release snapshot claim: %w", releaseErr))
		}
		return false, err
	}
	return true, nil
}

// snapshotPeriod keys a snapshot by ISO week, e.g. 2025-W03
func snapshotPeriod(now time.Time) string {
	year, week := now.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// safely converts a panic inside fn into an error
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
