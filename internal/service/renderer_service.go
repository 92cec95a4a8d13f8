package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/gateway"
	"tracker-service/internal/domain/repository"
	"tracker-service/internal/domain/service"
	"tracker-service/pkg/calendar"
	"unicode/utf16"

	"go.uber.org/zap"
)

const (
	embedColor      = 0x5865f2
	liveLegend      = "✅ Done • 🟨 Break • ⬜ Missing • ❌ Final Miss"
	emptyTrackerMsg = "No participants yet. Use `/tracker-join` to participate!"
)

type rendererService struct {
	stores    Stores
	messenger gateway.Messenger
	settings  Settings
	logger    *zap.Logger
	now       Clock
}

// NewRendererService creates a new renderer service
func NewRendererService(
	stores Stores,
	messenger gateway.Messenger,
	settings Settings,
	logger *zap.Logger,
	now Clock,
) service.RendererService {
	if now == nil {
		now = time.Now
	}
	return &rendererService{
		stores:    stores,
		messenger: messenger,
		settings:  settings,
		logger:    logger,
		now:       now,
	}
}

// BuildGrid derives the grid from stored participants and check-ins
func (s *rendererService) BuildGrid(ctx context.Context, tracker *entity.Tracker) (*entity.Grid, error) {
	participants, err := s.stores.Participants.ListByTracker(ctx, tracker.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	now := s.now()
	grid := &entity.Grid{
		TrackerID:   tracker.ChannelID,
		Title:       tracker.DisplayName,
		Frequency:   tracker.Frequency,
		Columns:     make([]string, 0, len(participants)),
		GeneratedAt: now.UTC(),
	}
	for _, p := range participants {
		grid.Columns = append(grid.Columns, p.Emoji)
	}
	if len(participants) == 0 {
		return grid, nil
	}

	rows, err := cadenceFor(tracker).gridRows(ctx, s.stores.Checkins, tracker, participants, calendar.StartOfDay(now), s.settings.LiveWindowDays)
	if err != nil {
		return nil, err
	}
	grid.Rows = rows
	return grid, nil
}

// RenderText returns the grid of the channel's active tracker as text
func (s *rendererService) RenderText(ctx context.Context, channelID string) (string, error) {
	tracker, err := s.stores.Trackers.GetActiveByChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", entity.ErrNoActiveTracker
		}
		return "", fmt.Errorf("failed to get tracker: %w", err)
	}

	grid, err := s.BuildGrid(ctx, tracker)
	if err != nil {
		return "", err
	}
	return s.gridText(grid), nil
}

// RefreshLiveGrid edits the stored live message; any failure to reach it falls back to
// posting and pinning a new one, whose id is then persisted
func (s *rendererService) RefreshLiveGrid(ctx context.Context, tracker *entity.Tracker) error {
	if !tracker.IsActive {
		return nil
	}

	msg, err := s.liveMessage(ctx, tracker)
	if err != nil {
		return err
	}

	if tracker.LiveMessageID != nil {
		err := s.editLive(ctx, tracker.ChannelID, *tracker.LiveMessageID, msg)
		if err == nil {
			return nil
		}
		s.logger.Warn("Live grid message unavailable, posting a new one",
			zap.String("tracker_id", tracker.ChannelID),
			zap.String("message_id", *tracker.LiveMessageID),
			zap.Error(err),
		)
	}

	messageID, err := s.messenger.SendMessage(ctx, tracker.ChannelID, msg)
	if err != nil {
		return fmt.Errorf("failed to send live grid: %w", err)
	}

	if err := s.messenger.PinMessage(ctx, tracker.ChannelID, messageID); err != nil {
		s.logger.Warn("Failed to pin live grid",
			zap.String("tracker_id", tracker.ChannelID),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	if err := s.stores.Trackers.SetLiveMessageID(ctx, tracker.ChannelID, messageID); err != nil {
		return fmt.Errorf("failed to save live message id: %w", err)
	}
	tracker.LiveMessageID = &messageID

	s.logger.Info("Live grid posted",
		zap.String("tracker_id", tracker.ChannelID),
		zap.String("message_id", messageID),
	)
	return nil
}

func (s *rendererService) editLive(ctx context.Context, channelID, messageID string, msg gateway.Message) error {
	if _, err := s.messenger.FetchMessage(ctx, channelID, messageID); err != nil {
		return fmt.Errorf("failed to fetch live grid: %w", err)
	}
	if err := s.messenger.EditMessage(ctx, channelID, messageID, msg); err != nil {
		return fmt.Errorf("failed to edit live grid: %w", err)
	}
	return nil
}

// PostSnapshot posts the grid as a new message that is never edited afterwards
func (s *rendererService) PostSnapshot(ctx context.Context, tracker *entity.Tracker) error {
	grid, err := s.BuildGrid(ctx, tracker)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	msg := gateway.Message{Embed: &gateway.Embed{
		Title:       fmt.Sprintf("📸 %s - Weekly Snapshot", tracker.DisplayName),
		Description: s.description(grid),
		Color:       embedColor,
		Footer:      fmt.Sprintf("Week ending %s • 📸 Snapshot (immutable)", now.Format("Jan 2, 2006")),
		Timestamp:   &now,
	}}

	messageID, err := s.messenger.SendMessage(ctx, tracker.ChannelID, msg)
	if err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}

	s.logger.Info("Snapshot posted",
		zap.String("tracker_id", tracker.ChannelID),
		zap.String("message_id", messageID),
	)
	return nil
}

func (s *rendererService) liveMessage(ctx context.Context, tracker *entity.Tracker) (gateway.Message, error) {
	grid, err := s.BuildGrid(ctx, tracker)
	if err != nil {
		return gateway.Message{}, err
	}

	now := s.now().UTC()
	return gateway.Message{Embed: &gateway.Embed{
		Title:       fmt.Sprintf("📊 %s - Live Tracker", tracker.DisplayName),
		Description: s.description(grid),
		Color:       embedColor,
		Footer:      liveLegend,
		Timestamp:   &now,
	}}, nil
}

func (s *rendererService) description(grid *entity.Grid) string {
	if len(grid.Columns) == 0 {
		return emptyTrackerMsg
	}
	return "```\n" + s.gridText(grid) + "```"
}

// gridText draws the header of emojis followed by one line per row.
// Text over the display limit is replaced by a short notice.
func (s *rendererService) gridText(grid *entity.Grid) string {
	if len(grid.Columns) == 0 {
		return emptyTrackerMsg
	}

	var b strings.Builder
	for _, emoji := range grid.Columns {
		b.WriteString(emoji)
		b.WriteString(" ")
	}
	b.WriteString("\n")

	for _, row := range grid.Rows {
		for _, cell := range row.Cells {
			b.WriteString(cell.Symbol())
			b.WriteString(" ")
		}
		b.WriteString(row.Label)
		b.WriteString("\n")
	}

	text := b.String()
	if s.settings.DisplayLimit > 0 && displayLength(text) > s.settings.DisplayLimit {
		return fmt.Sprintf("Tracker too large to display (%d participants)\nUse individual commands to check progress.", len(grid.Columns))
	}
	return text
}

// displayLength counts UTF-16 code units, the unit the messaging platform limits on
func displayLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}
