package service

import (
	"context"
	"errors"
	"testing"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"
	"tracker-service/internal/domain/service"
)

func TestCreateTracker(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	ctx := context.Background()

	tracker, err := h.enrollment.CreateTracker(ctx, service.CreateTrackerInput{
		ChannelID:   "t1",
		DisplayName: "<b>Run</b> & Lift",
		StartDate:   day(t, "2025-01-01"),
		EndDate:     day(t, "2025-01-31"),
		Frequency:   entity.FrequencyDaily,
		MaxMisses:   int32Ptr(3),
		CreatedBy:   "mod",
	})
	if err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}

	if tracker.DisplayName != "Run & Lift" {
		t.Errorf("display name = %q, want markup stripped", tracker.DisplayName)
	}
	if tracker.GracePeriodDays != entity.DefaultGracePeriodDays {
		t.Errorf("grace = %d, want default %d", tracker.GracePeriodDays, entity.DefaultGracePeriodDays)
	}
	if tracker.MaxBreaksPerWeek != nil {
		t.Errorf("max breaks = %d, want unbounded", *tracker.MaxBreaksPerWeek)
	}

	stored := h.tracker(t, "t1")
	if stored.InfoMessageID == nil {
		t.Fatal("info message id should be persisted")
	}
	if len(h.messenger.pins) != 1 || h.messenger.pins[0] != *stored.InfoMessageID {
		t.Fatalf("pins = %v, want the info message", h.messenger.pins)
	}
	if n := len(h.publisher.ofType(entity.EventTrackerCreated)); n != 1 {
		t.Fatalf("tracker_created events = %d, want 1", n)
	}

	// Name falls back to the channel name
	other, err := h.enrollment.CreateTracker(ctx, service.CreateTrackerInput{
		ChannelID: "t2",
		StartDate: day(t, "2025-01-01"),
		EndDate:   day(t, "2025-01-31"),
		Frequency: entity.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("CreateTracker() error = %v", err)
	}
	if other.DisplayName != "thread-t2" {
		t.Errorf("display name = %q, want channel name", other.DisplayName)
	}
}

func TestCreateTracker_Validation(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "taken", "2025-01-01", "2025-01-31", trackerOpts{})
	h.messenger.notThreads["general"] = true

	valid := func() service.CreateTrackerInput {
		return service.CreateTrackerInput{
			ChannelID: "t1",
			StartDate: day(t, "2025-01-01"),
			EndDate:   day(t, "2025-01-31"),
			Frequency: entity.FrequencyDaily,
		}
	}

	tests := []struct {
		name   string
		mutate func(*service.CreateTrackerInput)
		want   error
	}{
		{"not a thread", func(in *service.CreateTrackerInput) { in.ChannelID = "general" }, entity.ErrNotAThread},
		{"tracker exists", func(in *service.CreateTrackerInput) { in.ChannelID = "taken" }, entity.ErrTrackerExists},
		{"end before start", func(in *service.CreateTrackerInput) { in.EndDate = day(t, "2024-12-31") }, entity.ErrInvalidDateRange},
		{"same day", func(in *service.CreateTrackerInput) { in.EndDate = in.StartDate }, entity.ErrInvalidDateRange},
		{"grace too long", func(in *service.CreateTrackerInput) { in.GracePeriodDays = int32Ptr(31) }, entity.ErrInvalidGracePeriod},
		{"negative grace", func(in *service.CreateTrackerInput) { in.GracePeriodDays = int32Ptr(-1) }, entity.ErrInvalidGracePeriod},
		{"breaks on weekly", func(in *service.CreateTrackerInput) {
			in.Frequency = entity.FrequencyWeekly
			in.MaxBreaksPerWeek = int32Ptr(1)
		}, entity.ErrBreakLimitOnWeekly},
		{"negative misses", func(in *service.CreateTrackerInput) { in.MaxMisses = int32Ptr(-1) }, entity.ErrInvalidLimit},
		{"unknown frequency", func(in *service.CreateTrackerInput) { in.Frequency = "monthly" }, entity.ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid()
			tt.mutate(&input)
			if _, err := h.enrollment.CreateTracker(context.Background(), input); !errors.Is(err, tt.want) {
				t.Fatalf("CreateTracker() error = %v, want %v", err, tt.want)
			}
		})
	}

	// Grace of zero is allowed
	input := valid()
	input.GracePeriodDays = int32Ptr(0)
	if _, err := h.enrollment.CreateTracker(context.Background(), input); err != nil {
		t.Fatalf("CreateTracker(grace=0) error = %v", err)
	}
}

func TestEndTracker_TearsDownEverything(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{})
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")
	h.seedCheckin(t, "t1", "alice", "2025-01-01", entity.CheckinTypeDone, nil)
	ctx := context.Background()

	if _, err := h.enrollment.EndTracker(ctx, "t1", "mod"); err != nil {
		t.Fatalf("EndTracker() error = %v", err)
	}

	if _, err := h.stores.Trackers.GetByChannelID(ctx, "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("tracker lookup error = %v, want ErrNotFound", err)
	}
	if n, _ := h.stores.Participants.CountByTracker(ctx, "t1"); n != 0 {
		t.Fatalf("participants left = %d", n)
	}
	if list, _ := h.stores.Checkins.ListByTracker(ctx, "t1", day(t, "2025-01-01"), day(t, "2025-01-31")); len(list) != 0 {
		t.Fatalf("check-ins left = %d", len(list))
	}

	if _, err := h.enrollment.EndTracker(ctx, "t1", "mod"); !errors.Is(err, entity.ErrTrackerNotFound) {
		t.Fatalf("second EndTracker() error = %v, want ErrTrackerNotFound", err)
	}

	// The thread can host a new tracker
	h.createTracker(t, "t1", "2025-02-01", "2025-02-28", trackerOpts{})
}

func TestJoin_Validation(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxParticipants = 2
	h := newHarnessWithSettings(t, day(t, "2025-01-01"), settings)
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{})
	h.createTracker(t, "full", "2025-01-01", "2025-01-31", trackerOpts{})
	h.messenger.notThreads["general"] = true
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")
	h.joinOn(t, "2025-01-01", "full", "alice", "🦊")
	h.joinOn(t, "2025-01-01", "full", "bob", "🐶")
	if err := h.stores.Bans.BanParticipant(context.Background(), &entity.Ban{TrackerID: "t1", UserID: "mallory", Reason: entity.BanReasonMaxMisses}); err != nil {
		t.Fatalf("BanParticipant() error = %v", err)
	}

	tests := []struct {
		name      string
		channelID string
		userID    string
		emoji     string
		want      error
	}{
		{"not a thread", "general", "carol", "🐱", entity.ErrNotAThread},
		{"no tracker", "empty-thread", "carol", "🐱", entity.ErrNoActiveTracker},
		{"already joined", "t1", "alice", "🐱", entity.ErrAlreadyParticipant},
		{"banned", "t1", "mallory", "🐱", entity.ErrBanned},
		{"full", "full", "carol", "🐱", entity.ErrTrackerFull},
		{"not in set", "t1", "carol", "💩", entity.ErrInvalidEmoji},
		{"emoji taken", "t1", "carol", "🦊", entity.ErrEmojiTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.enrollment.Join(context.Background(), tt.channelID, tt.userID, tt.emoji); !errors.Is(err, tt.want) {
				t.Fatalf("Join() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJoin_SameEmojiInDifferentTracker(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{})
	h.createTracker(t, "t2", "2025-01-01", "2025-01-31", trackerOpts{})
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")

	if _, err := h.enrollment.Join(context.Background(), "t1", "bob", "🦊"); !errors.Is(err, entity.ErrEmojiTaken) {
		t.Fatalf("Join(t1) error = %v, want ErrEmojiTaken", err)
	}

	participant, err := h.enrollment.Join(context.Background(), "t2", "bob", "🦊")
	if err != nil {
		t.Fatalf("Join(t2) error = %v", err)
	}
	if participant.Emoji != "🦊" {
		t.Fatalf("emoji = %s", participant.Emoji)
	}
}

func TestLeave_RejoinStartsWithCleanHistory(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{})
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")
	h.setToday(t, "2025-01-03")
	ctx := context.Background()

	if _, err := checkinOn(t, h, "t1", "alice", "2025-01-02", entity.CheckinTypeDone); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	left, err := h.enrollment.Leave(ctx, "t1", "alice")
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if left.Emoji != "🦊" {
		t.Fatalf("freed emoji = %s, want 🦊", left.Emoji)
	}
	if _, err := h.enrollment.Leave(ctx, "t1", "alice"); !errors.Is(err, entity.ErrNotAParticipant) {
		t.Fatalf("second Leave() error = %v, want ErrNotAParticipant", err)
	}

	if _, err := h.enrollment.Join(ctx, "t1", "alice", "🦊"); err != nil {
		t.Fatalf("rejoin error = %v", err)
	}

	grid, err := h.renderer.BuildGrid(ctx, h.tracker(t, "t1"))
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}
	for _, row := range grid.Rows {
		if row.Cells[0] == entity.CellDone {
			t.Fatalf("row %s shows a check-in from before the rejoin", row.Label)
		}
	}
}

func TestRemove_DoesNotBan(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{})
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")
	ctx := context.Background()

	if _, err := h.enrollment.Remove(ctx, "t1", "alice", "mod"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	events := h.publisher.ofType(entity.EventParticipantRemoved)
	if len(events) != 1 || events[0].ActorID != "mod" || events[0].Emoji != "🦊" {
		t.Fatalf("removed events = %+v", events)
	}
	if _, err := h.enrollment.Join(ctx, "t1", "alice", "🦊"); err != nil {
		t.Fatalf("rejoin after remove error = %v", err)
	}
}

func TestBannedUserMustBeUnbannedBeforeRejoin(t *testing.T) {
	h := newHarness(t, day(t, "2025-01-01"))
	h.createTracker(t, "t1", "2025-01-01", "2025-01-31", trackerOpts{grace: int32Ptr(2), maxMisses: int32Ptr(1)})
	h.joinOn(t, "2025-01-01", "t1", "alice", "🦊")
	h.setToday(t, "2025-01-10")
	ctx := context.Background()

	if report := h.maintenance.RunDaily(ctx); report.Banned != 1 {
		t.Fatalf("banned = %d, want 1 (err %v)", report.Banned, report.Err)
	}

	if _, err := h.enrollment.Join(ctx, "t1", "alice", "🦊"); !errors.Is(err, entity.ErrBanned) {
		t.Fatalf("Join() before unban error = %v, want ErrBanned", err)
	}
	if err := h.enrollment.Unban(ctx, "t1", "bob", "mod"); !errors.Is(err, entity.ErrNotBanned) {
		t.Fatalf("Unban(bob) error = %v, want ErrNotBanned", err)
	}
	if err := h.enrollment.Unban(ctx, "t1", "alice", "mod"); err != nil {
		t.Fatalf("Unban() error = %v", err)
	}
	if _, err := h.enrollment.Join(ctx, "t1", "alice", "🦊"); err != nil {
		t.Fatalf("Join() after unban error = %v", err)
	}
}
