package service

import (
	"context"
	"fmt"
	"time"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"
	"tracker-service/pkg/calendar"
)

// cadence holds the rules that differ between daily and weekly trackers
type cadence interface {
	// trackerWeek returns the week index to store on a check-in, or nil
	trackerWeek(tracker *entity.Tracker, date time.Time, checkinType entity.CheckinType) *int32

	// validateCheckin applies the frequency-specific check-in rules
	validateCheckin(ctx context.Context, checkins repository.CheckinRepository, tracker *entity.Tracker, userID string, checkinType entity.CheckinType, date time.Time) error

	// finalMisses counts periods in [start, end] that are past the grace cutoff and have no check-in
	finalMisses(tracker *entity.Tracker, start, end, today time.Time, checkins []*entity.Checkin) int

	// gridRows derives the visible rows of the grid
	gridRows(ctx context.Context, checkins repository.CheckinRepository, tracker *entity.Tracker, participants []*entity.Participant, today time.Time, windowDays int) ([]entity.GridRow, error)
}

func cadenceFor(tracker *entity.Tracker) cadence {
	if tracker.IsWeekly() {
		return weeklyCadence{}
	}
	return dailyCadence{}
}

type dailyCadence struct{}

func (dailyCadence) trackerWeek(tracker *entity.Tracker, date time.Time, checkinType entity.CheckinType) *int32 {
	// Breaks carry their week so the weekly break limit can be audited from the row alone
	if checkinType != entity.CheckinTypeBreak {
		return nil
	}
	week := int32(calendar.TrackerWeek(date, tracker.Start()))
	return &week
}

func (dailyCadence) validateCheckin(ctx context.Context, checkins repository.CheckinRepository, tracker *entity.Tracker, userID string, checkinType entity.CheckinType, date time.Time) error {
	if checkinType != entity.CheckinTypeBreak || tracker.MaxBreaksPerWeek == nil {
		return nil
	}

	week := calendar.TrackerWeek(date, tracker.Start())
	from := calendar.WeekStart(week, tracker.Start())
	to := calendar.WeekEnd(week, tracker.Start())

	count, err := checkins.CountByType(ctx, tracker.ChannelID, userID, entity.CheckinTypeBreak, from, to)
	if err != nil {
		return fmt.Errorf("failed to count breaks: %w", err)
	}

	limit := int(*tracker.MaxBreaksPerWeek)
	if count >= limit {
		return entity.ErrBreakLimitReached.WithMessage(fmt.Sprintf(
			"Break limit reached for this week (%d/%d breaks used). Use done if you completed the task.",
			count, limit,
		))
	}
	return nil
}

func (dailyCadence) finalMisses(tracker *entity.Tracker, start, end, today time.Time, checkins []*entity.Checkin) int {
	covered := make(map[string]struct{}, len(checkins))
	for _, c := range checkins {
		covered[calendar.Format(c.Date)] = struct{}{}
	}

	cutoff := tracker.GraceCutoff(today)
	misses := 0
	for day := calendar.StartOfDay(start); !day.After(end) && !day.After(cutoff); day = calendar.AddDays(day, 1) {
		if _, ok := covered[calendar.Format(day)]; !ok {
			misses++
		}
	}
	return misses
}

func (dailyCadence) gridRows(ctx context.Context, checkins repository.CheckinRepository, tracker *entity.Tracker, participants []*entity.Participant, today time.Time, windowDays int) ([]entity.GridRow, error) {
	windowEnd := calendar.Min(today, tracker.End())
	windowStart := calendar.Max(calendar.AddDays(windowEnd, -(windowDays - 1)), tracker.Start())
	if windowStart.After(windowEnd) {
		return nil, nil
	}

	list, err := checkins.ListByTracker(ctx, tracker.ChannelID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	byCell := make(map[string]entity.CheckinType, len(list))
	for _, c := range list {
		byCell[c.UserID+"|"+calendar.Format(c.Date)] = c.Type
	}

	var rows []entity.GridRow
	for day := windowStart; !day.After(windowEnd); day = calendar.AddDays(day, 1) {
		row := entity.GridRow{
			Label: day.Format("Jan 02"),
			Date:  day,
			Cells: make([]entity.CellState, len(participants)),
		}
		for i, p := range participants {
			row.Cells[i] = dailyCell(tracker, p, day, today, byCell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func dailyCell(tracker *entity.Tracker, p *entity.Participant, day, today time.Time, byCell map[string]entity.CheckinType) entity.CellState {
	switch byCell[p.UserID+"|"+calendar.Format(day)] {
	case entity.CheckinTypeDone:
		return entity.CellDone
	case entity.CheckinTypeBreak:
		return entity.CellBreak
	}

	start, end, ok := p.ResponsibilityWindow(tracker, today)
	if ok && calendar.InPeriod(day, start, end) && calendar.DaysSince(today, day) > int(tracker.GracePeriodDays) {
		return entity.CellFinalMiss
	}
	return entity.CellMissing
}

type weeklyCadence struct{}

func (weeklyCadence) trackerWeek(tracker *entity.Tracker, date time.Time, _ entity.CheckinType) *int32 {
	week := int32(calendar.TrackerWeek(date, tracker.Start()))
	return &week
}

func (weeklyCadence) validateCheckin(_ context.Context, _ repository.CheckinRepository, _ *entity.Tracker, _ string, checkinType entity.CheckinType, _ time.Time) error {
	if checkinType == entity.CheckinTypeBreak {
		return entity.ErrBreaksNotSupportedWeekly
	}
	return nil
}

func (weeklyCadence) finalMisses(tracker *entity.Tracker, start, end, today time.Time, checkins []*entity.Checkin) int {
	weeks := make(map[int]struct{}, len(checkins))
	for _, c := range checkins {
		weeks[storedWeek(tracker, c)] = struct{}{}
	}

	cutoff := tracker.GraceCutoff(today)
	first := calendar.TrackerWeek(start, tracker.Start())
	last := calendar.TrackerWeek(end, tracker.Start())

	misses := 0
	for week := first; week <= last; week++ {
		if calendar.WeekEnd(week, tracker.Start()).After(cutoff) {
			break
		}
		if _, ok := weeks[week]; !ok {
			misses++
		}
	}
	return misses
}

func (weeklyCadence) gridRows(ctx context.Context, checkins repository.CheckinRepository, tracker *entity.Tracker, participants []*entity.Participant, today time.Time, _ int) ([]entity.GridRow, error) {
	last := calendar.Min(today, tracker.End())
	if last.Before(tracker.Start()) {
		return nil, nil
	}
	lastWeek := calendar.TrackerWeek(last, tracker.Start())

	list, err := checkins.ListByTracker(ctx, tracker.ChannelID, tracker.Start(), last)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	done := make(map[string]struct{}, len(list))
	for _, c := range list {
		done[fmt.Sprintf("%s|%d", c.UserID, storedWeek(tracker, c))] = struct{}{}
	}

	var rows []entity.GridRow
	for week := 0; week <= lastWeek; week++ {
		weekStart := calendar.WeekStart(week, tracker.Start())
		row := entity.GridRow{
			Label: fmt.Sprintf("Week %d (%s)", week+1, weekStart.Format("Jan 02")),
			Date:  weekStart,
			Cells: make([]entity.CellState, len(participants)),
		}
		for i, p := range participants {
			switch {
			case week < calendar.TrackerWeek(p.JoinDate(), tracker.Start()):
				row.Cells[i] = entity.CellMissing
			case hasKey(done, fmt.Sprintf("%s|%d", p.UserID, week)):
				row.Cells[i] = entity.CellDone
			case calendar.WeekEnd(week, tracker.Start()).Before(today):
				row.Cells[i] = entity.CellFinalMiss
			default:
				row.Cells[i] = entity.CellMissing
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// storedWeek prefers the persisted week index and derives it only for rows written without one
func storedWeek(tracker *entity.Tracker, c *entity.Checkin) int {
	if c.TrackerWeek != nil {
		return int(*c.TrackerWeek)
	}
	return calendar.TrackerWeek(c.Date, tracker.Start())
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
