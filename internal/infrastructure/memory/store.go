package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"
	"tracker-service/pkg/calendar"
)

type participantKey struct {
	trackerID string
	userID    string
}

type emojiKey struct {
	trackerID string
	emoji     string
}

type checkinKey struct {
	trackerID string
	userID    string
	date      string
}

// Store keeps the four tracker collections in process memory.
// Unique keys mirror the Postgres constraints so both backends behave the same.
type Store struct {
	mu           sync.Mutex
	trackers     map[string]*entity.Tracker
	participants map[participantKey]*entity.Participant
	emojis       map[emojiKey]string
	checkins     map[checkinKey]*entity.Checkin
	bans         map[participantKey]*entity.Ban
	snapshots    map[string]struct{}
	now          func() time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		trackers:     make(map[string]*entity.Tracker),
		participants: make(map[participantKey]*entity.Participant),
		emojis:       make(map[emojiKey]string),
		checkins:     make(map[checkinKey]*entity.Checkin),
		bans:         make(map[participantKey]*entity.Ban),
		snapshots:    make(map[string]struct{}),
		now:          time.Now,
	}
}

// Trackers returns the tracker collection
func (s *Store) Trackers() repository.TrackerRepository { return trackerRepository{s} }

// Participants returns the participant collection
func (s *Store) Participants() repository.ParticipantRepository { return participantRepository{s} }

// Checkins returns the check-in collection
func (s *Store) Checkins() repository.CheckinRepository { return checkinRepository{s} }

// Bans returns the ban collection
func (s *Store) Bans() repository.BanRepository { return banRepository{s} }

// Snapshots returns the snapshot ledger
func (s *Store) Snapshots() repository.SnapshotLedger { return snapshotLedger{s} }

// removeParticipantLocked deletes a participant, frees its emoji and purges its check-ins
func (s *Store) removeParticipantLocked(trackerID, userID string) {
	key := participantKey{trackerID, userID}
	if p, ok := s.participants[key]; ok {
		delete(s.emojis, emojiKey{trackerID, p.Emoji})
		delete(s.participants, key)
	}
	for k := range s.checkins {
		if k.trackerID == trackerID && k.userID == userID {
			delete(s.checkins, k)
		}
	}
}

type trackerRepository struct{ s *Store }

func (r trackerRepository) Create(_ context.Context, tracker *entity.Tracker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.trackers[tracker.ChannelID]; exists {
		return repository.ErrTrackerExists
	}
	cp := *tracker
	r.s.trackers[tracker.ChannelID] = &cp
	return nil
}

func (r trackerRepository) GetByChannelID(_ context.Context, channelID string) (*entity.Tracker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.trackers[channelID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r trackerRepository) GetActiveByChannelID(ctx context.Context, channelID string) (*entity.Tracker, error) {
	t, err := r.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r trackerRepository) ListActive(_ context.Context) ([]*entity.Tracker, error) {
	return r.list(func(t *entity.Tracker) bool { return t.IsActive }), nil
}

func (r trackerRepository) ListActiveByFrequency(_ context.Context, frequency entity.Frequency) ([]*entity.Tracker, error) {
	return r.list(func(t *entity.Tracker) bool { return t.IsActive && t.Frequency == frequency }), nil
}

func (r trackerRepository) list(keep func(*entity.Tracker) bool) []*entity.Tracker {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var trackers []*entity.Tracker
	for _, t := range r.s.trackers {
		if keep(t) {
			cp := *t
			trackers = append(trackers, &cp)
		}
	}
	sort.Slice(trackers, func(i, j int) bool {
		return trackers[i].CreatedAt.Before(trackers[j].CreatedAt) ||
			(trackers[i].CreatedAt.Equal(trackers[j].CreatedAt) && trackers[i].ChannelID < trackers[j].ChannelID)
	})
	return trackers
}

func (r trackerRepository) SetLiveMessageID(_ context.Context, channelID, messageID string) error {
	return r.update(channelID, func(t *entity.Tracker) { t.LiveMessageID = &messageID })
}

func (r trackerRepository) SetInfoMessageID(_ context.Context, channelID, messageID string) error {
	return r.update(channelID, func(t *entity.Tracker) { t.InfoMessageID = &messageID })
}

func (r trackerRepository) update(channelID string, apply func(*entity.Tracker)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.trackers[channelID]
	if !ok {
		return repository.ErrNotFound
	}
	apply(t)
	t.UpdatedAt = r.s.now().UTC()
	return nil
}

func (r trackerRepository) Teardown(_ context.Context, channelID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.trackers, channelID)
	for k := range r.s.participants {
		if k.trackerID == channelID {
			delete(r.s.participants, k)
		}
	}
	for k := range r.s.emojis {
		if k.trackerID == channelID {
			delete(r.s.emojis, k)
		}
	}
	for k := range r.s.checkins {
		if k.trackerID == channelID {
			delete(r.s.checkins, k)
		}
	}
	for k := range r.s.bans {
		if k.trackerID == channelID {
			delete(r.s.bans, k)
		}
	}
	return nil
}

type participantRepository struct{ s *Store }

func (r participantRepository) Create(_ context.Context, participant *entity.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := participantKey{participant.TrackerID, participant.UserID}
	if _, exists := r.s.participants[key]; exists {
		return repository.ErrDuplicateParticipant
	}
	ek := emojiKey{participant.TrackerID, participant.Emoji}
	if _, taken := r.s.emojis[ek]; taken {
		return repository.ErrDuplicateEmoji
	}
	cp := *participant
	r.s.participants[key] = &cp
	r.s.emojis[ek] = participant.UserID
	return nil
}

func (r participantRepository) Get(_ context.Context, trackerID, userID string) (*entity.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.participants[participantKey{trackerID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r participantRepository) GetByEmoji(ctx context.Context, trackerID, emoji string) (*entity.Participant, error) {
	r.s.mu.Lock()
	userID, ok := r.s.emojis[emojiKey{trackerID, emoji}]
	r.s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.Get(ctx, trackerID, userID)
}

func (r participantRepository) ListByTracker(_ context.Context, trackerID string) ([]*entity.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var participants []*entity.Participant
	for k, p := range r.s.participants {
		if k.trackerID == trackerID {
			cp := *p
			participants = append(participants, &cp)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].UserID < participants[j].UserID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

func (r participantRepository) CountByTracker(_ context.Context, trackerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for k := range r.s.participants {
		if k.trackerID == trackerID {
			count++
		}
	}
	return count, nil
}

func (r participantRepository) Remove(_ context.Context, trackerID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.removeParticipantLocked(trackerID, userID)
	return nil
}

type checkinRepository struct{ s *Store }

func (r checkinRepository) Upsert(_ context.Context, checkin *entity.Checkin) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	date := calendar.StartOfDay(checkin.Date)
	key := checkinKey{checkin.TrackerID, checkin.UserID, calendar.Format(date)}
	now := r.s.now().UTC()

	if existing, ok := r.s.checkins[key]; ok {
		existing.Type = checkin.Type
		if checkin.TrackerWeek != nil {
			week := *checkin.TrackerWeek
			existing.TrackerWeek = &week
		}
		existing.UpdatedAt = now
		return false, nil
	}

	cp := *checkin
	cp.Date = date
	if checkin.TrackerWeek != nil {
		week := *checkin.TrackerWeek
		cp.TrackerWeek = &week
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.s.checkins[key] = &cp
	return true, nil
}

func (r checkinRepository) ListByTracker(_ context.Context, trackerID string, from, to time.Time) ([]*entity.Checkin, error) {
	return r.list(func(c *entity.Checkin) bool {
		return c.TrackerID == trackerID && calendar.InPeriod(c.Date, from, to)
	}), nil
}

func (r checkinRepository) ListByParticipant(_ context.Context, trackerID, userID string, from, to time.Time) ([]*entity.Checkin, error) {
	return r.list(func(c *entity.Checkin) bool {
		return c.TrackerID == trackerID && c.UserID == userID && calendar.InPeriod(c.Date, from, to)
	}), nil
}

func (r checkinRepository) CountByType(_ context.Context, trackerID, userID string, checkinType entity.CheckinType, from, to time.Time) (int, error) {
	return len(r.list(func(c *entity.Checkin) bool {
		return c.TrackerID == trackerID && c.UserID == userID && c.Type == checkinType &&
			calendar.InPeriod(c.Date, from, to)
	})), nil
}

func (r checkinRepository) list(keep func(*entity.Checkin) bool) []*entity.Checkin {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var checkins []*entity.Checkin
	for _, c := range r.s.checkins {
		if keep(c) {
			cp := *c
			checkins = append(checkins, &cp)
		}
	}
	sort.Slice(checkins, func(i, j int) bool {
		if checkins[i].Date.Equal(checkins[j].Date) {
			return checkins[i].UserID < checkins[j].UserID
		}
		return checkins[i].Date.Before(checkins[j].Date)
	})
	return checkins
}

type banRepository struct{ s *Store }

func (r banRepository) Exists(_ context.Context, trackerID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.bans[participantKey{trackerID, userID}]
	return ok, nil
}

func (r banRepository) BanParticipant(_ context.Context, ban *entity.Ban) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := participantKey{ban.TrackerID, ban.UserID}
	if _, exists := r.s.bans[key]; !exists {
		cp := *ban
		r.s.bans[key] = &cp
	}
	r.s.removeParticipantLocked(ban.TrackerID, ban.UserID)
	return nil
}

func (r banRepository) Delete(_ context.Context, trackerID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := participantKey{trackerID, userID}
	if _, ok := r.s.bans[key]; !ok {
		return false, nil
	}
	delete(r.s.bans, key)
	return true, nil
}

type snapshotLedger struct{ s *Store }

func (l snapshotLedger) MarkPosted(_ context.Context, trackerID, period string) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	key := trackerID + "|" + period
	if _, taken := l.s.snapshots[key]; taken {
		return false, nil
	}
	l.s.snapshots[key] = struct{}{}
	return true, nil
}

func (l snapshotLedger) Release(_ context.Context, trackerID, period string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	delete(l.s.snapshots, trackerID+"|"+period)
	return nil
}
