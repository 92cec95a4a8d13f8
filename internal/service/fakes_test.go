package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/gateway"
	"tracker-service/internal/domain/service"
	"tracker-service/internal/infrastructure/memory"
	"tracker-service/pkg/calendar"

	"go.uber.org/zap/zaptest"
)

var errGatewayDown = errors.New("gateway down")

type sentMessage struct {
	channelID string
	messageID string
	msg       gateway.Message
}

// fakeMessenger records every outbound call. Channels are threads unless listed in notThreads.
type fakeMessenger struct {
	mu         sync.Mutex
	nextID     int
	notThreads map[string]bool
	failSend   map[string]bool
	missing    map[string]bool // message ids that FetchMessage reports as deleted
	messages   map[string]gateway.Message
	sent       []sentMessage
	edits      []string
	pins       []string
	reactions  []string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		notThreads: make(map[string]bool),
		failSend:   make(map[string]bool),
		missing:    make(map[string]bool),
		messages:   make(map[string]gateway.Message),
	}
}

func (m *fakeMessenger) FetchChannel(_ context.Context, channelID string) (*gateway.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &gateway.Channel{ID: channelID, Name: "thread-" + channelID, IsThread: !m.notThreads[channelID]}, nil
}

func (m *fakeMessenger) FetchMessage(_ context.Context, channelID, messageID string) (*gateway.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[messageID]; !ok || m.missing[messageID] {
		return nil, gateway.ErrNotFound
	}
	return &gateway.MessageRef{ID: messageID, ChannelID: channelID}, nil
}

func (m *fakeMessenger) SendMessage(_ context.Context, channelID string, msg gateway.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend[channelID] {
		return "", errGatewayDown
	}
	m.nextID++
	id := fmt.Sprintf("msg-%d", m.nextID)
	m.messages[id] = msg
	m.sent = append(m.sent, sentMessage{channelID: channelID, messageID: id, msg: msg})
	return id, nil
}

func (m *fakeMessenger) EditMessage(_ context.Context, _, messageID string, msg gateway.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[messageID] = msg
	m.edits = append(m.edits, messageID)
	return nil
}

func (m *fakeMessenger) PinMessage(_ context.Context, _, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins = append(m.pins, messageID)
	return nil
}

func (m *fakeMessenger) React(_ context.Context, _, messageID, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, messageID+" "+emoji)
	return nil
}

// sentWithTitle returns messages whose embed title starts with prefix
func (m *fakeMessenger) sentWithTitle(prefix string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.msg.Embed != nil && len(s.msg.Embed.Title) >= len(prefix) && s.msg.Embed.Title[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*entity.TrackerEvent
}

func (p *fakePublisher) Publish(_ context.Context, event *entity.TrackerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) ofType(eventType entity.EventType) []*entity.TrackerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*entity.TrackerEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// harness wires every service against the memory store with a movable clock
type harness struct {
	now         time.Time
	store       *memory.Store
	stores      Stores
	settings    Settings
	messenger   *fakeMessenger
	publisher   *fakePublisher
	renderer    service.RendererService
	enrollment  service.EnrollmentService
	checkins    service.CheckinService
	maintenance service.MaintenanceService
}

func newHarness(t *testing.T, now time.Time) *harness {
	return newHarnessWithSettings(t, now, DefaultSettings())
}

func newHarnessWithSettings(t *testing.T, now time.Time, settings Settings) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		now:   now,
		store: store,
		stores: Stores{
			Trackers:     store.Trackers(),
			Participants: store.Participants(),
			Checkins:     store.Checkins(),
			Bans:         store.Bans(),
			Snapshots:    store.Snapshots(),
		},
		settings:  settings,
		messenger: newFakeMessenger(),
		publisher: &fakePublisher{},
	}

	logger := zaptest.NewLogger(t)
	clock := func() time.Time { return h.now }

	h.renderer = NewRendererService(h.stores, h.messenger, settings, logger, clock)
	h.enrollment = NewEnrollmentService(h.stores, h.messenger, h.renderer, h.publisher, settings, logger, clock)
	h.checkins = NewCheckinService(h.stores, h.messenger, h.renderer, h.publisher, logger, clock)
	h.maintenance = NewMaintenanceService(h.stores, h.messenger, h.renderer, h.publisher, settings, logger, clock)
	return h
}

func (h *harness) setToday(t *testing.T, date string) {
	t.Helper()
	h.now = day(t, date).Add(10 * time.Hour)
}

type trackerOpts struct {
	frequency entity.Frequency
	grace     *int32
	maxBreaks *int32
	maxMisses *int32
}

func (h *harness) createTracker(t *testing.T, channelID, start, end string, opts trackerOpts) *entity.Tracker {
	t.Helper()
	if opts.frequency == "" {
		opts.frequency = entity.FrequencyDaily
	}
	tracker, err := h.enrollment.CreateTracker(context.Background(), service.CreateTrackerInput{
		ChannelID:        channelID,
		DisplayName:      "Tracker " + channelID,
		StartDate:        day(t, start),
		EndDate:          day(t, end),
		Frequency:        opts.frequency,
		GracePeriodDays:  opts.grace,
		MaxBreaksPerWeek: opts.maxBreaks,
		MaxMisses:        opts.maxMisses,
		CreatedBy:        "mod",
	})
	if err != nil {
		t.Fatalf("CreateTracker(%s) error = %v", channelID, err)
	}
	return tracker
}

// joinOn enrolls userID with the clock set to date
func (h *harness) joinOn(t *testing.T, date, channelID, userID, emoji string) {
	t.Helper()
	saved := h.now
	h.setToday(t, date)
	if _, err := h.enrollment.Join(context.Background(), channelID, userID, emoji); err != nil {
		t.Fatalf("Join(%s, %s) error = %v", channelID, userID, err)
	}
	h.now = saved
}

// seedCheckin writes a check-in straight to the store, bypassing validation
func (h *harness) seedCheckin(t *testing.T, channelID, userID, date string, checkinType entity.CheckinType, week *int32) {
	t.Helper()
	_, err := h.stores.Checkins.Upsert(context.Background(), &entity.Checkin{
		TrackerID:   channelID,
		UserID:      userID,
		Date:        day(t, date),
		Type:        checkinType,
		TrackerWeek: week,
	})
	if err != nil {
		t.Fatalf("seed check-in: %v", err)
	}
}

func (h *harness) tracker(t *testing.T, channelID string) *entity.Tracker {
	t.Helper()
	tracker, err := h.stores.Trackers.GetByChannelID(context.Background(), channelID)
	if err != nil {
		t.Fatalf("GetByChannelID(%s) error = %v", channelID, err)
	}
	return tracker
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func int32Ptr(v int32) *int32 {
	return &v
}
