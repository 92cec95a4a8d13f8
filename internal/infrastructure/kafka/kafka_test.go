package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker-service/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"
)

func TestEventEnvelope(t *testing.T) {
	event := &entity.TrackerEvent{
		EventID:     "e1",
		Type:        entity.EventParticipantBanned,
		TrackerID:   "t1",
		TrackerName: "Run club",
		UserID:      "alice",
		Emoji:       "🦊",
		Reason:      entity.BanReasonMaxMisses,
		OccurredAt:  time.Date(2025, 1, 10, 0, 0, 1, 500, time.UTC),
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if !got.OccurredAt.Equal(event.OccurredAt) {
		t.Fatalf("occurred_at = %v, want %v", got.OccurredAt, event.OccurredAt)
	}
	got.OccurredAt = event.OccurredAt
	if *got != *event {
		t.Fatalf("decoded = %+v, want %+v", got, event)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected an error for malformed bytes")
	}
	if _, err := DecodeEvent(nil); err == nil {
		t.Fatal("expected an error for an event without a type")
	}
}

type recordingAlerts struct {
	events []*entity.TrackerEvent
	err    error
}

func (a *recordingAlerts) HandleEvent(_ context.Context, event *entity.TrackerEvent) error {
	a.events = append(a.events, event)
	return a.err
}

func TestProcessMessage(t *testing.T) {
	alerts := &recordingAlerts{}
	c := &Consumer{alerts: alerts, logger: zaptest.NewLogger(t)}

	data, err := EncodeEvent(&entity.TrackerEvent{EventID: "e1", Type: entity.EventParticipantBanned, TrackerID: "t1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.processMessage(context.Background(), kafka.Message{Value: data}); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}
	if len(alerts.events) != 1 || alerts.events[0].TrackerID != "t1" {
		t.Fatalf("events = %+v", alerts.events)
	}

	alerts.err = errors.New("smtp down")
	if err := c.processMessage(context.Background(), kafka.Message{Value: data}); !errors.Is(err, alerts.err) {
		t.Fatalf("processMessage() error = %v, want wrapped handler error", err)
	}
}

type failingReader struct {
	reads int
}

func (r *failingReader) ReadMessage(context.Context) (kafka.Message, error) {
	r.reads++
	return kafka.Message{}, errors.New("broker unavailable")
}

func (r *failingReader) Close() error { return nil }

func TestStartBacksOffOnReadErrors(t *testing.T) {
	reader := &failingReader{}
	c := &Consumer{
		reader:  reader,
		topic:   "tracker-events",
		alerts:  &recordingAlerts{},
		logger:  zaptest.NewLogger(t),
		backoff: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	if reader.reads == 0 || reader.reads > 4 {
		t.Fatalf("reads = %d, want a handful with backoff between them", reader.reads)
	}
}

func TestStartStopsDuringBackoff(t *testing.T) {
	c := &Consumer{
		reader:  &failingReader{},
		alerts:  &recordingAlerts{},
		logger:  zaptest.NewLogger(t),
		backoff: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() blocked in backoff after cancel")
	}
}
