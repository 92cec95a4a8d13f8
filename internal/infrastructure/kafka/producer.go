package kafka

import (
	"context"
	"fmt"
	"time"

	"tracker-service/internal/config"
	"tracker-service/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes tracker events to Kafka
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // events of one tracker stay ordered
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver events", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Publish writes one event keyed by tracker
func (p *Producer) Publish(ctx context.Context, event *entity.TrackerEvent) error {
	data, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.TrackerID),
		Value: data,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Published event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
		zap.String("tracker_id", event.TrackerID),
	)
	return nil
}

// Close flushes pending messages and closes the producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
