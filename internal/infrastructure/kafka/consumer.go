package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracker-service/internal/config"
	"tracker-service/internal/domain/service"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// readErrorBackoff is the pause after a failed read before polling the broker again
const readErrorBackoff = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer feeds tracker events to the alert service
type Consumer struct {
	reader  messageReader
	topic   string
	alerts  service.AlertService
	logger  *zap.Logger
	backoff time.Duration
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, alerts service.AlertService, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:  reader,
		topic:   cfg.Topic,
		alerts:  alerts,
		logger:  logger,
		backoff: readErrorBackoff,
	}
}

// Start consumes until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer", zap.String("topic", c.topic))

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Stopping Kafka consumer...")
				return nil
			}
			c.logger.Error("Error reading message", zap.Error(err))

			select {
			case <-ctx.Done():
				c.logger.Info("Stopping Kafka consumer...")
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		// A failing message is logged and skipped
		if err := c.processMessage(ctx, message); err != nil {
			c.logger.Error("Error processing message",
				zap.Int64("offset", message.Offset),
				zap.Int("partition", message.Partition),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, message kafka.Message) error {
	event, err := DecodeEvent(message.Value)
	if err != nil {
		return err
	}

	c.logger.Debug("Received event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
	)

	if err := c.alerts.HandleEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.Type, err)
	}
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
